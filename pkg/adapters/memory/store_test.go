package memory_test

import (
	"testing"

	"github.com/aretw0/perennial/pkg/adapters/memory"
	"github.com/aretw0/perennial/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.New()
	ports.RunBlobStoreContract(t, store)
}
