package middleware

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"

	"github.com/aretw0/perennial/pkg/ports"
)

type compressionStore struct {
	next ports.BlobStore
}

// NewCompression creates a middleware that gzips payloads before they reach
// the backend. Reads transparently pass through payloads written before
// compression was enabled, so it can be turned on for existing sessions.
//
// When combined with encryption, compression must sit closer to the
// plaintext (listed first in Chain): ciphertext does not compress.
func NewCompression() Middleware {
	return func(next ports.BlobStore) ports.BlobStore {
		return &compressionStore{next: next}
	}
}

func (m *compressionStore) Put(ctx context.Context, key string, data []byte) error {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return fmt.Errorf("compress payload: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compress payload: %w", err)
	}
	return m.next.Put(ctx, key, buf.Bytes())
}

func (m *compressionStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := m.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !isGzip(data) {
		return data, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decompress payload: %w", err)
	}
	defer zr.Close()
	plain, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress payload: %w", err)
	}
	return plain, nil
}

func (m *compressionStore) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

func (m *compressionStore) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func isGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b
}
