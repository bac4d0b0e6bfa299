package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/perennial/pkg/ports"
)

// envelopeVersion identifies the on-disk encryption format.
const envelopeVersion = 1

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

// envelope is the stored shape of an encrypted payload. Nonce and Data are
// base64 in JSON via the standard []byte encoding.
type envelope struct {
	V     int    `json:"v"`
	Nonce []byte `json:"nonce"`
	Data  []byte `json:"data"`
}

type encryptionStore struct {
	next   ports.BlobStore
	config EncryptionConfig
}

// NewEncryption creates a middleware that encrypts payloads at rest using
// AES-256-GCM. Reads try the active key first, then each fallback key, so
// keys can be rotated without re-encrypting existing sessions up front.
func NewEncryption(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	for _, key := range config.FallbackKeys {
		if len(key) != 32 {
			panic("fallback keys must be 32 bytes (AES-256)")
		}
	}
	return func(next ports.BlobStore) ports.BlobStore {
		return &encryptionStore{next: next, config: config}
	}
}

func (m *encryptionStore) Put(ctx context.Context, key string, data []byte) error {
	nonce, sealed, err := encrypt(data, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("encrypt payload: %w", err)
	}
	wrapped, err := json.Marshal(envelope{V: envelopeVersion, Nonce: nonce, Data: sealed})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return m.next.Put(ctx, key, wrapped)
}

func (m *encryptionStore) Get(ctx context.Context, key string) ([]byte, error) {
	wrapped, err := m.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(wrapped, &env); err != nil || env.V == 0 || len(env.Nonce) == 0 {
		// Fail secure: with encryption configured, a payload that is not an
		// envelope is treated as corrupt rather than passed through.
		return nil, errors.New("payload is not an encryption envelope")
	}
	if env.V != envelopeVersion {
		return nil, fmt.Errorf("unsupported envelope version %d", env.V)
	}

	plain, err := decryptWithRotation(env, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("decrypt payload: %w", err)
	}
	return plain, nil
}

func (m *encryptionStore) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

func (m *encryptionStore) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func encrypt(plaintext, key []byte) (nonce, sealed []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, err
	}

	return nonce, gcm.Seal(nil, nonce, plaintext, nil), nil
}

func decryptWithRotation(env envelope, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	// Try active key first
	if plain, err := decrypt(env, activeKey); err == nil {
		return plain, nil
	}

	// Try fallbacks in order
	for _, key := range fallbackKeys {
		if plain, err := decrypt(env, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(env envelope, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(env.Nonce) != gcm.NonceSize() {
		return nil, errors.New("bad nonce size")
	}

	return gcm.Open(nil, env.Nonce, env.Data, nil)
}
