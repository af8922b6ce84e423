package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/arbor/pkg/attr"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// KeySize is the length of an AES-256 key.
const KeySize = 32

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey encrypts every saved execution.
	ActiveKey []byte
	// FallbackKeys are tried in order when the active key cannot decrypt a
	// snapshot, so keys can be rotated without rewriting the store.
	FallbackKeys [][]byte
}

// envelopeKey holds the ciphertext in the conversation scope of the envelope.
const envelopeKey = "__encrypted__"

var (
	// ErrNotEncrypted is returned when loading a snapshot that is not an envelope.
	ErrNotEncrypted = errors.New("execution is missing encrypted data envelope")
	// ErrUndecryptable is returned when no configured key opens a snapshot.
	ErrUndecryptable = errors.New("decryption failed with all available keys")
)

type encryptionMiddleware struct {
	next ports.ExecutionStore
	keys []cipher.AEAD // keys[0] seals
}

// NewEncryption creates a middleware that stores each execution as an
// AES-GCM sealed envelope. The execution key is authenticated with the
// ciphertext, so an envelope copied under another key does not open.
func NewEncryption(config EncryptionConfig) (Middleware, error) {
	keys := make([]cipher.AEAD, 0, 1+len(config.FallbackKeys))
	for i, k := range append([][]byte{config.ActiveKey}, config.FallbackKeys...) {
		if len(k) != KeySize {
			return nil, fmt.Errorf("key %d must be %d bytes (AES-256), got %d", i, KeySize, len(k))
		}
		block, err := aes.NewCipher(k)
		if err != nil {
			return nil, err
		}
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
		keys = append(keys, gcm)
	}
	return func(next ports.ExecutionStore) ports.ExecutionStore {
		return &encryptionMiddleware{next: next, keys: keys}
	}, nil
}

// NewEncryptionMiddleware is NewEncryption for static keys. It panics on an
// invalid key.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	mw, err := NewEncryption(config)
	if err != nil {
		panic(err)
	}
	return mw
}

func (m *encryptionMiddleware) Save(ctx context.Context, exec *domain.Execution) error {
	plain, err := json.Marshal(exec)
	if err != nil {
		return fmt.Errorf("failed to marshal execution: %w", err)
	}
	sealed, err := m.seal(plain, []byte(exec.Key))
	if err != nil {
		return fmt.Errorf("failed to encrypt execution: %w", err)
	}

	// The envelope keeps the key, flow and status visible for listing and
	// monitoring. Sessions, scopes and history only exist in the ciphertext.
	envelope := domain.NewExecution(exec.Key, exec.FlowID)
	envelope.Status = exec.Status
	envelope.Sequence = exec.Sequence
	envelope.CreatedAt = exec.CreatedAt
	envelope.UpdatedAt = exec.UpdatedAt
	envelope.Conversation = attr.Of(envelopeKey, base64.StdEncoding.EncodeToString(sealed))
	return m.next.Save(ctx, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, key string) (*domain.Execution, error) {
	envelope, err := m.next.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	encoded, ok := envelope.Conversation.Get(envelopeKey).(string)
	if !ok {
		return nil, ErrNotEncrypted
	}
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}
	plain, err := m.open(sealed, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt execution %s: %w", key, err)
	}

	var exec domain.Execution
	if err := json.Unmarshal(plain, &exec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted execution: %w", err)
	}
	return &exec, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// seal returns nonce || ciphertext.
func (m *encryptionMiddleware) seal(plain, additional []byte) ([]byte, error) {
	gcm := m.keys[0]
	nonce := make([]byte, gcm.NonceSize(), gcm.NonceSize()+len(plain)+gcm.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plain, additional), nil
}

func (m *encryptionMiddleware) open(sealed, additional []byte) ([]byte, error) {
	for _, gcm := range m.keys {
		if len(sealed) < gcm.NonceSize() {
			return nil, errors.New("ciphertext too short")
		}
		nonce, body := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
		if plain, err := gcm.Open(nil, nonce, body, additional); err == nil {
			return plain, nil
		}
	}
	return nil, ErrUndecryptable
}
