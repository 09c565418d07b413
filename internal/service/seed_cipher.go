package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for the legacy seed-protection key. Changing any of them
// makes every stored LEGACY_DB seed unreadable.
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	seedKeyLen    = 32
)

// seedAAD binds ciphertexts to their purpose; a blob sealed for anything else will not open.
var seedAAD = []byte("rwa-signing-gateway/legacy-seed/v1")

// DeriveSeedKey stretches the shared service secret into an AES-256 key.
// It is deterministic so seeds sealed at provisioning time open here.
func DeriveSeedKey(secret, salt string) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("seed secret is empty")
	}
	if len(salt) < 8 {
		return nil, errors.New("kdf salt must be at least 8 bytes")
	}
	return argon2.IDKey([]byte(secret), []byte(salt), argon2Time, argon2Memory, argon2Threads, seedKeyLen), nil
}

// SeedCipher implements ports.EncryptionService for LEGACY_DB seeds with AES-256-GCM.
// Ciphertexts are hex(nonce || sealed).
type SeedCipher struct {
	aead cipher.AEAD
}

// NewSeedCipher derives the key from the shared secret.
func NewSeedCipher(secret, salt string) (*SeedCipher, error) {
	key, err := DeriveSeedKey(secret, salt)
	if err != nil {
		return nil, fmt.Errorf("deriving seed key: %w", err)
	}
	return NewSeedCipherFromKey(key)
}

// NewSeedCipherFromKey uses a raw 32-byte key.
func NewSeedCipherFromKey(key []byte) (*SeedCipher, error) {
	if len(key) != seedKeyLen {
		return nil, fmt.Errorf("seed key must be %d bytes, got %d", seedKeyLen, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return &SeedCipher{aead: aead}, nil
}

func (c *SeedCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	return hex.EncodeToString(c.aead.Seal(nonce, nonce, []byte(plaintext), seedAAD)), nil
}

func (c *SeedCipher) Decrypt(ciphertextHex string) (string, error) {
	raw, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return "", fmt.Errorf("decoding ciphertext: %w", err)
	}
	n := c.aead.NonceSize()
	if len(raw) < n+c.aead.Overhead() {
		return "", errors.New("ciphertext too short")
	}
	plain, err := c.aead.Open(nil, raw[:n], raw[n:], seedAAD)
	if err != nil {
		return "", fmt.Errorf("decrypting seed: %w", err)
	}
	return string(plain), nil
}
