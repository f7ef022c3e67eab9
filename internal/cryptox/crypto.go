// Package cryptox implements at-rest encryption of coordinate values.
//
// A coordinate is serialized at full float64 precision, sealed with
// AES-256-GCM under a fresh random 12-byte nonce and returned as
// base64(nonce || ciphertext || tag).
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/bowwow/internal/common"
	"golang.org/x/crypto/argon2"
)

// KeySize is the required key length in bytes (AES-256).
const KeySize = 32

// LocationCodec encrypts and decrypts single coordinate values.
// It is safe for concurrent use.
type LocationCodec struct {
	aead cipher.AEAD
}

// NewLocationCodec returns a codec bound to key. The key must be exactly
// KeySize bytes, otherwise common.ErrInvalidKey is returned.
func NewLocationCodec(key []byte) (*LocationCodec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", common.ErrInvalidKey, KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidKey, err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidKey, err)
	}

	return &LocationCodec{aead: aead}, nil
}

// Encrypt seals v and returns a transport-safe blob.
func (c *LocationCodec) Encrypt(v float64) (string, error) {
	plaintext := []byte(strconv.FormatFloat(v, 'f', -1, 64))

	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a blob produced by Encrypt. Malformed input and tag
// mismatches are reported as common.ErrDecryptionFailed.
func (c *LocationCodec) Decrypt(blob string) (float64, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}

	ns := c.aead.NonceSize()
	if len(raw) < ns+c.aead.Overhead() {
		return 0, fmt.Errorf("%w: blob too short", common.ErrDecryptionFailed)
	}

	plaintext, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}

	v, err := strconv.ParseFloat(string(plaintext), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}
	return v, nil
}

// ParseKey decodes a base64 (standard or URL alphabet) encoded key.
func ParseKey(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, fmt.Errorf("%w: key is empty", common.ErrInvalidKey)
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		key, err = base64.URLEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidKey, err)
		}
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", common.ErrInvalidKey, KeySize, len(key))
	}
	return key, nil
}

// DeriveKey stretches a passphrase into a KeySize key with Argon2id.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, KeySize)
}

// GenerateKey returns a fresh random key. Used by tooling and tests only;
// the server never invents a key on its own.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}
