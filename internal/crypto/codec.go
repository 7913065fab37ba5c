// Package crypto implements the authenticated token codec used for both
// auth tokens and scan payloads. A Codec is bound to one 32-byte key;
// the two concerns differ only in which key they are constructed with.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// KeyLength is the required secret key length in bytes.
	KeyLength = 32
	// nonceLength matches the 16-byte IV the token format was issued with.
	nonceLength = 16
	// tagLength is the GCM authentication tag size.
	tagLength = 16
)

// ErrKeyLength is returned when the provided key length is invalid.
var ErrKeyLength = errors.New("crypto: key must be exactly 32 bytes")

// ErrDecrypt is returned for every decryption failure. Malformed tokens
// and failed tag verification are deliberately indistinguishable.
var ErrDecrypt = errors.New("crypto: token decryption failed")

// Codec performs authenticated encryption and decryption with a fixed key.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec constructs a Codec from a 32-byte secret key.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != KeyLength {
		return nil, ErrKeyLength
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, nonceLength)
	if err != nil {
		return nil, fmt.Errorf("create AEAD: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce and returns the token
// as hex(nonce):hex(tag):hex(ciphertext).
func (c *Codec) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, nonceLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nil, nonce, plaintext, nil)
	// Seal appends the tag after the ciphertext.
	ciphertext := sealed[:len(sealed)-tagLength]
	tag := sealed[len(sealed)-tagLength:]
	return strings.Join([]string{
		hex.EncodeToString(nonce),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext),
	}, ":"), nil
}

// Decrypt opens a token produced by Encrypt. Any malformed, truncated or
// tampered token yields ErrDecrypt.
func (c *Codec) Decrypt(token string) ([]byte, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 3 {
		return nil, ErrDecrypt
	}
	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceLength {
		return nil, ErrDecrypt
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != tagLength {
		return nil, ErrDecrypt
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return nil, ErrDecrypt
	}
	plaintext, err := c.aead.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}
