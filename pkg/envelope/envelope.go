// Package envelope seals JSON payloads for a single identity. A blob sealed for one identity
// token cannot be opened with another.
package envelope

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	version  byte = 1
	saltSize      = 16
)

var (
	// ErrOpenFailed indicates the blob was sealed for another identity, tampered with, or malformed.
	ErrOpenFailed = errors.New("envelope could not be opened")
	// ErrMissingIdentity indicates an empty identity token.
	ErrMissingIdentity = errors.New("identity token is required")
)

// Sealer encrypts payloads with keys derived from a server secret and an identity token.
type Sealer struct {
	secret []byte
}

// NewSealer constructs a sealer. The secret must be at least 32 bytes.
func NewSealer(secret string) (*Sealer, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("envelope secret must be at least 32 bytes")
	}
	return &Sealer{secret: []byte(secret)}, nil
}

// Seal marshals v to JSON and encrypts it for identity.
func (s *Sealer) Seal(identity string, v any) (string, error) {
	if identity == "" {
		return "", ErrMissingIdentity
	}

	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal envelope payload: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	aead, err := s.aead(salt, identity)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	// version and salt are authenticated so neither can be swapped
	aad := append([]byte{version}, salt...)
	header := append(append([]byte{}, aad...), nonce...)

	sealed := aead.Seal(header, nonce, plaintext, aad)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts blob for identity and unmarshals the payload into v.
func (s *Sealer) Open(identity, blob string, v any) error {
	if identity == "" {
		return ErrMissingIdentity
	}

	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return ErrOpenFailed
	}

	nonceSize := chacha20poly1305.NonceSizeX
	if len(raw) < 1+saltSize+nonceSize || raw[0] != version {
		return ErrOpenFailed
	}

	salt := raw[1 : 1+saltSize]
	nonce := raw[1+saltSize : 1+saltSize+nonceSize]
	ciphertext := raw[1+saltSize+nonceSize:]

	aead, err := s.aead(salt, identity)
	if err != nil {
		return err
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, raw[:1+saltSize])
	if err != nil {
		return ErrOpenFailed
	}

	if err := json.Unmarshal(plaintext, v); err != nil {
		return fmt.Errorf("unmarshal envelope payload: %w", err)
	}
	return nil
}

func (s *Sealer) aead(salt []byte, identity string) (cipher.AEAD, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, s.secret, salt, []byte(identity)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return aead, nil
}
