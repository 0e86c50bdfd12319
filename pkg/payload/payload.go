// Package payload encrypts the protected payload under a key derived from
// the shared secret, so that only a reconstructed secret can open it.
package payload

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/bsc-digital-identity/zk-compliance/pkg/field"
)

const keyInfo = "zk-compliance/payload/v1"

var ErrMalformed = errors.New("payload: sealed payload too short")

func deriveKey(f *field.Field, secret field.Scalar) ([]byte, error) {
	ikm, err := f.ToBytes(secret, field.BigEndian, f.ByteLen())
	if err != nil {
		return nil, err
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, ikm, nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("payload: derive key: %w", err)
	}
	return key, nil
}

// Seal encrypts plaintext with XChaCha20-Poly1305. The output is the nonce
// followed by the ciphertext. aad binds the payload to its context, usually
// the proof request address.
func Seal(f *field.Field, secret field.Scalar, plaintext, aad []byte) ([]byte, error) {
	key, err := deriveKey(f, secret)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, aad), nil
}

func Open(f *field.Field, secret field.Scalar, sealed, aad []byte) ([]byte, error) {
	key, err := deriveKey(f, secret)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrMalformed
	}
	nonce, ct := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	out, err := aead.Open(nil, nonce, ct, aad)
	if err != nil {
		return nil, fmt.Errorf("payload: open: %w", err)
	}
	return out, nil
}
