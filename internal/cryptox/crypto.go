// Package cryptox implements client-side credential protection: a password is
// encrypted with the server's RSA public key (OAEP, SHA-256) before it leaves
// the process, and only the base64 ciphertext is ever transmitted.
package cryptox

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrEncryptionFailure is returned when the key is malformed or the RSA
// primitive rejects the input (for example, a plaintext that is too long).
var ErrEncryptionFailure = errors.New("encryption failure")

// PublicKey is the server key as published by the API: base64 of the
// SubjectPublicKeyInfo (SPKI) DER bytes. It is used for encryption only.
type PublicKey string

// EncryptedSecret is base64 of the OAEP ciphertext.
type EncryptedSecret string

// Encryptor performs one-shot RSA-OAEP encryption. The parsed key handle of
// the most recently used PublicKey is cached, so repeated submissions with the
// same key skip the DER parse. Safe for concurrent use.
type Encryptor struct {
	mu        sync.Mutex
	cachedKey PublicKey
	cachedPub *rsa.PublicKey
}

func NewEncryptor() *Encryptor {
	return &Encryptor{}
}

// Encrypt encodes plaintext as UTF-8, encrypts it with RSA-OAEP/SHA-256 under
// key and returns the ciphertext as standard base64. OAEP is randomized, so
// two calls with identical input produce different output.
//
// All failures are reported as errors wrapping ErrEncryptionFailure.
func (e *Encryptor) Encrypt(plaintext string, key PublicKey) (EncryptedSecret, error) {
	pub, err := e.importKey(key)
	if err != nil {
		return "", err
	}

	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, []byte(plaintext), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncryptionFailure, err)
	}

	return EncryptedSecret(base64.StdEncoding.EncodeToString(ciphertext)), nil
}

func (e *Encryptor) importKey(key PublicKey) (*rsa.PublicKey, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cachedPub != nil && e.cachedKey == key {
		return e.cachedPub, nil
	}

	pub, err := ImportPublicKey(key)
	if err != nil {
		return nil, err
	}

	e.cachedKey = key
	e.cachedPub = pub
	return pub, nil
}

// ImportPublicKey decodes a base64 SPKI key into an RSA public key.
func ImportPublicKey(key PublicKey) (*rsa.PublicKey, error) {
	raw := strings.TrimSpace(string(key))
	if raw == "" {
		return nil, fmt.Errorf("%w: empty public key", ErrEncryptionFailure)
	}

	der, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decode public key: %w", ErrEncryptionFailure, err)
	}

	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: parse public key: %w", ErrEncryptionFailure, err)
	}

	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: public key is %T, not RSA", ErrEncryptionFailure, parsed)
	}

	return pub, nil
}

// MaxPlaintextSize is the largest message, in bytes, that fits into one
// OAEP/SHA-256 block under pub.
func MaxPlaintextSize(pub *rsa.PublicKey) int {
	return pub.Size() - 2*sha256.Size - 2
}

// EncodePublicKey renders pub in the wire format accepted by ImportPublicKey.
func EncodePublicKey(pub *rsa.PublicKey) (PublicKey, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	return PublicKey(base64.StdEncoding.EncodeToString(der)), nil
}
