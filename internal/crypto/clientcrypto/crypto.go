// Package clientcrypto seals client-side state (the persisted session) at rest.
package clientcrypto

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Params
const (
	KeyLen  = 32
	SaltLen = 16

	argonTime    uint32 = 3
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 1
)

// ErrShort is returned when a sealed blob cannot even hold a nonce.
var ErrShort = errors.New("sealed blob too short")

func Rand(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// DeriveKEK derives a key-encryption key from a passphrase using Argon2id.
func DeriveKEK(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, KeyLen)
}

// WrapKey encrypts the session key with a KEK.
func WrapKey(kek, key []byte) ([]byte, error) {
	return seal(kek, key, nil)
}

// UnwrapKey decrypts a key produced by WrapKey.
func UnwrapKey(kek, wrapped []byte) ([]byte, error) {
	return open(kek, wrapped, nil)
}

// RecordKey derives a per-record key via HKDF-SHA256 with the record name as info.
func RecordKey(sessionKey []byte, record string) ([]byte, error) {
	r := hkdf.New(sha256.New, sessionKey, nil, []byte(record))
	key := make([]byte, KeyLen)
	_, err := r.Read(key)
	return key, err
}

// Seal encrypts plaintext for the named record. The record name is bound as AAD,
// so a blob copied under another name fails to open.
func Seal(sessionKey []byte, record string, plaintext []byte) ([]byte, error) {
	key, err := RecordKey(sessionKey, record)
	if err != nil {
		return nil, err
	}
	return seal(key, plaintext, []byte(record))
}

// Open decrypts a blob produced by Seal for the same record name.
func Open(sessionKey []byte, record string, blob []byte) ([]byte, error) {
	key, err := RecordKey(sessionKey, record)
	if err != nil {
		return nil, err
	}
	return open(key, blob, []byte(record))
}

// nonce || XChaCha20-Poly1305(ciphertext)
func seal(key, plaintext, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce, err := Rand(chacha20poly1305.NonceSizeX)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, aad), nil
}

func open(key, blob, aad []byte) ([]byte, error) {
	if len(blob) < chacha20poly1305.NonceSizeX {
		return nil, ErrShort
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := blob[:chacha20poly1305.NonceSizeX]
	return aead.Open(nil, nonce, blob[chacha20poly1305.NonceSizeX:], aad)
}
