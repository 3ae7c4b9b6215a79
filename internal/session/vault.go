// Package session manages per-account authenticated sessions: encrypted
// credential artifacts on disk, their discovery, and the HTTP channel that
// executes platform operations under an account's session identity.
package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// pbkdf2Iterations is the OWASP-recommended minimum for HMAC-SHA256.
	pbkdf2Iterations = 480_000
	// saltLen is the random salt length in bytes.
	saltLen = 16
	// aesKeyLen is the derived AES-256 key length.
	aesKeyLen = 32
	// vaultVersion is the encrypted-artifact JSON schema version.
	vaultVersion = 1
)

// vaultJSON is the on-disk format for an encrypted session artifact.
type vaultJSON struct {
	Version    int    `json:"version"`
	Salt       string `json:"salt"`       // base64 standard encoding
	Nonce      string `json:"nonce"`      // base64 standard encoding
	Ciphertext string `json:"ciphertext"` // base64 standard encoding
}

// Seal encrypts an arbitrary plaintext with a password using
// PBKDF2-HMAC-SHA256 key derivation and AES-256-GCM authenticated
// encryption. It returns the JSON blob suitable for writing to disk.
func Seal(plaintext []byte, password string) ([]byte, error) {
	if password == "" {
		return nil, errors.New("session: password must not be empty")
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("session: generating salt: %w", err)
	}

	derivedKey := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, aesKeyLen, sha256.New)

	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return nil, fmt.Errorf("session: creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("session: creating GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("session: generating nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	out := vaultJSON{
		Version:    vaultVersion,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	}

	return json.MarshalIndent(out, "", "  ")
}

// Open decrypts a JSON blob produced by Seal, returning the plaintext.
func Open(sealed []byte, password string) ([]byte, error) {
	if password == "" {
		return nil, errors.New("session: password must not be empty")
	}

	var stored vaultJSON
	if err := json.Unmarshal(sealed, &stored); err != nil {
		return nil, fmt.Errorf("session: parsing vault JSON: %w", err)
	}
	if stored.Version != vaultVersion {
		return nil, fmt.Errorf("session: unsupported vault version %d", stored.Version)
	}

	salt, err := base64.StdEncoding.DecodeString(stored.Salt)
	if err != nil {
		return nil, fmt.Errorf("session: decoding salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(stored.Nonce)
	if err != nil {
		return nil, fmt.Errorf("session: decoding nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(stored.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("session: decoding ciphertext: %w", err)
	}

	derivedKey := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, aesKeyLen, sha256.New)

	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return nil, fmt.Errorf("session: creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("session: creating GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("session: decryption failed (wrong password?): %w", err)
	}

	return plaintext, nil
}
