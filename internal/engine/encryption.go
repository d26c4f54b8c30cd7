package engine

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"
	"strings"

	"forum-tenant-sync/internal/errors"

	"golang.org/x/crypto/pbkdf2"
)

const (
	encryptedSuffix = ".enc"

	saltSize         = 16
	pbkdf2Iterations = 100000
	keySize          = 32
)

// IsEncrypted reports whether a bundle path carries the encrypted suffix
func IsEncrypted(path string) bool {
	return strings.HasSuffix(path, encryptedSuffix)
}

func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, keySize, sha256.New)
}

// Encrypt encrypts bundle bytes with AES-256-GCM using a key derived
// from the passphrase. The output layout is salt || nonce || ciphertext.
func Encrypt(data []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, errors.NewAppError(errors.ErrorTypeValidation, "encryption passphrase cannot be empty", nil)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, errors.NewAppError(errors.ErrorTypeStorage, "failed to generate salt", err)
	}

	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return nil, errors.NewAppError(errors.ErrorTypeStorage, "failed to create AES cipher", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrorTypeStorage, "failed to create GCM cipher", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.NewAppError(errors.ErrorTypeStorage, "failed to generate nonce", err)
	}

	ciphertext := gcm.Seal(nil, nonce, data, nil)

	out := make([]byte, 0, len(salt)+len(nonce)+len(ciphertext))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

// Decrypt reverses Encrypt for data produced with the same passphrase
func Decrypt(data []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, errors.NewAppError(errors.ErrorTypeValidation, "decryption passphrase cannot be empty", nil)
	}
	if len(data) < saltSize {
		return nil, errors.NewAppError(errors.ErrorTypeValidation, "encrypted bundle too short", nil)
	}

	salt, rest := data[:saltSize], data[saltSize:]

	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return nil, errors.NewAppError(errors.ErrorTypeStorage, "failed to create AES cipher", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrorTypeStorage, "failed to create GCM cipher", err)
	}

	nonceSize := gcm.NonceSize()
	if len(rest) < nonceSize {
		return nil, errors.NewAppError(errors.ErrorTypeValidation, "encrypted bundle too short", nil)
	}

	nonce, ciphertext := rest[:nonceSize], rest[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrorTypeValidation, "failed to decrypt bundle (wrong passphrase or corrupted data)", err)
	}
	return plaintext, nil
}
