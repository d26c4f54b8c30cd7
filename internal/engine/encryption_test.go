package engine

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := []byte(`{"tenant":"acme"}`)

	ciphertext, err := Encrypt(plaintext, "hunter2")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Contains(ciphertext, []byte("acme")) {
		t.Error("ciphertext leaks plaintext")
	}

	decrypted, err := Decrypt(ciphertext, "hunter2")
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Error("round trip corrupted payload")
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	ciphertext, err := Encrypt([]byte("secret"), "right")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := Decrypt(ciphertext, "wrong"); err == nil {
		t.Fatal("wrong passphrase accepted")
	}
}

func TestEncryptUniqueSaltAndNonce(t *testing.T) {
	first, err := Encrypt([]byte("same input"), "pw")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	second, err := Encrypt([]byte("same input"), "pw")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Equal(first, second) {
		t.Error("two encryptions of the same input must differ")
	}
}

func TestEncryptEmptyPassphrase(t *testing.T) {
	if _, err := Encrypt([]byte("data"), ""); err == nil {
		t.Error("empty passphrase accepted for encryption")
	}
	if _, err := Decrypt([]byte("data"), ""); err == nil {
		t.Error("empty passphrase accepted for decryption")
	}
}

func TestDecryptTruncatedInput(t *testing.T) {
	if _, err := Decrypt([]byte("short"), "pw"); err == nil {
		t.Error("truncated ciphertext accepted")
	}
}

func TestIsEncrypted(t *testing.T) {
	if !IsEncrypted("backup.json.gz.enc") {
		t.Error("suffix .enc not detected")
	}
	if IsEncrypted("backup.json.gz") {
		t.Error("plain file reported encrypted")
	}
}
