package aead

import (
	"bytes"
	"testing"
)

func mustHandle(t *testing.T, sendKey, recvKey []byte) *Handle {
	t.Helper()
	h := New()
	if err := h.InstallKeys(sendKey, recvKey); err != nil {
		t.Fatalf("install keys: %v", err)
	}
	return h
}

func TestHandle_EncryptDecryptRoundTrip(t *testing.T) {
	// A's send key is B's recv key and vice versa, mirroring the directional
	// key-swap a real handshake performs between initiator and responder.
	a := mustHandle(t, []byte("a-send-secret"), []byte("b-send-secret"))
	b := mustHandle(t, []byte("b-send-secret"), []byte("a-send-secret"))

	aad := [16]byte{1, 2, 3}
	plaintext := []byte("state diff payload")

	ciphertext := a.Encrypt(42, aad, plaintext)
	got, err := b.Decrypt(42, aad, ciphertext)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("got %q, want %q", got, plaintext)
	}
}

func TestHandle_TamperedCiphertextFails(t *testing.T) {
	a := mustHandle(t, []byte("k1"), []byte("k2"))
	b := mustHandle(t, []byte("k2"), []byte("k1"))

	aad := [16]byte{9}
	ciphertext := a.Encrypt(1, aad, []byte("payload"))
	ciphertext[0] ^= 0xFF

	if _, err := b.Decrypt(1, aad, ciphertext); err == nil {
		t.Fatal("expected tampered ciphertext to fail authentication")
	}
}

func TestHandle_WrongNonceFails(t *testing.T) {
	a := mustHandle(t, []byte("k1"), []byte("k2"))
	b := mustHandle(t, []byte("k2"), []byte("k1"))

	aad := [16]byte{}
	ciphertext := a.Encrypt(5, aad, []byte("payload"))
	if _, err := b.Decrypt(6, aad, ciphertext); err == nil {
		t.Fatal("expected mismatched nonce to fail authentication")
	}
}

func TestHandle_WrongAADFails(t *testing.T) {
	a := mustHandle(t, []byte("k1"), []byte("k2"))
	b := mustHandle(t, []byte("k2"), []byte("k1"))

	ciphertext := a.Encrypt(5, [16]byte{1}, []byte("payload"))
	if _, err := b.Decrypt(5, [16]byte{2}, ciphertext); err == nil {
		t.Fatal("expected mismatched associated data to fail authentication")
	}
}

func TestHandle_DecryptBeforeInstallKeys(t *testing.T) {
	h := New()
	if _, err := h.Decrypt(0, [16]byte{}, []byte("x")); err != ErrKeysNotInstalled {
		t.Fatalf("err = %v, want ErrKeysNotInstalled", err)
	}
}

func TestHandle_RekeyChangesCiphertext(t *testing.T) {
	h := mustHandle(t, []byte("first"), []byte("first-recv"))
	aad := [16]byte{}
	c1 := h.Encrypt(0, aad, []byte("payload"))

	if err := h.InstallKeys([]byte("second"), []byte("second-recv")); err != nil {
		t.Fatalf("rekey: %v", err)
	}
	c2 := h.Encrypt(0, aad, []byte("payload"))

	if bytes.Equal(c1, c2) {
		t.Fatal("expected rekeyed ciphertext to differ from the pre-rekey ciphertext")
	}
}
