// Package aead provides the default CipherHandle implementation: ChaCha20-
// Poly1305 with independent send/recv directional keys, grounded on the same
// labeled-hash key derivation the RLPx frame codec uses to split a shared
// secret into distinct encryption and MAC keys.
package aead

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/nomadproj/nomad/transport"
)

// ErrKeysNotInstalled is returned by Decrypt when called before InstallKeys
// has been called at least once.
var ErrKeysNotInstalled = errors.New("aead: keys not installed")

// Handle is a transport.CipherHandle backed by ChaCha20-Poly1305. The zero
// value has no keys installed; construct with New and call InstallKeys
// before use.
type Handle struct {
	sendAEAD cipherAEAD
	recvAEAD cipherAEAD
}

// cipherAEAD is the subset of cipher.AEAD this package depends on, named
// locally so the field type doesn't leak the crypto/cipher import into every
// caller's import list.
type cipherAEAD interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}

// New creates a Handle with no keys installed.
func New() *Handle {
	return &Handle{}
}

// InstallKeys derives independent 32-byte ChaCha20-Poly1305 keys from
// sendKey and recvKey via a labeled SHA-256 hash (so callers may pass
// handshake secrets of any length) and installs them. Safe to call again on
// rekey; the transport resets its nonce state whenever it does.
func (h *Handle) InstallKeys(sendKey, recvKey []byte) error {
	sAEAD, err := chacha20poly1305.New(deriveKey(sendKey, "nomad-aead-key-v1"))
	if err != nil {
		return err
	}
	rAEAD, err := chacha20poly1305.New(deriveKey(recvKey, "nomad-aead-key-v1"))
	if err != nil {
		return err
	}
	h.sendAEAD = sAEAD
	h.recvAEAD = rAEAD
	return nil
}

// Encrypt seals plaintext under the send key, using nonce and aad as the
// ChaCha20-Poly1305 nonce material and associated data. It panics if called
// before InstallKeys: unlike Decrypt, Encrypt is only ever invoked on
// locally-originated data, so a premature call is a programming error, not
// adversarial input.
func (h *Handle) Encrypt(nonce uint64, aad [16]byte, plaintext []byte) []byte {
	if h.sendAEAD == nil {
		panic("aead: Encrypt called before InstallKeys")
	}
	return h.sendAEAD.Seal(nil, chachaNonce(nonce), plaintext, aad[:])
}

// Decrypt opens ciphertext under the recv key. A nil recv key or a failed
// authentication both return an error the caller must treat as a SilentDrop
// indistinguishable from a nonce replay (see transport.ErrAuthFailed).
func (h *Handle) Decrypt(nonce uint64, aad [16]byte, ciphertext []byte) ([]byte, error) {
	if h.recvAEAD == nil {
		return nil, ErrKeysNotInstalled
	}
	plaintext, err := h.recvAEAD.Open(nil, chachaNonce(nonce), ciphertext, aad[:])
	if err != nil {
		return nil, transport.ErrAuthFailed
	}
	return plaintext, nil
}

// chachaNonce maps a 64-bit monotonic nonce into ChaCha20-Poly1305's
// 12-byte nonce space: zero-padded high bytes, big-endian counter low.
func chachaNonce(n uint64) []byte {
	var nb [chacha20poly1305.NonceSize]byte
	binary.BigEndian.PutUint64(nb[chacha20poly1305.NonceSize-8:], n)
	return nb[:]
}

func deriveKey(material []byte, label string) []byte {
	h := sha256.New()
	h.Write([]byte(label))
	h.Write(material)
	return h.Sum(nil)
}
