package transport

// CipherHandle is the downward interface to the crypto layer (§6). The
// transport holds exactly one CipherHandle for the lifetime of a
// connection (modulo rekey) and never inspects the keys behind it.
type CipherHandle interface {
	// Encrypt is infallible once keys are installed.
	Encrypt(nonce uint64, aad [dataHeaderSize]byte, plaintext []byte) []byte
	// Decrypt returns ErrAuthFailed on authentication failure; the caller
	// must treat that as a SilentDrop, never surfacing it differently
	// from a nonce replay.
	Decrypt(nonce uint64, aad [dataHeaderSize]byte, ciphertext []byte) ([]byte, error)
	// InstallKeys is called once by the handshake component on transition
	// to Established, and again on rekey. Rekeying replaces both keys
	// atomically; per the spec's resolved open question, the transport
	// resets both nonce counters and the anti-replay window to 0 whenever
	// InstallKeys is called after the first time.
	InstallKeys(sendKey, recvKey []byte) error
}

// SyncLayer is the upward surface the transport exposes to the state-diff
// sync engine (§6). Conn implements this interface; it is declared
// separately so tests and the sync layer can depend on the narrow contract
// rather than the concrete Conn type.
type SyncLayer interface {
	// Submit enqueues payload for paced sending.
	Submit(payload []byte) error
	// PollRecv returns the next delivered decrypted payload, if any.
	PollRecv() ([]byte, bool)
	// Close begins an orderly or fatal shutdown with the given reason.
	Close(reason CloseReason) error
	// IsEstablished reports whether the connection has completed its
	// handshake and is accepting/delivering data payloads.
	IsEstablished() bool
	// RTTSnapshot returns the current (srtt, rttvar, rto).
	RTTSnapshot() (srtt, rttvar, rto int64)
}
