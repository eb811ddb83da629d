// Package psk derives directional session keys and a session id from a
// shared passphrase, for the example CLIs only. The transport core never
// performs a handshake itself (that component is external per the design);
// these CLIs stand in for it with the simplest possible key agreement so the
// transport pipeline has real keys and a real session id to exercise.
package psk

import "crypto/sha256"

// DeriveKeys splits passphrase into two independent 32-byte directional
// keys. toServer is used for client-to-server frames, toClient for the
// reverse direction.
func DeriveKeys(passphrase string) (toServer, toClient []byte) {
	toServer = label(passphrase, "nomad-psk-to-server-v1")
	toClient = label(passphrase, "nomad-psk-to-client-v1")
	return
}

// DeriveSessionID derives a 6-byte session id from passphrase so both ends
// agree on it without a real handshake exchange.
func DeriveSessionID(passphrase string) [6]byte {
	sum := label(passphrase, "nomad-psk-session-id-v1")
	var id [6]byte
	copy(id[:], sum)
	return id
}

func label(passphrase, tag string) []byte {
	h := sha256.New()
	h.Write([]byte(tag))
	h.Write([]byte(passphrase))
	return h.Sum(nil)
}
