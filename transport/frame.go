package transport

import "encoding/binary"

// Frame type tags. Only FrameData is handled by the transport core after
// establishment; handshake frames are forwarded to the external handshake
// component untouched.
const (
	FrameHandshakeInit byte = 0x00
	FrameHandshakeResp byte = 0x01
	FrameData          byte = 0x03
	FrameClose         byte = 0x04
)

// SessionIDSize is the length in bytes of the opaque session identifier
// assigned by the server during handshake.
const SessionIDSize = 6

// dataHeaderSize is the fixed size of the associated-data prefix on a Data
// frame: 1 (type) + 1 (flags) + 6 (session_id) + 8 (nonce).
const dataHeaderSize = 16

// payloadHeaderSize is the fixed size of the plaintext header carried inside
// the AEAD ciphertext: send_timestamp(8) + echo_timestamp(8) + length(4).
const payloadHeaderSize = 20

// flagClose marks a Data frame as a Close frame (reserved flag bit 0).
const flagClose byte = 0x01

// SessionID is the opaque 6-byte connection identifier.
type SessionID [SessionIDSize]byte

// DataHeader is the decoded form of a Data frame's 16-byte associated-data
// prefix (§3, §4.1).
type DataHeader struct {
	Flags     byte
	SessionID SessionID
	Nonce     uint64
}

// IsClose reports whether the reserved close flag is set.
func (h DataHeader) IsClose() bool { return h.Flags&flagClose != 0 }

// EncodeDataHeader produces the bit-exact 16-byte associated-data prefix for
// a Data frame. This is also the AEAD's associated data verbatim (build_aad
// is the identity function over these bytes).
func EncodeDataHeader(flags byte, session SessionID, nonce uint64) [dataHeaderSize]byte {
	var out [dataHeaderSize]byte
	out[0] = FrameData
	out[1] = flags
	copy(out[2:8], session[:])
	binary.BigEndian.PutUint64(out[8:16], nonce)
	return out
}

// DecodeDataHeader parses a 16-byte associated-data prefix. It never panics
// and performs no allocation.
func DecodeDataHeader(b []byte) (DataHeader, error) {
	if len(b) < dataHeaderSize {
		return DataHeader{}, ErrTooShort
	}
	if b[0] != FrameData {
		return DataHeader{}, ErrBadFrameType
	}
	var h DataHeader
	h.Flags = b[1]
	copy(h.SessionID[:], b[2:8])
	h.Nonce = binary.BigEndian.Uint64(b[8:16])
	return h, nil
}

// BuildAAD returns the associated-data bytes for AEAD: identity over the
// encoded header, exposed as its own function for clarity of the AEAD
// contract at call sites.
func BuildAAD(header [dataHeaderSize]byte) [dataHeaderSize]byte { return header }

// PayloadHeader is the decoded form of the 20-byte plaintext header carried
// inside the AEAD ciphertext.
type PayloadHeader struct {
	SendTimestamp uint64 // microseconds; Conn.BuildDataFrame writes Unix wall-clock time (time.UnixMicro), not a monotonic-clock reading
	EchoTimestamp uint64 // last peer timestamp observed, or 0
	PayloadLength uint32
}

// EncodePayloadHeader produces the fixed 20-byte layout.
func EncodePayloadHeader(h PayloadHeader) [payloadHeaderSize]byte {
	var out [payloadHeaderSize]byte
	binary.BigEndian.PutUint64(out[0:8], h.SendTimestamp)
	binary.BigEndian.PutUint64(out[8:16], h.EchoTimestamp)
	binary.BigEndian.PutUint32(out[16:20], h.PayloadLength)
	return out
}

// DecodePayloadHeader parses the 20-byte plaintext header and validates that
// payload_length equals the remaining bytes after the header; a mismatch is
// a fatal Protocol error per §7 (authenticated but malformed payload).
func DecodePayloadHeader(b []byte) (PayloadHeader, error) {
	if len(b) < payloadHeaderSize {
		return PayloadHeader{}, ErrLengthMismatch
	}
	h := PayloadHeader{
		SendTimestamp: binary.BigEndian.Uint64(b[0:8]),
		EchoTimestamp: binary.BigEndian.Uint64(b[8:16]),
		PayloadLength: binary.BigEndian.Uint32(b[16:20]),
	}
	remaining := uint32(len(b) - payloadHeaderSize)
	if h.PayloadLength != remaining {
		return PayloadHeader{}, ErrLengthMismatch
	}
	return h, nil
}

// EncodeClose produces the 16-byte associated-data header for a Close frame:
// a Data frame with the close flag set and the given nonce, carrying the
// reason code as the (empty-otherwise) one-byte plaintext payload.
func EncodeClose(session SessionID, nonce uint64, reason CloseReason) (header [dataHeaderSize]byte, payload []byte) {
	header = EncodeDataHeader(flagClose, session, nonce)
	payload = []byte{byte(reason)}
	return header, payload
}
