package transport

import "errors"

// errKind classifies an error by its disposition, per the error handling
// design: SilentDrop errors never change connection state or surface above
// debug logging; Transient errors retry on the next scheduling tick;
// Protocol and Timeout errors are fatal for the connection.
type errKind int

const (
	kindSilentDrop errKind = iota
	kindTransient
	kindProtocol
	kindTimeout
	kindClose
)

// Sentinel errors for the SilentDrop class: malformed header, unknown
// session, nonce replay, AEAD auth failure, datagram too large. A peer must
// never be able to distinguish these from one another or from an ordinary
// dropped packet.
var (
	ErrTooShort       = errors.New("transport: frame too short")
	ErrBadFrameType   = errors.New("transport: unrecognized frame type")
	ErrUnknownSession = errors.New("transport: unknown session id")
	ErrNotEstablished = errors.New("transport: data frame received outside Established phase")
	ErrReplayBelow    = errors.New("transport: nonce below replay window")
	ErrReplayInWindow = errors.New("transport: nonce already seen in window")
	ErrAuthFailed     = errors.New("transport: AEAD authentication failed")
	ErrOversized      = errors.New("transport: datagram exceeds MTU")
)

// Sentinel errors for the Protocol class: authenticated but malformed
// payload, nonce wraparound, and ErrWrongPhase, which Conn.HandshakeComplete
// returns when the connection is not in the Handshaking phase. These are
// fatal for the connection.
var (
	ErrLengthMismatch  = errors.New("transport: payload_length does not match remaining bytes")
	ErrNonceWraparound = errors.New("transport: send nonce wrapped around")
	ErrWrongPhase      = errors.New("transport: frame type invalid for current connection phase")
)

// Sentinel errors for the Timeout class.
var (
	ErrRetransmitExhausted = errors.New("transport: retransmit limit exceeded")
	ErrHandshakeTimeout    = errors.New("transport: handshake deadline exceeded")
)

// ErrClosed is returned by operations attempted on a connection that has
// already reached the Closed phase.
var ErrClosed = errors.New("transport: connection closed")

// CloseReason is the closed enumeration of reasons a connection transitions
// to Closed, pinned to a single wire byte for the Close frame payload. This
// resolves the spec's open question on the close-frame reason code space.
type CloseReason byte

const (
	ReasonPeerClose         CloseReason = 0x00
	ReasonProtocolViolation CloseReason = 0x01
	ReasonPeerUnreachable   CloseReason = 0x02
	ReasonLocalShutdown     CloseReason = 0x03
)

func (r CloseReason) String() string {
	switch r {
	case ReasonPeerClose:
		return "PeerClose"
	case ReasonProtocolViolation:
		return "ProtocolViolation"
	case ReasonPeerUnreachable:
		return "PeerUnreachable"
	case ReasonLocalShutdown:
		return "LocalShutdown"
	default:
		return "Unknown"
	}
}

// classify maps a sentinel error to its disposition kind. Errors not listed
// here are treated as kindProtocol (fatal), the conservative default.
// HandleInbound calls this on every error it encounters in the frame
// pipeline to decide whether to absorb it silently or close the connection;
// see disposeInboundError.
func classify(err error) errKind {
	switch {
	case errors.Is(err, ErrTooShort),
		errors.Is(err, ErrBadFrameType),
		errors.Is(err, ErrUnknownSession),
		errors.Is(err, ErrNotEstablished),
		errors.Is(err, ErrReplayBelow),
		errors.Is(err, ErrReplayInWindow),
		errors.Is(err, ErrAuthFailed),
		errors.Is(err, ErrOversized):
		return kindSilentDrop
	case errors.Is(err, ErrLengthMismatch),
		errors.Is(err, ErrNonceWraparound),
		errors.Is(err, ErrWrongPhase):
		return kindProtocol
	case errors.Is(err, ErrRetransmitExhausted),
		errors.Is(err, ErrHandshakeTimeout):
		return kindTimeout
	default:
		return kindProtocol
	}
}
