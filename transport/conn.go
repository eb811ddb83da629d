package transport

import (
	"net"
	"time"

	"github.com/nomadproj/nomad/log"
	"github.com/nomadproj/nomad/metrics"
)

// mailboxSize bounds the per-connection send/receive mailboxes. Overflow
// drops the newest arrival, trading a little data for liveness under load
// (§5, §9).
const mailboxSize = 256

// Phase is a connection's lifecycle state (§3, §4.5).
type Phase int

const (
	PhaseHandshaking Phase = iota
	PhaseEstablished
	PhaseClosing
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseHandshaking:
		return "Handshaking"
	case PhaseEstablished:
		return "Established"
	case PhaseClosing:
		return "Closing"
	case PhaseClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Conn holds all state for one NOMAD session: session identity, nonce
// counters, anti-replay window, RTT estimator, migration anchor, and
// connection phase (§3's "Connection state" record). A single task drives
// one Conn; per the concurrency model, no locks guard this state because
// only that task ever touches it. Submit and PollRecv cross the task
// boundary via bounded channels instead.
type Conn struct {
	session SessionID
	phase   Phase

	sendNonce          uint64
	sendNonceExhausted bool
	recvWindow         NonceWindow

	rtt       RTTEstimator
	tsTracker TimestampTracker

	Pacer      *Pacer
	Retransmit RetransmitController
	Migration  MigrationController

	cipher CipherHandle

	closeReason CloseReason
	hasReason   bool

	lastPeerSendTimestamp uint64

	recvMailbox chan []byte
	sendMailbox chan []byte

	metrics *metrics.Set
	log     *log.Logger
}

// NewConn creates a connection in the Handshaking phase for session, backed
// by cipher. m may be nil (metrics become no-ops).
func NewConn(session SessionID, cipher CipherHandle, m *metrics.Set) *Conn {
	c := &Conn{
		session:     session,
		phase:       PhaseHandshaking,
		cipher:      cipher,
		recvMailbox: make(chan []byte, mailboxSize),
		sendMailbox: make(chan []byte, mailboxSize),
		metrics:     m,
		log:         log.Default().Module("transport"),
	}
	c.Pacer = NewPacer(func() time.Duration { srtt, _, _ := c.rtt.Snapshot(); return srtt })
	return c
}

// Session returns the connection's session id.
func (c *Conn) Session() SessionID { return c.session }

// Phase returns the current lifecycle phase.
func (c *Conn) Phase() Phase { return c.phase }

// HandshakeComplete transitions Handshaking -> Established. It is the
// handshake component's signal that keys are installed and the connection
// may begin exchanging data frames.
func (c *Conn) HandshakeComplete() error {
	if c.phase != PhaseHandshaking {
		return ErrWrongPhase
	}
	c.phase = PhaseEstablished
	return nil
}

// InstallKeys forwards to the cipher handle and, per the spec's resolved
// open question, resets both the send nonce and the anti-replay window so
// a rekey never reuses a (nonce, key) pair.
func (c *Conn) InstallKeys(sendKey, recvKey []byte) error {
	if err := c.cipher.InstallKeys(sendKey, recvKey); err != nil {
		return err
	}
	c.sendNonce = 0
	c.sendNonceExhausted = false
	c.recvWindow = NonceWindow{}
	return nil
}

// --- SyncLayer surface (§6 upward interface) ---

// Submit enqueues payload for paced sending. Overflow drops the newest
// payload rather than blocking the caller.
func (c *Conn) Submit(payload []byte) error {
	if c.phase == PhaseClosed {
		return ErrClosed
	}
	select {
	case c.sendMailbox <- payload:
	default:
	}
	return nil
}

// PollRecv returns the next delivered decrypted payload, if any.
func (c *Conn) PollRecv() ([]byte, bool) {
	select {
	case p := <-c.recvMailbox:
		return p, true
	default:
		return nil, false
	}
}

// Close begins shutdown with reason. Established/Handshaking connections
// move to Closing to drain; an already-Closed connection is a no-op.
func (c *Conn) Close(reason CloseReason) error {
	if c.phase == PhaseClosed {
		return nil
	}
	c.phase = PhaseClosing
	c.closeReason = reason
	c.hasReason = true
	return nil
}

// IsEstablished reports whether the connection accepts/delivers data
// payloads.
func (c *Conn) IsEstablished() bool { return c.phase == PhaseEstablished }

// RTTSnapshot returns the current (srtt, rttvar, rto) as nanoseconds.
func (c *Conn) RTTSnapshot() (srtt, rttvar, rto int64) {
	s, v, r := c.rtt.Snapshot()
	return int64(s), int64(v), int64(r)
}

// CloseReason returns the recorded close reason, if any.
func (c *Conn) CloseReason() (CloseReason, bool) { return c.closeReason, c.hasReason }

// LastPeerTimestamp returns the most recent send_timestamp observed from the
// peer, or 0 if none has arrived yet. The driving task passes this as the
// echo_timestamp on its next outbound frame so the peer can sample RTT.
func (c *Conn) LastPeerTimestamp() uint64 { return c.lastPeerSendTimestamp }

// --- inbound pipeline (§4.5) ---

// HandleInbound runs the Established-phase inbound pipeline: frame decode,
// session lookup (by the caller, via demultiplexing), nonce-window check,
// AEAD decrypt, migration update, payload-header decode, RTT sampling.
// Failures classified as SilentDrop are absorbed here and return (false, nil);
// Protocol failures are fatal and transition the connection to Closed.
//
// authenticated reports whether raw passed AEAD authentication — only a
// holder of the session's keys can make this true. The driving task must
// treat authenticated as the sole evidence of peer liveness (arming/disarming
// retransmit and ack-only pacing); a non-error return with authenticated
// false means nothing more than "this datagram did not crash the pipeline"
// and must never be taken as proof the peer is alive, or an off-path
// attacker with no keys could spoof liveness with arbitrary garbage.
func (c *Conn) HandleInbound(now time.Time, source *net.UDPAddr, raw []byte) (authenticated bool, err error) {
	if c.phase == PhaseClosed {
		return false, ErrClosed
	}

	header, err := DecodeDataHeader(raw)
	if err != nil {
		return false, c.disposeInboundError(metrics.DropBadHeader, err)
	}
	if header.SessionID != c.session {
		return false, c.disposeInboundError(metrics.DropUnknownSess, ErrUnknownSession)
	}
	if c.phase != PhaseEstablished {
		// Non-handshake frames are ignored before establishment; the
		// handshake component owns Handshaking-phase traffic.
		return false, c.disposeInboundError(metrics.DropBadHeader, ErrNotEstablished)
	}

	switch c.recvWindow.CheckAndUpdate(header.Nonce) {
	case VerdictReplayInWindow:
		return false, c.disposeInboundError(metrics.DropReplay, ErrReplayInWindow)
	case VerdictReplayBelowWindow:
		return false, c.disposeInboundError(metrics.DropReplay, ErrReplayBelow)
	}

	var aad [dataHeaderSize]byte
	copy(aad[:], raw[:dataHeaderSize])
	ciphertext := raw[dataHeaderSize:]

	plaintext, err := c.cipher.Decrypt(header.Nonce, aad, ciphertext)
	if err != nil {
		return false, c.disposeInboundError(metrics.DropAuthFail, ErrAuthFailed)
	}

	// From here on raw has been authenticated: only a keyholder could have
	// produced it, regardless of what the rest of the pipeline decides.
	authenticated = true

	switch c.Migration.OnFrameReceived(now, source, len(raw)) {
	case MigrationPromoted:
		if c.metrics != nil {
			c.metrics.IncMigrationPromoted()
		}
	case MigrationRejectedRateLimit:
		if c.metrics != nil {
			c.metrics.IncMigrationRejected()
		}
	}

	if header.IsClose() {
		reason := ReasonPeerClose
		if len(plaintext) >= 1 {
			reason = CloseReason(plaintext[0])
		}
		c.phase = PhaseClosing
		c.closeReason = reason
		c.hasReason = true
		return authenticated, nil
	}

	payloadHeader, err := DecodePayloadHeader(plaintext)
	if err != nil {
		// Authenticated but malformed: fatal Protocol error.
		return authenticated, c.disposeInboundError(metrics.DropBadHeader, err)
	}

	c.lastPeerSendTimestamp = payloadHeader.SendTimestamp

	if payloadHeader.EchoTimestamp != 0 {
		if elapsed, ok := c.tsTracker.Consume(payloadHeader.EchoTimestamp, now); ok {
			c.rtt.OnSample(elapsed)
			c.Retransmit.OnAck()
			if c.metrics != nil {
				srtt, rttvar, rto := c.rtt.Snapshot()
				c.metrics.SetRTT(srtt.Seconds(), rttvar.Seconds(), rto.Seconds())
			}
		}
	}

	body := plaintext[payloadHeaderSize:]
	if len(body) > 0 {
		select {
		case c.recvMailbox <- body:
		default:
			c.log.Debug("recv mailbox full, dropping payload", "session", c.session)
		}
	}
	return authenticated, nil
}

// disposeInboundError reports err against class for metrics/logging and
// dispatches on classify(err): SilentDrop errors are absorbed and return nil;
// anything else is fatal, closing the connection as a protocol violation and
// returning err to the caller. This is the single place the error handling
// design's disposition table (see errKind) actually drives behavior.
func (c *Conn) disposeInboundError(class metrics.DropClass, err error) error {
	if classify(err) == kindSilentDrop {
		c.dropSilently(class, err)
		return nil
	}
	c.phase = PhaseClosed
	c.closeReason = ReasonProtocolViolation
	c.hasReason = true
	return err
}

func (c *Conn) dropSilently(class metrics.DropClass, err error) {
	if c.metrics != nil {
		c.metrics.IncDrop(class)
	}
	c.log.Debug("silent drop", "class", class, "err", err)
}

// --- outbound frame construction ---

// BuildDataFrame allocates the next send nonce, builds the payload header
// (with echoTimestamp as passed by the caller; RunConn passes
// LastPeerTimestamp, which is 0 before any peer frame arrives),
// encrypts, and returns the complete wire frame. ErrNonceWraparound is
// fatal per §7.
func (c *Conn) BuildDataFrame(now time.Time, payload []byte, echoTimestamp uint64) ([]byte, error) {
	nonce, err := c.allocateSendNonce()
	if err != nil {
		return nil, err
	}

	header := EncodeDataHeader(0, c.session, nonce)
	sendTS := uint64(now.UnixMicro())
	payloadHeader := EncodePayloadHeader(PayloadHeader{
		SendTimestamp: sendTS,
		EchoTimestamp: echoTimestamp,
		PayloadLength: uint32(len(payload)),
	})

	plaintext := make([]byte, 0, payloadHeaderSize+len(payload))
	plaintext = append(plaintext, payloadHeader[:]...)
	plaintext = append(plaintext, payload...)

	ciphertext := c.cipher.Encrypt(nonce, header, plaintext)
	c.tsTracker.Record(sendTS, now)

	frame := make([]byte, 0, dataHeaderSize+len(ciphertext))
	frame = append(frame, header[:]...)
	frame = append(frame, ciphertext...)
	return frame, nil
}

// BuildCloseFrame allocates a nonce and builds a Close frame carrying reason.
func (c *Conn) BuildCloseFrame(reason CloseReason) ([]byte, error) {
	nonce, err := c.allocateSendNonce()
	if err != nil {
		return nil, err
	}
	header, payload := EncodeClose(c.session, nonce, reason)
	ciphertext := c.cipher.Encrypt(nonce, header, payload)
	frame := make([]byte, 0, dataHeaderSize+len(ciphertext))
	frame = append(frame, header[:]...)
	frame = append(frame, ciphertext...)
	return frame, nil
}

func (c *Conn) allocateSendNonce() (uint64, error) {
	if c.sendNonceExhausted {
		return 0, ErrNonceWraparound
	}
	n := c.sendNonce
	if n == ^uint64(0) {
		c.sendNonceExhausted = true
	} else {
		c.sendNonce = n + 1
	}
	return n, nil
}

// SendMailbox exposes the outbound queue for the driving task's pacer loop.
func (c *Conn) SendMailbox() <-chan []byte { return c.sendMailbox }
