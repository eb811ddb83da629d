package transport

import (
	"context"
	"net"
	"time"
)

// pollInterval is the scheduling granularity for driving a Conn's pacer and
// retransmit timers. A production event loop would arm precise one-shot
// timers per deadline; polling at a fine, fixed interval is simpler and
// sufficient for a single-peer reference driver.
const pollInterval = 2 * time.Millisecond

// RunConn drives conn's full duplex pipeline against sock and peer until ctx
// is canceled or the connection reaches Closed. It is the reference
// single-goroutine-per-connection event loop described by the concurrency
// model: inbound datagrams are fed through HandleInbound, submissions made
// via conn.Submit are paced by conn.Pacer, and unacknowledged sends are
// retried by conn.Retransmit up to MaxRetransmits.
//
// RunConn assumes peer does not change identity at the transport layer
// (the migration controller tracks address changes internally; RunConn
// addresses sends at conn.Migration's current validated address, falling
// back to peer before the first inbound frame arrives). It does not send
// toward a pending migration candidate before that candidate is promoted.
func RunConn(ctx context.Context, sock *Socket, conn *Conn, peer *net.UDPAddr) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var pending [][]byte
	var lastFrame []byte
	var lastDest *net.UDPAddr

	drainSubmits := func(now time.Time) {
		for {
			select {
			case payload := <-conn.SendMailbox():
				pending = append(pending, payload)
				conn.Pacer.SubmitData(now)
			default:
				return
			}
		}
	}

	dest := func() *net.UDPAddr {
		if p := conn.Migration.PendingAddr(); p != nil && lastDest == p {
			return p
		}
		if v := conn.Migration.ValidatedAddr(); v != nil {
			return v
		}
		return peer
	}

	sendFrame := func(now time.Time, frame []byte) error {
		d := dest()
		if !conn.Migration.CheckSend(d, len(frame)) {
			return nil // anti-amplification budget exhausted toward an unvalidated peer
		}
		if err := sock.SendTo(d, frame); err != nil {
			if err == ErrClosed || err == ErrOversized {
				return err
			}
			return nil // Transient: the pacer stays ready and sends again next tick.
		}
		conn.Pacer.OnSent(now)
		conn.Retransmit.Arm(now, conn.rtt.CurrentRTO())
		if conn.metrics != nil {
			conn.metrics.IncPacerSend()
		}
		lastFrame = frame
		lastDest = d
		return nil
	}

	sendNext := func(now time.Time) error {
		var payload []byte
		if len(pending) > 0 {
			payload = pending[0]
			pending = pending[1:]
		}
		frame, err := conn.BuildDataFrame(now, payload, conn.LastPeerTimestamp())
		if err != nil {
			return err
		}
		return sendFrame(now, frame)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case dgram := <-sock.Inbound():
			now := time.Now()
			authenticated, err := conn.HandleInbound(now, dgram.Addr, dgram.Data)
			if err != nil {
				return err
			}
			if conn.Phase() == PhaseClosed {
				return nil
			}
			// Retransmit.OnAck is already driven internally by HandleInbound
			// when an echoed timestamp genuinely matches one we sent; an
			// unauthenticated datagram must never disarm it, or an off-path
			// attacker with no keys could spoof liveness and defeat
			// MaxRetransmits detection. Ack-only pacing gets the same guard.
			if authenticated {
				conn.Pacer.SubmitAckOnly(now)
			}

		case now := <-ticker.C:
			if conn.Phase() == PhaseClosed {
				return nil
			}
			drainSubmits(now)

			if verdict, _ := conn.Retransmit.Poll(now); verdict == RetransmitFire {
				exhausted := conn.Retransmit.OnFire(&conn.rtt, now)
				if conn.metrics != nil {
					conn.metrics.IncRetransmit()
				}
				if exhausted {
					conn.phase = PhaseClosed
					conn.closeReason = ReasonPeerUnreachable
					conn.hasReason = true
					return ErrRetransmitExhausted
				}
				if lastFrame != nil && lastDest != nil {
					if err := sock.SendTo(lastDest, lastFrame); err == ErrClosed {
						return err
					}
				}
			}

			if action := conn.Pacer.Poll(now); action.Kind == ActionSend {
				if err := sendNext(now); err != nil {
					return err
				}
			}
		}
	}
}
