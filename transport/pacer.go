package transport

import (
	"time"

	"golang.org/x/time/rate"
)

// Pacer constants (§4.6).
const (
	CollectionInterval  = 8 * time.Millisecond
	DelayedAckTimeout   = 100 * time.Millisecond
	MaxFrameRate        = 50 // Hz
	minFrameIntervalAbs = time.Second / MaxFrameRate
)

// PacerActionKind is the verdict of a Pacer.Poll call.
type PacerActionKind int

const (
	ActionSleep PacerActionKind = iota
	ActionSend
)

// PacerAction is returned by Poll. When Kind is ActionSleep, NoDeadline
// reports whether the caller should simply wait for the next Submit (no
// timer needed); otherwise SleepFor gives the duration to wait before
// polling again.
type PacerAction struct {
	Kind       PacerActionKind
	NoDeadline bool
	SleepFor   time.Duration
}

type pacerPhase int

const (
	pacerIdle pacerPhase = iota
	pacerCollecting
	pacerReadyToSend
)

// Pacer rate-limits outbound frames and batches payload arrivals into a
// short collection window, piggybacking pure acks where possible. The hard
// MAX_FRAME_RATE cap is additionally enforced with an x/time/rate limiter so
// the cap holds even if the srtt-derived floor were ever computed wrong.
type Pacer struct {
	phase pacerPhase

	collectDeadline time.Time
	ackDeadline     time.Time
	lastSend        time.Time

	hasPendingData    bool
	hasPendingAckOnly bool

	limiter     *rate.Limiter
	srttForFloor func() time.Duration // returns current srtt; may be nil
}

// NewPacer creates a Pacer. srttForFloor supplies the current smoothed RTT
// for the adaptive MIN_FRAME_INTERVAL floor; pass nil to always use the
// 20ms hard-cap floor.
func NewPacer(srttForFloor func() time.Duration) *Pacer {
	return &Pacer{
		limiter:      rate.NewLimiter(rate.Every(minFrameIntervalAbs), 1),
		srttForFloor: srttForFloor,
	}
}

// SubmitData records that a new outbound payload has arrived, opening the
// batch collection window if the pacer was idle.
func (p *Pacer) SubmitData(now time.Time) {
	p.hasPendingData = true
	if p.phase == pacerIdle {
		p.phase = pacerCollecting
		p.collectDeadline = now.Add(CollectionInterval)
	}
}

// SubmitAckOnly records a pure acknowledgment with no accompanying data,
// to be piggybacked on the next outbound frame or force-sent on expiry.
func (p *Pacer) SubmitAckOnly(now time.Time) {
	if p.hasPendingAckOnly {
		return
	}
	p.hasPendingAckOnly = true
	p.ackDeadline = now.Add(DelayedAckTimeout)
}

// minFrameInterval returns MIN_FRAME_INTERVAL = max(srtt/2, 20ms).
func (p *Pacer) minFrameInterval() time.Duration {
	floor := minFrameIntervalAbs
	if p.srttForFloor != nil {
		if half := p.srttForFloor() / 2; half > floor {
			floor = half
		}
	}
	return floor
}

// Poll advances the pacer's state machine and reports what the caller
// should do: send now, or sleep for a bounded duration (or indefinitely,
// until the next Submit call, if there is nothing pending).
func (p *Pacer) Poll(now time.Time) PacerAction {
	switch p.phase {
	case pacerIdle:
		if p.hasPendingAckOnly {
			if !now.Before(p.ackDeadline) {
				return PacerAction{Kind: ActionSend}
			}
			return PacerAction{Kind: ActionSleep, SleepFor: p.ackDeadline.Sub(now)}
		}
		return PacerAction{Kind: ActionSleep, NoDeadline: true}

	case pacerCollecting:
		if !now.Before(p.collectDeadline) {
			if p.hasPendingData || p.hasPendingAckOnly {
				p.phase = pacerReadyToSend
			} else {
				p.phase = pacerIdle
			}
			return p.Poll(now)
		}
		return PacerAction{Kind: ActionSleep, SleepFor: p.collectDeadline.Sub(now)}

	case pacerReadyToSend:
		minInterval := p.minFrameInterval()
		nextEligible := p.lastSend.Add(minInterval)
		if now.Before(nextEligible) {
			return PacerAction{Kind: ActionSleep, SleepFor: nextEligible.Sub(now)}
		}
		if !p.limiter.AllowN(now, 1) {
			return PacerAction{Kind: ActionSleep, SleepFor: minInterval}
		}
		return PacerAction{Kind: ActionSend}
	}
	return PacerAction{Kind: ActionSleep, NoDeadline: true}
}

// OnSent must be called immediately after the caller actually transmits a
// frame in response to an ActionSend verdict.
func (p *Pacer) OnSent(now time.Time) {
	p.lastSend = now
	p.hasPendingData = false
	p.hasPendingAckOnly = false
	p.phase = pacerIdle
}
