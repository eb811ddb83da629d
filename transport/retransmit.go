package transport

import "time"

// MaxRetransmits is the number of consecutive timer fires without a fresh
// ack after which the connection is closed with ReasonPeerUnreachable.
const MaxRetransmits = 8

// RetransmitVerdict is the result of polling the retransmit controller.
type RetransmitVerdict int

const (
	RetransmitIdle RetransmitVerdict = iota
	RetransmitWait
	RetransmitFire
)

// RetransmitController holds at most one outstanding retransmittable event
// per connection (§4.7). The transport retransmits only control-bearing
// data frames such as ones advertising new state versions; the sync layer
// carries its own per-diff retransmit semantics independently.
type RetransmitController struct {
	armed     bool
	deadline  time.Time
	fireCount int
}

// Arm sets the retransmit deadline to now+rto, arming the timer.
func (r *RetransmitController) Arm(now time.Time, rto time.Duration) {
	r.armed = true
	r.deadline = now.Add(rto)
}

// OnAck records a fresh ack, disarming the timer and resetting the fire
// count.
func (r *RetransmitController) OnAck() {
	r.armed = false
	r.fireCount = 0
}

// Poll reports whether the timer is idle, should wait, or has fired.
func (r *RetransmitController) Poll(now time.Time) (RetransmitVerdict, time.Duration) {
	if !r.armed {
		return RetransmitIdle, 0
	}
	if now.Before(r.deadline) {
		return RetransmitWait, r.deadline.Sub(now)
	}
	return RetransmitFire, 0
}

// OnFire must be called after a RetransmitFire verdict, once the caller has
// re-sent the outstanding frame. It drives the RTT estimator's backoff and
// re-arms with the new effective RTO. It reports true once MaxRetransmits
// consecutive fires have occurred without an intervening OnAck, at which
// point the connection must close with ReasonPeerUnreachable.
func (r *RetransmitController) OnFire(est *RTTEstimator, now time.Time) (exhausted bool) {
	r.fireCount++
	est.OnTimeout()
	if r.fireCount >= MaxRetransmits {
		r.armed = false
		return true
	}
	r.Arm(now, est.CurrentRTO())
	return false
}

// FireCount reports the number of consecutive fires since the last OnAck,
// for diagnostics and tests.
func (r *RetransmitController) FireCount() int { return r.fireCount }
