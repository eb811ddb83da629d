package transport

import "time"

// timestampTrackerCapacity bounds the number of outstanding send timestamps
// tracked per connection; oldest entries are evicted first.
const timestampTrackerCapacity = 64

type timestampEntry struct {
	sendTimestamp uint64
	sendInstant   time.Time
}

// TimestampTracker matches echoed timestamps to RTT samples (§4.4). Record
// is called once per outbound frame carrying a fresh send_timestamp; Consume
// is called when an inbound frame's echo_timestamp references one of our
// prior sends. The zero value is ready to use.
type TimestampTracker struct {
	entries []timestampEntry // FIFO, oldest first
}

// Record inserts a new (send_timestamp, now) pair, evicting the oldest entry
// if the tracker is at capacity.
func (t *TimestampTracker) Record(sendTimestamp uint64, now time.Time) {
	if len(t.entries) >= timestampTrackerCapacity {
		t.entries = t.entries[1:]
	}
	t.entries = append(t.entries, timestampEntry{sendTimestamp: sendTimestamp, sendInstant: now})
}

// Consume looks up echoTimestamp, returning the elapsed wall time since it
// was recorded and evicting it along with any older (now-stale) entries. A
// duplicate or unrecognized echo yields (0, false).
func (t *TimestampTracker) Consume(echoTimestamp uint64, now time.Time) (time.Duration, bool) {
	for i, e := range t.entries {
		if e.sendTimestamp == echoTimestamp {
			elapsed := now.Sub(e.sendInstant)
			t.entries = t.entries[i+1:]
			return elapsed, true
		}
	}
	return 0, false
}

// Len reports the number of outstanding entries, for tests and diagnostics.
func (t *TimestampTracker) Len() int { return len(t.entries) }
