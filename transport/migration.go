package transport

import (
	"net"
	"time"
)

// migrationRateLimit is the window within which a second migration attempt
// from the same subnet as the previous migration is rejected.
const migrationRateLimit = time.Second

// MigrationController validates new peer addresses across a live session,
// enforcing anti-amplification until a candidate is promoted and rate
// limiting rapid address flapping from a single subnet (§4.8). The zero
// value is ready to use; the first frame received anchors validatedAddr.
type MigrationController struct {
	validatedAddr *net.UDPAddr
	pendingAddr   *net.UDPAddr

	bytesToPending           uint64
	bytesReceivedFromPending uint64

	lastMigrationAt     time.Time
	lastMigrationSubnet string
}

// ValidatedAddr returns the current validated remote address, or nil before
// the first frame has been observed.
func (m *MigrationController) ValidatedAddr() *net.UDPAddr { return m.validatedAddr }

// PendingAddr returns the address currently under validation, or nil.
func (m *MigrationController) PendingAddr() *net.UDPAddr { return m.pendingAddr }

// MigrationEvent reports what OnFrameReceived did, for metrics and logging.
type MigrationEvent int

const (
	MigrationNone MigrationEvent = iota
	MigrationAnchored
	MigrationCandidateObserved
	MigrationPromoted
	MigrationRejectedRateLimit
)

// OnFrameReceived updates migration state for a successfully AEAD-decrypted
// frame arriving from source. Rejected migrations never prevent delivery of
// the authenticated payload; the caller always proceeds to hand the payload
// upward regardless of this call's effect on the anchor.
func (m *MigrationController) OnFrameReceived(now time.Time, source *net.UDPAddr, frameLen int) MigrationEvent {
	if m.validatedAddr == nil {
		// First frame ever: anchor immediately, no migration involved.
		m.validatedAddr = source
		return MigrationAnchored
	}

	if addrEqual(source, m.validatedAddr) {
		return MigrationNone
	}

	if m.pendingAddr != nil && addrEqual(source, m.pendingAddr) {
		// A subsequent frame from the pending candidate confirms the peer
		// received our reply there: promote.
		m.validatedAddr = m.pendingAddr
		m.pendingAddr = nil
		m.bytesToPending = 0
		m.bytesReceivedFromPending = 0
		m.lastMigrationAt = now
		m.lastMigrationSubnet = subnetKey(source)
		return MigrationPromoted
	}

	subnet := subnetKey(source)
	if !m.lastMigrationAt.IsZero() &&
		now.Sub(m.lastMigrationAt) < migrationRateLimit &&
		subnet == m.lastMigrationSubnet {
		// Reject: keep the current anchor, throttle flapping.
		return MigrationRejectedRateLimit
	}

	m.pendingAddr = source
	m.bytesToPending = 0
	m.bytesReceivedFromPending = uint64(frameLen)
	return MigrationCandidateObserved
}

// CheckSend reports whether n bytes may be sent toward dest right now, and
// if so records them against the anti-amplification budget. Sends toward
// the validated address are always allowed; sends toward an unvalidated
// pending address are capped at 3x the bytes received from it so far.
func (m *MigrationController) CheckSend(dest *net.UDPAddr, n int) bool {
	if m.pendingAddr == nil || !addrEqual(dest, m.pendingAddr) {
		return true
	}
	if m.bytesToPending+uint64(n) > 3*m.bytesReceivedFromPending {
		return false
	}
	m.bytesToPending += uint64(n)
	return true
}

func addrEqual(a, b *net.UDPAddr) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.IP.Equal(b.IP) && a.Port == b.Port
}

// subnetKey returns the /24 prefix (IPv4) or /48 prefix (IPv6) of addr's IP,
// used to rate-limit repeated migrations from the same network.
func subnetKey(addr *net.UDPAddr) string {
	if v4 := addr.IP.To4(); v4 != nil {
		return string(v4[:3])
	}
	v6 := addr.IP.To16()
	if v6 == nil {
		return addr.IP.String()
	}
	return string(v6[:6])
}
