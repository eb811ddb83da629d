package transport

// windowBits is the size of the sliding anti-replay window in bits (2048),
// stored as 32 64-bit words.
const (
	windowBits = 2048
	windowWords = windowBits / 64
)

// ReplayVerdict is the result of checking a nonce against the anti-replay
// window.
type ReplayVerdict int

const (
	// VerdictOk is returned when a nonce is newly accepted: the very
	// first nonce ever observed (which anchors the window), one that
	// advances the window, or one that falls inside the window at a
	// previously-unset bit.
	VerdictOk ReplayVerdict = iota
	// VerdictReplayInWindow is returned when the nonce falls inside the
	// window at an already-set bit.
	VerdictReplayInWindow
	// VerdictReplayBelowWindow is returned when the nonce is older than
	// the window can represent.
	VerdictReplayBelowWindow
)

// NonceWindow is a sliding bitmap of the most recently accepted nonces,
// implementing the anti-replay filter of §4.2. The zero value is ready to
// use. check_and_update is amortized O(1) for small advances and O(32) for
// large ones; it never allocates.
type NonceWindow struct {
	words       [windowWords]uint64
	highestSeen uint64
	initialized bool
}

// CheckAndUpdate classifies nonce against the window and, if accepted,
// records it. Bit 0 always represents highestSeen; bit k represents
// highestSeen-k for 0 <= k < windowBits.
func (w *NonceWindow) CheckAndUpdate(nonce uint64) ReplayVerdict {
	if !w.initialized {
		w.initialized = true
		w.highestSeen = nonce
		w.words = [windowWords]uint64{}
		w.setBit(0)
		return VerdictOk
	}

	if nonce > w.highestSeen {
		delta := nonce - w.highestSeen
		w.advance(delta)
		w.highestSeen = nonce
		w.setBit(0)
		return VerdictOk
	}

	k := w.highestSeen - nonce
	if k >= windowBits {
		return VerdictReplayBelowWindow
	}

	if w.testBit(int(k)) {
		return VerdictReplayInWindow
	}
	w.setBit(int(k))
	return VerdictOk
}

// HighestSeen returns the highest nonce accepted so far.
func (w *NonceWindow) HighestSeen() uint64 { return w.highestSeen }

// advance shifts the window so bit 0 is free for the new highest nonce,
// dropping bits that fall outside the 2048-bit range.
func (w *NonceWindow) advance(delta uint64) {
	if delta > windowBits {
		delta = windowBits
	}
	old := w.words
	wordShift := int(delta / 64)
	bitShift := uint(delta % 64)

	for k := windowWords - 1; k >= 0; k-- {
		srcIdx := k - wordShift
		var v uint64
		if srcIdx >= 0 && srcIdx < windowWords {
			v = old[srcIdx] << bitShift
			if bitShift > 0 && srcIdx-1 >= 0 {
				v |= old[srcIdx-1] >> (64 - bitShift)
			}
		}
		w.words[k] = v
	}
}

func (w *NonceWindow) setBit(k int) {
	w.words[k/64] |= 1 << uint(k%64)
}

func (w *NonceWindow) testBit(k int) bool {
	return w.words[k/64]&(1<<uint(k%64)) != 0
}
