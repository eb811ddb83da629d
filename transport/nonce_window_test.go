package transport

import "testing"

// S2 — replay rejection. Feed nonces {0,1,2,5,4,2,10000} into a fresh
// window. Expected verdicts: Ok, Ok, Ok, Ok, Ok, ReplayInWindow, Ok.
func TestNonceWindow_S2(t *testing.T) {
	var w NonceWindow
	nonces := []uint64{0, 1, 2, 5, 4, 2, 10000}
	want := []ReplayVerdict{
		VerdictOk, VerdictOk, VerdictOk, VerdictOk, VerdictOk,
		VerdictReplayInWindow, VerdictOk,
	}

	for i, n := range nonces {
		got := w.CheckAndUpdate(n)
		if got != want[i] {
			t.Fatalf("nonce %d (index %d): verdict = %v, want %v", n, i, got, want[i])
		}
	}

	if w.HighestSeen() != 10000 {
		t.Fatalf("highestSeen = %d, want 10000", w.HighestSeen())
	}
}

func TestNonceWindow_BelowWindow(t *testing.T) {
	var w NonceWindow
	w.CheckAndUpdate(5000)

	if got := w.CheckAndUpdate(5000 - 2047); got != VerdictReplayInWindow && got != VerdictOk {
		t.Fatalf("boundary nonce verdict = %v, want Ok or ReplayInWindow (still in window)", got)
	}
	if got := w.CheckAndUpdate(5000 - 2048); got != VerdictReplayBelowWindow {
		t.Fatalf("verdict = %v, want ReplayBelowWindow", got)
	}
}

func TestNonceWindow_AcceptsAtMostOnce(t *testing.T) {
	var w NonceWindow
	seen := make(map[uint64]int)
	sequence := []uint64{0, 3, 3, 1, 2, 2, 2, 7, 6, 5, 4, 4, 4, 100, 99, 98}
	for _, n := range sequence {
		if w.CheckAndUpdate(n) == VerdictOk {
			seen[n]++
		}
	}
	for n, count := range seen {
		if count != 1 {
			t.Fatalf("nonce %d accepted %d times, want exactly 1", n, count)
		}
	}
}

func TestNonceWindow_FarBelowAlwaysRejected(t *testing.T) {
	var w NonceWindow
	w.CheckAndUpdate(1_000_000)
	for _, n := range []uint64{0, 1, 500, 1_000_000 - 2048, 1_000_000 - 3000} {
		if got := w.CheckAndUpdate(n); got != VerdictReplayBelowWindow {
			t.Fatalf("nonce %d: verdict = %v, want ReplayBelowWindow", n, got)
		}
	}
}

func TestNonceWindow_LargeAdvanceClearsWindow(t *testing.T) {
	var w NonceWindow
	w.CheckAndUpdate(10)
	w.CheckAndUpdate(20)
	// Jump far beyond the window; everything before should now be
	// unreachable (ReplayBelowWindow), and the new nonce is accepted.
	if got := w.CheckAndUpdate(100000); got != VerdictOk {
		t.Fatalf("verdict = %v, want Ok", got)
	}
	if got := w.CheckAndUpdate(20); got != VerdictReplayBelowWindow {
		t.Fatalf("verdict = %v, want ReplayBelowWindow", got)
	}
}
