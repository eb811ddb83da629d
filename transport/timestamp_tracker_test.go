package transport

import (
	"testing"
	"time"
)

func TestTimestampTracker_RecordConsume(t *testing.T) {
	var tr TimestampTracker
	base := time.Now()

	tr.Record(100, base)
	elapsed, ok := tr.Consume(100, base.Add(50*time.Millisecond))
	if !ok {
		t.Fatal("expected match")
	}
	if elapsed != 50*time.Millisecond {
		t.Fatalf("elapsed = %v, want 50ms", elapsed)
	}
}

func TestTimestampTracker_DuplicateEchoYieldsNone(t *testing.T) {
	var tr TimestampTracker
	base := time.Now()
	tr.Record(1, base)

	if _, ok := tr.Consume(1, base); !ok {
		t.Fatal("first consume should match")
	}
	if _, ok := tr.Consume(1, base); ok {
		t.Fatal("duplicate consume should yield no match")
	}
}

func TestTimestampTracker_ConsumeEvictsOlderEntries(t *testing.T) {
	var tr TimestampTracker
	base := time.Now()
	tr.Record(1, base)
	tr.Record(2, base)
	tr.Record(3, base)

	if _, ok := tr.Consume(2, base); !ok {
		t.Fatal("expected match for 2")
	}
	if tr.Len() != 1 {
		t.Fatalf("len = %d, want 1 (only 3 should remain)", tr.Len())
	}
	// Entry 1 was older than 2 and should have been evicted alongside it.
	if _, ok := tr.Consume(1, base); ok {
		t.Fatal("entry 1 should have been evicted")
	}
	if _, ok := tr.Consume(3, base); !ok {
		t.Fatal("entry 3 should still be present")
	}
}

func TestTimestampTracker_BoundedCapacity(t *testing.T) {
	var tr TimestampTracker
	base := time.Now()
	for i := uint64(0); i < timestampTrackerCapacity+10; i++ {
		tr.Record(i, base)
	}
	if tr.Len() != timestampTrackerCapacity {
		t.Fatalf("len = %d, want %d", tr.Len(), timestampTrackerCapacity)
	}
	// The oldest 10 entries should have been evicted.
	for i := uint64(0); i < 10; i++ {
		if _, ok := tr.Consume(i, base); ok {
			t.Fatalf("entry %d should have been evicted", i)
		}
	}
	if _, ok := tr.Consume(timestampTrackerCapacity+9, base); !ok {
		t.Fatal("most recent entry should still be present")
	}
}
