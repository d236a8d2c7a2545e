package watch

import (
	"testing"
	"time"
)

func newCountingDebouncer(window time.Duration) (*Debouncer, chan struct{}) {
	fired := make(chan struct{}, 16)
	return NewDebouncer(window, func() { fired <- struct{}{} }), fired
}

func firedCount(fired chan struct{}, wait time.Duration) int {
	deadline := time.After(wait)
	n := 0
	for {
		select {
		case <-fired:
			n++
		case <-deadline:
			return n
		}
	}
}

func TestDebouncerFiresOnceAfterQuietPeriod(t *testing.T) {
	d, fired := newCountingDebouncer(40 * time.Millisecond)
	defer d.Stop()

	// A burst of writes to one catalog file.
	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}

	if n := firedCount(fired, 150*time.Millisecond); n != 1 {
		t.Fatalf("fired %d times, want 1", n)
	}
}

func TestDebouncerStopCancelsPendingImport(t *testing.T) {
	d, fired := newCountingDebouncer(30 * time.Millisecond)
	d.Trigger()
	d.Stop()

	if n := firedCount(fired, 80*time.Millisecond); n != 0 {
		t.Fatalf("fired %d times after Stop", n)
	}
}

func TestDebouncerFlush(t *testing.T) {
	d, fired := newCountingDebouncer(time.Hour)
	defer d.Stop()

	d.Flush()
	if len(fired) != 0 {
		t.Fatal("flush with nothing pending must not fire")
	}

	d.Trigger()
	d.Flush()
	d.Flush()
	if len(fired) != 1 {
		t.Fatalf("fired %d times, want exactly 1", len(fired))
	}
}
