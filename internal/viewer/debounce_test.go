package viewer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCoalescesBurst(t *testing.T) {
	var calls atomic.Int32
	d := newDebouncer(100*time.Millisecond, func() { calls.Add(1) })

	start := time.Now()
	for i := 0; i < 20; i++ {
		d.Call()
		time.Sleep(2500 * time.Microsecond)
	}
	if elapsed := time.Since(start); elapsed > 95*time.Millisecond {
		t.Skipf("burst took %v, too slow to be meaningful", elapsed)
	}
	time.Sleep(250 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("callback ran %d times, want 1", n)
	}
}

func TestDebouncerTrailing(t *testing.T) {
	fired := make(chan time.Time, 1)
	d := newDebouncer(40*time.Millisecond, func() { fired <- time.Now() })

	last := time.Now()
	d.Call()
	select {
	case at := <-fired:
		if at.Sub(last) < 40*time.Millisecond {
			t.Errorf("fired after %v, before the quiet period", at.Sub(last))
		}
	case <-time.After(time.Second):
		t.Fatal("callback never ran")
	}
}

func TestDebouncerStop(t *testing.T) {
	var calls atomic.Int32
	d := newDebouncer(20*time.Millisecond, func() { calls.Add(1) })

	d.Call()
	d.Stop()
	d.Call()
	time.Sleep(80 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("callback ran %d times after Stop", n)
	}
}
