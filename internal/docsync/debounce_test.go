package docsync

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_CoalescesBursts(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.StopAll()

	var fired atomic.Int32
	for i := 0; i < 10; i++ {
		d.Schedule("a.pdf", func() { fired.Add(1) })
		time.Sleep(2 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return fired.Load() == 1 },
		time.Second, 5*time.Millisecond, "burst of schedules must fire exactly once")

	// nothing else should be pending
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
	assert.Equal(t, 0, d.Pending())
}

func TestDebouncer_LastCallWins(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.StopAll()

	var mu sync.Mutex
	var got []string

	d.Schedule("key", func() {
		mu.Lock()
		got = append(got, "first")
		mu.Unlock()
	})
	d.Schedule("key", func() {
		mu.Lock()
		got = append(got, "second")
		mu.Unlock()
	})

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"second"}, got)
}

func TestDebouncer_IndependentKeys(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.StopAll()

	var fired atomic.Int32
	d.Schedule("a", func() { fired.Add(1) })
	d.Schedule("b", func() { fired.Add(1) })
	d.Schedule("c", func() { fired.Add(1) })

	assert.Eventually(t, func() bool { return fired.Load() == 3 },
		time.Second, 5*time.Millisecond)
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.StopAll()

	var fired atomic.Int32
	d.Schedule("a", func() { fired.Add(1) })
	d.Cancel("a")

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
	assert.Equal(t, 0, d.Pending())
}

func TestDebouncer_StopAll(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	var fired atomic.Int32
	d.Schedule("a", func() { fired.Add(1) })
	d.Schedule("b", func() { fired.Add(1) })
	assert.Equal(t, 2, d.Pending())

	d.StopAll()
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestDebouncer_FiredCallbackKeepsRearmedTimer(t *testing.T) {
	d := NewDebouncer(5 * time.Millisecond)
	defer d.StopAll()

	fired := make(chan struct{})
	d.Schedule("key", func() { close(fired) })

	// hold the lock until after the timer fires, so its callback is
	// blocked, then re-arm the key the way a fresh Schedule would
	d.mu.Lock()
	time.Sleep(30 * time.Millisecond)
	d.timers["key"] = time.AfterFunc(time.Hour, func() {})
	d.mu.Unlock()

	<-fired

	// the stale callback must not have forgotten the re-armed timer
	assert.Equal(t, 1, d.Pending())
	d.Cancel("key")
	assert.Equal(t, 0, d.Pending())
}
