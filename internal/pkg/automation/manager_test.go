package automation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetManagerSingleton(t *testing.T) {
	m1 := GetManager()
	m2 := GetManager()
	assert.Same(t, m1, m2)
}

func TestManagerStartStop(t *testing.T) {
	m := &Manager{stopCh: make(chan struct{})}

	assert.False(t, m.IsRunning())

	m.Start()
	assert.True(t, m.IsRunning())

	// Starting twice is a no-op
	m.Start()
	assert.True(t, m.IsRunning())

	m.Stop()
	assert.False(t, m.IsRunning())

	// Stopping twice is a no-op
	m.Stop()
	assert.False(t, m.IsRunning())

	// The manager can be restarted after a stop
	m.Start()
	assert.True(t, m.IsRunning())
	m.Stop()
	assert.False(t, m.IsRunning())
}

func TestManagerLastReportInitiallyNil(t *testing.T) {
	m := &Manager{stopCh: make(chan struct{})}
	assert.Nil(t, m.LastReport())
}

// A run that is still storing its report must not deadlock against Stop:
// Stop may not hold the manager mutex while waiting for the run to finish.
func TestManagerStopWaitsForInFlightRun(t *testing.T) {
	m := &Manager{stopCh: make(chan struct{})}
	m.Start()

	inFlight := make(chan struct{})
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		close(inFlight)
		time.Sleep(100 * time.Millisecond)
		m.mu.Lock()
		m.lastReport = &RunReport{}
		m.mu.Unlock()
	}()
	<-inFlight

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on an in-flight run")
	}

	assert.False(t, m.IsRunning())
	assert.NotNil(t, m.LastReport())
}

// The loop must keep honoring the stop signal while ticks are firing and
// exit promptly once Stop closes the channel.
func TestManagerStopReturnsWhileTicking(t *testing.T) {
	m := &Manager{stopCh: make(chan struct{})}
	m.Start()
	m.ticker.Reset(time.Millisecond)

	time.Sleep(10 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not return while ticks were firing")
	}
	assert.False(t, m.IsRunning())
}
