package wanmon

import (
	"context"
	"sync"
	"testing"
	"time"

	"mikronet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProber answers per host and counts probes.
type scriptedProber struct {
	mu      sync.Mutex
	results map[string]PingResult
	probes  map[string]int
}

func newScriptedProber() *scriptedProber {
	return &scriptedProber{results: map[string]PingResult{}, probes: map[string]int{}}
}

func (p *scriptedProber) set(host string, res PingResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results[host] = res
}

func (p *scriptedProber) count(host string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.probes[host]
}

func (p *scriptedProber) Ping(host string) PingResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.probes[host]++
	if res, ok := p.results[host]; ok {
		return res
	}
	msg := pingFailedMsg
	return PingResult{Success: false, Error: &msg}
}

func TestSweepProbesOnlyActiveMonitors(t *testing.T) {
	r := newTestRepo(t)
	on := &models.WanMonitor{Name: "on", Host: "8.8.8.8", IsActive: true}
	off := &models.WanMonitor{Name: "off", Host: "9.9.9.9", IsActive: true}
	require.NoError(t, r.Create(on))
	require.NoError(t, r.Create(off))
	off.IsActive = false
	require.NoError(t, r.Save(off))

	p := newScriptedProber()
	p.set("8.8.8.8", PingResult{Success: true, Latency: latency(10)})

	NewScheduler(r, p, time.Minute, 100).Sweep()

	assert.Equal(t, 1, p.count("8.8.8.8"))
	assert.Equal(t, 0, p.count("9.9.9.9"))

	got, err := r.Get(on.ID)
	require.NoError(t, err)
	assert.True(t, got.LastPingSuccess)
}

func TestSweepIsolatesFailures(t *testing.T) {
	r := newTestRepo(t)
	bad := &models.WanMonitor{Name: "bad", Host: "10.99.99.99", IsActive: true}
	good := &models.WanMonitor{Name: "good", Host: "8.8.8.8", IsActive: true}
	require.NoError(t, r.Create(bad))
	require.NoError(t, r.Create(good))

	p := newScriptedProber()
	p.set("8.8.8.8", PingResult{Success: true, Latency: latency(10)})
	// 10.99.99.99 falls through to the default failure result

	NewScheduler(r, p, time.Minute, 100).Sweep()

	gotBad, _ := r.Get(bad.ID)
	gotGood, _ := r.Get(good.ID)
	assert.False(t, gotBad.LastPingSuccess)
	assert.True(t, gotGood.LastPingSuccess)

	nb, _ := r.HistoryCount(bad.ID)
	ng, _ := r.HistoryCount(good.ID)
	assert.Equal(t, int64(1), nb)
	assert.Equal(t, int64(1), ng)
}

func TestSweepEnforcesHistoryLimit(t *testing.T) {
	r := newTestRepo(t)
	m := &models.WanMonitor{Name: "uplink", Host: "8.8.8.8", IsActive: true}
	require.NoError(t, r.Create(m))

	p := newScriptedProber()
	p.set("8.8.8.8", PingResult{Success: true, Latency: latency(5)})

	s := NewScheduler(r, p, time.Minute, 3)
	for i := 0; i < 6; i++ {
		s.Sweep()
	}

	n, err := r.HistoryCount(m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestRunStopsOnCancel(t *testing.T) {
	r := newTestRepo(t)
	m := &models.WanMonitor{Name: "uplink", Host: "8.8.8.8", IsActive: true}
	require.NoError(t, r.Create(m))

	p := newScriptedProber()
	p.set("8.8.8.8", PingResult{Success: true, Latency: latency(5)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewScheduler(r, p, 10*time.Millisecond, 100).Run(ctx)
		close(done)
	}()

	// wait for the immediate first sweep plus at least one tick
	deadline := time.After(2 * time.Second)
	for p.count("8.8.8.8") < 2 {
		select {
		case <-deadline:
			t.Fatal("scheduler never ticked")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
}

func TestNewSchedulerDefaults(t *testing.T) {
	s := NewScheduler(nil, nil, 0, 0)
	assert.Equal(t, 2*time.Minute, s.interval)
	assert.Equal(t, 1000, s.historyLimit)
}
