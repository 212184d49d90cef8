package wanmon

import (
	"testing"
	"time"

	"mikronet/internal/db"
	"mikronet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	d, err := db.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(d))
	return NewRepo(d)
}

func latency(v float64) *float64 { return &v }

func TestRecordResultUpdatesMonitor(t *testing.T) {
	r := newTestRepo(t)
	m := &models.WanMonitor{Name: "uplink", Host: "8.8.8.8", IsActive: true}
	require.NoError(t, r.Create(m))

	at := time.Now()
	require.NoError(t, r.RecordResult(m.ID, at, PingResult{Success: true, Latency: latency(12.4)}))

	got, err := r.Get(m.ID)
	require.NoError(t, err)
	assert.True(t, got.LastPingSuccess)
	require.NotNil(t, got.LastPingLatency)
	assert.Equal(t, 12.4, *got.LastPingLatency)
	require.NotNil(t, got.LastPingTime)

	n, err := r.HistoryCount(m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRecordResultFailureKeepsMessage(t *testing.T) {
	r := newTestRepo(t)
	m := &models.WanMonitor{Name: "uplink", Host: "10.99.99.99", IsActive: true}
	require.NoError(t, r.Create(m))

	msg := pingFailedMsg
	require.NoError(t, r.RecordResult(m.ID, time.Now(), PingResult{Success: false, Error: &msg}))

	rows, err := r.HistorySince(m.ID, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].Success)
	assert.Nil(t, rows[0].Latency)
	require.NotNil(t, rows[0].ErrorMessage)
	assert.Equal(t, pingFailedMsg, *rows[0].ErrorMessage)
}

func TestPruneHistoryKeepsMostRecent(t *testing.T) {
	r := newTestRepo(t)
	m := &models.WanMonitor{Name: "uplink", Host: "8.8.8.8", IsActive: true}
	require.NoError(t, r.Create(m))

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 15; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, r.RecordResult(m.ID, at, PingResult{Success: true, Latency: latency(float64(i))}))
	}

	require.NoError(t, r.PruneHistory(m.ID, 10))

	n, err := r.HistoryCount(m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)

	rows, err := r.HistorySince(m.ID, base.Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, rows, 10)
	// the newest row survives, the oldest five are gone
	assert.Equal(t, 14.0, *rows[0].Latency)
	assert.Equal(t, 5.0, *rows[len(rows)-1].Latency)
}

func TestPruneHistoryUnderLimitIsNoop(t *testing.T) {
	r := newTestRepo(t)
	m := &models.WanMonitor{Name: "uplink", Host: "8.8.8.8", IsActive: true}
	require.NoError(t, r.Create(m))

	require.NoError(t, r.RecordResult(m.ID, time.Now(), PingResult{Success: true, Latency: latency(1)}))
	require.NoError(t, r.PruneHistory(m.ID, 10))

	n, _ := r.HistoryCount(m.ID)
	assert.Equal(t, int64(1), n)
}

func TestPruneHistoryPerMonitor(t *testing.T) {
	r := newTestRepo(t)
	m1 := &models.WanMonitor{Name: "a", Host: "8.8.8.8", IsActive: true}
	m2 := &models.WanMonitor{Name: "b", Host: "1.1.1.1", IsActive: true}
	require.NoError(t, r.Create(m1))
	require.NoError(t, r.Create(m2))

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, r.RecordResult(m1.ID, at, PingResult{Success: true, Latency: latency(1)}))
		require.NoError(t, r.RecordResult(m2.ID, at, PingResult{Success: true, Latency: latency(1)}))
	}

	require.NoError(t, r.PruneHistory(m1.ID, 2))

	n1, _ := r.HistoryCount(m1.ID)
	n2, _ := r.HistoryCount(m2.ID)
	assert.Equal(t, int64(2), n1)
	assert.Equal(t, int64(5), n2)
}

func TestListActive(t *testing.T) {
	r := newTestRepo(t)
	require.NoError(t, r.Create(&models.WanMonitor{Name: "on", Host: "8.8.8.8", IsActive: true}))
	paused := &models.WanMonitor{Name: "off", Host: "9.9.9.9", IsActive: true}
	require.NoError(t, r.Create(paused))
	paused.IsActive = false
	require.NoError(t, r.Save(paused))

	active, err := r.ListActive()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "on", active[0].Name)
}

func TestSeedDefaults(t *testing.T) {
	r := newTestRepo(t)
	require.NoError(t, r.SeedDefaults())

	all, err := r.List()
	require.NoError(t, err)
	require.Len(t, all, 2)

	hosts := []string{all[0].Host, all[1].Host}
	assert.Contains(t, hosts, "8.8.8.8")
	assert.Contains(t, hosts, "1.1.1.1")

	// a second call must not duplicate
	require.NoError(t, r.SeedDefaults())
	all, _ = r.List()
	assert.Len(t, all, 2)
}
