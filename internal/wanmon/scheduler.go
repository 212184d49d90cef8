package wanmon

import (
	"context"
	"time"

	"mikronet/internal/logs"

	"github.com/sirupsen/logrus"
)

// prober lets tests substitute the real Pinger with a scripted one.
type prober interface {
	Ping(host string) PingResult
}

// Scheduler sweeps all active monitors on a fixed interval. One instance per
// process; it is the only writer of the monitors' last_ping_* fields besides
// the on-demand ping endpoints.
type Scheduler struct {
	repo         *Repo
	pinger       prober
	interval     time.Duration
	historyLimit int
	log          *logrus.Entry
}

func NewScheduler(repo *Repo, pinger prober, interval time.Duration, historyLimit int) *Scheduler {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	if historyLimit <= 0 {
		historyLimit = 1000
	}
	return &Scheduler{
		repo:         repo,
		pinger:       pinger,
		interval:     interval,
		historyLimit: historyLimit,
		log:          logs.Component("wanmon"),
	}
}

// Run blocks until ctx is cancelled. The first sweep runs immediately.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Infof("WAN monitor sweep every %s", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("WAN monitor scheduler stopped")
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep pings every active monitor sequentially. A failure on one monitor
// never aborts the rest.
func (s *Scheduler) Sweep() {
	monitors, err := s.repo.ListActive()
	if err != nil {
		s.log.Errorf("list active monitors: %v", err)
		return
	}
	for _, m := range monitors {
		if err := s.probeOne(m.ID, m.Host); err != nil {
			s.log.Errorf("monitor %d (%s): %v", m.ID, m.Host, err)
		}
	}
}

func (s *Scheduler) probeOne(monitorID uint, host string) error {
	res := s.pinger.Ping(host)
	if err := s.repo.RecordResult(monitorID, time.Now(), res); err != nil {
		return err
	}
	return s.repo.PruneHistory(monitorID, s.historyLimit)
}
