package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// LotReleaser is satisfied by investments.Service.
type LotReleaser interface {
	ReleaseMaturedLots(ctx context.Context) (int, error)
}

// Scheduler runs background jobs on cron schedules.
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
}

func New() *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{}))),
		timeout: 5 * time.Minute,
	}
}

// AddLotRelease schedules ReleaseMaturedLots. schedule is a standard cron
// expression or a descriptor such as "@every 1h".
func (s *Scheduler) AddLotRelease(schedule string, r LotReleaser) (cron.EntryID, error) {
	return s.cron.AddFunc(schedule, func() { s.runLotRelease(r) })
}

func (s *Scheduler) runLotRelease(r LotReleaser) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	start := time.Now()
	n, err := r.ReleaseMaturedLots(ctx)
	if err != nil {
		log.Error().Err(err).Int("released", n).Msg("scheduler: lot release failed")
		return
	}
	log.Info().Int("released", n).Int64("ms", time.Since(start).Milliseconds()).Msg("scheduler: lot release finished")
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		log.Warn().Msg("scheduler: stop timed out with jobs still running")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
