// Package scheduler triggers snapshot rebuilds on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"lotto-mcp/internal/history"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Rebuilder replaces the active snapshot.
type Rebuilder interface {
	Rebuild(ctx context.Context) (history.Info, error)
}

// Parser accepts six-field specs (seconds first) and descriptors like @daily.
var Parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler runs rebuilds on a fixed spec. Overlapping runs are skipped.
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	timeout time.Duration
}

// New validates spec and registers the rebuild job. The job is not started.
func New(spec string, rebuilder Rebuilder, timeout time.Duration) (*Scheduler, error) {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	c := cron.New(
		cron.WithParser(Parser),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{})),
	)

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		log.Info().Str("spec", spec).Msg("Scheduled rebuild starting")
		info, err := rebuilder.Rebuild(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Scheduled rebuild failed")
			return
		}
		log.Info().Int("draws", info.Count).Int("latest", info.LastRound).Msg("Scheduled rebuild finished")
	})
	if err != nil {
		return nil, fmt.Errorf("invalid rebuild schedule %q: %w", spec, err)
	}
	return &Scheduler{cron: c, spec: spec, timeout: timeout}, nil
}

// Next reports the next activation time after now.
func (s *Scheduler) Next(now time.Time) time.Time {
	sched, err := Parser.Parse(s.spec)
	if err != nil {
		return time.Time{}
	}
	return sched.Next(now)
}

// Run starts the schedule and blocks until ctx is cancelled, then waits for a
// running job to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	log.Info().Str("spec", s.spec).Time("next", s.Next(time.Now())).Msg("Rebuild schedule active")

	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
