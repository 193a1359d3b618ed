package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vmunix/trackarr/internal/events"
	"github.com/vmunix/trackarr/internal/scheduler"
)

// Task IDs registered by the runner.
const (
	TaskCalendar     = "calendar"
	TaskHistoryPrune = "history-prune"
)

// Runner runs the daemon's background services until its context ends.
type Runner struct {
	app *App
	log zerolog.Logger
}

// NewRunner creates a runner for app.
func NewRunner(app *App) *Runner {
	return &Runner{app: app, log: app.Log.With().Str("component", "runner").Logger()}
}

// Run starts the scheduler and the history listener and blocks until ctx is
// canceled or a component fails. Cancellation is a clean exit.
func (r *Runner) Run(ctx context.Context) error {
	sched, err := scheduler.New(r.app.Log, r.app.Config.Tracking.Location())
	if err != nil {
		return err
	}
	if err := r.registerTasks(sched); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sched.Start()
		<-ctx.Done()
		return sched.Stop()
	})
	g.Go(func() error {
		r.listen(ctx)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (r *Runner) registerTasks(sched *scheduler.Scheduler) error {
	cfg := r.app.Config
	if cfg.Calendar.Enabled {
		err := sched.Register(scheduler.Task{
			ID:         TaskCalendar,
			Name:       "Reload calendar",
			Cron:       cfg.Calendar.Cron,
			RunOnStart: cfg.Calendar.RunOnStart,
			Run: func(ctx context.Context) error {
				_, err := r.app.Calendar.Reload(ctx)
				return err
			},
		})
		if err != nil {
			return fmt.Errorf("register calendar task: %w", err)
		}
	}

	if retention := cfg.History.Retention.Duration; retention > 0 {
		err := sched.Register(scheduler.Task{
			ID:   TaskHistoryPrune,
			Name: "Prune history",
			Cron: cfg.History.PruneCron,
			Run: func(context.Context) error {
				n, err := r.app.History.Prune(retention)
				if err != nil {
					return err
				}
				r.log.Info().Int64("deleted", n).Dur("retention", retention).Msg("history pruned")
				return nil
			},
		})
		if err != nil {
			return fmt.Errorf("register prune task: %w", err)
		}
	}
	return nil
}

// listen logs every published event at debug level.
func (r *Runner) listen(ctx context.Context) {
	ch := r.app.Bus.SubscribeAll(64)
	defer r.app.Bus.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			ev := r.log.Debug().Str("type", e.EventType()).Int64("user_id", e.UserID())
			if d, ok := e.(events.Describer); ok {
				ev = ev.Str("summary", d.Describe())
			}
			ev.Msg("event")
		}
	}
}
