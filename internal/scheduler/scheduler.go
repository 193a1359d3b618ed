// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

var (
	// ErrUnknownTask is returned for task IDs that were never registered.
	ErrUnknownTask = errors.New("unknown task")

	// ErrTaskRunning is returned by RunNow while the task is executing.
	ErrTaskRunning = errors.New("task already running")
)

// TaskFunc is the body of a scheduled task.
type TaskFunc func(ctx context.Context) error

// Task describes a scheduled job.
type Task struct {
	ID         string
	Name       string
	Cron       string // standard five-field expression, e.g. "0 4 * * *"
	Run        TaskFunc
	RunOnStart bool
}

// TaskInfo is a snapshot of a task's state.
type TaskInfo struct {
	ID      string
	Name    string
	Cron    string
	LastRun *time.Time
	LastErr error
	NextRun *time.Time
	Running bool
}

type entry struct {
	task    Task
	job     gocron.Job
	lastRun *time.Time
	lastErr error
	running bool
}

// Scheduler wraps gocron with task bookkeeping.
type Scheduler struct {
	gocron gocron.Scheduler
	log    zerolog.Logger

	mu      sync.Mutex
	tasks   map[string]*entry
	ctx     context.Context
	cancel  context.CancelFunc
	running sync.WaitGroup
}

// New creates a scheduler. Jobs run in the given location.
func New(logger zerolog.Logger, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	gs, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		gocron: gs,
		log:    logger.With().Str("component", "scheduler").Logger(),
		tasks:  make(map[string]*entry),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Register adds a task. IDs must be unique. A task without a name is
// named after its ID.
func (s *Scheduler) Register(t Task) error {
	if t.ID == "" {
		return errors.New("task id is required")
	}
	if t.Name == "" {
		t.Name = t.ID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[t.ID]; ok {
		return fmt.Errorf("task %q already registered", t.ID)
	}
	job, err := s.gocron.NewJob(
		gocron.CronJob(t.Cron, false),
		gocron.NewTask(func() { s.execute(t.ID) }),
		gocron.WithName(t.Name),
		gocron.WithTags(t.ID),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule task %q: %w", t.ID, err)
	}
	s.tasks[t.ID] = &entry{task: t, job: job}

	s.log.Info().Str("id", t.ID).Str("cron", t.Cron).Bool("run_on_start", t.RunOnStart).Msg("registered task")
	return nil
}

// execute runs a task unless it is already running.
func (s *Scheduler) execute(id string) {
	s.mu.Lock()
	e, ok := s.tasks[id]
	if !ok || e.running {
		s.mu.Unlock()
		return
	}
	e.running = true
	s.running.Add(1)
	s.mu.Unlock()
	defer s.running.Done()

	start := time.Now()
	s.log.Info().Str("id", id).Msg("task started")
	err := e.task.Run(s.ctx)

	s.mu.Lock()
	e.running = false
	e.lastRun = &start
	e.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.log.Error().Err(err).Str("id", id).Dur("duration", time.Since(start)).Msg("task failed")
		return
	}
	s.log.Info().Str("id", id).Dur("duration", time.Since(start)).Msg("task completed")
}

// Start starts the cron loop and launches RunOnStart tasks.
func (s *Scheduler) Start() {
	s.gocron.Start()

	s.mu.Lock()
	total := len(s.tasks)
	var startup []string
	for id, e := range s.tasks {
		if e.task.RunOnStart {
			startup = append(startup, id)
		}
	}
	s.mu.Unlock()

	for _, id := range startup {
		go s.execute(id)
	}
	s.log.Info().Int("tasks", total).Msg("scheduler started")
}

// Stop cancels running tasks, waits for them and shuts the cron loop down.
func (s *Scheduler) Stop() error {
	s.cancel()
	err := s.gocron.Shutdown()
	s.running.Wait()
	s.log.Info().Msg("scheduler stopped")
	return err
}

// RunNow triggers a task in the background.
func (s *Scheduler) RunNow(id string) error {
	s.mu.Lock()
	e, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownTask, id)
	}
	running := e.running
	s.mu.Unlock()

	if running {
		return fmt.Errorf("%w: %q", ErrTaskRunning, id)
	}
	go s.execute(id)
	return nil
}

// Tasks lists registered tasks ordered by ID.
func (s *Scheduler) Tasks() []TaskInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TaskInfo, 0, len(s.tasks))
	for _, e := range s.tasks {
		info := TaskInfo{
			ID:      e.task.ID,
			Name:    e.task.Name,
			Cron:    e.task.Cron,
			LastRun: e.lastRun,
			LastErr: e.lastErr,
			Running: e.running,
		}
		if next, err := e.job.NextRun(); err == nil && !next.IsZero() {
			info.NextRun = &next
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
