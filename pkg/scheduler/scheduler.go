package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/predictvip/pkg/logger"
)

var (
	ErrJobAlreadyRegistered = errors.New("job already registered")
	ErrInvalidJob           = errors.New("job needs a name, a schedule and a function")
	ErrAlreadyRunning       = errors.New("scheduler is already running")
)

// JobFunc is one run of a job.
type JobFunc func(ctx context.Context) error

type job struct {
	name     string
	schedule Schedule
	fn       JobFunc
	timeout  time.Duration
}

// Scheduler runs registered jobs on their schedules.
type Scheduler struct {
	mu      sync.Mutex
	jobs    []job
	running bool

	logger     *slog.Logger
	now        func() time.Time
	runOnStart bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used to compute run times.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRunOnStart runs every job once as soon as Run starts.
func WithRunOnStart() Option {
	return func(s *Scheduler) {
		s.runOnStart = true
	}
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("scheduler"))
	return s
}

// JobOption configures a registered job.
type JobOption func(*job)

// WithTimeout bounds a single run of the job.
func WithTimeout(d time.Duration) JobOption {
	return func(j *job) {
		j.timeout = d
	}
}

// Register adds a job. Jobs must be registered before Run.
func (s *Scheduler) Register(name string, schedule Schedule, fn JobFunc, opts ...JobOption) error {
	if name == "" || schedule == nil || fn == nil {
		return ErrInvalidJob
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}
	for _, j := range s.jobs {
		if j.name == name {
			return fmt.Errorf("%w: %s", ErrJobAlreadyRegistered, name)
		}
	}

	j := job{name: name, schedule: schedule, fn: fn}
	for _, opt := range opts {
		opt(&j)
	}
	s.jobs = append(s.jobs, j)
	return nil
}

// Run blocks until ctx is cancelled, running jobs on their schedules.
// It returns nil on cancellation.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	jobs := append([]job(nil), s.jobs...)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	g, ctx := errgroup.WithContext(ctx)
	for _, j := range jobs {
		s.logger.InfoContext(ctx, "job scheduled",
			slog.String("job", j.name), slog.String("schedule", j.schedule.String()))
		g.Go(func() error {
			s.loop(ctx, j)
			return nil
		})
	}
	return g.Wait()
}

func (s *Scheduler) loop(ctx context.Context, j job) {
	if s.runOnStart {
		s.execute(ctx, j)
	}

	for {
		now := s.now()
		timer := time.NewTimer(max(j.schedule.Next(now).Sub(now), 0))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		s.execute(ctx, j)
	}
}

// execute runs j once. Panics are recovered so one bad run does not stop the loop.
func (s *Scheduler) execute(ctx context.Context, j job) {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	start := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("job panicked: %v", r)
			}
		}()
		return j.fn(ctx)
	}()

	if err != nil {
		s.logger.ErrorContext(ctx, "job failed",
			slog.String("job", j.name), logger.Duration(time.Since(start)), logger.Error(err))
		return
	}
	s.logger.InfoContext(ctx, "job completed",
		slog.String("job", j.name), logger.Duration(time.Since(start)))
}
