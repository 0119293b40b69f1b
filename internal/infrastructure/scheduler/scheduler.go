// Package scheduler runs periodic background tasks such as keeping the
// reference snapshot cache warm.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobStatus is the outcome of a task's most recent run
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Task is a unit of periodic work
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

type funcTask struct {
	name string
	fn   func(ctx context.Context) error
}

func (t funcTask) Name() string                  { return t.name }
func (t funcTask) Run(ctx context.Context) error { return t.fn(ctx) }

// TaskFunc adapts a function to a Task
func TaskFunc(name string, fn func(ctx context.Context) error) Task {
	return funcTask{name: name, fn: fn}
}

// Config holds scheduler configuration
type Config struct {
	// Interval between runs of every task
	Interval time.Duration
	// JobTimeout bounds a single attempt
	JobTimeout time.Duration
	// RetryAttempts is the number of retries after a failed attempt
	RetryAttempts int
	// RetryDelay is the pause between retries
	RetryDelay time.Duration
	// RunOnStart runs every task once immediately after Start
	RunOnStart bool
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Interval:      5 * time.Minute,
		JobTimeout:    30 * time.Second,
		RetryAttempts: 2,
		RetryDelay:    5 * time.Second,
		RunOnStart:    true,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if c.JobTimeout <= 0 {
		return fmt.Errorf("%w: job timeout must be positive", ErrInvalidConfig)
	}
	if c.RetryAttempts < 0 || c.RetryDelay < 0 {
		return fmt.Errorf("%w: retries cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// RunRecord describes the most recent run of a task
type RunRecord struct {
	Status      JobStatus
	Attempts    int
	Error       string
	StartedAt   time.Time
	CompletedAt time.Time
}

// Scheduler runs registered tasks on a fixed interval, one goroutine per task
type Scheduler struct {
	config Config
	logger *zap.Logger

	tasks   []Task
	records map[string]RunRecord

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// New creates a scheduler
func New(config Config, logger *zap.Logger) (*Scheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config:  config,
		logger:  logger,
		records: make(map[string]RunRecord),
	}, nil
}

// Register adds a task. Tasks must be registered before Start.
func (s *Scheduler) Register(task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return ErrSchedulerRunning
	}
	if _, ok := s.records[task.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, task.Name())
	}
	s.tasks = append(s.tasks, task)
	s.records[task.Name()] = RunRecord{Status: JobStatusPending}
	return nil
}

// Start launches the task loops. Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	tasks := append([]Task(nil), s.tasks...)
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, task := range tasks {
		s.wg.Add(1)
		go s.loop(ctx, task)
	}

	s.logger.Info("Scheduler started",
		zap.Int("tasks", len(tasks)),
		zap.Duration("interval", s.config.Interval),
	)
}

// Stop cancels the task loops and waits for in-flight runs
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// Record returns the most recent run of the named task
func (s *Scheduler) Record(name string) (RunRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[name]
	return r, ok
}

func (s *Scheduler) loop(ctx context.Context, task Task) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		s.run(ctx, task)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.run(ctx, task)
		}
	}
}

// run executes one scheduled run of task with retries
func (s *Scheduler) run(ctx context.Context, task Task) {
	record := RunRecord{Status: JobStatusRunning, StartedAt: time.Now()}
	s.setRecord(task.Name(), record)

	var err error
	for attempt := 0; attempt <= s.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.config.RetryDelay):
			}
		}
		record.Attempts++

		jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
		err = task.Run(jobCtx)
		cancel()
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("Scheduled task failed",
			zap.String("task", task.Name()),
			zap.Int("attempt", record.Attempts),
			zap.Error(err),
		)
	}

	record.CompletedAt = time.Now()
	if err != nil {
		record.Status = JobStatusFailed
		record.Error = err.Error()
		s.logger.Error("Scheduled task gave up",
			zap.String("task", task.Name()),
			zap.Int("attempts", record.Attempts),
			zap.Error(err),
		)
	} else {
		record.Status = JobStatusSuccess
		s.logger.Debug("Scheduled task completed",
			zap.String("task", task.Name()),
			zap.Duration("duration", record.CompletedAt.Sub(record.StartedAt)),
		)
	}
	s.setRecord(task.Name(), record)
}

func (s *Scheduler) setRecord(name string, r RunRecord) {
	s.mu.Lock()
	s.records[name] = r
	s.mu.Unlock()
}
