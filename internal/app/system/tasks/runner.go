// Package tasks runs the server's periodic maintenance jobs and records how
// each one last went, so health checks can report a job that keeps failing.
package tasks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrUnknownJob is returned for a name that was never registered.
var ErrUnknownJob = errors.New("unknown job")

// Job is a periodic task. It runs once at Start and then every Interval.
// A positive Timeout bounds each execution.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// Status describes a job's most recent execution.
type Status struct {
	Name         string
	Running      bool
	Runs         int
	LastStarted  time.Time
	LastDuration time.Duration
	LastErr      error
}

// Runner executes registered jobs on their intervals.
type Runner struct {
	logger *zap.Logger
	jobs   []Job
	wg     sync.WaitGroup
	cancel context.CancelFunc

	mu     sync.Mutex
	status map[string]*Status
}

// New creates a Runner.
func New(logger *zap.Logger) *Runner {
	return &Runner{
		logger: logger,
		status: map[string]*Status{},
	}
}

// Register adds a job. Register before Start.
func (r *Runner) Register(job Job) {
	r.jobs = append(r.jobs, job)
	r.mu.Lock()
	r.status[job.Name] = &Status{Name: job.Name}
	r.mu.Unlock()
}

// Start launches one goroutine per job. Call Stop to shut down.
func (r *Runner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	for _, job := range r.jobs {
		r.wg.Add(1)
		go r.loop(ctx, job)
	}
	r.logger.Info("background task runner started", zap.Strings("jobs", r.Names()))
}

// Stop cancels all jobs and waits for them until ctx is done. Jobs that
// ignore cancellation make Stop return ctx.Err().
func (r *Runner) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("background task runner stopped")
		return nil
	case <-ctx.Done():
		r.logger.Warn("background task runner shutdown timed out",
			zap.Strings("jobs_still_running", r.running()))
		return ctx.Err()
	}
}

func (r *Runner) loop(ctx context.Context, job Job) {
	defer r.wg.Done()

	r.execute(ctx, job)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.execute(ctx, job)
		}
	}
}

func (r *Runner) execute(ctx context.Context, job Job) {
	start := time.Now()
	r.update(job.Name, func(s *Status) {
		s.Running = true
		s.LastStarted = start
	})

	runCtx := ctx
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}
	err := job.Run(runCtx)
	elapsed := time.Since(start)

	// A job cut short by shutdown keeps its previous result.
	if err != nil && ctx.Err() != nil {
		r.update(job.Name, func(s *Status) { s.Running = false })
		r.logger.Debug("job cancelled during shutdown", zap.String("job", job.Name))
		return
	}

	r.update(job.Name, func(s *Status) {
		s.Running = false
		s.Runs++
		s.LastDuration = elapsed
		s.LastErr = err
	})
	if err != nil {
		r.logger.Error("job failed",
			zap.String("job", job.Name),
			zap.Duration("duration", elapsed),
			zap.Error(err))
		return
	}
	r.logger.Debug("job completed",
		zap.String("job", job.Name),
		zap.Duration("duration", elapsed))
}

func (r *Runner) update(name string, fn func(*Status)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.status[name]; ok {
		fn(s)
	}
}

func (r *Runner) running() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for name, s := range r.status {
		if s.Running {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// RunOnce executes a registered job immediately and records the result.
func (r *Runner) RunOnce(ctx context.Context, name string) error {
	for _, job := range r.jobs {
		if job.Name == name {
			r.execute(ctx, job)
			s, _ := r.Status(name)
			return s.LastErr
		}
	}
	return ErrUnknownJob
}

// Status returns a snapshot of one job's state.
func (r *Runner) Status(name string) (Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.status[name]
	if !ok {
		return Status{}, ErrUnknownJob
	}
	return *s, nil
}

// LastError returns the error of the job's last completed run, nil if it
// succeeded or has not finished a run yet.
func (r *Runner) LastError(name string) error {
	s, err := r.Status(name)
	if err != nil {
		return err
	}
	return s.LastErr
}

// Names lists the registered jobs in registration order.
func (r *Runner) Names() []string {
	names := make([]string, len(r.jobs))
	for i, job := range r.jobs {
		names[i] = job.Name
	}
	return names
}
