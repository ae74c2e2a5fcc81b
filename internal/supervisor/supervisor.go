package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/encoding"

	"github.com/shinji-kodama/pyinstaller-packager/internal/command"
)

// State is the lifecycle state of the most recent job.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateSucceeded
	StateFailed
	StateCancelled
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Active reports whether a job in this state blocks a new Start.
func (s State) Active() bool {
	return s == StateStarting || s == StateRunning
}

var (
	// ErrAlreadyRunning is returned by Start while another job is starting
	// or running.
	ErrAlreadyRunning = errors.New("a packaging job is already running")

	// ErrSpawnFailed is returned by Start when the process could not be
	// created, typically because the program is not installed.
	ErrSpawnFailed = errors.New("failed to start packaging process")

	// ErrLaunchTimeout is returned by Start when the process did not report
	// as launched within the launch timeout.
	ErrLaunchTimeout = errors.New("packaging process did not start in time")
)

// Config holds the supervisor's timing and decoding parameters.
type Config struct {
	LaunchTimeout    time.Duration
	TerminateTimeout time.Duration
	TickInterval     time.Duration
	EventBuffer      int
	// Encoding is a WHATWG label for the child's output encoding.
	Encoding string
}

// DefaultConfig returns the standard timings: 5s to launch, 5s of grace
// before a kill, and a 100ms progress tick.
func DefaultConfig() Config {
	return Config{
		LaunchTimeout:    5 * time.Second,
		TerminateTimeout: 5 * time.Second,
		TickInterval:     100 * time.Millisecond,
		EventBuffer:      256,
		Encoding:         "utf-8",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.LaunchTimeout <= 0 {
		c.LaunchTimeout = d.LaunchTimeout
	}
	if c.TerminateTimeout <= 0 {
		c.TerminateTimeout = d.TerminateTimeout
	}
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = d.EventBuffer
	}
	return c
}

// Launcher starts a prepared command. The default is (*exec.Cmd).Start.
type Launcher func(cmd *exec.Cmd) error

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLauncher replaces the function that starts the child process.
func WithLauncher(launch Launcher) Option {
	return func(s *Supervisor) {
		if launch != nil {
			s.launch = launch
		}
	}
}

// Supervisor runs one packaging job at a time and publishes its events.
type Supervisor struct {
	cfg       Config
	enc       encoding.Encoding
	logger    *slog.Logger
	launch    Launcher
	removeAll func(string) error
	events    chan Event

	mu      sync.Mutex
	state   State
	current *job
}

// New returns an idle Supervisor. Zero values in cfg take their defaults.
func New(cfg Config, opts ...Option) (*Supervisor, error) {
	cfg = cfg.withDefaults()
	enc, err := LookupEncoding(cfg.Encoding)
	if err != nil {
		return nil, err
	}

	s := &Supervisor{
		cfg:       cfg,
		enc:       enc,
		logger:    slog.Default(),
		launch:    (*exec.Cmd).Start,
		removeAll: os.RemoveAll,
		events:    make(chan Event, cfg.EventBuffer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Events returns the channel every job publishes to. The channel is never
// closed. Consumers must keep draining it while a job runs; a full channel
// stalls the job loop and with it Cancel.
func (s *Supervisor) Events() <-chan Event {
	return s.events
}

// State returns the state of the most recent job, or StateIdle if none has
// been started.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// JobHandle identifies a started job.
type JobHandle struct {
	ID        string
	PID       int
	Command   string
	StartedAt time.Time
	done      <-chan struct{}
}

// Done is closed once the job's JobFinished event has been published.
func (h JobHandle) Done() <-chan struct{} {
	return h.done
}

// Start launches cmd and returns once the process is confirmed running.
// ctx bounds only the launch wait; the job itself outlives it. When ctx is
// done first, the returned error wraps ctx.Err() and the process, should it
// still come up, is killed.
func (s *Supervisor) Start(ctx context.Context, cmd command.Command) (JobHandle, error) {
	s.mu.Lock()
	if s.state.Active() {
		s.mu.Unlock()
		return JobHandle{}, ErrAlreadyRunning
	}
	j := newJob(cmd, s.enc)
	s.current = j
	s.state = StateStarting
	s.mu.Unlock()

	logger := s.logger.With("job_id", j.id)
	logger.Info("starting packaging job", "command", cmd.String(), "dir", cmd.Dir)

	proc := exec.Command(cmd.Program, cmd.Args...)
	proc.Dir = cmd.Dir
	proc.Stdout = j.stdout
	proc.Stderr = j.stderr
	proc.WaitDelay = s.cfg.TerminateTimeout
	prepareCommand(proc)

	started := make(chan error, 1)
	go func() {
		started <- s.launch(proc)
	}()

	timer := time.NewTimer(s.cfg.LaunchTimeout)
	defer timer.Stop()

	select {
	case err := <-started:
		if err != nil {
			s.abortLaunch(j)
			logger.Warn("packaging process failed to spawn", "error", err)
			return JobHandle{}, fmt.Errorf("%w: %s: %w", ErrSpawnFailed, cmd.Program, err)
		}
	case <-timer.C:
		s.abortLaunch(j)
		go reapLateStart(started, proc)
		logger.Warn("packaging process launch timed out", "timeout", s.cfg.LaunchTimeout)
		return JobHandle{}, fmt.Errorf("%w after %s", ErrLaunchTimeout, s.cfg.LaunchTimeout)
	case <-ctx.Done():
		s.abortLaunch(j)
		go reapLateStart(started, proc)
		logger.Info("packaging launch aborted", "error", ctx.Err())
		return JobHandle{}, fmt.Errorf("launch aborted: %w", ctx.Err())
	}

	j.proc = proc
	j.startedAt = time.Now()

	s.mu.Lock()
	s.state = StateRunning
	s.mu.Unlock()

	logger.Info("packaging job running", "pid", proc.Process.Pid)

	exited := make(chan error, 1)
	go func() {
		exited <- proc.Wait()
	}()
	go s.run(j, exited, logger.With("pid", proc.Process.Pid))

	return JobHandle{
		ID:        j.id,
		PID:       proc.Process.Pid,
		Command:   cmd.String(),
		StartedAt: j.startedAt,
		done:      j.done,
	}, nil
}

// abortLaunch records a job that never reached Running.
func (s *Supervisor) abortLaunch(j *job) {
	s.mu.Lock()
	if s.current == j {
		s.state = StateFailed
	}
	s.mu.Unlock()
	close(j.done)
}

// reapLateStart waits for a launch that outlived its timeout and, if the
// process did come up, kills and reaps it.
func reapLateStart(started <-chan error, proc *exec.Cmd) {
	if err := <-started; err != nil || proc.Process == nil {
		return
	}
	_ = kill(proc.Process)
	_ = proc.Wait()
}

// Cancel stops the running job: graceful termination first, then a kill
// once the terminate timeout passes. It returns after the job's
// JobFinished event has been published, or when ctx is done. Cancel is a
// no-op when no job is starting or running.
func (s *Supervisor) Cancel(ctx context.Context) error {
	s.mu.Lock()
	j, state := s.current, s.state
	s.mu.Unlock()

	if j == nil || !state.Active() {
		return nil
	}

	select {
	case j.cancel <- struct{}{}:
	default:
	}

	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finish moves the supervisor to the job's terminal state.
func (s *Supervisor) finish(j *job, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == j {
		s.state = state
	}
}

func (s *Supervisor) emit(ev Event) {
	s.events <- ev
}

// newJobID returns a fresh job identifier.
func newJobID() string {
	return uuid.NewString()
}
