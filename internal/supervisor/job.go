package supervisor

import (
	"errors"
	"log/slog"
	"os/exec"
	"time"

	"golang.org/x/text/encoding"

	"github.com/shinji-kodama/pyinstaller-packager/internal/command"
	"github.com/shinji-kodama/pyinstaller-packager/internal/progress"
)

// lineBuffer is how many undelivered lines the output writers may queue
// ahead of the job loop.
const lineBuffer = 64

// job is the runtime state of one packaging run. After Start hands it to
// run, only the loop goroutine touches its fields.
type job struct {
	id        string
	cmd       command.Command
	proc      *exec.Cmd
	startedAt time.Time
	decoder   *encoding.Decoder
	estimator *progress.Estimator

	lines  chan rawLine
	stdout *lineWriter
	stderr *lineWriter

	cancel    chan struct{}
	cancelled bool
	done      chan struct{}
}

func newJob(cmd command.Command, enc encoding.Encoding) *job {
	j := &job{
		id:        newJobID(),
		cmd:       cmd,
		decoder:   enc.NewDecoder(),
		estimator: progress.New(),
		lines:     make(chan rawLine, lineBuffer),
		cancel:    make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	j.stdout = newLineWriter(StreamStdout, j.lines, j.done)
	j.stderr = newLineWriter(StreamStderr, j.lines, j.done)
	return j
}

// run is the job's event loop. It returns after publishing JobFinished.
func (s *Supervisor) run(j *job, exited <-chan error, logger *slog.Logger) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	var killTimer *time.Timer
	var killC <-chan time.Time
	defer func() {
		if killTimer != nil {
			killTimer.Stop()
		}
	}()

	for {
		select {
		case line := <-j.lines:
			s.handleLine(j, line)

		case <-ticker.C:
			if u, changed := j.estimator.Tick(); changed {
				s.emit(ProgressUpdate{JobID: j.id, Time: time.Now(), Update: u})
			}

		case <-j.cancel:
			if j.cancelled {
				continue
			}
			j.cancelled = true
			logger.Info("cancelling packaging job", "grace", s.cfg.TerminateTimeout)
			if err := terminate(j.proc.Process); err != nil {
				logger.Warn("graceful termination failed", "error", err)
			}
			killTimer = time.NewTimer(s.cfg.TerminateTimeout)
			killC = killTimer.C

		case <-killC:
			killC = nil
			logger.Warn("packaging process ignored termination, killing")
			if err := kill(j.proc.Process); err != nil {
				logger.Warn("kill failed", "error", err)
			}

		case err := <-exited:
			s.drain(j)
			s.finalize(j, err, logger)
			return
		}
	}
}

// drain publishes lines still queued after the process exited. Wait has
// returned, so the writers are finished.
func (s *Supervisor) drain(j *job) {
	for {
		select {
		case line := <-j.lines:
			s.handleLine(j, line)
		default:
			for _, w := range []*lineWriter{j.stdout, j.stderr} {
				if rest := w.remainder(); rest != nil {
					s.handleLine(j, rawLine{stream: w.stream, data: rest})
				}
			}
			return
		}
	}
}

func (s *Supervisor) handleLine(j *job, line rawLine) {
	text := decodeLine(j.decoder, line.data)
	s.emit(LogLine{JobID: j.id, Time: time.Now(), Stream: line.stream, Text: text})
	if u, changed := j.estimator.Observe(text); changed {
		s.emit(ProgressUpdate{JobID: j.id, Time: time.Now(), Update: u})
	}
}

// finalize decides the terminal state, publishes the closing events and
// releases anyone waiting on the job. A requested cancellation wins over
// whatever exit status the process reported.
func (s *Supervisor) finalize(j *job, waitErr error, logger *slog.Logger) {
	now := time.Now()
	finished := JobFinished{JobID: j.id, ExitCode: exitCode(j.proc, waitErr)}

	var state State
	var final progress.Update
	switch {
	case j.cancelled:
		dir, err := cleanupBuildDir(j.cmd.ScriptPath, s.removeAll)
		if err != nil {
			logger.Warn("failed to remove build directory", "path", dir, "error", err)
			s.emit(CleanupWarning{JobID: j.id, Time: now, Path: dir, Err: err})
		}
		state, final = StateCancelled, j.estimator.Cancel()
		finished.Cancelled = true
	case waitErr == nil || errors.Is(waitErr, exec.ErrWaitDelay):
		state, final = StateSucceeded, j.estimator.Succeed()
		finished.Success = true
	default:
		state, final = StateFailed, j.estimator.Fail()
		finished.Err = waitErr
	}

	s.emit(ProgressUpdate{JobID: j.id, Time: now, Update: final})
	s.finish(j, state)

	finished.Time = time.Now()
	s.emit(finished)
	close(j.done)

	logger.Info("packaging job finished",
		"state", state.String(),
		"exit_code", finished.ExitCode,
		"duration", time.Since(j.startedAt).Round(time.Millisecond))
}

// exitCode extracts the child's exit status, or -1 when none is known.
func exitCode(proc *exec.Cmd, waitErr error) int {
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	if proc.ProcessState != nil {
		return proc.ProcessState.ExitCode()
	}
	return -1
}
