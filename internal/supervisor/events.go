package supervisor

import (
	"time"

	"github.com/shinji-kodama/pyinstaller-packager/internal/progress"
)

// Stream identifies which output stream a line came from.
type Stream int

const (
	StreamStdout Stream = iota
	StreamStderr
)

// String returns "stdout" or "stderr".
func (s Stream) String() string {
	if s == StreamStderr {
		return "stderr"
	}
	return "stdout"
}

// Event is one of LogLine, ProgressUpdate, JobFinished or CleanupWarning.
type Event interface {
	// Job returns the ID of the job that produced the event.
	Job() string
}

// LogLine is one decoded line of child output.
type LogLine struct {
	JobID  string
	Time   time.Time
	Stream Stream
	Text   string
}

// ProgressUpdate carries the current progress estimate.
type ProgressUpdate struct {
	JobID string
	Time  time.Time
	progress.Update
}

// JobFinished is emitted exactly once per job that reached Running.
type JobFinished struct {
	JobID     string
	Time      time.Time
	Success   bool
	Cancelled bool
	// ExitCode is the child's exit status, or -1 when it was killed by a
	// signal or never reported one.
	ExitCode int
	Err      error
}

// CleanupWarning reports that intermediate build output could not be
// removed after a cancellation. The cancellation itself still succeeds.
type CleanupWarning struct {
	JobID string
	Time  time.Time
	Path  string
	Err   error
}

func (e LogLine) Job() string        { return e.JobID }
func (e ProgressUpdate) Job() string { return e.JobID }
func (e JobFinished) Job() string    { return e.JobID }
func (e CleanupWarning) Job() string { return e.JobID }
