// Package supervisor runs the packaging tool as a child process and reports
// on it through a single event channel.
//
// At most one job runs at a time. Each job is owned by one goroutine that
// serializes everything happening to it: output lines from both streams,
// progress timer ticks, cancellation requests, the kill deadline and the
// process exit. That goroutine is the only writer of job state and the only
// place a JobFinished event is produced, so every job ends with exactly one
// JobFinished no matter how exit and cancellation race.
//
// Lifecycle:
//
//	Idle -> Starting -> Running -> Succeeded | Failed | Cancelled
//
// Launch errors (ErrAlreadyRunning, ErrSpawnFailed, ErrLaunchTimeout) are
// returned from Start and never produce events.
package supervisor
