// Package progress estimates how far a packaging run has come.
//
// The packaging tool reports no real percentage, so the estimate combines
// two signals: a counter that advances on every tick of a timer, and a
// small set of log markers that pin the phase label and raise the counter
// to a floor. The result never decreases while the job runs, stays at or
// below Cap until the job succeeds, and snaps to a terminal value when the
// job ends.
package progress

import "strings"

const (
	// Cap is the highest value reachable before the job is confirmed
	// successful.
	Cap = 95

	// Done is reported only on success.
	Done = 100
)

// Phase labels reported alongside the percentage.
const (
	PhaseCollecting = "collecting dependencies"
	PhaseCompiling  = "compiling"
	PhaseGenerating = "generating artifact"
	PhaseAnalyzing  = "analyzing dependencies"
	PhaseBuilding   = "building binary"
	PhaseAppending  = "appending dependencies"
	PhaseDone       = "done"
	PhaseFailed     = "failed"
	PhaseCancelled  = "cancelled"
)

// Update is a single progress report.
type Update struct {
	Percent int    `json:"percent"`
	Phase   string `json:"phase"`
}

// Marker is a recognized substring of the packaging tool's log output.
type Marker struct {
	Substring string
	Phase     string
	Floor     int
}

// Markers are checked in order; the first match wins.
var Markers = []Marker{
	{Substring: "INFO: Analyzing", Phase: PhaseAnalyzing, Floor: 10},
	{Substring: "INFO: Building", Phase: PhaseBuilding, Floor: 60},
	{Substring: "INFO: Appending", Phase: PhaseAppending, Floor: 85},
}

// Classify returns the first marker contained in line.
func Classify(line string) (Marker, bool) {
	for _, m := range Markers {
		if strings.Contains(line, m.Substring) {
			return m, true
		}
	}
	return Marker{}, false
}

// phaseFor labels a counter value when no marker has been seen.
func phaseFor(counter int) string {
	switch {
	case counter < 30:
		return PhaseCollecting
	case counter < 60:
		return PhaseCompiling
	default:
		return PhaseGenerating
	}
}

// Estimator tracks progress for one job. It is not safe for concurrent use;
// the supervisor drives it from a single goroutine.
type Estimator struct {
	counter  int
	marker   string
	terminal bool
	last     Update
}

// New returns an Estimator at 0%.
func New() *Estimator {
	e := &Estimator{}
	e.last = e.current()
	return e
}

func (e *Estimator) current() Update {
	phase := e.marker
	if phase == "" {
		phase = phaseFor(e.counter)
	}
	return Update{Percent: e.counter, Phase: phase}
}

// Current returns the latest update without advancing anything.
func (e *Estimator) Current() Update {
	return e.last
}

// Tick advances the time-based counter by one, up to Cap. It reports
// whether the visible update changed.
func (e *Estimator) Tick() (Update, bool) {
	if e.terminal {
		return e.last, false
	}
	if e.counter < Cap {
		e.counter++
	}
	return e.publish()
}

// Observe feeds one log line. A recognized marker sets the phase label and
// raises the counter to the marker's floor; the counter never moves back.
func (e *Estimator) Observe(line string) (Update, bool) {
	if e.terminal {
		return e.last, false
	}
	m, ok := Classify(line)
	if !ok {
		return e.last, false
	}
	e.marker = m.Phase
	if m.Floor > e.counter {
		e.counter = min(m.Floor, Cap)
	}
	return e.publish()
}

func (e *Estimator) publish() (Update, bool) {
	u := e.current()
	if u == e.last {
		return u, false
	}
	e.last = u
	return u, true
}

// Succeed marks the job successful and returns the final update.
func (e *Estimator) Succeed() Update {
	return e.finish(Update{Percent: Done, Phase: PhaseDone})
}

// Fail marks the job failed and returns the final update.
func (e *Estimator) Fail() Update {
	return e.finish(Update{Percent: 0, Phase: PhaseFailed})
}

// Cancel marks the job cancelled and returns the final update.
func (e *Estimator) Cancel() Update {
	return e.finish(Update{Percent: 0, Phase: PhaseCancelled})
}

func (e *Estimator) finish(u Update) Update {
	e.terminal = true
	e.last = u
	return u
}
