package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestClassify verifies marker matching and precedence.
func TestClassify(t *testing.T) {
	tests := []struct {
		line     string
		expected string
		matched  bool
	}{
		{"123 INFO: Analyzing base_library.zip ...", PhaseAnalyzing, true},
		{"4567 INFO: Building EXE from EXE-00.toc", PhaseBuilding, true},
		{"8901 INFO: Appending PKG archive to ELF section", PhaseAppending, true},
		{"INFO: Building because INFO: Analyzing changed", PhaseAnalyzing, true},
		{"info: analyzing", "", false},
		{"WARNING: lib not found", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			m, ok := Classify(tt.line)
			assert.Equal(t, tt.matched, ok)
			assert.Equal(t, tt.expected, m.Phase)
		})
	}
}

// TestEstimator_TickLabels checks the time-based phase boundaries and the cap.
func TestEstimator_TickLabels(t *testing.T) {
	e := New()
	assert.Equal(t, Update{Percent: 0, Phase: PhaseCollecting}, e.Current())

	seen := map[int]string{}
	for i := 0; i < 200; i++ {
		u, _ := e.Tick()
		seen[u.Percent] = u.Phase
	}

	assert.Equal(t, PhaseCollecting, seen[29])
	assert.Equal(t, PhaseCompiling, seen[30])
	assert.Equal(t, PhaseCompiling, seen[59])
	assert.Equal(t, PhaseGenerating, seen[60])
	assert.Equal(t, Cap, e.Current().Percent, "ticks never reach 100")

	_, changed := e.Tick()
	assert.False(t, changed, "capped counter reports no change")
}

// TestEstimator_MarkersNeverRegress feeds markers out of order and checks
// the counter stays monotonic while the label follows the latest marker.
func TestEstimator_MarkersNeverRegress(t *testing.T) {
	e := New()
	for i := 0; i < 70; i++ {
		e.Tick()
	}
	require.Equal(t, 70, e.Current().Percent)

	u, changed := e.Observe("INFO: Analyzing hooks")
	assert.True(t, changed)
	assert.Equal(t, 70, u.Percent, "marker floor below counter is ignored")
	assert.Equal(t, PhaseAnalyzing, u.Phase)

	u, _ = e.Observe("INFO: Appending archive")
	assert.Equal(t, 85, u.Percent)
	assert.Equal(t, PhaseAppending, u.Phase)

	u, _ = e.Tick()
	assert.Equal(t, 86, u.Percent)
	assert.Equal(t, PhaseAppending, u.Phase, "marker label sticks across ticks")

	_, changed = e.Observe("plain output")
	assert.False(t, changed)
}

// TestEstimator_Monotonic interleaves ticks and lines and asserts the
// percentage never decreases and stays under 100.
func TestEstimator_Monotonic(t *testing.T) {
	lines := []string{
		"INFO: Building EXE", "noise", "INFO: Analyzing again",
		"INFO: Appending", "INFO: Analyzing", "more noise",
	}
	e := New()
	prev := 0
	for i := 0; i < 150; i++ {
		var u Update
		if i%25 == 0 {
			u, _ = e.Observe(lines[(i/25)%len(lines)])
		} else {
			u, _ = e.Tick()
		}
		assert.GreaterOrEqual(t, u.Percent, prev)
		assert.LessOrEqual(t, u.Percent, Cap)
		prev = u.Percent
	}
}

// TestEstimator_Terminal checks the terminal values and that nothing moves
// after a job has ended.
func TestEstimator_Terminal(t *testing.T) {
	tests := []struct {
		name     string
		finish   func(*Estimator) Update
		expected Update
	}{
		{"success", (*Estimator).Succeed, Update{Percent: 100, Phase: PhaseDone}},
		{"failure", (*Estimator).Fail, Update{Percent: 0, Phase: PhaseFailed}},
		{"cancel", (*Estimator).Cancel, Update{Percent: 0, Phase: PhaseCancelled}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New()
			e.Observe("INFO: Building EXE")
			assert.Equal(t, tt.expected, tt.finish(e))

			_, changed := e.Tick()
			assert.False(t, changed)
			_, changed = e.Observe("INFO: Appending")
			assert.False(t, changed)
			assert.Equal(t, tt.expected, e.Current())
		})
	}
}
