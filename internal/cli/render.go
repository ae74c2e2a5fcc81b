// Package cli — render.go turns supervisor events into terminal output for
// the build command: JSON lines, or text with an optional progress bar.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/shinji-kodama/pyinstaller-packager/internal/progress"
	"github.com/shinji-kodama/pyinstaller-packager/internal/supervisor"
)

// eventRenderer displays one job's events.
type eventRenderer interface {
	Render(ev supervisor.Event) error
	Close() error
}

// eventJSON is the JSON line emitted per event in --json mode.
type eventJSON struct {
	Type      string `json:"type"`
	JobID     string `json:"job_id"`
	Time      string `json:"time"`
	Stream    string `json:"stream,omitempty"`
	Text      string `json:"text,omitempty"`
	Percent   *int   `json:"percent,omitempty"`
	Phase     string `json:"phase,omitempty"`
	Success   *bool  `json:"success,omitempty"`
	Cancelled *bool  `json:"cancelled,omitempty"`
	ExitCode  *int   `json:"exit_code,omitempty"`
	Path      string `json:"path,omitempty"`
	Error     string `json:"error,omitempty"`
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// toEventJSON converts an event to its JSON form.
func toEventJSON(ev supervisor.Event) eventJSON {
	switch e := ev.(type) {
	case supervisor.LogLine:
		return eventJSON{Type: "log", JobID: e.JobID, Time: e.Time.Format(timeLayout), Stream: e.Stream.String(), Text: e.Text}
	case supervisor.ProgressUpdate:
		percent := e.Percent
		return eventJSON{Type: "progress", JobID: e.JobID, Time: e.Time.Format(timeLayout), Percent: &percent, Phase: e.Phase}
	case supervisor.JobFinished:
		success, cancelled, code := e.Success, e.Cancelled, e.ExitCode
		out := eventJSON{Type: "finished", JobID: e.JobID, Time: e.Time.Format(timeLayout), Success: &success, Cancelled: &cancelled, ExitCode: &code}
		if e.Err != nil {
			out.Error = e.Err.Error()
		}
		return out
	case supervisor.CleanupWarning:
		out := eventJSON{Type: "cleanup_warning", JobID: e.JobID, Time: e.Time.Format(timeLayout), Path: e.Path}
		if e.Err != nil {
			out.Error = e.Err.Error()
		}
		return out
	default:
		return eventJSON{Type: "unknown", JobID: ev.Job()}
	}
}

// jsonRenderer writes one JSON object per line.
type jsonRenderer struct {
	enc *json.Encoder
}

func newJSONRenderer(w io.Writer) *jsonRenderer {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &jsonRenderer{enc: enc}
}

func (r *jsonRenderer) Render(ev supervisor.Event) error {
	return r.enc.Encode(toEventJSON(ev))
}

func (r *jsonRenderer) Close() error { return nil }

// textRenderer prints child output as it arrives. stderr lines are shown
// in red. Progress is drawn as a bar on a terminal and as one line per
// phase change otherwise.
type textRenderer struct {
	out       io.Writer
	errOut    io.Writer
	errStyle  *color.Color
	warnStyle *color.Color
	bar       *progressbar.ProgressBar
	lastPhase string
}

func newTextRenderer(out, errOut io.Writer) *textRenderer {
	tty := isTerminal(errOut)

	r := &textRenderer{
		out:       out,
		errOut:    errOut,
		errStyle:  color.New(color.FgRed),
		warnStyle: color.New(color.FgYellow, color.Bold),
	}
	if tty {
		r.errStyle.EnableColor()
		r.warnStyle.EnableColor()
		r.bar = progressbar.NewOptions(progress.Done,
			progressbar.OptionSetWriter(errOut),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetDescription(progress.PhaseCollecting),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionClearOnFinish(),
		)
	} else {
		r.errStyle.DisableColor()
		r.warnStyle.DisableColor()
	}
	return r
}

func (r *textRenderer) Render(ev supervisor.Event) error {
	switch e := ev.(type) {
	case supervisor.LogLine:
		r.clearBar()
		if e.Stream == supervisor.StreamStderr {
			_, err := r.errStyle.Fprintln(r.errOut, e.Text)
			return err
		}
		_, err := fmt.Fprintln(r.out, e.Text)
		return err

	case supervisor.ProgressUpdate:
		if r.bar != nil {
			r.bar.Describe(e.Phase)
			return r.bar.Set(e.Percent)
		}
		if e.Phase == r.lastPhase {
			return nil
		}
		r.lastPhase = e.Phase
		_, err := fmt.Fprintf(r.errOut, "[%3d%%] %s\n", e.Percent, e.Phase)
		return err

	case supervisor.CleanupWarning:
		r.clearBar()
		_, err := r.warnStyle.Fprintf(r.errOut, "Warning: could not remove %s: %v\n", e.Path, e.Err)
		return err

	case supervisor.JobFinished:
		return r.Close()
	}
	return nil
}

func (r *textRenderer) clearBar() {
	if r.bar != nil {
		_ = r.bar.Clear()
	}
}

func (r *textRenderer) Close() error {
	if r.bar != nil {
		return r.bar.Finish()
	}
	return nil
}

// isTerminal reports whether w is a terminal, including Cygwin/MSYS ptys.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
