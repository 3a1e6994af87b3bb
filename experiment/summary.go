package experiment

import (
	"io"
	"time"

	"go.miragespace.co/idcontains/spec/repro"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Summarize renders one row per outcome. colored selects ANSI styling and
// should only be set when w is a terminal.
func Summarize(w io.Writer, outcomes []repro.Outcome, colored bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Key", "Backend", "Saved", "All", "By id", "Status", "Took"})
	for _, o := range outcomes {
		t.AppendRow(table.Row{
			o.Key,
			o.Backend,
			o.Saved,
			len(o.All),
			len(o.Matched),
			statusText(o, colored),
			o.Duration.Round(time.Millisecond),
		})
	}
	if colored {
		t.SetStyle(table.StyleColoredDark)
	} else {
		t.SetStyle(table.StyleLight)
	}
	t.Render()
}

func statusText(o repro.Outcome, colored bool) string {
	status := o.Status()
	if !colored {
		return status
	}
	switch {
	case o.Err != nil:
		return text.Colors{text.FgRed, text.Bold}.Sprint(status)
	case !o.Expected():
		return text.Colors{text.FgRed}.Sprint(status)
	case o.Mismatch():
		return text.Colors{text.FgYellow}.Sprint(status)
	default:
		return text.Colors{text.FgGreen}.Sprint(status)
	}
}

// Failed counts outcomes that ended in an error.
func Failed(outcomes []repro.Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Unexpected counts outcomes whose mismatch status disagrees with
// repro.KnownIssue, including failed runs.
func Unexpected(outcomes []repro.Outcome) int {
	n := 0
	for _, o := range outcomes {
		if !o.Expected() {
			n++
		}
	}
	return n
}
