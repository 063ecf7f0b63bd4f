package orchestrator

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// WriteSummary renders the run's step results as a table.
func (r *Run) WriteSummary(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Convergence run %s", r.ID)
	t.AppendHeader(table.Row{"Step", "Status", "Detail"})
	for _, res := range r.Results {
		t.AppendRow(table.Row{res.Name, statusCell(res.Status), res.Detail})
	}
	t.AppendFooter(table.Row{
		"",
		fmt.Sprintf("%d changed / %d failed", r.Changed(), r.Failed()),
		fmt.Sprintf("%d steps in %s", len(r.Results), time.Since(r.Started).Round(time.Second)),
	})
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault
	t.Style().Options.SeparateRows = false
	t.Render()
}

func statusCell(s StepStatus) string {
	switch s {
	case StatusChanged:
		return text.FgYellow.Sprint(s)
	case StatusFailed:
		return text.FgRed.Sprint(s)
	case StatusSkipped:
		return text.FgHiBlack.Sprint(s)
	default:
		return text.FgGreen.Sprint(s)
	}
}
