package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/foldwork/foldwork/internal/core"
	"github.com/goccy/go-yaml"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
)

// Report formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Record is the serializable form of one outcome.
type Record struct {
	Index     int      `json:"index" yaml:"index"`
	Entity    string   `json:"entity" yaml:"entity"`
	Status    Status   `json:"status" yaml:"status"`
	Artifacts []string `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
	Error     string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// Summary is the serializable form of a whole run.
type Summary struct {
	RunID    string   `json:"runId,omitempty" yaml:"runId,omitempty"`
	Mode     string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	Total    int      `json:"total" yaml:"total"`
	Failed   int      `json:"failed" yaml:"failed"`
	Outcomes []Record `json:"outcomes" yaml:"outcomes"`
}

// NewSummary converts a dispatch result into a Summary.
func NewSummary(runID, mode string, result core.DispatchResult) Summary {
	return Summary{
		RunID:    runID,
		Mode:     mode,
		Total:    len(result),
		Failed:   result.FailedCount(),
		Outcomes: Records(result),
	}
}

// Records converts outcomes into records, keeping their order.
func Records(result core.DispatchResult) []Record {
	return lo.Map(result, func(o core.Outcome, i int) Record {
		r := Record{Index: i, Entity: o.Entity, Status: StatusSucceeded, Artifacts: o.Artifacts}
		if o.Err != nil {
			r.Status = StatusFailed
			r.Error = o.Err.Error()
		}
		return r
	})
}

// Render writes the summary to w in the given format.
func Render(w io.Writer, s Summary, format string) error {
	switch format {
	case FormatTable, "":
		_, err := fmt.Fprintln(w, RenderTable(s))
		return err
	case FormatJSON:
		return WriteJSON(w, s)
	case FormatYAML:
		return WriteYAML(w, s)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

var outcomeHeader = table.Row{
	"#",
	"Entity",
	"Status",
	"Artifacts",
	"Error",
}

// RenderTable renders the outcomes as a table followed by a totals line.
func RenderTable(s Summary) string {
	t := table.NewWriter()
	t.AppendHeader(outcomeHeader)

	for _, r := range s.Outcomes {
		status := StatusColorize(StatusSymbol(r.Status)+" "+StatusText(r.Status), r.Status)
		t.AppendRow(table.Row{
			r.Index + 1,
			r.Entity,
			status,
			strings.Join(r.Artifacts, "\n"),
			firstLine(r.Error),
		})
	}

	t.AppendFooter(table.Row{"", "Total", s.Total, "Failed", s.Failed})
	return t.Render()
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML writes v as YAML.
func WriteYAML(w io.Writer, v any) error {
	data, err := yaml.MarshalWithOptions(v, yaml.UseLiteralStyleIfMultiline(true))
	if err != nil {
		return fmt.Errorf("failed to marshal yaml: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
