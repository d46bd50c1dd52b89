// Package output renders analysis results as terminal tables, markdown,
// or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/alignstack-labs/tokalign/internal/state"
	"github.com/alignstack-labs/tokalign/pkg/align"
)

// Mode selects the rendering format.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// Renderer writes analysis output in a fixed mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
}

// NewRenderer creates a renderer. ModeAuto resolves to text when out is a
// terminal and markdown otherwise, so piped output stays copy-pasteable.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	switch mode {
	case ModeText, ModeMarkdown, ModeJSON:
	case "md":
		mode = ModeMarkdown
	default:
		mode = ModeText
		if f, ok := out.(*os.File); ok {
			if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice == 0 {
				mode = ModeMarkdown
			}
		}
	}
	return &Renderer{out: out, errOut: errOut, mode: mode}
}

// Mode returns the resolved rendering mode.
func (r *Renderer) Mode() Mode { return r.mode }

// JSON reports whether the renderer emits machine-readable output.
func (r *Renderer) JSON() bool { return r.mode == ModeJSON }

func (r *Renderer) render(t table.Writer) {
	t.SetOutputMirror(r.out)
	if r.mode == ModeMarkdown {
		t.RenderMarkdown()
		return
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}

func (r *Renderer) encode(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Report renders one model's cross-language report.
func (r *Renderer) Report(rep align.CrossLanguageReport) error {
	if r.mode == ModeJSON {
		return r.encode(rep)
	}

	fmt.Fprintf(r.out, "Model: %s\n", rep.Model)
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Rank", "Language", "Files", "Excluded", "Rules", "Aligned", "Rule Score", "Boundary Score"})
	for i, lr := range rep.Languages {
		t.AppendRow(table.Row{
			i + 1,
			lr.Language,
			lr.Files,
			lr.ExcludedFiles,
			lr.TotalRules,
			lr.AlignedRules,
			lr.RuleScore().String(),
			lr.BoundaryScore().String(),
		})
	}
	r.render(t)

	s := rep.Summary
	fmt.Fprintf(r.out, "%d languages, %d files (%d excluded), %d/%d rules aligned, overall %s\n\n",
		s.AnalyzedLanguages, s.TotalFiles, s.ExcludedFiles,
		s.TotalAlignedRules, s.TotalRules, s.OverallAlignmentRate.String())
	return nil
}

// Rankings renders a titled ranking table.
func (r *Renderer) Rankings(title string, entries []align.RankEntry) error {
	if r.mode == ModeJSON {
		return r.encode(map[string]any{"title": title, "rankings": entries})
	}

	fmt.Fprintln(r.out, title)
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Rank", "Entity", "Score", "Rules"})
	for i, e := range entries {
		t.AppendRow(table.Row{i + 1, e.Entity, e.Score.String(), e.TotalRules})
	}
	r.render(t)
	return nil
}

// Runs renders the stored run list.
func (r *Renderer) Runs(runs []*state.Run) error {
	if r.mode == ModeJSON {
		return r.encode(runs)
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Run ID", "Status", "Started", "Files", "Skipped", "Models"})
	for _, run := range runs {
		t.AppendRow(table.Row{
			run.ID,
			run.Status,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.FilesTotal,
			run.FilesSkipped,
			len(run.Models),
		})
	}
	r.render(t)
	return nil
}

// Errors renders per-file failures to the error stream.
func (r *Renderer) Errors(errs []align.FileError) error {
	if len(errs) == 0 {
		return nil
	}
	if r.mode == ModeJSON {
		enc := json.NewEncoder(r.errOut)
		enc.SetIndent("", "  ")
		return enc.Encode(errs)
	}

	fmt.Fprintf(r.errOut, "%d file(s) with errors:\n", len(errs))
	t := table.NewWriter()
	t.SetOutputMirror(r.errOut)
	t.AppendHeader(table.Row{"File", "Model", "Kind", "Message"})
	for _, fe := range errs {
		t.AppendRow(table.Row{fe.FileID, fe.Model, fe.Kind, fe.Message})
	}
	if r.mode == ModeMarkdown {
		t.RenderMarkdown()
	} else {
		t.SetStyle(table.StyleLight)
		t.Render()
	}
	return nil
}

// TypeCounts renders a most-common-rule-types table.
func (r *Renderer) TypeCounts(title string, types []align.TypeCount) error {
	if r.mode == ModeJSON {
		return r.encode(map[string]any{"title": title, "types": types})
	}

	fmt.Fprintln(r.out, title)
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Rank", "Type", "Rules", "Aligned", "Rate"})
	for i, tc := range types {
		t.AppendRow(table.Row{i + 1, tc.Type, tc.Total, tc.Aligned, tc.Rate().String()})
	}
	r.render(t)
	return nil
}

// ThroughputRow is one entity's processing speed.
type ThroughputRow struct {
	Entity      string  `json:"entity"`
	Bytes       int64   `json:"bytes"`
	DurationMS  int64   `json:"duration_ms"`
	BytesPerSec float64 `json:"bytes_per_sec"`
}

// Throughput renders a processing-speed table.
func (r *Renderer) Throughput(title string, rows []ThroughputRow) error {
	if r.mode == ModeJSON {
		return r.encode(map[string]any{"title": title, "throughput": rows})
	}

	fmt.Fprintln(r.out, title)
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Rank", "Entity", "KB/s", "Bytes", "Duration"})
	for i, row := range rows {
		t.AppendRow(table.Row{
			i + 1,
			row.Entity,
			fmt.Sprintf("%.1f", row.BytesPerSec/1024),
			row.Bytes,
			fmt.Sprintf("%dms", row.DurationMS),
		})
	}
	r.render(t)
	return nil
}

// Raw writes v as indented JSON regardless of mode.
func (r *Renderer) Raw(v any) error {
	return r.encode(v)
}
