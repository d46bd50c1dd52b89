package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/alignstack-labs/tokalign/pkg/align"
)

func sampleReport() align.CrossLanguageReport {
	lr := align.NewLanguageResult("go", "gpt-4o")
	lr.Files = 2
	lr.TotalRules = 10
	lr.AlignedRules = 7
	lr.GrammarBoundaries = 20
	lr.MismatchedBoundaries = 4
	rep, _ := align.NewCrossLanguageReport("gpt-4o", []align.LanguageResult{lr})
	return rep
}

func TestRenderer_Report_Text(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, ModeText)

	if err := r.Report(sampleReport()); err != nil {
		t.Fatalf("failed to render report: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Model: gpt-4o", "go", "70.0", "1 languages"} {
		if !strings.Contains(got, want) {
			t.Errorf("text output missing %q:\n%s", want, got)
		}
	}
}

func TestRenderer_Report_Markdown(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, ModeMarkdown)

	if err := r.Report(sampleReport()); err != nil {
		t.Fatalf("failed to render report: %v", err)
	}
	if !strings.Contains(out.String(), "| go |") {
		t.Errorf("markdown output missing table row:\n%s", out.String())
	}
}

func TestRenderer_Report_JSON(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, ModeJSON)

	if err := r.Report(sampleReport()); err != nil {
		t.Fatalf("failed to render report: %v", err)
	}
	var decoded align.CrossLanguageReport
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("JSON output did not round-trip: %v", err)
	}
	if decoded.Model != "gpt-4o" {
		t.Errorf("expected model gpt-4o, got %q", decoded.Model)
	}
	if decoded.Summary.TotalRules != 10 {
		t.Errorf("expected 10 total rules, got %d", decoded.Summary.TotalRules)
	}
}

func TestRenderer_AutoDefaultsToMarkdownForBuffers(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, &out, ModeAuto)
	// A bytes.Buffer is not a terminal, but it is not a file either; auto
	// resolves to text in that case.
	if r.Mode() != ModeText {
		t.Errorf("expected text mode for non-file writer, got %q", r.Mode())
	}
}

func TestRenderer_Rankings(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, &out, ModeText)

	entries := []align.RankEntry{
		{Entity: "python", Score: align.DefinedScore(81.25), TotalRules: 160},
		{Entity: "go", Score: align.DefinedScore(70), TotalRules: 100},
	}
	if err := r.Rankings("Language rankings", entries); err != nil {
		t.Fatalf("failed to render rankings: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Language rankings") || !strings.Contains(got, "python") {
		t.Errorf("rankings output incomplete:\n%s", got)
	}
	if strings.Index(got, "python") > strings.Index(got, "go") {
		t.Error("rankings should be rendered in given order")
	}
}

func TestRenderer_Errors_GoToErrorStream(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, ModeText)

	errs := []align.FileError{
		{FileID: "go/bad.go", Model: "gpt-4o", Kind: align.KindParse, Message: "boom"},
	}
	if err := r.Errors(errs); err != nil {
		t.Fatalf("failed to render errors: %v", err)
	}
	if out.Len() != 0 {
		t.Error("errors must not be written to stdout")
	}
	if !strings.Contains(errOut.String(), "go/bad.go") {
		t.Errorf("error output missing file ID:\n%s", errOut.String())
	}
}
