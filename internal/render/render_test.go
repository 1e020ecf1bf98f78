package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"peek/internal/report"
	"peek/internal/stats"
	"peek/internal/tracker"
)

func sampleReport() *report.Report {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	history := stats.History{
		{Days: 30, Summary: tracker.FieldSummary{"status": {"open": 5}}},
		{Days: 7, Summary: tracker.FieldSummary{"status": {"open": 3, "resolved": 1}}},
	}

	total := stats.NewTotal(30)
	for _, w := range history {
		total.AddHistory(w.Days, w.Summary)
	}
	total.AddHeader(stats.DiscoverHeader(history))
	unassigned := tracker.Task{Backend: "phab", ID: "42", Name: "<b>fix</b> deploys"}
	total.AddColumn("progress", []tracker.Task{unassigned})
	total.Anti.Add(stats.DefaultPatternName, []tracker.Task{unassigned})
	total.AddUser("Alice", nil, nil)
	total.Finish(1)

	return &report.Report{
		Job: "weekly",
		Meta: report.Meta{
			RunID:           "run-1",
			Name:            report.ToolName,
			Start:           start,
			Runtime:         1.5,
			EnabledBackends: []string{"phab"},
			EnabledProjects: []string{"ops"},
		},
		Total: total,
		Backends: []report.BackendSection{{
			Name:  "phab",
			Total: total,
			Projects: []report.ProjectSection{{
				Name:    "ops",
				URI:     "https://phab.example.org/tag/ops",
				History: history,
				Tables:  stats.BuildTables(stats.DiscoverHeader(history), history),
			}},
			Users: []report.UserSection{{
				Name:  "Alice",
				Shown: map[string]string{"real_name": "Alice Adams"},
				Moldy: report.Moldy{
					Shown: []tracker.Link{{URL: "https://phab.example.org/T7", Name: "old task"}},
				},
			}},
		}},
	}
}

func TestHTML_Embedded(t *testing.T) {
	out, err := HTML(sampleReport(), "")
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}

	for _, want := range []string{
		"weekly",
		"2024-03-01",
		`<a href="https://phab.example.org/tag/ops">ops</a>`,
		"<th>days</th><th>open</th><th>resolved</th>",
		"<td>30</td><td>5</td><td>0</td>",
		stats.DefaultPatternName,
		`<a href="https://phab.example.org/T7">old task</a>`,
		"real_name: Alice Adams",
		"run run-1 took 1.5s",
		"Backends: phab.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q", want)
		}
	}
}

func TestHTML_EscapesTaskNames(t *testing.T) {
	out, err := HTML(sampleReport(), "")
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	if strings.Contains(out, "<b>fix</b>") {
		t.Errorf("task name was not escaped")
	}
	if !strings.Contains(out, "&lt;b&gt;fix&lt;/b&gt; deploys") {
		t.Errorf("escaped task name missing")
	}
}

func TestHTML_CustomTemplates(t *testing.T) {
	dir := t.TempDir()
	body := `custom {{.Job}} {{date .Meta.Start}}`
	if err := os.WriteFile(filepath.Join(dir, BodyTemplate), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := HTML(sampleReport(), dir)
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	if out != "custom weekly 2024-03-01" {
		t.Errorf("HTML() = %q", out)
	}
}

func TestHTML_MissingCustomTemplateFallsBack(t *testing.T) {
	out, err := HTML(sampleReport(), t.TempDir())
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	if !strings.Contains(out, "<h2>Total</h2>") {
		t.Errorf("expected the built-in template")
	}
}
