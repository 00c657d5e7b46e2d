package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"taskplan/internal/config"
	"taskplan/internal/source"
	logx "taskplan/pkg/logx"
)

const tasksINI = `[DEFAULT]
owner = ops

[Client.Acme.Invoicing]
schedule = every Monday
priority = high

[Client.Acme.Payroll]
schedule = days:1,15

[Client.Beta.Audit]
schedule = days:1,x

[Client.Beta.Someday]
schedule = when pigs fly

[General]
note = not a task
`

const tasksCSV = "Client,TaskName,Schedule,Priority,EstimatedDuration,Description\n" +
	"Gamma,Backups,everyday,low,5m,nightly backup check\n"

func fixture(t *testing.T, cfgBody func(ini, csv string) string) string {
	t.Helper()
	dir := t.TempDir()
	ini := filepath.Join(dir, "tasks.ini")
	csv := filepath.Join(dir, "tasks.csv")
	cfg := filepath.Join(dir, "taskplan.yaml")
	for path, body := range map[string]string{ini: tasksINI, csv: tasksCSV, cfg: cfgBody(ini, csv)} {
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return cfg
}

func newTestApp(t *testing.T, cfgPath string, ovr Overrides) (*App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	nop := logx.Nop()
	a, err := New(Options{
		ConfigPath: cfgPath,
		Overrides:  ovr,
		Stdout:     &out,
		Now:        func() time.Time { return time.Date(2024, 7, 15, 8, 0, 0, 0, time.UTC) },
		Logger:     &nop,
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a, &out
}

func ptr[T any](v T) *T { return &v }

func TestReportEndToEnd(t *testing.T) {
	t.Parallel()
	cfg := fixture(t, func(ini, csv string) string {
		return "sources:\n  ini: " + ini + "\n  csv: " + csv + "\nreport:\n  format: plain\n"
	})
	a, out := newTestApp(t, cfg, Overrides{})
	if err := a.Report(context.Background(), false); err != nil {
		t.Fatalf("Report error: %v", err)
	}
	got := out.String()

	// Mon 15th, Tue 16th, Wed 17th, Thu 18th.
	for _, want := range []string{
		"Monday, July 15, 2024",
		"Tuesday, July 16, 2024",
		"Wednesday, July 17, 2024",
		"Thursday, July 18, 2024",
		"Invoicing",
		"Payroll",
		"Backups",
		"owner: ops",
		"estimated_duration: 5m",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Friday") {
		t.Fatalf("window longer than 4 days:\n%s", got)
	}
	if strings.Contains(got, "Someday") {
		t.Fatalf("inert schedule fired:\n%s", got)
	}
	// Invoicing and Payroll only on Monday.
	tuesday := got[strings.Index(got, "Tuesday"):]
	if strings.Contains(tuesday, "Invoicing") || strings.Contains(tuesday, "Payroll") {
		t.Fatalf("Acme tasks listed after Monday:\n%s", tuesday)
	}
}

func TestReportJSONWithOverrides(t *testing.T) {
	t.Parallel()
	cfg := fixture(t, func(ini, _ string) string { return "sources:\n  ini: " + ini + "\n" })
	a, out := newTestApp(t, cfg, Overrides{Format: ptr("json"), Days: ptr(1)})
	if err := a.Report(context.Background(), false); err != nil {
		t.Fatalf("Report error: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(out.String()), "{") || !strings.Contains(out.String(), `"2024-07-15"`) {
		t.Fatalf("unexpected json:\n%s", out.String())
	}
	if strings.Contains(out.String(), "2024-07-16") {
		t.Fatalf("days override ignored:\n%s", out.String())
	}
}

func TestReportMissingSourceIsLoadError(t *testing.T) {
	t.Parallel()
	cfg := fixture(t, func(string, string) string { return "sources:\n  ini: /nonexistent/tasks.ini\n" })
	a, _ := newTestApp(t, cfg, Overrides{})
	err := a.Report(context.Background(), false)
	var le *source.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("Report error = %v, want *source.LoadError", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	cfg := fixture(t, func(ini, csv string) string {
		return "sources:\n  ini: " + ini + "\n  csv: " + csv + "\n"
	})
	a, _ := newTestApp(t, cfg, Overrides{})
	v, err := a.Validate(context.Background())
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if v.Records != 5 {
		t.Fatalf("records = %d, want 5", v.Records)
	}
	if len(v.Malformed) != 1 || v.Malformed[0].Record.Task != "Audit" {
		t.Fatalf("malformed = %+v", v.Malformed)
	}
	if len(v.Inert) != 1 || v.Inert[0].Task != "Someday" {
		t.Fatalf("inert = %+v", v.Inert)
	}
	if v.Clean() {
		t.Fatal("validation with skipped section and malformed schedule reported clean")
	}

	var buf bytes.Buffer
	if err := v.Write(&buf); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"skipped", "General", "malformed Client.Beta.Audit", "never fires Client.Beta.Someday", "issues found"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("summary missing %q:\n%s", want, buf.String())
		}
	}
}

func TestNewRejectsInvalidOverrides(t *testing.T) {
	t.Parallel()
	cfg := fixture(t, func(ini, _ string) string { return "sources:\n  ini: " + ini + "\n" })
	nop := logx.Nop()
	if _, err := New(Options{ConfigPath: cfg, Overrides: Overrides{Format: ptr("html")}, Logger: &nop}); err == nil {
		t.Fatal("expected error for invalid format override")
	}
	if _, err := New(Options{ConfigPath: cfg, Overrides: Overrides{Refresh: ptr("whenever")}, Logger: &nop}); err == nil {
		t.Fatal("expected error for invalid refresh override")
	}
	if _, err := New(Options{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml"), Logger: &nop}); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestOverridesApply(t *testing.T) {
	t.Parallel()
	base := config.Default()
	base.Sources.SQLite = &config.SQLiteSource{Path: "a.db"}

	got := Overrides{
		INI:         ptr("other.ini"),
		SQLiteTable: ptr("jobs"),
		Days:        ptr(2),
	}.Apply(base)

	if got.Sources.INI != "other.ini" || got.Report.Days != 2 || got.Sources.SQLite.Table != "jobs" {
		t.Fatalf("Apply = %+v", got)
	}
	if base.Sources.INI != config.DefaultINIPath || base.Sources.SQLite.Table != "" {
		t.Fatal("Apply modified its input")
	}

	cleared := Overrides{SQLite: ptr("")}.Apply(base)
	if cleared.Sources.SQLite != nil {
		t.Fatal("empty sqlite override should drop the source")
	}
}

func TestSources(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{Sources: config.SourcesConfig{
		INI:    "a.ini",
		CSV:    "b.csv",
		SQLite: &config.SQLiteSource{Path: "c.db", BusyTimeout: "2s"},
	}}
	srcs, err := Sources(cfg)
	if err != nil {
		t.Fatalf("Sources error: %v", err)
	}
	if len(srcs) != 3 {
		t.Fatalf("sources = %d", len(srcs))
	}
	if sq, ok := srcs[2].(source.SQLite); !ok || sq.BusyTimeout != 2*time.Second {
		t.Fatalf("sqlite source = %#v", srcs[2])
	}
	if _, err := Sources(&config.Config{}); err == nil {
		t.Fatal("expected error without sources")
	}
}
