package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"taskplan/internal/registry"
	"taskplan/internal/schedule"
	"taskplan/internal/source"
)

// Validation summarises a dry load of every task source.
type Validation struct {
	Stats     []source.Stats
	Records   int
	Malformed []registry.Match
	Inert     []registry.Record
}

// Clean reports whether nothing was skipped and every schedule parsed.
func (v Validation) Clean() bool {
	if len(v.Malformed) > 0 {
		return false
	}
	for _, st := range v.Stats {
		if len(st.Skipped) > 0 {
			return false
		}
	}
	return true
}

// Validate loads the sources and checks every schedule without rendering.
// Load failures are returned as errors; skipped entries and malformed
// schedules are reported in the result.
func (a *App) Validate(ctx context.Context) (Validation, error) {
	reg, stats, err := a.LoadRegistry(ctx)
	if err != nil {
		return Validation{Stats: stats}, err
	}
	v := Validation{Stats: stats, Records: reg.Len(), Malformed: reg.Malformed()}
	for _, rec := range reg.Records() {
		exp, err := reg.Expression(rec.Key)
		if err == nil && exp.Kind == schedule.KindInert {
			v.Inert = append(v.Inert, rec)
		}
	}
	return v, nil
}

// Write prints the validation summary.
func (v Validation) Write(w io.Writer) error {
	var b strings.Builder
	for _, st := range v.Stats {
		fmt.Fprintf(&b, "%s: %d loaded, %d replaced, %d skipped\n", st.Source, st.Loaded, st.Replaced, len(st.Skipped))
		for _, sk := range st.Skipped {
			fmt.Fprintf(&b, "  skipped %s: %s\n", sk.Origin, sk.Reason)
		}
		for _, ov := range st.Overrides {
			fmt.Fprintf(&b, "  overrides %s from %s (%s)\n", ov.Key, ov.Previous, ov.Origin)
		}
	}
	for _, m := range v.Malformed {
		fmt.Fprintf(&b, "malformed %s (%s): %v\n", m.Record.Key, m.Record.Origin, m.Err)
	}
	for _, rec := range v.Inert {
		fmt.Fprintf(&b, "never fires %s: %q\n", rec.Key, rec.Schedule)
	}
	status := "ok"
	if !v.Clean() {
		status = "issues found"
	}
	fmt.Fprintf(&b, "%d tasks, %d malformed: %s\n", v.Records, len(v.Malformed), status)
	_, err := io.WriteString(w, b.String())
	return err
}
