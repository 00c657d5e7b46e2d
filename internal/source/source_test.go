package source

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskplan/internal/registry"
	logx "taskplan/pkg/logx"
)

const sampleINI = `[DEFAULT]
priority = normal
owner = ops

[Client.Acme.Invoicing]
schedule = every Monday
Priority = high
description = Send invoices # kept verbatim

[Client.Acme.Payroll]
schedule = days:1,15
estimated_duration = 2h

[General]
foo = bar

[Client.Acme]
x = y
`

const sampleCSV = "\ufeffClient,TaskName,Schedule,Priority,EstimatedDuration,Description,Due Date\n" +
	"Acme,Invoicing,every Friday,low,1h,\"Override, from CSV\",soon\n" +
	"Beta,Audit,days:5,high,3h,Quarterly audit,\n" +
	",Orphan,everyday,,,,\n" +
	"\n" +
	"Beta,Short,everyday\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func meta(t *testing.T, reg *registry.Registry, client, task string) []registry.Pair {
	t.Helper()
	rec, ok := reg.Get(registry.Key{Client: client, Task: task})
	require.True(t, ok, "missing %s.%s", client, task)
	return rec.Metadata.Pairs()
}

func TestINILoad(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "tasks.ini", sampleINI)
	reg := registry.New()

	st, err := INI{Path: path}.Load(context.Background(), reg)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Loaded)
	assert.Len(t, st.Skipped, 2)

	recs := reg.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, registry.Key{Client: "Acme", Task: "Invoicing"}, recs[0].Key)
	assert.Equal(t, "every Monday", recs[0].Schedule)
	assert.Equal(t, []registry.Pair{
		{Key: "priority", Value: "high"},
		{Key: "description", Value: "Send invoices # kept verbatim"},
		{Key: "owner", Value: "ops"},
	}, recs[0].Metadata.Pairs())

	assert.Equal(t, "days:1,15", recs[1].Schedule)
	assert.Equal(t, []registry.Pair{
		{Key: "estimated_duration", Value: "2h"},
		{Key: "priority", Value: "normal"},
		{Key: "owner", Value: "ops"},
	}, recs[1].Metadata.Pairs())
}

func TestINIKeepsQuotedValues(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "tasks.ini", "[Client.Acme.Pay]\nschedule = \"every Monday\"\ndesc = \"quoted value\"\n")
	reg := registry.New()
	_, err := INI{Path: path}.Load(context.Background(), reg)
	require.NoError(t, err)

	rec, ok := reg.Get(registry.Key{Client: "Acme", Task: "Pay"})
	require.True(t, ok)
	assert.Equal(t, `"every Monday"`, rec.Schedule)
	assert.Equal(t, []registry.Pair{{Key: "desc", Value: `"quoted value"`}}, rec.Metadata.Pairs())

	// a quoted schedule is not a recognised form, so it never fires
	monday := time.Date(2024, time.July, 15, 0, 0, 0, 0, time.UTC)
	matches := reg.Matching(monday)
	require.Len(t, matches, 1)
	assert.False(t, matches[0].Fired)
	assert.NoError(t, matches[0].Err)
}

func TestINIMissingScheduleIsInert(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "tasks.ini", "[Client.Acme.Nothing]\nnote = no schedule\n")
	reg := registry.New()
	_, err := INI{Path: path}.Load(context.Background(), reg)
	require.NoError(t, err)
	rec, ok := reg.Get(registry.Key{Client: "Acme", Task: "Nothing"})
	require.True(t, ok)
	assert.Equal(t, "", rec.Schedule)
	assert.Empty(t, reg.Malformed())
}

func TestINILoadTwiceIsIdempotent(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "tasks.ini", sampleINI)
	once, twice := registry.New(), registry.New()
	_, err := INI{Path: path}.Load(context.Background(), once)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = INI{Path: path}.Load(context.Background(), twice)
		require.NoError(t, err)
	}
	assert.Equal(t, once.Records(), twice.Records())
}

func TestINIMissingFile(t *testing.T) {
	t.Parallel()
	_, err := INI{Path: filepath.Join(t.TempDir(), "absent.ini")}.Load(context.Background(), registry.New())
	require.Error(t, err)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "ini", le.Source)
}

func TestCSVLoad(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "tasks.csv", sampleCSV)
	reg := registry.New()
	st, err := CSV{Path: path}.Load(context.Background(), reg)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Loaded)
	require.Len(t, st.Skipped, 1)
	assert.Equal(t, path+":4", st.Skipped[0].Origin)

	assert.Equal(t, []registry.Pair{
		{Key: "priority", Value: "low"},
		{Key: "estimated_duration", Value: "1h"},
		{Key: "description", Value: "Override, from CSV"},
		{Key: "due_date", Value: "soon"},
	}, meta(t, reg, "Acme", "Invoicing"))

	short, ok := reg.Get(registry.Key{Client: "Beta", Task: "Short"})
	require.True(t, ok)
	assert.Equal(t, "everyday", short.Schedule)
	v, _ := short.Metadata.Get("description")
	assert.Equal(t, "", v)

	audit, _ := reg.Get(registry.Key{Client: "Beta", Task: "Audit"})
	assert.Equal(t, path+":3", audit.Origin)
}

func TestCSVRequiredColumns(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "tasks.csv", "Client,Schedule\nAcme,everyday\n")
	_, err := CSV{Path: path}.Load(context.Background(), registry.New())
	require.Error(t, err)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Contains(t, err.Error(), ColTaskName)
	assert.Contains(t, err.Error(), strings.Join(Header, ","))
}

func TestCSVEmptyAndMissing(t *testing.T) {
	t.Parallel()
	_, err := CSV{Path: writeFile(t, "empty.csv", "")}.Load(context.Background(), registry.New())
	assert.Error(t, err)

	_, err = CSV{Path: filepath.Join(t.TempDir(), "nope.csv")}.Load(context.Background(), registry.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSourcesComposeLastWriteWins(t *testing.T) {
	t.Parallel()
	reg := registry.New()
	stats, err := LoadAll(context.Background(), reg, logx.Nop(),
		INI{Path: writeFile(t, "tasks.ini", sampleINI)},
		CSV{Path: writeFile(t, "tasks.csv", sampleCSV)},
	)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, 1, stats[1].Replaced)
	require.Len(t, stats[1].Overrides, 1)
	ov := stats[1].Overrides[0]
	assert.Equal(t, registry.Key{Client: "Acme", Task: "Invoicing"}, ov.Key)
	assert.True(t, strings.HasSuffix(ov.Previous, ":[Client.Acme.Invoicing]"), ov.Previous)
	assert.True(t, strings.HasSuffix(ov.Origin, "tasks.csv:2"), ov.Origin)

	recs := reg.Records()
	require.Len(t, recs, 4)
	assert.Equal(t, "Invoicing", recs[0].Task, "replaced record keeps its position")
	assert.Equal(t, "every Friday", recs[0].Schedule)
	assert.Equal(t, "Payroll", recs[1].Task)
}

func TestLoadAllStopsOnError(t *testing.T) {
	t.Parallel()
	reg := registry.New()
	stats, err := LoadAll(context.Background(), reg, logx.Nop(),
		INI{Path: writeFile(t, "tasks.ini", sampleINI)},
		CSV{Path: filepath.Join(t.TempDir(), "missing.csv")},
		CSV{Path: writeFile(t, "tasks.csv", sampleCSV)},
	)
	require.Error(t, err)
	assert.Len(t, stats, 1)
	assert.Equal(t, 2, reg.Len())
}

func TestMapColumnsAndSnakeCase(t *testing.T) {
	t.Parallel()
	cm, err := mapColumns([]string{"task_name", " CLIENT ", "schedule", "EstimatedDuration", ""})
	require.NoError(t, err)
	assert.Equal(t, 1, cm.client)
	assert.Equal(t, 0, cm.task)
	assert.Equal(t, []metaColumn{{idx: 3, key: "estimated_duration"}}, cm.meta)

	for in, want := range map[string]string{
		"EstimatedDuration": "estimated_duration",
		"Due Date":          "due_date",
		"already_snake":     "already_snake",
		"Priority":          "priority",
	} {
		assert.Equal(t, want, snakeCase(in), in)
	}
}

func createTaskDB(t *testing.T, ddl string, rows ...[]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(ddl)
	require.NoError(t, err)
	for _, r := range rows {
		_, err = db.Exec(`INSERT INTO tasks VALUES (?,?,?,?,?,?)`, r...)
		require.NoError(t, err)
	}
	return path
}

func TestSQLiteLoad(t *testing.T) {
	t.Parallel()
	path := createTaskDB(t,
		`CREATE TABLE tasks (Client TEXT, TaskName TEXT, Schedule TEXT, Priority INTEGER, EstimatedDuration TEXT, Description TEXT)`,
		[]any{"Acme", "Payroll", "days:1,15", 1, "2h", nil},
		[]any{"Acme", "", "everyday", 2, "1h", "no task name"},
		[]any{"Beta", "Sync", "every tuesday", 3, "30m", "nightly sync"},
	)
	reg := registry.New()
	st, err := SQLite{Path: path}.Load(context.Background(), reg)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Loaded)
	require.Len(t, st.Skipped, 1)

	assert.Equal(t, []registry.Pair{
		{Key: "priority", Value: "1"},
		{Key: "estimated_duration", Value: "2h"},
		{Key: "description", Value: ""},
	}, meta(t, reg, "Acme", "Payroll"))
	rec, _ := reg.Get(registry.Key{Client: "Beta", Task: "Sync"})
	assert.Equal(t, "every tuesday", rec.Schedule)
}

func TestSQLiteErrors(t *testing.T) {
	t.Parallel()
	path := createTaskDB(t, `CREATE TABLE tasks (Client TEXT, TaskName TEXT, Schedule TEXT, a TEXT, b TEXT, c TEXT)`)

	tests := []struct {
		name string
		src  SQLite
	}{
		{name: "missing file", src: SQLite{Path: filepath.Join(t.TempDir(), "none.db")}},
		{name: "empty path", src: SQLite{}},
		{name: "bad table name", src: SQLite{Path: path, Table: "tasks; DROP TABLE tasks"}},
		{name: "unknown table", src: SQLite{Path: path, Table: "jobs"}},
	}
	for _, tt := range tests {
		_, err := tt.src.Load(context.Background(), registry.New())
		require.Error(t, err, tt.name)
		var le *LoadError
		assert.True(t, errors.As(err, &le), tt.name)
	}

	// pragma failures abort the import instead of being ignored
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for name, src := range map[string]SQLite{
		"busy_timeout": {Path: path, BusyTimeout: time.Second},
		"query_only":   {Path: path},
	} {
		_, err := src.Load(ctx, registry.New())
		require.Error(t, err, name)
		var le *LoadError
		require.True(t, errors.As(err, &le), name)
		assert.ErrorIs(t, err, context.Canceled, name)
		assert.Contains(t, err.Error(), name)
	}

	// the valid table still loads afterwards
	_, err := SQLite{Path: path}.Load(context.Background(), registry.New())
	assert.NoError(t, err)
}
