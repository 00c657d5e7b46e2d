package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"taskplan/internal/registry"
)

// DefaultTable is read when SQLite.Table is empty.
const DefaultTable = "tasks"

var reIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLite imports rows from a table with the CSV column layout.
type SQLite struct {
	Path        string
	Table       string
	BusyTimeout time.Duration // 0 means driver default
}

func (s SQLite) Name() string { return "sqlite:" + s.Path + "#" + s.table() }

func (s SQLite) table() string {
	if t := strings.TrimSpace(s.Table); t != "" {
		return t
	}
	return DefaultTable
}

func (s SQLite) Load(ctx context.Context, reg *registry.Registry) (Stats, error) {
	st := Stats{Source: s.Name()}
	fail := func(err error) (Stats, error) {
		return st, &LoadError{Source: "sqlite", Path: s.Path, Err: err}
	}

	if strings.TrimSpace(s.Path) == "" {
		return fail(errors.New("sqlite path is required"))
	}
	table := s.table()
	if !reIdent.MatchString(table) {
		return fail(fmt.Errorf("invalid table name %q", table))
	}
	// sql.Open would create a missing database file.
	if _, err := os.Stat(s.Path); err != nil {
		return fail(err)
	}

	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return fail(err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if s.BusyTimeout > 0 {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", s.BusyTimeout.Milliseconds())); err != nil {
			return fail(fmt.Errorf("busy_timeout: %w", err))
		}
	}
	if _, err := db.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		return fail(fmt.Errorf("query_only: %w", err))
	}

	rows, err := db.QueryContext(ctx, `SELECT * FROM "`+table+`"`)
	if err != nil {
		return fail(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fail(err)
	}
	cm, err := mapColumns(cols)
	if err != nil {
		return fail(err)
	}

	vals := make([]sql.NullString, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	n := 0
	for rows.Next() {
		n++
		if err := rows.Scan(ptrs...); err != nil {
			return fail(err)
		}
		row := make([]string, len(vals))
		for i, v := range vals {
			row[i] = v.String
		}
		origin := fmt.Sprintf("%s#%s:%d", s.Path, table, n)
		rec, err := cm.record(row, origin)
		if err != nil {
			st.skip(origin, err.Error())
			continue
		}
		st.put(reg, rec)
	}
	if err := rows.Err(); err != nil {
		return fail(err)
	}
	return st, nil
}
