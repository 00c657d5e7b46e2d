package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"taskplan/internal/registry"
)

// CSV imports rows of a comma-separated export. The first row is the header.
type CSV struct {
	Path string
}

func (s CSV) Name() string { return "csv:" + s.Path }

func (s CSV) Load(ctx context.Context, reg *registry.Registry) (Stats, error) {
	st := Stats{Source: s.Name()}
	f, err := os.Open(s.Path)
	if err != nil {
		return st, &LoadError{Source: "csv", Path: s.Path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("file is empty")
		}
		return st, &LoadError{Source: "csv", Path: s.Path, Err: err}
	}
	cm, err := mapColumns(header)
	if err != nil {
		return st, &LoadError{Source: "csv", Path: s.Path, Err: err}
	}

	for {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return st, &LoadError{Source: "csv", Path: s.Path, Err: err}
		}
		line, _ := r.FieldPos(0)
		origin := fmt.Sprintf("%s:%d", s.Path, line)
		if isBlank(row) {
			continue
		}
		rec, err := cm.record(row, origin)
		if err != nil {
			st.skip(origin, err.Error())
			continue
		}
		st.put(reg, rec)
	}
	return st, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
