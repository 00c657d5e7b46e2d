package source

import (
	"context"
	"fmt"

	"taskplan/internal/registry"
	logx "taskplan/pkg/logx"
)

// Source fills a registry.
type Source interface {
	// Name identifies the source in logs and errors, e.g. "ini:tasks.ini".
	Name() string
	Load(ctx context.Context, reg *registry.Registry) (Stats, error)
}

// Skip is an input entry that did not become a record.
type Skip struct {
	Origin string `json:"origin" yaml:"origin"`
	Reason string `json:"reason" yaml:"reason"`
}

// Override is a record that replaced one loaded earlier under the same key.
type Override struct {
	Key      registry.Key
	Origin   string
	Previous string
}

// Stats summarises one Load call.
type Stats struct {
	Source    string
	Loaded    int
	Replaced  int
	Skipped   []Skip
	Overrides []Override
}

func (st *Stats) put(reg *registry.Registry, rec registry.Record) {
	st.Loaded++
	prev, _ := reg.Get(rec.Key)
	if reg.Put(rec) {
		st.Replaced++
		st.Overrides = append(st.Overrides, Override{Key: rec.Key, Origin: rec.Origin, Previous: prev.Origin})
	}
}

func (st *Stats) skip(origin, reason string) {
	st.Skipped = append(st.Skipped, Skip{Origin: origin, Reason: reason})
}

// LoadError means a source could not be read at all. It aborts the run.
type LoadError struct {
	Source string
	Path   string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s (%s): %v", e.Source, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadAll loads srcs in order into reg and stops at the first LoadError.
func LoadAll(ctx context.Context, reg *registry.Registry, log logx.Logger, srcs ...Source) ([]Stats, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	all := make([]Stats, 0, len(srcs))
	for _, src := range srcs {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		st, err := src.Load(ctx, reg)
		if err != nil {
			log.Error("task source failed", logx.String("source", src.Name()), logx.Err(err))
			return all, err
		}
		for _, sk := range st.Skipped {
			log.Debug("entry skipped", logx.String("source", src.Name()), logx.String("origin", sk.Origin), logx.String("reason", sk.Reason))
		}
		for _, ov := range st.Overrides {
			log.Debug("task overridden", logx.String("task", ov.Key.String()), logx.String("origin", ov.Origin), logx.String("previous", ov.Previous))
		}
		log.Info("tasks loaded",
			logx.String("source", src.Name()),
			logx.Int("loaded", st.Loaded),
			logx.Int("replaced", st.Replaced),
			logx.Int("skipped", len(st.Skipped)),
		)
		all = append(all, st)
	}
	return all, nil
}
