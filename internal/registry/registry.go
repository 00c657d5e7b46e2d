// Package registry holds the task records loaded for one run.
//
// A Registry is filled by the task sources and then only read. It is not safe
// for concurrent writes; concurrent reads (Records, Matching) are fine once
// loading has finished.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"taskplan/internal/schedule"
)

const (
	// SectionPrefix is the first segment of every task section name.
	SectionPrefix = "Client"
	// SectionSep joins prefix, client and task.
	SectionSep = "."

	// ScheduleKey holds the schedule expression in a task section.
	ScheduleKey = "schedule"
)

// ErrBadSectionName is wrapped by ParseSectionName for names that are not tasks.
var ErrBadSectionName = errors.New("not a task section")

// Key identifies a record.
type Key struct {
	Client string `json:"client" yaml:"client"`
	Task   string `json:"task" yaml:"task"`
}

// String renders the section name the key was (or would be) loaded from.
func (k Key) String() string {
	return strings.Join([]string{SectionPrefix, k.Client, k.Task}, SectionSep)
}

// ParseSectionName validates a "Client.<client>.<task>" section name.
func ParseSectionName(name string) (Key, error) {
	parts := strings.Split(name, SectionSep)
	if len(parts) != 3 {
		return Key{}, fmt.Errorf("%w: %q has %d segments, want 3", ErrBadSectionName, name, len(parts))
	}
	if !strings.EqualFold(parts[0], SectionPrefix) {
		return Key{}, fmt.Errorf("%w: %q does not start with %q", ErrBadSectionName, name, SectionPrefix)
	}
	k := Key{Client: strings.TrimSpace(parts[1]), Task: strings.TrimSpace(parts[2])}
	if err := k.Validate(); err != nil {
		return Key{}, fmt.Errorf("%w: %q: %v", ErrBadSectionName, name, err)
	}
	return k, nil
}

// Validate rejects empty identifiers.
func (k Key) Validate() error {
	switch {
	case k.Client == "":
		return errors.New("client name is empty")
	case k.Task == "":
		return errors.New("task name is empty")
	}
	return nil
}

// Record is one task definition.
type Record struct {
	Key
	Schedule string
	Metadata Metadata
	// Origin names where the record came from, e.g. "tasks.csv:12".
	Origin string
}

type entry struct {
	rec Record
	exp schedule.Expression
	err error
}

// Registry stores records by key; later puts win.
type Registry struct {
	order   []Key
	entries map[Key]*entry
}

func New() *Registry {
	return &Registry{entries: map[Key]*entry{}}
}

// Put adds rec, replacing any record with the same key. A replaced record keeps
// its original position so iteration order only depends on first appearance.
func (r *Registry) Put(rec Record) (replaced bool) {
	exp, err := schedule.Parse(rec.Schedule)
	e := &entry{rec: rec, exp: exp, err: err}
	if _, ok := r.entries[rec.Key]; ok {
		r.entries[rec.Key] = e
		return true
	}
	r.order = append(r.order, rec.Key)
	r.entries[rec.Key] = e
	return false
}

func (r *Registry) Len() int { return len(r.order) }

func (r *Registry) Get(k Key) (Record, bool) {
	e, ok := r.entries[k]
	if !ok {
		return Record{}, false
	}
	return e.rec, true
}

// Records returns all records in insertion order.
func (r *Registry) Records() []Record {
	out := make([]Record, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.entries[k].rec)
	}
	return out
}

// Match is the evaluation of one record against a date.
type Match struct {
	Record Record
	Fired  bool
	// Err is a *schedule.MalformedError when the record's schedule could not be parsed.
	Err error
}

// Matching evaluates every record once against date, in insertion order.
func (r *Registry) Matching(date time.Time) []Match {
	out := make([]Match, 0, len(r.order))
	for _, k := range r.order {
		e := r.entries[k]
		if e.err != nil {
			out = append(out, Match{Record: e.rec, Err: e.err})
			continue
		}
		out = append(out, Match{Record: e.rec, Fired: e.exp.Matches(date)})
	}
	return out
}

// Malformed returns the records whose schedule failed to parse.
func (r *Registry) Malformed() []Match {
	var out []Match
	for _, k := range r.order {
		if e := r.entries[k]; e.err != nil {
			out = append(out, Match{Record: e.rec, Err: e.err})
		}
	}
	return out
}

// Expression returns the cached parse of the record's schedule.
func (r *Registry) Expression(k Key) (schedule.Expression, error) {
	e, ok := r.entries[k]
	if !ok {
		return schedule.Expression{}, fmt.Errorf("no task %s", k)
	}
	return e.exp, e.err
}
