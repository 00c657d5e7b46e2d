// Package agenda builds per-date task reports from a registry.
package agenda

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"taskplan/internal/calendar"
	"taskplan/internal/registry"
	logx "taskplan/pkg/logx"
)

const defaultWorkers = 4

type Options struct {
	Log logx.Logger
	// Throttle limits repeated malformed-schedule warnings; nil logs every one.
	Throttle *logx.Throttle
	// Workers bounds how many dates Plan evaluates concurrently.
	Workers int
}

// Aggregator evaluates a loaded registry. The registry must not be written to
// while an Aggregator is using it.
type Aggregator struct {
	reg      *registry.Registry
	log      logx.Logger
	throttle *logx.Throttle
	workers  int
}

func New(reg *registry.Registry, opts Options) *Aggregator {
	if opts.Log.IsZero() {
		opts.Log = logx.Nop()
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if reg == nil {
		reg = registry.New()
	}
	return &Aggregator{reg: reg, log: opts.Log, throttle: opts.Throttle, workers: opts.Workers}
}

// TasksForDate is New(reg, Options{}).TasksForDate(date).
func TasksForDate(reg *registry.Registry, date time.Time) Report {
	return New(reg, Options{}).TasksForDate(date)
}

// TasksForDate groups the records firing on date by client and task.
// A record with a malformed schedule is skipped and reported in Issues; the
// remaining records are still evaluated.
func (a *Aggregator) TasksForDate(date time.Time) Report {
	date = calendar.Date(date)
	b := newBuilder(date)
	for _, m := range a.reg.Matching(date) {
		if m.Err != nil {
			b.skip(m.Record, m.Err)
			a.throttle.Warn(a.log, m.Record.Key.String(), "task skipped: malformed schedule",
				logx.String("client", m.Record.Client),
				logx.String("task", m.Record.Task),
				logx.String("origin", m.Record.Origin),
				logx.Date("date", date),
				logx.Err(m.Err),
			)
			continue
		}
		if m.Fired {
			b.add(m.Record)
		}
	}
	return b.rep
}

// Plan reports on the next days business days starting at start (inclusive).
// Dates are evaluated concurrently; the result is in date order.
func (a *Aggregator) Plan(ctx context.Context, start time.Time, days int) ([]Report, error) {
	dates, err := calendar.NextBusinessDays(start, days)
	if err != nil {
		return nil, err
	}
	out := make([]Report, len(dates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, d := range dates {
		i, d := i, d
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = a.TasksForDate(d)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.log.Debug("plan built",
		logx.Date("start", calendar.Date(start)),
		logx.Int("days", len(dates)),
		logx.Int("records", a.reg.Len()),
	)
	return out, nil
}
