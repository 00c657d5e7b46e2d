// Package app wires config, logging, task sources, the aggregator and the
// renderer into the operations the CLI exposes.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskplan/internal/agenda"
	"taskplan/internal/config"
	"taskplan/internal/eventbus"
	"taskplan/internal/registry"
	"taskplan/internal/render"
	"taskplan/internal/runtime/supervisor"
	"taskplan/internal/source"
	"taskplan/internal/watch"
	logx "taskplan/pkg/logx"
)

// DefaultConfigPath is used when it exists and no --config was given.
const DefaultConfigPath = "taskplan.yaml"

type Options struct {
	// ConfigPath is the app config file. Empty means DefaultConfigPath if it
	// exists, otherwise built-in defaults.
	ConfigPath string
	Overrides  Overrides
	Stdout     io.Writer
	// Now is the clock used for "today"; nil means time.Now.
	Now func() time.Time
	// Logger replaces the config-driven logging service (tests).
	Logger *logx.Logger
}

type App struct {
	cfgm  *config.Manager
	ovr   Overrides
	bus   eventbus.Bus
	logs  *logx.Service
	log   logx.Logger
	out   io.Writer
	now   func() time.Time
	runID string

	// throttle is rebuilt when watch.warn_every changes.
	tmu      sync.Mutex
	throttle *logx.Throttle
	warnKey  time.Duration
}

func New(opts Options) (*App, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		if _, err := os.Stat(DefaultConfigPath); err == nil {
			path = DefaultConfigPath
		}
	}

	bus := eventbus.New()
	cfgm := config.NewManager(path, bus)
	cfgm.SetValidator(watch.ValidateConfig)
	if _, err := cfgm.Load(); err != nil {
		if path == "" {
			return nil, err
		}
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	a := &App{
		cfgm:  cfgm,
		ovr:   opts.Overrides,
		bus:   bus,
		out:   opts.Stdout,
		now:   opts.Now,
		runID: uuid.NewString(),
	}
	if a.out == nil {
		a.out = logx.Stdout()
	}
	if a.now == nil {
		a.now = time.Now
	}

	cfg := a.Config()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := watch.ValidateConfig(context.Background(), cfg); err != nil {
		return nil, err
	}

	if opts.Logger != nil {
		a.log = *opts.Logger
	} else {
		a.logs, a.log = logx.New(logConfig(cfg))
	}
	a.log = a.log.With(logx.String("run_id", a.runID))
	cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	cfgm.SetSourcePaths(func(c *config.Config) []string { return a.ovr.Apply(c).SourcePaths() })
	if path != "" {
		a.log.Debug("config loaded", logx.String("path", path))
	}
	return a, nil
}

func logConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

// Config returns the committed config with command-line overrides applied.
func (a *App) Config() *config.Config {
	return a.ovr.Apply(a.cfgm.Get())
}

func (a *App) Logger() logx.Logger { return a.log }

func (a *App) RunID() string { return a.runID }

func (a *App) Close() error {
	if a.logs != nil {
		return a.logs.Close()
	}
	return nil
}

// Sources lists the task sources named by cfg in load order.
func Sources(cfg *config.Config) ([]source.Source, error) {
	var out []source.Source
	if p := cfg.Sources.INI; p != "" {
		out = append(out, source.INI{Path: p})
	}
	if p := cfg.Sources.CSV; p != "" {
		out = append(out, source.CSV{Path: p})
	}
	if sq := cfg.Sources.SQLite; sq != nil {
		busy, err := config.ParseDurationField("sources.sqlite.busy_timeout", sq.BusyTimeout)
		if err != nil {
			return nil, err
		}
		out = append(out, source.SQLite{Path: sq.Path, Table: sq.Table, BusyTimeout: busy})
	}
	if len(out) == 0 {
		return nil, errors.New("no task sources configured")
	}
	return out, nil
}

// LoadRegistry builds a registry from every configured source.
func (a *App) LoadRegistry(ctx context.Context) (*registry.Registry, []source.Stats, error) {
	srcs, err := Sources(a.Config())
	if err != nil {
		return nil, nil, err
	}
	reg := registry.New()
	stats, err := source.LoadAll(ctx, reg, a.log.With(logx.String("comp", "source")), srcs...)
	if err != nil {
		return nil, stats, err
	}
	return reg, stats, nil
}

func (a *App) warnThrottle(cfg *config.Config) *logx.Throttle {
	every, err := config.ParseDurationOrDefault("watch.warn_every", cfg.Watch.WarnEvery, config.DefaultWarnEach)
	if err != nil {
		every = config.DefaultWarnEach
	}
	a.tmu.Lock()
	defer a.tmu.Unlock()
	if a.throttle == nil || a.warnKey != every {
		a.throttle = logx.NewThrottle(every, 1)
		a.warnKey = every
	}
	return a.throttle
}

// Plan evaluates reg over the configured window.
func (a *App) Plan(ctx context.Context, reg *registry.Registry) ([]agenda.Report, error) {
	cfg := a.Config()
	start, err := cfg.StartDate(a.now())
	if err != nil {
		return nil, err
	}
	agg := agenda.New(reg, agenda.Options{
		Log:      a.log.With(logx.String("comp", "agenda")),
		Throttle: a.warnThrottle(cfg),
		Workers:  cfg.Report.Workers,
	})
	return agg.Plan(ctx, start, cfg.Report.Days)
}

// RenderOptions maps the report config onto render options.
func RenderOptions(cfg *config.Config) (render.Options, error) {
	f, err := render.ParseFormat(cfg.Report.Format)
	if err != nil {
		return render.Options{}, err
	}
	c, err := render.ParseColor(cfg.Report.Color)
	if err != nil {
		return render.Options{}, err
	}
	return render.Options{Format: f, Color: c, Header: true, Issues: true}, nil
}

// Report loads the sources, plans the window and renders it. With pager set
// the pretty output is shown in an interactive viewport instead.
func (a *App) Report(ctx context.Context, pager bool) error {
	reg, _, err := a.LoadRegistry(ctx)
	if err != nil {
		return err
	}
	_, err = a.render(ctx, reg, pager, false)
	return err
}

func (a *App) render(ctx context.Context, reg *registry.Registry, pager, clear bool) (int, error) {
	plan, err := a.Plan(ctx, reg)
	if err != nil {
		return 0, err
	}
	ropts, err := RenderOptions(a.Config())
	if err != nil {
		return 0, err
	}
	if pager {
		s, err := render.String(plan, ropts)
		if err != nil {
			return 0, err
		}
		return len(plan), render.Page("taskplan", s)
	}
	if clear {
		// ANSI clear screen + home
		_, _ = io.WriteString(a.out, "\x1b[2J\x1b[H")
	}
	if err := render.Render(a.out, plan, ropts); err != nil {
		return 0, err
	}
	due := 0
	for _, rep := range plan {
		due += rep.TaskCount()
	}
	a.log.Debug("report rendered", logx.Int("dates", len(plan)), logx.Int("records", reg.Len()), logx.Int("due", due))
	return len(plan), nil
}

// Watch renders now and again on every refresh tick or task/config change
// until ctx is done.
func (a *App) Watch(ctx context.Context, notify bool) error {
	cfg := a.Config()
	debounce, err := config.ParseDurationOrDefault("watch.debounce", cfg.Watch.Debounce, config.DefaultDebounce)
	if err != nil {
		return err
	}
	a.cfgm.SetDebounce(debounce)

	svc, err := watch.New(watch.Options{
		Refresh:        cfg.Watch.Refresh,
		ReloadOnChange: cfg.ReloadOnChange(),
		Log:            a.log,
		Bus:            a.bus,
		Notify:         notify,
		Load: func(ctx context.Context) (*registry.Registry, error) {
			reg, _, err := a.LoadRegistry(ctx)
			return reg, err
		},
		Render: func(ctx context.Context, reg *registry.Registry) (int, error) {
			return a.render(ctx, reg, false, a.Config().Watch.Clear)
		},
	})
	if err != nil {
		return err
	}

	sup := supervisor.New(ctx, supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))), supervisor.WithCancelOnError(true))
	sup.GoRestart("config.watch", a.cfgm.Watch, supervisor.WithRestartBackoff(time.Second, 30*time.Second))
	sup.Go0("logging.reload", a.applyLogging)
	sup.Go0("eventbus.log", a.logEvents)
	sup.Go("watch", svc.Run)

	<-sup.Context().Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return sup.Stop(stopCtx)
}

// applyLogging swaps log sinks when the config changes.
func (a *App) applyLogging(ctx context.Context) {
	events, unsub := a.bus.Subscribe(4, eventbus.ConfigChanged)
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if a.logs == nil {
				continue
			}
			if _, ok := ev.Data.(*config.Config); !ok {
				continue
			}
			if err := a.logs.Apply(logConfig(a.Config())); err != nil {
				a.log.Warn("log file unavailable, logging to console", logx.Err(err))
			}
		}
	}
}

func (a *App) logEvents(ctx context.Context) {
	events, unsub := a.bus.Subscribe(64)
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
		}
	}
}
