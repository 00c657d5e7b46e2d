// Package watch keeps the task report current: it re-renders on a refresh
// schedule and rebuilds the registry when task files or the config change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"

	"taskplan/internal/config"
	"taskplan/internal/eventbus"
	"taskplan/internal/registry"
	logx "taskplan/pkg/logx"
)

// LoadFunc builds a fresh registry from the current task sources.
type LoadFunc func(ctx context.Context) (*registry.Registry, error)

// RenderFunc renders a report for reg and returns the number of dates shown.
type RenderFunc func(ctx context.Context, reg *registry.Registry) (int, error)

type Options struct {
	Refresh        string
	ReloadOnChange bool
	Log            logx.Logger
	Bus            eventbus.Bus
	Load           LoadFunc
	Render         RenderFunc
	// Notify sends sd_notify READY/STOPPING when running under systemd.
	Notify bool
	// Location for cron triggers; nil means time.Local.
	Location *time.Location
}

type Service struct {
	opts Options
	log  logx.Logger

	mu      sync.RWMutex
	reg     *registry.Registry
	refresh Refresh
	reload  bool

	cmu sync.Mutex
	c   *cron.Cron

	trigger chan struct{}
}

func New(opts Options) (*Service, error) {
	if opts.Load == nil || opts.Render == nil {
		return nil, errors.New("watch: Load and Render are required")
	}
	r, err := ParseRefresh(opts.Refresh)
	if err != nil {
		return nil, err
	}
	if opts.Bus == nil {
		opts.Bus = eventbus.New()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	log := opts.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		opts:    opts,
		log:     log.With(logx.String("comp", "watch")),
		refresh: r,
		reload:  opts.ReloadOnChange,
		trigger: make(chan struct{}, 1),
	}, nil
}

// Registry returns the registry used by the last render.
func (s *Service) Registry() *registry.Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reg
}

// Refresh returns the active refresh schedule.
func (s *Service) Refresh() Refresh {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

// Trigger requests a render. Requests made while one is pending coalesce.
func (s *Service) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Reload builds a new registry and swaps it in. On failure the previous
// registry stays in place and ReloadFailed is published.
func (s *Service) Reload(ctx context.Context) error {
	start := time.Now()
	reg, err := s.opts.Load(ctx)
	if err != nil {
		s.log.Warn("reload failed; keeping previous tasks", logx.Err(err))
		s.opts.Bus.Publish(eventbus.Event{Type: eventbus.ReloadFailed, Data: err})
		return err
	}
	s.mu.Lock()
	s.reg = reg
	s.mu.Unlock()
	s.log.Info("tasks reloaded", logx.Int("records", reg.Len()), logx.Duration("took", time.Since(start)))
	s.opts.Bus.Publish(eventbus.Event{Type: eventbus.RegistryReloaded, Data: reg.Len()})
	return nil
}

func (s *Service) render(ctx context.Context) {
	reg := s.Registry()
	if reg == nil {
		return
	}
	n, err := s.opts.Render(ctx, reg)
	if err != nil {
		s.log.Error("render failed", logx.Err(err))
		return
	}
	s.opts.Bus.Publish(eventbus.Event{Type: eventbus.ReportRendered, Data: n})
}

// Run loads, renders once and then blocks until ctx is done. An initial load
// failure is returned; later failures are logged and the previous registry is
// kept.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Reload(ctx); err != nil {
		return err
	}
	s.render(ctx)

	events, unsub := s.opts.Bus.Subscribe(16, eventbus.SourcesChanged, eventbus.ConfigChanged)
	defer unsub()

	if err := s.startCron(); err != nil {
		return err
	}
	defer s.stopCron()

	if s.opts.Notify {
		if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
			s.log.Warn("sd_notify ready failed", logx.Err(err))
		} else if ok {
			s.log.Debug("sd_notify ready sent")
		}
	}
	s.log.Info("watching", logx.String("refresh", s.Refresh().String()), logx.Bool("reload_on_change", s.reloadOnChange()))

	for {
		select {
		case <-ctx.Done():
			if s.opts.Notify {
				_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
			}
			s.log.Info("watch stopped")
			return nil
		case <-s.trigger:
			s.render(ctx)
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.handle(ctx, ev)
		}
	}
}

func (s *Service) handle(ctx context.Context, ev eventbus.Event) {
	switch ev.Type {
	case eventbus.ConfigChanged:
		cfg, ok := ev.Data.(*config.Config)
		if !ok || cfg == nil {
			return
		}
		s.mu.Lock()
		s.reload = cfg.ReloadOnChange()
		s.mu.Unlock()
		if err := s.SetRefresh(cfg.Watch.Refresh); err != nil {
			s.log.Warn("refresh not applied", logx.String("refresh", cfg.Watch.Refresh), logx.Err(err))
		}
		// Report settings may have changed even when no task file did.
		s.render(ctx)
	case eventbus.SourcesChanged:
		if !s.reloadOnChange() {
			s.log.Debug("task files changed; reload disabled")
			return
		}
		if err := s.Reload(ctx); err != nil {
			return
		}
		s.render(ctx)
	}
}

func (s *Service) reloadOnChange() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reload
}

// SetRefresh replaces the refresh schedule, restarting the trigger if running.
func (s *Service) SetRefresh(raw string) error {
	r, err := ParseRefresh(raw)
	if err != nil {
		return err
	}
	s.mu.Lock()
	same := r == s.refresh
	s.refresh = r
	s.mu.Unlock()
	if same {
		return nil
	}

	s.cmu.Lock()
	running := s.c != nil
	s.cmu.Unlock()
	if !running {
		return nil
	}
	s.stopCron()
	return s.startCron()
}

func (s *Service) startCron() error {
	sched, err := s.Refresh().Schedule()
	if err != nil {
		return fmt.Errorf("refresh schedule: %w", err)
	}
	c := cron.New(cron.WithParser(cronParser), cron.WithLocation(s.opts.Location))
	c.Schedule(sched, cron.FuncJob(s.Trigger))
	c.Start()

	s.cmu.Lock()
	s.c = c
	s.cmu.Unlock()
	return nil
}

func (s *Service) stopCron() {
	s.cmu.Lock()
	c := s.c
	s.c = nil
	s.cmu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// ValidateConfig checks the parts of cfg only this package understands.
// It is installed as the config manager's validator.
func ValidateConfig(_ context.Context, cfg *config.Config) error {
	if cfg == nil {
		return nil
	}
	if _, err := ParseRefresh(cfg.Watch.Refresh); err != nil {
		return fmt.Errorf("watch.refresh: %w", err)
	}
	return nil
}
