package config

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"taskplan/internal/eventbus"
	logx "taskplan/pkg/logx"
)

// Manager owns the current config and, in watch mode, reports changes to the
// config file and to the task files it names.
//
// Changes are published on the bus:
//   - eventbus.ConfigChanged with the new *Config (after validation)
//   - eventbus.SourcesChanged with the changed task file paths
type Manager struct {
	// path is empty when running on defaults without a config file.
	path string

	mu  sync.RWMutex
	cfg *Config

	log       logx.Logger
	bus       eventbus.Bus
	validator func(ctx context.Context, cfg *Config) error
	debounce  time.Duration

	// lastHash tracks the last committed config content so editor write
	// bursts without content changes are not republished.
	lastHash uint64

	// sourcePaths maps a config onto the task files to watch.
	sourcePaths func(cfg *Config) []string

	// resync asks Watch to re-add directories after the set of source files changed.
	resync chan struct{}
}

func NewManager(path string, bus eventbus.Bus) *Manager {
	if bus == nil {
		bus = eventbus.New()
	}
	return &Manager{
		path:        path,
		bus:         bus,
		debounce:    DefaultDebounce,
		sourcePaths: (*Config).SourcePaths,
		resync:      make(chan struct{}, 1),
	}
}

func (m *Manager) SetLogger(log logx.Logger) { m.log = log }

// SetValidator installs a hook run before a reloaded config is committed.
func (m *Manager) SetValidator(fn func(ctx context.Context, cfg *Config) error) {
	m.validator = fn
}

// SetDebounce sets how long Watch waits for writes to settle.
func (m *Manager) SetDebounce(d time.Duration) {
	if d > 0 {
		m.debounce = d
	}
}

// SetSourcePaths overrides how task file paths are derived from a config,
// e.g. when command-line arguments replace the configured sources.
func (m *Manager) SetSourcePaths(fn func(cfg *Config) []string) {
	if fn != nil {
		m.sourcePaths = fn
	}
}

func (m *Manager) Path() string { return m.path }

func (m *Manager) Bus() eventbus.Bus { return m.bus }

// Parse reads and decodes the config file without committing it.
// Without a path it returns Default().
func (m *Manager) Parse() (*Config, error) {
	if m.path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(m.path)
	if err != nil {
		return nil, err
	}
	return Decode(m.path, b)
}

func (m *Manager) Commit(cfg *Config) {
	m.mu.Lock()
	m.cfg = cfg
	m.lastHash = hashConfig(cfg)
	m.mu.Unlock()
}

// Load parses, validates and commits the config.
func (m *Manager) Load() (*Config, error) {
	cfg, err := m.Parse()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if m.validator != nil {
		if err := m.validator(context.Background(), cfg); err != nil {
			return nil, err
		}
	}
	m.Commit(cfg)
	return cfg, nil
}

func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// watchTargets returns absolute paths of the config file and current sources.
func (m *Manager) watchTargets() (cfgPath string, sources map[string]bool) {
	sources = map[string]bool{}
	if m.path != "" {
		cfgPath = absClean(m.path)
	}
	if cfg := m.Get(); cfg != nil {
		for _, p := range m.sourcePaths(cfg) {
			sources[absClean(p)] = true
		}
	}
	return cfgPath, sources
}

func absClean(p string) string {
	if a, err := filepath.Abs(p); err == nil {
		return a
	}
	return filepath.Clean(p)
}

// reload runs after the debounce window with the set of changed paths.
func (m *Manager) reload(ctx context.Context, cfgChanged bool, changedSources []string) {
	if cfgChanged {
		if m.reloadConfig(ctx) {
			// The new config may name other task files; reload them all.
			_, srcs := m.watchTargets()
			changedSources = changedSources[:0]
			for p := range srcs {
				changedSources = append(changedSources, p)
			}
		}
	}
	if len(changedSources) > 0 {
		m.bus.Publish(eventbus.Event{Type: eventbus.SourcesChanged, Data: changedSources})
		if !m.log.IsZero() {
			m.log.Debug("task sources changed", logx.Any("paths", changedSources))
		}
	}
}

// reloadConfig commits and publishes a changed config file. It reports whether
// a new config was committed.
func (m *Manager) reloadConfig(ctx context.Context) bool {
	cfg, err := m.Parse()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		if !m.log.IsZero() {
			m.log.Warn("config reload rejected; keeping previous", logx.String("path", m.path), logx.Err(err))
		}
		return false
	}

	h := hashConfig(cfg)
	m.mu.RLock()
	unchanged := h != 0 && h == m.lastHash
	old := m.cfg
	m.mu.RUnlock()
	if unchanged {
		if !m.log.IsZero() {
			m.log.Debug("config unchanged; skipping publish", logx.String("path", m.path))
		}
		return false
	}

	if m.validator != nil {
		vctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := m.validator(vctx, cfg)
		cancel()
		if err != nil {
			if !m.log.IsZero() {
				m.log.Warn("config rejected", logx.String("path", m.path), logx.Err(err))
			}
			return false
		}
	}

	m.Commit(cfg)
	m.bus.Publish(eventbus.Event{Type: eventbus.ConfigChanged, Data: cfg})
	if !m.log.IsZero() {
		sections, fields := SummarizeChange(old, cfg)
		fields = append(fields, logx.String("path", m.path), logx.String("sections", strings.Join(sections, ",")))
		m.log.Info("config reloaded", fields...)
	}
	if old == nil || !sameStrings(m.sourcePaths(old), m.sourcePaths(cfg)) {
		select {
		case m.resync <- struct{}{}:
		default:
		}
	}
	return true
}

// Watch blocks until ctx is done, publishing changes to the config file and
// task files. The fsnotify watcher is recreated with backoff if it breaks.
func (m *Manager) Watch(ctx context.Context) error {
	const (
		restartBackoffBase = 250 * time.Millisecond
		restartBackoffMax  = 5 * time.Second
	)
	backoff := restartBackoffBase
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	nextWait := func() time.Duration {
		wait := backoff + time.Duration(rng.Int63n(int64(backoff/2)+1))
		if backoff < restartBackoffMax {
			backoff = min(backoff*2, restartBackoffMax)
		}
		return wait
	}

	var (
		timerMu     sync.Mutex
		timer       *time.Timer
		pendingCfg  bool
		pendingSrcs = map[string]bool{}
	)
	schedule := func(isCfg bool, path string) {
		timerMu.Lock()
		defer timerMu.Unlock()
		if isCfg {
			pendingCfg = true
		} else {
			pendingSrcs[path] = true
		}
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(m.debounce, func() {
			timerMu.Lock()
			cfgChanged := pendingCfg
			srcs := make([]string, 0, len(pendingSrcs))
			for p := range pendingSrcs {
				srcs = append(srcs, p)
			}
			pendingCfg = false
			pendingSrcs = map[string]bool{}
			timerMu.Unlock()
			if ctx.Err() == nil {
				m.reload(ctx, cfgChanged, srcs)
			}
		})
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}
		cfgPath, sources := m.watchTargets()
		if cfgPath == "" && len(sources) == 0 {
			return errors.New("config watch: nothing to watch")
		}

		w, err := m.newWatcher(cfgPath, sources)
		if err != nil {
			if !m.log.IsZero() {
				m.log.Warn("config watch init failed", logx.Err(err))
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(nextWait()):
				continue
			}
		}
		backoff = restartBackoffBase

		broken := false
		for !broken {
			select {
			case <-ctx.Done():
				_ = w.Close()
				return nil
			case <-m.resync:
				broken = true
			case ev, ok := <-w.Events:
				if !ok {
					broken = true
					break
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove|fsnotify.Chmod) == 0 {
					continue
				}
				name := absClean(ev.Name)
				switch {
				case cfgPath != "" && strings.EqualFold(name, cfgPath):
					schedule(true, name)
				case sources[name]:
					schedule(false, name)
				}
			case err, ok := <-w.Errors:
				if !ok {
					broken = true
					break
				}
				if err == nil {
					continue
				}
				// Overflow means events were missed; reload everything once.
				if errors.Is(err, fsnotify.ErrEventOverflow) {
					if !m.log.IsZero() {
						m.log.Warn("config watch overflow; forcing reload", logx.Err(err))
					}
					if cfgPath != "" {
						schedule(true, cfgPath)
					}
					for p := range sources {
						schedule(false, p)
					}
					continue
				}
				if !m.log.IsZero() {
					m.log.Warn("config watch error", logx.Err(err))
				}
			}
		}

		_ = w.Close()
		if ctx.Err() != nil {
			return nil
		}
		wait := restartBackoffBase
		if !m.log.IsZero() {
			m.log.Debug("config watcher restarting", logx.Duration("backoff", wait))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

// newWatcher watches the parent directories so editors that replace files
// (write to temp + rename) are still seen.
func (m *Manager) newWatcher(cfgPath string, sources map[string]bool) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dirs := map[string]bool{}
	if cfgPath != "" {
		dirs[filepath.Dir(cfgPath)] = true
	}
	for p := range sources {
		dirs[filepath.Dir(p)] = true
	}
	for d := range dirs {
		if err := w.Add(d); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("watch %s: %w", d, err)
		}
	}
	if !m.log.IsZero() {
		m.log.Debug("config watcher started", logx.Int("dirs", len(dirs)), logx.Int("sources", len(sources)))
	}
	return w, nil
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
