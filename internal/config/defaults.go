package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultINIPath  = "tasks.ini"
	DefaultDays     = 4
	DefaultFormat   = "pretty"
	DefaultColor    = "auto"
	DefaultWorkers  = 4
	DefaultRefresh  = "0 7 * * *"
	DefaultDebounce = 250 * time.Millisecond
	DefaultWarnEach = time.Hour
)

var (
	formats = []string{"pretty", "plain", "json", "yaml"}
	colors  = []string{"auto", "always", "never"}
)

// Default returns the config used when no config file exists.
func Default() *Config {
	cfg := &Config{Logging: LoggingConfig{Level: "info", Console: true}}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values in place.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = "info"
	}
	if c.Sources.INI == "" && c.Sources.CSV == "" && c.Sources.SQLite == nil {
		c.Sources.INI = DefaultINIPath
	}
	if c.Report.Days == 0 {
		c.Report.Days = DefaultDays
	}
	if strings.TrimSpace(c.Report.Format) == "" {
		c.Report.Format = DefaultFormat
	}
	if strings.TrimSpace(c.Report.Color) == "" {
		c.Report.Color = DefaultColor
	}
	if c.Report.Workers <= 0 {
		c.Report.Workers = DefaultWorkers
	}
	if strings.TrimSpace(c.Watch.Refresh) == "" {
		c.Watch.Refresh = DefaultRefresh
	}
}

// ReloadOnChange reports the effective watch.reload_on_change value.
func (c *Config) ReloadOnChange() bool {
	if c.Watch.ReloadOnChange == nil {
		return true
	}
	return *c.Watch.ReloadOnChange
}

// Validate checks values that decoding cannot.
func (c *Config) Validate() error {
	if c.Report.Days < 0 {
		return fmt.Errorf("report.days: must be >= 0, got %d", c.Report.Days)
	}
	if !oneOf(c.Report.Format, formats) {
		return fmt.Errorf("report.format: %q is not one of %s", c.Report.Format, strings.Join(formats, ", "))
	}
	if !oneOf(c.Report.Color, colors) {
		return fmt.Errorf("report.color: %q is not one of %s", c.Report.Color, strings.Join(colors, ", "))
	}
	if _, err := c.StartDate(time.Now()); err != nil {
		return err
	}
	if c.Sources.SQLite != nil {
		if strings.TrimSpace(c.Sources.SQLite.Path) == "" {
			return fmt.Errorf("sources.sqlite.path: required")
		}
		if _, err := ParseDurationField("sources.sqlite.busy_timeout", c.Sources.SQLite.BusyTimeout); err != nil {
			return err
		}
	}
	if _, err := ParseDurationField("watch.debounce", c.Watch.Debounce); err != nil {
		return err
	}
	if _, err := ParseDurationField("watch.warn_every", c.Watch.WarnEvery); err != nil {
		return err
	}
	return nil
}

// StartDate resolves report.start relative to now.
func (c *Config) StartDate(now time.Time) (time.Time, error) {
	s := strings.TrimSpace(c.Report.Start)
	if s == "" || strings.EqualFold(s, "today") {
		return now, nil
	}
	d, err := time.ParseInLocation(time.DateOnly, s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("report.start: invalid date %q (use YYYY-MM-DD or \"today\")", s)
	}
	return d, nil
}

// SourcePaths lists the task files named by the config.
func (c *Config) SourcePaths() []string {
	var out []string
	if c.Sources.INI != "" {
		out = append(out, c.Sources.INI)
	}
	if c.Sources.CSV != "" {
		out = append(out, c.Sources.CSV)
	}
	if c.Sources.SQLite != nil && c.Sources.SQLite.Path != "" {
		out = append(out, c.Sources.SQLite.Path)
	}
	return out
}

func oneOf(v string, set []string) bool {
	for _, s := range set {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}

// ParseDurationField parses an optional Go duration; empty means 0.
func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

// ParseDurationOrDefault is ParseDurationField with def for empty or zero.
func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}
