package config

// Config is the taskplan app config (taskplan.yaml or taskplan.json).
//
// All durations are Go duration strings (e.g. "250ms", "10s", "1h").
type Config struct {
	Logging LoggingConfig `json:"logging"`
	Sources SourcesConfig `json:"sources"`
	Report  ReportConfig  `json:"report"`
	Watch   WatchConfig   `json:"watch"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// SourcesConfig lists where tasks are loaded from. Sources are applied in the
// order ini, csv, sqlite; a later source overrides an earlier one per
// (client, task).
//
// Example:
//
//	sources:
//	  ini: ./tasks.ini
//	  csv: ./export.csv
//	  sqlite: { path: ./tasks.db, table: tasks }
type SourcesConfig struct {
	INI    string        `json:"ini,omitempty"`
	CSV    string        `json:"csv,omitempty"`
	SQLite *SQLiteSource `json:"sqlite,omitempty"`
}

type SQLiteSource struct {
	Path        string `json:"path"`
	Table       string `json:"table,omitempty"`        // default "tasks"
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string
}

// ReportConfig controls the rendered window.
//
// Defaults (when fields are omitted/zero):
//   - days: 4 (today plus the next three business days)
//   - format: "pretty"
//   - color: "auto"
//   - workers: 4
type ReportConfig struct {
	Days    int    `json:"days,omitempty"`
	Format  string `json:"format,omitempty"` // pretty | plain | json | yaml
	Color   string `json:"color,omitempty"`  // auto | always | never
	Workers int    `json:"workers,omitempty"`
	// Start is "today" or a YYYY-MM-DD date.
	Start string `json:"start,omitempty"`
}

// WatchConfig controls `taskplan watch`.
//
// Refresh accepts the same forms as cron triggers elsewhere: a cron expression
// ("0 7 * * 1-5"), "cron:" prefix, a Go duration ("1h") or HH:MM ("01:30").
//
// ReloadOnChange is a pointer so "omitted" (default true) differs from false.
type WatchConfig struct {
	Refresh        string `json:"refresh,omitempty"`
	ReloadOnChange *bool  `json:"reload_on_change,omitempty"`
	Debounce       string `json:"debounce,omitempty"`
	// WarnEvery throttles repeated malformed-schedule warnings per task.
	WarnEvery string `json:"warn_every,omitempty"`
	// Clear clears the terminal before each render.
	Clear bool `json:"clear,omitempty"`
}
