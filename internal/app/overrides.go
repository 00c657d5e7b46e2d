package app

import (
	"taskplan/internal/config"
)

// Overrides are command-line values that take precedence over the config
// file. Nil fields keep the configured value.
type Overrides struct {
	INI         *string
	CSV         *string
	SQLite      *string
	SQLiteTable *string
	Days        *int
	Workers     *int
	Format      *string
	Color       *string
	Start       *string
	LogLevel    *string
	Refresh     *string
}

// Apply returns a copy of cfg with the overrides set. cfg is not modified.
func (o Overrides) Apply(cfg *config.Config) *config.Config {
	if cfg == nil {
		cfg = config.Default()
	}
	out := *cfg
	if cfg.Sources.SQLite != nil {
		sq := *cfg.Sources.SQLite
		out.Sources.SQLite = &sq
	}

	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&out.Sources.INI, o.INI)
	set(&out.Sources.CSV, o.CSV)
	if o.SQLite != nil {
		if *o.SQLite == "" {
			out.Sources.SQLite = nil
		} else {
			if out.Sources.SQLite == nil {
				out.Sources.SQLite = &config.SQLiteSource{}
			}
			out.Sources.SQLite.Path = *o.SQLite
		}
	}
	if o.SQLiteTable != nil && out.Sources.SQLite != nil {
		out.Sources.SQLite.Table = *o.SQLiteTable
	}
	if o.Days != nil {
		out.Report.Days = *o.Days
	}
	if o.Workers != nil {
		out.Report.Workers = *o.Workers
	}
	set(&out.Report.Format, o.Format)
	set(&out.Report.Color, o.Color)
	set(&out.Report.Start, o.Start)
	set(&out.Logging.Level, o.LogLevel)
	set(&out.Watch.Refresh, o.Refresh)
	return &out
}
