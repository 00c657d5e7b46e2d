package config

import (
	"reflect"
	"sort"
	"strings"

	logx "taskplan/pkg/logx"
)

// SummarizeChange returns the changed top-level sections and structured
// fields describing the new values, for the reload log line.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 4)
	attrs := make([]logx.Field, 0, 12)

	if oldCfg.Logging.Level != newCfg.Logging.Level ||
		oldCfg.Logging.Console != newCfg.Logging.Console ||
		oldCfg.Logging.File.Enabled != newCfg.Logging.File.Enabled ||
		strings.TrimSpace(oldCfg.Logging.File.Path) != strings.TrimSpace(newCfg.Logging.File.Path) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if !reflect.DeepEqual(oldCfg.Sources, newCfg.Sources) {
		changed = append(changed, "sources")
		attrs = append(attrs,
			logx.String("sources.ini", newCfg.Sources.INI),
			logx.String("sources.csv", newCfg.Sources.CSV),
			logx.Bool("sources.sqlite", newCfg.Sources.SQLite != nil),
		)
	}

	if oldCfg.Report != newCfg.Report {
		changed = append(changed, "report")
		attrs = append(attrs,
			logx.Int("report.days", newCfg.Report.Days),
			logx.String("report.format", newCfg.Report.Format),
			logx.Int("report.workers", newCfg.Report.Workers),
		)
	}

	if strings.TrimSpace(oldCfg.Watch.Refresh) != strings.TrimSpace(newCfg.Watch.Refresh) ||
		oldCfg.ReloadOnChange() != newCfg.ReloadOnChange() ||
		strings.TrimSpace(oldCfg.Watch.Debounce) != strings.TrimSpace(newCfg.Watch.Debounce) ||
		strings.TrimSpace(oldCfg.Watch.WarnEvery) != strings.TrimSpace(newCfg.Watch.WarnEvery) ||
		oldCfg.Watch.Clear != newCfg.Watch.Clear {
		changed = append(changed, "watch")
		attrs = append(attrs,
			logx.String("watch.refresh", strings.TrimSpace(newCfg.Watch.Refresh)),
			logx.Bool("watch.reload_on_change", newCfg.ReloadOnChange()),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}
