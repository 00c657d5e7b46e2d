package watch

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// RefreshKind describes how a refresh string was interpreted.
type RefreshKind int

const (
	RefreshCron RefreshKind = iota
	RefreshInterval
)

func (k RefreshKind) String() string {
	if k == RefreshInterval {
		return "interval"
	}
	return "cron"
}

// Refresh is a parsed watch.refresh value.
//
// Supported forms:
//   - Cron: "0 7 * * 1-5", "@daily", "@every 30m"
//   - Interval duration: "30m", "1h30m"
//   - Interval HH:MM: "01:30" (1 hour 30 minutes)
//
// Optional prefixes:
//   - "cron:" forces cron parsing
//   - "interval:" or "every:" forces interval parsing
type Refresh struct {
	Kind   RefreshKind
	Cron   string
	Every  time.Duration
	Source string // "cron" | "duration" | "hhmm"
}

var (
	reHHMM = regexp.MustCompile(`^\s*(\d{1,3}):(\d{2})\s*$`)

	cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
)

// ParseRefresh parses a refresh string. Cron expressions are checked here so a
// bad value is rejected when the config loads, not when watch starts.
func ParseRefresh(raw string) (Refresh, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Refresh{}, fmt.Errorf("refresh required")
	}

	low := strings.ToLower(s)
	switch {
	case strings.HasPrefix(low, "cron:"):
		return parseCron(strings.TrimSpace(s[len("cron:"):]))
	case strings.HasPrefix(low, "interval:"):
		return parseInterval(s[len("interval:"):])
	case strings.HasPrefix(low, "every:"):
		return parseInterval(s[len("every:"):])
	}

	// whitespace or a leading '@' means cron
	if strings.ContainsAny(s, " \t\n\r") || strings.HasPrefix(s, "@") {
		return parseCron(s)
	}
	if reHHMM.MatchString(s) || looksLikeDuration(s) {
		return parseInterval(s)
	}
	return Refresh{}, fmt.Errorf(
		"invalid refresh %q (use cron like '0 7 * * 1-5', HH:MM like '01:30', or duration like '30m')",
		raw,
	)
}

// Schedule returns the cron schedule that drives the refresh.
func (r Refresh) Schedule() (cron.Schedule, error) {
	if r.Kind == RefreshInterval {
		return cron.Every(r.Every), nil
	}
	return cronParser.Parse(r.Cron)
}

func (r Refresh) String() string {
	if r.Kind == RefreshInterval {
		return "every " + r.Every.String()
	}
	return r.Cron
}

func parseCron(expr string) (Refresh, error) {
	if expr == "" {
		return Refresh{}, fmt.Errorf("cron expression required after 'cron:'")
	}
	if _, err := cronParser.Parse(expr); err != nil {
		return Refresh{}, fmt.Errorf("invalid cron %q: %w", expr, err)
	}
	return Refresh{Kind: RefreshCron, Cron: expr, Source: "cron"}, nil
}

func parseInterval(v string) (Refresh, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return Refresh{}, fmt.Errorf("interval required")
	}
	if reHHMM.MatchString(v) {
		d, err := parseHHMM(v)
		if err != nil {
			return Refresh{}, err
		}
		return Refresh{Kind: RefreshInterval, Every: d, Source: "hhmm"}, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return Refresh{}, fmt.Errorf("invalid interval %q (use HH:MM or Go duration like '30m')", v)
	}
	if d <= 0 {
		return Refresh{}, fmt.Errorf("interval must be > 0")
	}
	return Refresh{Kind: RefreshInterval, Every: d, Source: "duration"}, nil
}

func parseHHMM(v string) (time.Duration, error) {
	m := reHHMM.FindStringSubmatch(v)
	if len(m) != 3 {
		return 0, fmt.Errorf("invalid HH:MM %q", v)
	}
	hh, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if mm > 59 {
		return 0, fmt.Errorf("invalid minutes in %q", v)
	}
	d := time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute
	if d <= 0 {
		return 0, fmt.Errorf("interval must be > 0")
	}
	return d, nil
}

func looksLikeDuration(s string) bool {
	_, err := time.ParseDuration(s)
	return err == nil
}
