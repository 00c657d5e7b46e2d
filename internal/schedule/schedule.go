package schedule

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// Kind is the normalized kind of a schedule expression.
type Kind int

const (
	// KindInert never fires. Unrecognised expressions parse to it.
	KindInert Kind = iota
	KindEveryday
	KindWeekly
	KindMonthly
)

func (k Kind) String() string {
	switch k {
	case KindEveryday:
		return "everyday"
	case KindWeekly:
		return "weekly"
	case KindMonthly:
		return "monthly"
	default:
		return "inert"
	}
}

const (
	everydayKeyword = "everyday"
	everyPrefix     = "every "
	daysPrefix      = "days:"
)

// Expression is a parsed schedule.
type Expression struct {
	Kind    Kind
	Weekday time.Weekday // KindWeekly
	Days    []int        // KindMonthly, in the order written
	Source  string       // raw input, untrimmed
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Parse turns raw into an Expression.
//
// The only error is a *MalformedError for a non-integer entry in a "days:"
// list. Unknown forms, including "every" followed by something that is not
// an English weekday, yield KindInert with a nil error.
func Parse(raw string) (Expression, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	exp := Expression{Kind: KindInert, Source: raw}

	switch {
	case s == everydayKeyword:
		exp.Kind = KindEveryday
	case strings.HasPrefix(s, everyPrefix):
		name := strings.TrimSpace(s[len(everyPrefix):])
		if wd, ok := weekdays[name]; ok {
			exp.Kind = KindWeekly
			exp.Weekday = wd
		}
	case strings.HasPrefix(s, daysPrefix):
		days, err := parseDays(raw, s[len(daysPrefix):])
		if err != nil {
			return Expression{Kind: KindInert, Source: raw}, err
		}
		exp.Kind = KindMonthly
		exp.Days = days
	}
	return exp, nil
}

func parseDays(raw, list string) ([]int, error) {
	parts := strings.Split(list, ",")
	days := make([]int, 0, len(parts))
	for _, p := range parts {
		tok := strings.TrimSpace(p)
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, &MalformedError{Expr: raw, Token: tok, Err: err}
		}
		days = append(days, n)
	}
	return days, nil
}

// Matches reports whether the expression fires on date.
func (e Expression) Matches(date time.Time) bool {
	switch e.Kind {
	case KindEveryday:
		return true
	case KindWeekly:
		return date.Weekday() == e.Weekday
	case KindMonthly:
		return slices.Contains(e.Days, date.Day())
	default:
		return false
	}
}

// String renders the canonical form of the expression.
func (e Expression) String() string {
	switch e.Kind {
	case KindEveryday:
		return everydayKeyword
	case KindWeekly:
		return everyPrefix + e.Weekday.String()
	case KindMonthly:
		parts := make([]string, len(e.Days))
		for i, d := range e.Days {
			parts[i] = strconv.Itoa(d)
		}
		return daysPrefix + strings.Join(parts, ",")
	default:
		return strings.TrimSpace(e.Source)
	}
}

// Fires parses raw and evaluates it against date.
func Fires(raw string, date time.Time) (bool, error) {
	exp, err := Parse(raw)
	if err != nil {
		return false, err
	}
	return exp.Matches(date), nil
}
