// Package render turns a plan of daily reports into terminal or structured
// output.
package render

import (
	"fmt"
	"io"
	"strings"

	"taskplan/internal/agenda"
)

// Format selects the output shape.
type Format string

const (
	FormatPretty Format = "pretty"
	FormatPlain  Format = "plain"
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
)

// Color controls ANSI styling for the pretty format.
type Color string

const (
	ColorAuto   Color = "auto"
	ColorAlways Color = "always"
	ColorNever  Color = "never"
)

// DateLayout is the per-day heading, e.g. "Monday, July 15, 2024".
const DateLayout = "Monday, January 02, 2006"

// NoTasks is printed for a date with nothing due.
const NoTasks = "No tasks scheduled for this day"

// RuleWidth is the length of the separator drawn after each date.
const RuleWidth = 50

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPretty, FormatPlain, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatPretty, nil
	default:
		return "", fmt.Errorf("unknown format %q (use pretty, plain, json or yaml)", s)
	}
}

func ParseColor(s string) (Color, error) {
	switch c := Color(strings.ToLower(strings.TrimSpace(s))); c {
	case ColorAuto, ColorAlways, ColorNever:
		return c, nil
	case "":
		return ColorAuto, nil
	default:
		return "", fmt.Errorf("unknown color mode %q (use auto, always or never)", s)
	}
}

type Options struct {
	Format Format
	Color  Color
	// Header prints the banner panel before the first date (pretty/plain only).
	Header bool
	// Issues lists skipped tasks under each date (pretty/plain only).
	Issues bool
}

// Render writes plan to w.
func Render(w io.Writer, plan []agenda.Report, opts Options) error {
	switch opts.Format {
	case FormatJSON:
		return writeJSON(w, plan)
	case FormatYAML:
		return writeYAML(w, plan)
	case FormatPlain:
		opts.Color = ColorNever
		return writeText(w, plan, opts)
	case FormatPretty, "":
		return writeText(w, plan, opts)
	default:
		return fmt.Errorf("unknown format %q", opts.Format)
	}
}

// String renders plan to a string; used by the pager.
func String(plan []agenda.Report, opts Options) (string, error) {
	var b strings.Builder
	if err := Render(&b, plan, opts); err != nil {
		return "", err
	}
	return b.String(), nil
}
