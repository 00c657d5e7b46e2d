package cli

import (
	"github.com/spf13/pflag"

	"taskplan/internal/app"
)

// reportFlags override report and source settings from the config file.
type reportFlags struct {
	ini         string
	csv         string
	sqlite      string
	sqliteTable string
	days        int
	workers     int
	format      string
	color       string
	start       string
	pager       bool
}

func addReportFlags(fs *pflag.FlagSet, f *reportFlags) {
	fs.StringVar(&f.ini, "ini", "", "INI task file (default: tasks.ini)")
	fs.StringVar(&f.csv, "csv", "", "CSV task export to load after the INI file")
	fs.StringVar(&f.sqlite, "sqlite", "", "SQLite database with a tasks table to load last")
	fs.StringVar(&f.sqliteTable, "sqlite-table", "", "table read from --sqlite (default: tasks)")
	fs.IntVarP(&f.days, "days", "n", 0, "number of business days to show (default: 4)")
	fs.IntVar(&f.workers, "workers", 0, "dates evaluated concurrently")
	fs.StringVarP(&f.format, "format", "f", "", "output format: pretty | plain | json | yaml")
	fs.StringVar(&f.color, "color", "", "color: auto | always | never")
	fs.StringVar(&f.start, "start", "", "first date as YYYY-MM-DD (default: today)")
	fs.BoolVar(&f.pager, "pager", false, "show the report in an interactive pager")
}

// overrides returns the flags the user set, plus positional [ini [csv]] args.
func (f *reportFlags) overrides(fs *pflag.FlagSet, args []string) app.Overrides {
	var o app.Overrides
	str := func(name string, v *string) *string {
		if fs.Changed(name) {
			return v
		}
		return nil
	}
	num := func(name string, v *int) *int {
		if fs.Changed(name) {
			return v
		}
		return nil
	}
	o.INI = str("ini", &f.ini)
	o.CSV = str("csv", &f.csv)
	o.SQLite = str("sqlite", &f.sqlite)
	o.SQLiteTable = str("sqlite-table", &f.sqliteTable)
	o.Days = num("days", &f.days)
	o.Workers = num("workers", &f.workers)
	o.Format = str("format", &f.format)
	o.Color = str("color", &f.color)
	o.Start = str("start", &f.start)

	if len(args) >= 1 {
		o.INI = &args[0]
	}
	if len(args) >= 2 {
		o.CSV = &args[1]
	}
	return o
}
