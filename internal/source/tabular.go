package source

import (
	"fmt"
	"strings"
	"unicode"

	"taskplan/internal/registry"
)

// Column headers of the tabular import format.
const (
	ColClient            = "Client"
	ColTaskName          = "TaskName"
	ColSchedule          = "Schedule"
	ColPriority          = "Priority"
	ColEstimatedDuration = "EstimatedDuration"
	ColDescription       = "Description"
)

// Header lists the columns in their conventional order.
var Header = []string{ColClient, ColTaskName, ColSchedule, ColPriority, ColEstimatedDuration, ColDescription}

type metaColumn struct {
	idx int
	key string
}

// columnMap locates the columns of one table by header name.
type columnMap struct {
	client, task, sched int
	meta                []metaColumn
}

func normHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func mapColumns(header []string) (columnMap, error) {
	cm := columnMap{client: -1, task: -1, sched: -1}
	for i, h := range header {
		switch normHeader(h) {
		case "client":
			cm.client = i
		case "taskname":
			cm.task = i
		case "schedule":
			cm.sched = i
		case "":
			// unnamed column
		default:
			cm.meta = append(cm.meta, metaColumn{idx: i, key: snakeCase(h)})
		}
	}
	var missing []string
	if cm.client < 0 {
		missing = append(missing, ColClient)
	}
	if cm.task < 0 {
		missing = append(missing, ColTaskName)
	}
	if cm.sched < 0 {
		missing = append(missing, ColSchedule)
	}
	if len(missing) > 0 {
		return cm, fmt.Errorf("missing required column(s): %s (expected header %s)",
			strings.Join(missing, ", "), strings.Join(Header, ","))
	}
	return cm, nil
}

// record maps one row. Short rows read missing cells as empty.
func (cm columnMap) record(row []string, origin string) (registry.Record, error) {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return row[i]
	}
	key := registry.Key{
		Client: strings.TrimSpace(cell(cm.client)),
		Task:   strings.TrimSpace(cell(cm.task)),
	}
	if err := key.Validate(); err != nil {
		return registry.Record{}, err
	}
	rec := registry.Record{
		Key:      key,
		Schedule: strings.TrimSpace(cell(cm.sched)),
		Origin:   origin,
	}
	pairs := make([]registry.Pair, 0, len(cm.meta))
	for _, mc := range cm.meta {
		pairs = append(pairs, registry.Pair{Key: mc.key, Value: cell(mc.idx)})
	}
	// columns that share a snake_case name: the rightmost wins
	rec.Metadata = registry.NewMetadata(pairs...)
	return rec, nil
}

// snakeCase turns "EstimatedDuration" or "Due Date" into "estimated_duration"
// and "due_date".
func snakeCase(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
	var b strings.Builder
	prevLower := false
	pendingSep := false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			if prevLower || pendingSep {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower, pendingSep = false, false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSep {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			prevLower, pendingSep = true, false
		default:
			pendingSep = b.Len() > 0
			prevLower = false
		}
	}
	return b.String()
}
