package agenda

import (
	"time"

	"taskplan/internal/registry"
)

// TaskEntry is one due task. Metadata is shared with the registry record.
type TaskEntry struct {
	Name     string            `json:"name" yaml:"name"`
	Schedule string            `json:"schedule" yaml:"schedule"`
	Metadata registry.Metadata `json:"metadata" yaml:"metadata"`
}

// ClientTasks groups the due tasks of one client.
type ClientTasks struct {
	Name  string      `json:"client" yaml:"client"`
	Tasks []TaskEntry `json:"tasks" yaml:"tasks"`
}

// Issue is a record that was skipped while building a report.
type Issue struct {
	Key    registry.Key `json:"key" yaml:"key"`
	Origin string       `json:"origin,omitempty" yaml:"origin,omitempty"`
	Reason string       `json:"reason" yaml:"reason"`
	Err    error        `json:"-" yaml:"-"`
}

// Report lists the tasks due on one date, grouped by client then task, in the
// order the records were loaded.
type Report struct {
	Date    time.Time     `json:"date" yaml:"date"`
	Clients []ClientTasks `json:"clients" yaml:"clients"`
	Issues  []Issue       `json:"issues,omitempty" yaml:"issues,omitempty"`
}

func (r Report) Empty() bool { return len(r.Clients) == 0 }

// TaskCount returns the number of due tasks across clients.
func (r Report) TaskCount() int {
	n := 0
	for _, c := range r.Clients {
		n += len(c.Tasks)
	}
	return n
}

// Lookup returns the metadata of a due task.
func (r Report) Lookup(client, task string) (registry.Metadata, bool) {
	for _, c := range r.Clients {
		if c.Name != client {
			continue
		}
		for _, t := range c.Tasks {
			if t.Name == task {
				return t.Metadata, true
			}
		}
	}
	return registry.Metadata{}, false
}

// builder keeps client order stable while grouping.
type builder struct {
	rep   Report
	index map[string]int
}

func newBuilder(date time.Time) *builder {
	return &builder{rep: Report{Date: date}, index: map[string]int{}}
}

func (b *builder) add(rec registry.Record) {
	i, ok := b.index[rec.Client]
	if !ok {
		i = len(b.rep.Clients)
		b.index[rec.Client] = i
		b.rep.Clients = append(b.rep.Clients, ClientTasks{Name: rec.Client})
	}
	b.rep.Clients[i].Tasks = append(b.rep.Clients[i].Tasks, TaskEntry{
		Name:     rec.Task,
		Schedule: rec.Schedule,
		Metadata: rec.Metadata,
	})
}

func (b *builder) skip(rec registry.Record, err error) {
	b.rep.Issues = append(b.rep.Issues, Issue{Key: rec.Key, Origin: rec.Origin, Reason: err.Error(), Err: err})
}
