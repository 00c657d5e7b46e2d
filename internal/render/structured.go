package render

import (
	"encoding/json"
	"io"
	"time"

	yaml "go.yaml.in/yaml/v3"

	"taskplan/internal/agenda"
)

// day is the structured form of one report. Dates are plain YYYY-MM-DD since
// reports carry no time of day.
type day struct {
	Date    string               `json:"date" yaml:"date"`
	Weekday string               `json:"weekday" yaml:"weekday"`
	Clients []agenda.ClientTasks `json:"clients" yaml:"clients"`
	Issues  []agenda.Issue       `json:"issues,omitempty" yaml:"issues,omitempty"`
}

type document struct {
	Days []day `json:"days" yaml:"days"`
}

func toDocument(plan []agenda.Report) document {
	doc := document{Days: make([]day, 0, len(plan))}
	for _, rep := range plan {
		clients := rep.Clients
		if clients == nil {
			clients = []agenda.ClientTasks{}
		}
		doc.Days = append(doc.Days, day{
			Date:    rep.Date.Format(time.DateOnly),
			Weekday: rep.Date.Weekday().String(),
			Clients: clients,
			Issues:  rep.Issues,
		})
	}
	return doc
}

func writeJSON(w io.Writer, plan []agenda.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toDocument(plan))
}

func writeYAML(w io.Writer, plan []agenda.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(toDocument(plan)); err != nil {
		return err
	}
	return enc.Close()
}
