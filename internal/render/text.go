package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/muesli/termenv"

	"taskplan/internal/agenda"
)

var banner = strings.Join([]string{
	"Task Schedule Manager",
	"───────────────────",
	"Planning Your Business Day",
}, "\n")

type styles struct {
	header lipgloss.Style
	date   lipgloss.Style
	root   lipgloss.Style
	client lipgloss.Style
	task   lipgloss.Style
	meta   lipgloss.Style
	enum   lipgloss.Style
	empty  lipgloss.Style
	issue  lipgloss.Style
	rule   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		header: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF")).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#5B8DEF")).
			Padding(1, 8).
			Align(lipgloss.Center),
		date: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#50C878")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#50C878")).
			Padding(0, 1),
		root:   r.NewStyle().Bold(true),
		client: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
		task:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#50C878")),
		meta:   r.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
		enum:   r.NewStyle().Foreground(lipgloss.Color("#444444")),
		empty:  r.NewStyle().Italic(true),
		issue:  r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		rule:   r.NewStyle().Foreground(lipgloss.Color("#888888")),
	}
}

func newRenderer(w io.Writer, c Color) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	switch c {
	case ColorNever:
		r.SetColorProfile(termenv.Ascii)
	case ColorAlways:
		r.SetColorProfile(termenv.TrueColor)
	}
	return r
}

func writeText(w io.Writer, plan []agenda.Report, opts Options) error {
	st := newStyles(newRenderer(w, opts.Color))
	var b strings.Builder
	if opts.Header {
		b.WriteString(st.header.Render(banner))
		b.WriteString("\n")
	}
	for _, rep := range plan {
		b.WriteString(st.date.Render(rep.Date.Format(DateLayout)))
		b.WriteString("\n")
		if rep.Empty() {
			b.WriteString(st.empty.Render(NoTasks))
			b.WriteString("\n\n")
		} else {
			b.WriteString(taskTree(rep, st).String())
			b.WriteString("\n")
		}
		if opts.Issues {
			for _, is := range rep.Issues {
				b.WriteString(st.issue.Render(fmt.Sprintf("skipped %s: %s", is.Key, is.Reason)))
				b.WriteString("\n")
			}
		}
		b.WriteString(st.rule.Render(strings.Repeat("─", RuleWidth)))
		b.WriteString("\n\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// taskTree builds Tasks -> client -> task -> "key: value".
func taskTree(rep agenda.Report, st styles) *tree.Tree {
	t := tree.Root("Tasks").
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(st.enum).
		RootStyle(st.root)
	for _, c := range rep.Clients {
		ct := tree.Root(st.client.Render(c.Name))
		for _, task := range c.Tasks {
			tt := tree.Root(st.task.Render(task.Name))
			tt.Child(st.meta.Render("schedule: " + task.Schedule))
			for _, p := range task.Metadata.Pairs() {
				tt.Child(st.meta.Render(p.Key + ": " + p.Value))
			}
			ct.Child(tt)
		}
		t.Child(ct)
	}
	return t
}
