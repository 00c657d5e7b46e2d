package render

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// pager shows rendered output in a scrollable viewport.
type pager struct {
	title   string
	content string
	vp      viewport.Model
	ready   bool
}

func newPager(title, content string) *pager {
	return &pager{title: title, content: content}
}

func (p *pager) Init() tea.Cmd { return nil }

func (p *pager) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return p, tea.Quit
		}
	case tea.WindowSizeMsg:
		h := msg.Height - lipgloss.Height(p.footer())
		if h < 1 {
			h = 1
		}
		if !p.ready {
			p.vp = viewport.New(msg.Width, h)
			p.vp.SetContent(p.content)
			p.ready = true
		} else {
			p.vp.Width = msg.Width
			p.vp.Height = h
		}
	}
	var cmd tea.Cmd
	p.vp, cmd = p.vp.Update(msg)
	return p, cmd
}

func (p *pager) footer() string {
	pct := 100.0
	if p.ready {
		pct = p.vp.ScrollPercent() * 100
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Render(fmt.Sprintf("%s  %3.f%%  (q to quit)", p.title, pct))
}

func (p *pager) View() string {
	if !p.ready {
		return "loading..."
	}
	return lipgloss.JoinVertical(lipgloss.Left, p.vp.View(), p.footer())
}

// Page shows content in a full-screen pager until the user quits.
func Page(title, content string) error {
	prog := tea.NewProgram(newPager(title, content), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := prog.Run()
	return err
}
