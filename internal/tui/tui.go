// Package tui renders generation progress in the terminal. Events from a run
// are handed to the Bubble Tea program with Send, so all model state is owned
// by the program's event loop.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/snapetech/clipgen/internal/content"
)

type progressMsg struct {
	index   int
	tag     content.Tag
	percent int
}

type completeMsg struct{ err error }

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	jobStyle   = lipgloss.NewStyle().Faint(true)
	errorBox   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(0, 1)
	hintStyle = lipgloss.NewStyle().Faint(true).Italic(true)
)

// Model is a non-dismissible progress view for one run. It quits on success
// and, on failure, shows the error until the user acknowledges it.
type Model struct {
	catalog *content.Catalog
	total   int
	bar     progress.Model
	job     string
	overall float64
	done    bool
	err     error
}

// NewModel returns a model for a run over total tags.
func NewModel(catalog *content.Catalog, total int) Model {
	return Model{
		catalog: catalog,
		total:   total,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(48)),
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		if msg.percent == 0 {
			m.job = m.catalog.Label(msg.tag)
		}
		if m.total > 0 {
			m.overall = float64(msg.index*100+msg.percent) / float64(m.total*100)
		}
		return m, nil
	case completeMsg:
		m.done = true
		m.err = msg.err
		if msg.err == nil {
			m.overall = 1
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		if w := msg.Width - 4; w > 10 {
			m.bar.Width = w
		}
		return m, nil
	case tea.KeyMsg:
		// no cancellation while running
		if !m.done {
			return m, nil
		}
		switch msg.String() {
		case "enter", "esc", "q", "ctrl+c", " ":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Preparing content"))
	b.WriteString("\n")
	if m.job != "" {
		b.WriteString(jobStyle.Render(m.job))
	}
	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(m.overall))
	b.WriteString("\n")
	if m.done && m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorBox.Render(FailureMessage(m.err)))
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("press enter to dismiss"))
		b.WriteString("\n")
	}
	return b.String()
}

// Err returns the run's terminal error once the model has seen it.
func (m Model) Err() error { return m.err }

// FailureMessage is the user-facing text for a failed run.
func FailureMessage(err error) string {
	return fmt.Sprintf("Content generation failed: %v", err)
}

// Sink forwards run events to a Bubble Tea program.
type Sink struct {
	p *tea.Program
}

var _ content.ProgressSink = Sink{}

func NewSink(p *tea.Program) Sink { return Sink{p: p} }

func (s Sink) OnProgress(index int, tag content.Tag, percent int) {
	s.p.Send(progressMsg{index: index, tag: tag, percent: percent})
}

func (s Sink) OnComplete(err error) { s.p.Send(completeMsg{err: err}) }

// Run requests generation of tags, shows progress until the run finishes and
// returns the run's terminal error. extra is tee'd alongside the UI sink.
func Run(c *content.Coordinator, tags []content.Tag, extra content.ProgressSink, opts ...tea.ProgramOption) error {
	p := tea.NewProgram(NewModel(c.Catalog(), len(tags)), opts...)
	run := c.RequestGeneration(tags, content.Tee(NewSink(p), extra))
	if _, err := p.Run(); err != nil {
		// the UI is gone; wait for the worker and report both
		if runErr := run.Wait(); runErr != nil {
			return fmt.Errorf("%w (ui: %v)", runErr, err)
		}
		return fmt.Errorf("ui: %w", err)
	}
	return run.Wait()
}
