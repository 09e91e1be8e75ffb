package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/pagsearch/pkg/search"
)

// Trace list styles
var (
	traceSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	traceRuleStyle     = lipgloss.NewStyle().Foreground(colorGreen).Width(4)
	traceDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// browseTrace opens the interactive rule-trace browser.
func browseTrace(trace []search.RuleApplication) error {
	model := NewTraceModel(trace)
	_, err := tea.NewProgram(model).Run()
	return err
}

// TraceModel is the bubbletea model for browsing orientation rule
// applications. Rules are listed in firing order; the detail line of the
// selected application is shown below the list.
type TraceModel struct {
	Trace  []search.RuleApplication
	Cursor int
	Height int
	Offset int
	filter string // when set, only applications of this rule are listed
}

// NewTraceModel creates a trace browser over the given applications.
func NewTraceModel(trace []search.RuleApplication) TraceModel {
	return TraceModel{
		Trace:  trace,
		Height: 15,
	}
}

func (m TraceModel) Init() tea.Cmd {
	return nil
}

func (m TraceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.visible())-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "g":
			m.Cursor, m.Offset = 0, 0
		case "G":
			if n := len(m.visible()); n > 0 {
				m.Cursor = n - 1
				if m.Cursor >= m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "/":
			m.filter = m.nextFilter()
			m.Cursor, m.Offset = 0, 0
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 7
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m TraceModel) View() string {
	var b strings.Builder

	title := "Orientation Trace"
	if m.filter != "" {
		title += " · " + m.filter
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(traceDimStyle.Render("↑/↓ navigate  / cycle rule filter  g/G first/last  q quit"))
	b.WriteString("\n\n")

	visible := m.visible()
	if len(visible) == 0 {
		b.WriteString(traceDimStyle.Render("  (no rule applications)"))
		b.WriteString("\n")
		return b.String()
	}

	end := m.Offset + m.Height
	if end > len(visible) {
		end = len(visible)
	}

	for i := m.Offset; i < end; i++ {
		app := visible[i]
		line := fmt.Sprintf("%s %s", traceRuleStyle.Render(app.Rule), app.Detail)
		if i == m.Cursor {
			line = traceSelectedStyle.Render("▸ ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(traceDimStyle.Render(fmt.Sprintf("  %d/%d", m.Cursor+1, len(visible))))
	b.WriteString("\n")

	return b.String()
}

// visible returns the applications matching the current rule filter.
func (m TraceModel) visible() []search.RuleApplication {
	if m.filter == "" {
		return m.Trace
	}
	out := make([]search.RuleApplication, 0, len(m.Trace))
	for _, app := range m.Trace {
		if app.Rule == m.filter {
			out = append(out, app)
		}
	}
	return out
}

// nextFilter cycles through the distinct rules in firing order, then back
// to no filter.
func (m TraceModel) nextFilter() string {
	var rules []string
	seen := make(map[string]bool)
	for _, app := range m.Trace {
		if !seen[app.Rule] {
			seen[app.Rule] = true
			rules = append(rules, app.Rule)
		}
	}
	if len(rules) == 0 {
		return ""
	}
	if m.filter == "" {
		return rules[0]
	}
	for i, rule := range rules {
		if rule == m.filter {
			if i+1 < len(rules) {
				return rules[i+1]
			}
			return ""
		}
	}
	return ""
}
