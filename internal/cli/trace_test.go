package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/pagsearch/pkg/search"
)

func testTrace() []search.RuleApplication {
	return []search.RuleApplication{
		{Rule: "R0", Detail: "oriented a *-> c <-* b"},
		{Rule: "R1", Detail: "oriented c -> d"},
		{Rule: "R0", Detail: "oriented b *-> e <-* d"},
	}
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTraceModelNavigation(t *testing.T) {
	m := NewTraceModel(testTrace())

	updated, _ := m.Update(keyMsg("j"))
	m = updated.(TraceModel)
	if m.Cursor != 1 {
		t.Errorf("Cursor after j = %d, want 1", m.Cursor)
	}

	updated, _ = m.Update(keyMsg("k"))
	m = updated.(TraceModel)
	if m.Cursor != 0 {
		t.Errorf("Cursor after k = %d, want 0", m.Cursor)
	}

	// Cursor does not move past the ends.
	updated, _ = m.Update(keyMsg("k"))
	m = updated.(TraceModel)
	if m.Cursor != 0 {
		t.Errorf("Cursor after k at top = %d, want 0", m.Cursor)
	}

	updated, _ = m.Update(keyMsg("G"))
	m = updated.(TraceModel)
	if m.Cursor != 2 {
		t.Errorf("Cursor after G = %d, want 2", m.Cursor)
	}

	updated, _ = m.Update(keyMsg("j"))
	m = updated.(TraceModel)
	if m.Cursor != 2 {
		t.Errorf("Cursor after j at bottom = %d, want 2", m.Cursor)
	}
}

func TestTraceModelQuit(t *testing.T) {
	m := NewTraceModel(testTrace())

	for _, key := range []string{"q"} {
		_, cmd := m.Update(keyMsg(key))
		if cmd == nil {
			t.Errorf("Update(%q) cmd = nil, want tea.Quit", key)
		}
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Error("Update(esc) cmd = nil, want tea.Quit")
	}
}

func TestTraceModelFilter(t *testing.T) {
	m := NewTraceModel(testTrace())

	updated, _ := m.Update(keyMsg("/"))
	m = updated.(TraceModel)
	if m.filter != "R0" {
		t.Errorf("filter after first / = %q, want %q", m.filter, "R0")
	}
	if got := len(m.visible()); got != 2 {
		t.Errorf("visible() length = %d, want 2", got)
	}

	updated, _ = m.Update(keyMsg("/"))
	m = updated.(TraceModel)
	if m.filter != "R1" {
		t.Errorf("filter after second / = %q, want %q", m.filter, "R1")
	}

	// Cycling past the last rule clears the filter.
	updated, _ = m.Update(keyMsg("/"))
	m = updated.(TraceModel)
	if m.filter != "" {
		t.Errorf("filter after third / = %q, want empty", m.filter)
	}
	if got := len(m.visible()); got != 3 {
		t.Errorf("visible() length = %d, want 3", got)
	}
}

func TestTraceModelView(t *testing.T) {
	m := NewTraceModel(testTrace())

	view := m.View()
	for _, want := range []string{"Orientation Trace", "oriented a *-> c <-* b", "1/3"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestTraceModelViewEmpty(t *testing.T) {
	m := NewTraceModel(nil)
	if view := m.View(); !strings.Contains(view, "no rule applications") {
		t.Error("View() missing empty-state message")
	}
}

func TestTraceModelWindowSize(t *testing.T) {
	m := NewTraceModel(testTrace())

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	m = updated.(TraceModel)
	if m.Height != 33 {
		t.Errorf("Height = %d, want 33", m.Height)
	}

	updated, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 8})
	m = updated.(TraceModel)
	if m.Height != 5 {
		t.Errorf("Height = %d, want minimum 5", m.Height)
	}
}
