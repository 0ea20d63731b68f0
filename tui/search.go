package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"busreg-server-go/autocomplete"
	"busreg-server-go/models"
)

// SelectionMsg reports a committed bus stop, or a cleared selection when ID is nil.
type SelectionMsg struct {
	ID *int64
}

// selectionSink collects callback invocations until Update turns them into messages.
type selectionSink struct {
	ids []*int64
}

func (s *selectionSink) record(id *int64) {
	s.ids = append(s.ids, id)
}

func (s *selectionSink) drain() []*int64 {
	ids := s.ids
	s.ids = nil
	return ids
}

// SearchModel is the bus stop search field: a text input over an
// autocomplete.Model with a keyboard-driven candidate list.
type SearchModel struct {
	input  textinput.Model
	ac     *autocomplete.Model
	sink   *selectionSink
	cursor int
}

// NewSearch creates an empty search field capped at limit candidates.
func NewSearch(limit int) SearchModel {
	ti := textinput.New()
	ti.Placeholder = "Search Bus Stops"
	ti.Prompt = "⌕ "
	ti.Width = 40

	sink := &selectionSink{}
	return SearchModel{
		input: ti,
		ac:    autocomplete.New(nil, sink.record, autocomplete.WithLimit(limit)),
		sink:  sink,
	}
}

// SetDirectory replaces the directory the field searches.
func (m *SearchModel) SetDirectory(stops []models.BusStop) {
	m.ac.SetDirectory(stops)
	m.cursor = 0
}

// Focus focuses the input and reopens the list if it has candidates.
func (m *SearchModel) Focus() tea.Cmd {
	m.ac.Focus()
	return m.input.Focus()
}

// Blur leaving the field counts as an interaction outside the control.
func (m *SearchModel) Blur() {
	m.input.Blur()
	m.ac.Dismiss()
}

// Reset clears text and selection without notifying; the owner resets itself.
func (m *SearchModel) Reset() {
	m.ac.Clear()
	m.sink.drain()
	m.input.SetValue("")
	m.cursor = 0
}

// Open reports whether the candidate list is showing.
func (m SearchModel) Open() bool { return m.ac.Open() }

// Selected returns the committed bus stop, or nil.
func (m SearchModel) Selected() *models.BusStop { return m.ac.Selected() }

// Query returns the visible text.
func (m SearchModel) Query() string { return m.ac.Query() }

// State returns the autocomplete phase.
func (m SearchModel) State() autocomplete.State { return m.ac.State() }

// Update handles keys for the search field.
func (m SearchModel) Update(msg tea.Msg) (SearchModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "ctrl+n":
			if m.cursor < len(m.ac.Candidates())-1 {
				m.cursor++
			}
		case "enter":
			if m.ac.Open() && m.ac.Choose(m.cursor) {
				m.input.SetValue(m.ac.Query())
				m.input.CursorEnd()
			}
		case "esc":
			m.ac.Dismiss()
		case "ctrl+x":
			m.ac.Clear()
			m.input.SetValue("")
			m.cursor = 0
		default:
			before := m.input.Value()
			m.input, cmd = m.input.Update(msg)
			if after := m.input.Value(); after != before {
				m.ac.SetQuery(after)
				m.cursor = 0
			}
		}
	default:
		m.input, cmd = m.input.Update(msg)
	}

	sel := m.selectionCmd()
	if cmd == nil {
		return m, sel
	}
	return m, tea.Batch(cmd, sel)
}

// selectionCmd turns pending callback invocations into messages, in order.
func (m SearchModel) selectionCmd() tea.Cmd {
	ids := m.sink.drain()
	if len(ids) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, len(ids))
	for i, id := range ids {
		cmds[i] = func() tea.Msg { return SelectionMsg{ID: id} }
	}
	if len(cmds) == 1 {
		return cmds[0]
	}
	return tea.Sequence(cmds...)
}

// View renders the input and, when open, the candidate list.
func (m SearchModel) View() string {
	var b strings.Builder
	b.WriteString(m.input.View())

	switch {
	case m.ac.Open():
		var list strings.Builder
		for i, stop := range m.ac.Candidates() {
			line := stop.Name
			if loc := stop.LocationOrEmpty(); loc != "" {
				line += hintStyle.Render(" · " + loc)
			}
			if i == m.cursor {
				list.WriteString(activeCandidateStyle.Render("› " + line))
			} else {
				list.WriteString(candidateStyle.Render(" " + line))
			}
			if i < len(m.ac.Candidates())-1 {
				list.WriteString("\n")
			}
		}
		b.WriteString("\n")
		b.WriteString(dropdownStyle.Render(list.String()))
	case m.ac.NoMatches():
		b.WriteString("\n")
		b.WriteString(dropdownStyle.Render(hintStyle.Render("No bus stops found")))
	}
	return b.String()
}
