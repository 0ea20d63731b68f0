package autocomplete

import (
	"busreg-server-go/models"
)

// State is the phase of the search control.
type State int

const (
	Idle      State = iota // no query, list hidden
	Searching              // query typed, candidates computed
	Selected               // a stop has been committed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Searching:
		return "searching"
	case Selected:
		return "selected"
	default:
		return "unknown"
	}
}

// SelectFunc receives the committed stop id, or nil when the selection is cleared.
type SelectFunc func(id *int64)

// Option configures a Model.
type Option func(*Model)

// WithLimit sets the candidate cap.
func WithLimit(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.limit = n
		}
	}
}

// Model is the selection state of one search control. It is not safe for
// concurrent use; it is driven from a single UI loop.
type Model struct {
	directory  []models.BusStop
	onSelect   SelectFunc
	limit      int
	query      string
	candidates []models.BusStop
	open       bool
	selected   *models.BusStop
	state      State
}

// New creates a control over directory. onSelect may be nil.
func New(directory []models.BusStop, onSelect SelectFunc, opts ...Option) *Model {
	m := &Model{
		directory: directory,
		onSelect:  onSelect,
		limit:     DefaultLimit,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetDirectory replaces the directory wholesale and recomputes candidates
// for the current query, whatever the state. Candidates never outlive the
// directory they came from. The current selection is kept as is.
func (m *Model) SetDirectory(directory []models.BusStop) {
	m.directory = directory
	m.candidates = Match(m.directory, m.query, m.limit)
}

// SetQuery handles a text change. An empty query clears the control.
func (m *Model) SetQuery(text string) {
	if text == "" {
		m.Clear()
		return
	}
	m.query = text
	m.candidates = Match(m.directory, text, m.limit)
	m.open = true
	m.state = Searching
}

// Clear empties the query and the selection and notifies the parent with nil.
func (m *Model) Clear() {
	m.query = ""
	m.candidates = nil
	m.open = false
	m.selected = nil
	m.state = Idle
	m.emit(nil)
}

// Choose commits the i-th candidate. It reports false when i is out of range.
func (m *Model) Choose(i int) bool {
	if i < 0 || i >= len(m.candidates) {
		return false
	}
	stop := m.candidates[i]
	m.selected = &stop
	m.query = stop.Name
	m.open = false
	m.state = Selected
	id := stop.ID
	m.emit(&id)
	return true
}

// ChooseID commits the first candidate carrying id.
func (m *Model) ChooseID(id int64) bool {
	for i, c := range m.candidates {
		if c.ID == id {
			return m.Choose(i)
		}
	}
	return false
}

// Dismiss closes the list after an interaction outside the control. The
// query and selection are left untouched and nothing is emitted.
func (m *Model) Dismiss() {
	m.open = false
	if m.selected != nil {
		m.state = Selected
	} else {
		m.state = Idle
	}
}

// Focus reopens the list when candidates exist, without recomputing them.
// Without a committed stop, an open list means Searching.
func (m *Model) Focus() {
	if len(m.candidates) == 0 {
		return
	}
	m.open = true
	if m.selected == nil {
		m.state = Searching
	}
}

func (m *Model) emit(id *int64) {
	if m.onSelect != nil {
		m.onSelect(id)
	}
}

// State returns the current phase.
func (m *Model) State() State { return m.state }

// Query returns the visible query text.
func (m *Model) Query() string { return m.query }

// Candidates returns the last computed candidate list.
func (m *Model) Candidates() []models.BusStop { return m.candidates }

// Open reports whether the candidate list is shown.
func (m *Model) Open() bool { return m.open && len(m.candidates) > 0 }

// NoMatches reports whether the "no bus stops found" hint is shown.
func (m *Model) NoMatches() bool {
	return m.open && len(m.candidates) == 0 && Normalize(m.query) != ""
}

// Selected returns the committed stop, or nil.
func (m *Model) Selected() *models.BusStop { return m.selected }

// Limit returns the candidate cap.
func (m *Model) Limit() int { return m.limit }
