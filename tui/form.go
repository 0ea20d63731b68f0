package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"busreg-server-go/form"
	"busreg-server-go/models"
)

// API is the part of the HTTP client the terminal UI needs.
type API interface {
	ListBusStops(ctx context.Context) ([]models.BusStop, error)
	ListStudents(ctx context.Context) ([]models.Student, error)
	CreateStudent(ctx context.Context, req models.CreateStudentRequest) (*models.Student, error)
	Export(ctx context.Context, w io.Writer) (int64, error)
}

type formField int

const (
	fieldName formField = iota
	fieldPhone
	fieldYear
	fieldStop
	fieldSubmit
	fieldCount
)

type directoryMsg struct {
	stops []models.BusStop
	err   error
}

type submitDoneMsg struct {
	student *models.Student
	err     error
}

// FormModel is the registration screen.
type FormModel struct {
	api       API
	submitter *form.Submitter
	log       *zap.Logger

	name    textinput.Model
	phone   textinput.Model
	yearIdx int // index into models.Years, -1 when unset
	search  SearchModel
	stopID  *int64
	focus   formField
	loading bool

	submitting bool
	errs       form.Errors
	alert      string
	notice     string
}

// NewForm builds the registration screen. searchLimit caps the bus stop candidates.
func NewForm(api API, log *zap.Logger, searchLimit int) FormModel {
	if log == nil {
		log = zap.NewNop()
	}
	name := textinput.New()
	name.Placeholder = "Student Name"
	name.Width = 40
	name.Focus()

	phone := textinput.New()
	phone.Placeholder = "Phone Number"
	phone.CharLimit = 10
	phone.Width = 12

	return FormModel{
		api:       api,
		submitter: form.NewSubmitter(api),
		log:       log,
		name:      name,
		phone:     phone,
		yearIdx:   -1,
		search:    NewSearch(searchLimit),
		loading:   true,
		errs:      form.Errors{},
	}
}

// Init loads the bus stop directory once.
func (m FormModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadDirectory())
}

func (m FormModel) loadDirectory() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		stops, err := api.ListBusStops(context.Background())
		return directoryMsg{stops: stops, err: err}
	}
}

// Input returns the current form state.
func (m FormModel) Input() form.Input {
	in := form.Input{
		Name:      m.name.Value(),
		Phone:     m.phone.Value(),
		BusStopID: m.stopID,
	}
	if m.yearIdx >= 0 {
		in.Year = models.Years[m.yearIdx]
	}
	return in
}

// Update handles messages for the registration screen.
func (m FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case directoryMsg:
		m.loading = false
		if msg.err != nil {
			m.log.Error("failed to fetch bus stops", zap.Error(msg.err))
			m.alert = "Failed to fetch bus stops"
			return m, nil
		}
		m.search.SetDirectory(msg.stops)
		return m, nil

	case SelectionMsg:
		m.stopID = msg.ID
		if msg.ID != nil {
			delete(m.errs, form.FieldBusStop)
		}
		return m, nil

	case submitDoneMsg:
		m.submitting = false
		if msg.err != nil {
			if errors.Is(msg.err, form.ErrInFlight) {
				return m, nil
			}
			m.log.Error("error adding student", zap.Error(msg.err))
			m.alert = "Failed to add student"
			return m, nil
		}
		m.log.Info("student added", zap.Int64("id", msg.student.ID))
		m.reset()
		m.notice = "Student added successfully!"
		return m, m.setFocus(fieldName)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

func (m FormModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab":
		return m, m.setFocus((m.focus + 1) % fieldCount)
	case "shift+tab":
		return m, m.setFocus((m.focus + fieldCount - 1) % fieldCount)
	case "enter":
		if m.focus == fieldStop && m.search.Open() {
			return m.updateFocused(msg)
		}
		if m.focus == fieldSubmit {
			return m.submit()
		}
		return m, m.setFocus(m.focus + 1)
	}

	if m.focus == fieldYear {
		switch msg.String() {
		case "right", "l", " ":
			m.yearIdx = (m.yearIdx + 1) % len(models.Years)
			delete(m.errs, form.FieldYear)
		case "left", "h":
			if m.yearIdx <= 0 {
				m.yearIdx = len(models.Years) - 1
			} else {
				m.yearIdx--
			}
			delete(m.errs, form.FieldYear)
		}
		return m, nil
	}
	if m.focus == fieldStop && m.loading {
		// The directory is not here yet; typing would search nothing.
		return m, nil
	}
	return m.updateFocused(msg)
}

func (m FormModel) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case fieldName:
		m.name, cmd = m.name.Update(msg)
	case fieldPhone:
		m.phone, cmd = m.phone.Update(msg)
	case fieldStop:
		m.search, cmd = m.search.Update(msg)
	}
	return m, cmd
}

func (m *FormModel) setFocus(f formField) tea.Cmd {
	m.name.Blur()
	m.phone.Blur()
	if m.focus == fieldStop && f != fieldStop {
		m.search.Blur()
	}
	m.focus = f
	switch f {
	case fieldName:
		return m.name.Focus()
	case fieldPhone:
		return m.phone.Focus()
	case fieldStop:
		return m.search.Focus()
	}
	return nil
}

// submit validates locally and sends one creation request.
func (m FormModel) submit() (tea.Model, tea.Cmd) {
	m.alert = ""
	m.notice = ""
	in := m.Input()
	if errs := form.Validate(in); !errs.Ok() {
		m.errs = errs
		return m, nil
	}
	m.errs = form.Errors{}
	if m.submitting {
		return m, nil
	}
	m.submitting = true

	submitter := m.submitter
	return m, func() tea.Msg {
		student, err := submitter.Submit(context.Background(), in)
		return submitDoneMsg{student: student, err: err}
	}
}

func (m *FormModel) reset() {
	m.name.SetValue("")
	m.phone.SetValue("")
	m.yearIdx = -1
	m.search.Reset()
	m.stopID = nil
	m.errs = form.Errors{}
	m.alert = ""
}

// View renders the registration screen.
func (m FormModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Student Registration"))
	b.WriteString("\n")

	m.row(&b, fieldName, "Name", m.name.View(), form.FieldName)
	m.row(&b, fieldPhone, "Phone", m.phone.View(), form.FieldPhone)
	m.row(&b, fieldYear, "Year", m.yearView(), form.FieldYear)

	stopView := m.search.View()
	if m.loading {
		stopView = hintStyle.Render("loading bus stops…")
	}
	m.row(&b, fieldStop, "Bus Stop", stopView, form.FieldBusStop)

	b.WriteString("\n")
	label := "Submit"
	if m.submitting {
		label = "Submitting…"
	}
	if m.focus == fieldSubmit {
		b.WriteString(activeButtonStyle.Render(label))
	} else {
		b.WriteString(buttonStyle.Render(label))
	}
	b.WriteString("\n\n")

	if m.alert != "" {
		b.WriteString(alertStyle.Render(m.alert))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString(hintStyle.Render("tab/shift+tab move · ←/→ year · ↑/↓ enter pick stop · ctrl+x clear stop · ctrl+c quit"))
	return b.String()
}

func (m FormModel) row(b *strings.Builder, f formField, label, field, errKey string) {
	style := labelStyle
	if m.focus == f {
		style = focusedLabelStyle
	}
	b.WriteString(style.Render(label))
	b.WriteString(field)
	b.WriteString("\n")
	if msg, ok := m.errs[errKey]; ok {
		b.WriteString(fieldErrStyle.Render(msg))
		b.WriteString("\n")
	}
}

func (m FormModel) yearView() string {
	parts := make([]string, len(models.Years))
	for i, y := range models.Years {
		if i == m.yearIdx {
			parts[i] = activeCandidateStyle.Render(fmt.Sprintf("[%s]", y))
		} else {
			parts[i] = hintStyle.Render(fmt.Sprintf(" %s ", y))
		}
	}
	return strings.Join(parts, " ")
}
