package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"busreg-server-go/listing"
	"busreg-server-go/models"
)

type studentsMsg struct {
	students []models.Student
	err      error
}

type exportDoneMsg struct {
	path  string
	bytes int64
	err   error
}

// ListingModel is the response listing screen.
type ListingModel struct {
	api        API
	log        *zap.Logger
	pageSize   int
	exportPath string

	students  []models.Student
	page      int
	table     table.Model
	loading   bool
	loadErr   string
	exporting bool
	alert     string
	notice    string
}

// NewListing builds the listing screen. Pages hold pageSize rows; exports are
// written to exportPath.
func NewListing(api API, log *zap.Logger, pageSize int, exportPath string) ListingModel {
	if log == nil {
		log = zap.NewNop()
	}
	if pageSize <= 0 {
		pageSize = listing.DefaultPageSize
	}
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Name", Width: 24},
			{Title: "Phone", Width: 12},
			{Title: "Year", Width: 5},
			{Title: "Bus Stop", Width: 28},
		}),
		table.WithHeight(pageSize+1),
	)
	return ListingModel{
		api:        api,
		log:        log,
		pageSize:   pageSize,
		exportPath: exportPath,
		page:       1,
		table:      t,
		loading:    true,
	}
}

// Init fetches the full student collection once.
func (m ListingModel) Init() tea.Cmd {
	return m.loadStudents()
}

func (m ListingModel) loadStudents() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		students, err := api.ListStudents(context.Background())
		return studentsMsg{students: students, err: err}
	}
}

func (m ListingModel) exportStudents() tea.Cmd {
	api, path := m.api, m.exportPath
	return func() tea.Msg {
		f, err := os.Create(path)
		if err != nil {
			return exportDoneMsg{path: path, err: err}
		}
		n, err := api.Export(context.Background(), f)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			// Do not leave a truncated workbook behind
			_ = os.Remove(path)
		}
		return exportDoneMsg{path: path, bytes: n, err: err}
	}
}

// Page returns the current 1-based page.
func (m ListingModel) Page() int { return m.page }

// Pages returns the page count.
func (m ListingModel) Pages() int {
	return listing.Paginate(len(m.students), m.pageSize).Pages()
}

// Visible returns the students on the current page.
func (m ListingModel) Visible() []models.Student {
	return listing.Page(m.students, m.page, m.pageSize)
}

func (m *ListingModel) setPage(page int) {
	m.page = listing.Paginate(len(m.students), m.pageSize).Clamp(page)
	visible := m.Visible()
	rows := make([]table.Row, len(visible))
	for i, s := range visible {
		rows[i] = table.Row{s.Name, s.Phone, string(s.Year), s.BusStopName()}
	}
	m.table.SetRows(rows)
	m.table.SetCursor(0)
}

// Update handles messages for the listing screen.
func (m ListingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case studentsMsg:
		m.loading = false
		if msg.err != nil {
			m.log.Error("error fetching students", zap.Error(msg.err))
			m.loadErr = "Failed to load students"
			return m, nil
		}
		m.students = msg.students
		m.setPage(1)
		return m, nil

	case exportDoneMsg:
		m.exporting = false
		if msg.err != nil {
			m.log.Error("export failed", zap.String("path", msg.path), zap.Error(msg.err))
			m.alert = "Failed to export students"
			return m, nil
		}
		m.log.Info("exported students", zap.String("path", msg.path), zap.Int64("bytes", msg.bytes))
		m.notice = fmt.Sprintf("Saved %s (%d bytes)", msg.path, msg.bytes)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "n", "right", "pgdown":
			m.setPage(m.page + 1)
			return m, nil
		case "p", "left", "pgup":
			m.setPage(m.page - 1)
			return m, nil
		case "e":
			if m.exporting || m.loading {
				return m, nil
			}
			m.exporting = true
			m.alert, m.notice = "", ""
			return m, m.exportStudents()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the listing screen.
func (m ListingModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Student Responses"))
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString("Loading...\n")
		return b.String()
	case m.loadErr != "":
		b.WriteString(alertStyle.Render(m.loadErr))
		b.WriteString("\n")
		return b.String()
	case len(m.students) == 0:
		b.WriteString(hintStyle.Render("No students found"))
		b.WriteString("\n")
	default:
		b.WriteString(m.table.View())
		b.WriteString("\n")
		b.WriteString(hintStyle.Render(fmt.Sprintf("page %d of %d · %d students", m.page, m.Pages(), len(m.students))))
		b.WriteString("\n")
	}

	if m.exporting {
		b.WriteString(hintStyle.Render("exporting…"))
		b.WriteString("\n")
	}
	if m.alert != "" {
		b.WriteString(alertStyle.Render(m.alert))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString(hintStyle.Render("n/p page · e export to Excel · q quit"))
	return b.String()
}
