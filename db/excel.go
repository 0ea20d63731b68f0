package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"busreg-server-go/models"
)

const (
	// ExportSheet is the sheet name of the student export
	ExportSheet = "Students"
	// ExportContentType is the MIME type of xlsx workbooks
	ExportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// ExportFilename is the default download name
	ExportFilename = "students.xlsx"
)

// ExportHeader is the first row of the student export
var ExportHeader = []string{"Name", "Phone", "Year", "Bus Stop"}

// WriteStudentsWorkbook writes students as an xlsx workbook to w
func WriteStudentsWorkbook(w io.Writer, students []models.Student) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName(f.GetSheetName(0), ExportSheet); err != nil {
		return fmt.Errorf("failed to name export sheet: %w", err)
	}

	header := make([]interface{}, len(ExportHeader))
	for i, h := range ExportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(ExportSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetCellStyle(ExportSheet, "A1", "D1", bold)
	}
	_ = f.SetColWidth(ExportSheet, "A", "D", 24)

	for i, st := range students {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		// Phone is written as text so leading zeros survive
		row := []interface{}{st.Name, st.Phone, string(st.Year), st.BusStopName()}
		if err := f.SetSheetRow(ExportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ImportReport summarizes a bus stop import
type ImportReport struct {
	Imported    int
	SkippedRows []int // 1-based spreadsheet rows that were skipped
}

// ImportBusStopsFromExcel reads the first sheet of an xlsx workbook and creates
// one bus stop per row. Column A is the name, column B the optional location;
// the first row is a header.
func ImportBusStopsFromExcel(ctx context.Context, store Store, file io.Reader, log *zap.Logger) (*ImportReport, error) {
	if log == nil {
		log = zap.NewNop()
	}
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn("error closing excel file", zap.Error(err))
		}
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("excel file does not contain any sheets")
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}

	report := &ImportReport{}
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		var name string
		var location *string
		if len(row) > 0 {
			name = strings.TrimSpace(row[0])
		}
		if len(row) > 1 {
			loc := row[1]
			location = &loc
		}
		if name == "" {
			log.Debug("skipping row without name", zap.Int("row", i+1))
			report.SkippedRows = append(report.SkippedRows, i+1)
			continue
		}

		if _, err := store.CreateBusStop(ctx, models.CreateBusStopRequest{Name: name, Location: location}); err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			log.Warn("failed to import bus stop", zap.Int("row", i+1), zap.String("name", name), zap.Error(err))
			report.SkippedRows = append(report.SkippedRows, i+1)
			continue
		}
		report.Imported++
	}

	log.Info("imported bus stops", zap.Int("imported", report.Imported), zap.Int("skipped", len(report.SkippedRows)))
	return report, nil
}
