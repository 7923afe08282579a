package export

import (
	"fmt"
	"io"
	"time"

	"github.com/personnel-api/internal/domain"
	"github.com/xuri/excelize/v2"
)

const reportSheet = "Report"

var reportHeader = []string{
	"Code", "Worker", "Sex", "Birth date", "Hire date", "Fire date", "Move date",
	"Subdivision", "Role", "Phone", "Email",
}

// WriteWorkersXLSX выгружает отчёт по работникам в формате XLSX
func WriteWorkersXLSX(w io.Writer, workers []domain.Worker) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	for col, title := range reportHeader {
		if err := setCell(f, col+1, 1, title); err != nil {
			return err
		}
	}

	for i, worker := range workers {
		row := i + 2
		values := []any{
			worker.Code(),
			worker.WorkerName,
			string(worker.Sex),
			formatDate(&worker.BirthDate),
			formatDate(&worker.HireDate),
			formatDate(worker.FireDate),
			formatDate(worker.MoveDate),
			subdivisionName(worker.Subdivision),
			deref(worker.Role),
			worker.PhoneNumber,
			deref(worker.Email),
		}
		for col, v := range values {
			if err := setCell(f, col+1, row, v); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(reportSheet, cell, value)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(domain.DateLayout)
}

func subdivisionName(s *domain.Subdivision) string {
	if s == nil {
		return ""
	}
	return s.ShortName
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
