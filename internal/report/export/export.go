// Package export renders the dashboard overview as an XLSX workbook.
package export

import (
	"bytes"
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"complaintdesk/internal/report/aggregate"
	"complaintdesk/internal/report/service"
)

// ContentType is the MIME type of the rendered workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const defaultSheet = "Sheet1"

var sheetNames = map[aggregate.Dimension]string{
	aggregate.DimensionStatus:   "Status",
	aggregate.DimensionActs:     "Acts",
	aggregate.DimensionDistrict: "District",
	aggregate.DimensionChannel:  "Channel",
	aggregate.DimensionSafety:   "Safety",
}

const (
	finesSheet    = "Fines"
	officersSheet = "Officers"
)

// Workbook writes one sheet per count dimension, then fines and officer
// performance.
func Workbook(o *service.Overview) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	w := &writer{f: f, header: header}

	for i, d := range aggregate.CountDimensions {
		series := o.Series[d]
		name := sheetNames[d]
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return nil, fmt.Errorf("rename default sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
		if err := w.counts(name, series); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet(finesSheet); err != nil {
		return nil, fmt.Errorf("create sheet %s: %w", finesSheet, err)
	}
	if err := w.fines(o.Fines); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(officersSheet); err != nil {
		return nil, fmt.Errorf("create sheet %s: %w", officersSheet, err)
	}
	if err := w.officers(o); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

type writer struct {
	f      *excelize.File
	header int
}

func (w *writer) row(sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell for row %d: %w", row, err)
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func (w *writer) headerRow(sheet string, values ...any) error {
	if err := w.row(sheet, 1, values...); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(values), 1)
	if err != nil {
		return fmt.Errorf("header range for %s: %w", sheet, err)
	}
	if err := w.f.SetCellStyle(sheet, "A1", last, w.header); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	return w.f.SetColWidth(sheet, "A", "A", 12)
}

func (w *writer) counts(sheet string, s aggregate.Series) error {
	head := []any{"Month"}
	for _, k := range s.Keys {
		head = append(head, k)
	}
	if err := w.headerRow(sheet, head...); err != nil {
		return err
	}
	for i, b := range s.Buckets {
		values := []any{b.Month}
		for _, k := range s.Keys {
			values = append(values, b.Counts[k])
		}
		if err := w.row(sheet, i+2, values...); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) fines(s aggregate.FineSeries) error {
	if err := w.headerRow(finesSheet, "Month", "Count", "Total"); err != nil {
		return err
	}
	for i, b := range s.Buckets {
		if err := w.row(finesSheet, i+2, b.Month, b.Count, b.Total.InexactFloat64()); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) officers(o *service.Overview) error {
	if err := w.headerRow(officersSheet, "Officer ID", "Name", "Average days", "Total", "Pending"); err != nil {
		return err
	}
	row := 2
	if o.Officers != nil {
		for _, s := range o.Officers.Officers {
			if err := w.row(officersSheet, row, int64(s.OfficerID), s.FullName, days(s.AverageDays), s.TotalCases, s.PendingCases); err != nil {
				return err
			}
			row++
		}
	}
	if o.Group != nil {
		row++
		label := fmt.Sprintf("All officers (%s)", o.Group.TimeRange)
		if err := w.row(officersSheet, row, "", label, days(o.Group.AverageDays), o.Group.TotalCases, o.Group.PendingCases); err != nil {
			return err
		}
		row++
		if err := w.row(officersSheet, row, "", "SLA days", o.Group.SLADays); err != nil {
			return err
		}
	}
	return w.f.SetColWidth(officersSheet, "B", "B", 28)
}

// days rounds to two places; unknown averages render as an empty cell.
func days(v *float64) any {
	if v == nil {
		return ""
	}
	return math.Round(*v*100) / 100
}
