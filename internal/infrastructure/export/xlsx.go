// Package export writes tabular report data to spreadsheet files.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ContentTypeXLSX is the MIME type of the generated workbooks
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Kind tells how a column's values are written and formatted
type Kind int

const (
	KindText Kind = iota
	KindMoney
	KindDate
	KindDateTime
)

// Column describes one spreadsheet column
type Column struct {
	Title string
	Kind  Kind
	Width float64
}

// Sheet is one worksheet. Rows hold raw values: strings, numbers,
// valueobject.Money, decimal.Decimal, time.Time or nil.
type Sheet struct {
	Name    string
	Columns []Column
	Rows    [][]any
	// Totals is an optional last row written in bold
	Totals []any
}

// AddRow appends a row of values
func (s *Sheet) AddRow(values ...any) {
	s.Rows = append(s.Rows, values)
}

type styles struct {
	header, money, date, dateTime, total, totalMoney int
}

// BuildXLSX writes the sheets into an in-memory workbook
func BuildXLSX(sheets ...Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, errors.New("export: at least one sheet is required")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	for i, sheet := range sheets {
		if sheet.Name == "" {
			sheet.Name = fmt.Sprintf("Feuille%d", i+1)
		}
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return nil, err
		}
		if err := writeSheet(f, st, sheet); err != nil {
			return nil, fmt.Errorf("export: sheet %q: %w", sheet.Name, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	moneyFmt := "#,##0.00"
	dateFmt := "dd/mm/yyyy"
	dateTimeFmt := "dd/mm/yyyy hh:mm"

	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&st.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"1F4E79"}, Pattern: 1},
			Alignment: &excelize.Alignment{Vertical: "center"},
		}},
		{&st.money, &excelize.Style{CustomNumFmt: &moneyFmt}},
		{&st.date, &excelize.Style{CustomNumFmt: &dateFmt}},
		{&st.dateTime, &excelize.Style{CustomNumFmt: &dateTimeFmt}},
		{&st.total, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{&st.totalMoney, &excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &moneyFmt}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return st, err
		}
		*d.dst = id
	}
	return st, nil
}

func writeSheet(f *excelize.File, st styles, sheet Sheet) error {
	name := sheet.Name
	for c, col := range sheet.Columns {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(name, cell, col.Title); err != nil {
			return err
		}
		if err := f.SetCellStyle(name, cell, cell, st.header); err != nil {
			return err
		}
		width := col.Width
		if width == 0 {
			width = defaultWidth(col.Kind)
		}
		colName, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(name, colName, colName, width); err != nil {
			return err
		}
	}

	row := 2
	for _, values := range sheet.Rows {
		if err := writeRow(f, st, sheet, row, values, false); err != nil {
			return err
		}
		row++
	}
	if len(sheet.Totals) > 0 {
		if err := writeRow(f, st, sheet, row, sheet.Totals, true); err != nil {
			return err
		}
	}

	if len(sheet.Columns) == 0 {
		return nil
	}
	return f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeRow(f *excelize.File, st styles, sheet Sheet, row int, values []any, total bool) error {
	for c, v := range values {
		cell, err := excelize.CoordinatesToCellName(c+1, row)
		if err != nil {
			return err
		}
		kind := KindText
		if c < len(sheet.Columns) {
			kind = sheet.Columns[c].Kind
		}
		if err := f.SetCellValue(sheet.Name, cell, cellValue(v)); err != nil {
			return err
		}
		if style := styleFor(st, kind, total); style != 0 {
			if err := f.SetCellStyle(sheet.Name, cell, cell, style); err != nil {
				return err
			}
		}
	}
	return nil
}

func styleFor(st styles, kind Kind, total bool) int {
	switch {
	case total && kind == KindMoney:
		return st.totalMoney
	case total:
		return st.total
	case kind == KindMoney:
		return st.money
	case kind == KindDate:
		return st.date
	case kind == KindDateTime:
		return st.dateTime
	default:
		return 0
	}
}

// cellValue converts domain values to types excelize writes natively
func cellValue(v any) any {
	switch val := v.(type) {
	case valueobject.Money:
		return val.Amount().InexactFloat64()
	case *valueobject.Money:
		if val == nil {
			return nil
		}
		return val.Amount().InexactFloat64()
	case decimal.Decimal:
		return val.InexactFloat64()
	case *time.Time:
		if val == nil {
			return nil
		}
		return *val
	case time.Time:
		if val.IsZero() {
			return nil
		}
		return val
	default:
		return v
	}
}

func defaultWidth(kind Kind) float64 {
	switch kind {
	case KindMoney:
		return 16
	case KindDate:
		return 12
	case KindDateTime:
		return 17
	default:
		return 22
	}
}

// ReadRows returns the raw cell values of a sheet. Used to check exports.
func ReadRows(data []byte, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return f.GetRows(sheet, excelize.Options{RawCellValue: true})
}
