package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ruslano69/dmbridge/pkg/core/types"
	"github.com/ruslano69/dmbridge/pkg/executor"
)

// Встроенные форматы чисел Excel
const (
	numFmtInteger  = 1
	numFmtDecimal  = 2
	numFmtDate     = 14
	numFmtDateTime = 22
	numFmtText     = 49
)

// WriteXLSX сохраняет результат запроса в файл Excel.
//
// Заголовки содержат имя колонки и ее SQL тип, например "AMOUNT (DECIMAL)".
// NULL оставляет ячейку пустой, двоичные значения пишутся в hex.
func WriteXLSX(path, sheet string, res *executor.QueryResult) error {
	f, err := buildWorkbook(sheet, res)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func buildWorkbook(sheet string, res *executor.QueryResult) (*excelize.File, error) {
	if sheet == "" {
		sheet = "Sheet1"
	}
	f := excelize.NewFile()
	index, err := f.NewSheet(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			f.Close()
			return nil, err
		}
	}

	st, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	for col, c := range res.Columns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, fmt.Sprintf("%s (%s)", c.Name, c.Wire.Code))
		f.SetCellStyle(sheet, cell, cell, st.header)
	}

	for r, row := range res.Rows {
		for col, v := range row {
			if v.IsNull() {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
			value, style := st.cell(v)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("cell %s: %w", cell, err)
			}
			f.SetCellStyle(sheet, cell, cell, style)
		}
	}

	if n := len(res.Columns); n > 0 {
		last, _ := excelize.ColumnNumberToName(n)
		f.SetColWidth(sheet, "A", last, 15)
	}
	return f, nil
}

type styles struct {
	header, integer, decimal, date, datetime, text int
}

func newStyles(f *excelize.File) (*styles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	st := &styles{header: header}
	for _, s := range []struct {
		id     *int
		numFmt int
	}{
		{&st.integer, numFmtInteger},
		{&st.decimal, numFmtDecimal},
		{&st.date, numFmtDate},
		{&st.datetime, numFmtDateTime},
		{&st.text, numFmtText},
	} {
		if *s.id, err = f.NewStyle(&excelize.Style{NumFmt: s.numFmt}); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// cell возвращает значение для excelize и стиль ячейки
func (st *styles) cell(v types.ColumnValue) (any, int) {
	switch v.Kind() {
	case types.KindI8, types.KindI16, types.KindI32, types.KindI64, types.KindU8:
		return v.Int(), st.integer
	case types.KindF32, types.KindF64:
		return v.Float(), st.decimal
	case types.KindBit:
		return v.Bool(), st.text
	case types.KindDate:
		return v.Date().In(time.UTC), st.date
	case types.KindTimestamp:
		return v.DateTime().In(time.UTC), st.datetime
	}
	return v.String(), st.text
}
