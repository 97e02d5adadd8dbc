// Package exportsvc builds spreadsheet reports for download.
package exportsvc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trezcool/smartseats/core/class"
)

// TestScoresWorkbook renders one test's results as a single-sheet workbook.
// Student ids are resolved against the class membership; a result whose
// student is no longer enrolled falls back to the raw id.
func TestScoresWorkbook(cls class.Info, t class.Test) ([]byte, error) {
	f := excelize.NewFile()
	sheet := sheetName(cls.Name + " - " + t.TestName)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, errors.Wrap(err, "renaming sheet")
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, errors.Wrap(err, "creating header style")
	}

	header := []string{"Student", "Score"}
	for col, h := range header {
		cell := fmt.Sprintf("%s1", colName(col+1))
		if err = f.SetCellStr(sheet, cell, h); err != nil {
			return nil, errors.Wrapf(err, "setting cell %s", cell)
		}
	}
	if err = f.SetCellStyle(sheet, "A1", "B1", bold); err != nil {
		return nil, errors.Wrap(err, "styling header")
	}

	names := make(map[primitive.ObjectID]string, len(cls.Students))
	for _, ref := range cls.Students {
		names[ref.ID] = ref.Name
	}

	maxNameLen := len(header[0])
	for i, r := range t.Results {
		name, ok := names[r.StudentID]
		if !ok {
			name = r.StudentID.Hex()
		}
		if len(name) > maxNameLen {
			maxNameLen = len(name)
		}
		row := i + 2
		if err = f.SetCellStr(sheet, fmt.Sprintf("A%d", row), name); err != nil {
			return nil, errors.Wrapf(err, "setting cell A%d", row)
		}
		if err = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r.Score); err != nil {
			return nil, errors.Wrapf(err, "setting cell B%d", row)
		}
	}

	// heuristic width from the longest name
	w := float64(maxNameLen) * 0.9
	if w < 12 {
		w = 12
	}
	if w > 40 {
		w = 40
	}
	if err = f.SetColWidth(sheet, "A", "A", w); err != nil {
		return nil, errors.Wrap(err, "setting column width")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "writing workbook")
	}
	return buf.Bytes(), nil
}

// sheetName sanitizes a title to Excel's sheet-name rules (31 chars max,
// no []:*?/\ characters).
func sheetName(title string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '-'
		}
		return r
	}, title)
	if len(clean) > 31 {
		clean = clean[:31]
	}
	if clean == "" {
		clean = "Scores"
	}
	return clean
}

func colName(n int) string {
	name, _ := excelize.ColumnNumberToName(n)
	if name == "" {
		name = strconv.Itoa(n)
	}
	return name
}
