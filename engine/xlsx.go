package engine

import (
	"github.com/pingcap/errors"
	"github.com/xuri/excelize/v2"
)

const conditionsSheet = "Sheet1"

// readXLSX returns the rows of the first sheet.
func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Annotatef(err, "read sheet %s", sheets[0])
	}
	return rows, nil
}

func writeXLSX(path string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := conditionsSheet
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return errors.Trace(err)
		}
		f.SetActiveSheet(idx)
	}

	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return errors.Trace(err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return errors.Trace(err)
			}
		}
	}
	return errors.Trace(f.SaveAs(path))
}
