package engine

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pingcap/errors"
)

const (
	colWord  = "word"
	colColor = "color"
	colImage = "image"
)

var columnAliases = map[string]string{
	"stim_word":  colWord,
	"stim_color": colColor,
	"stim_image": colImage,
	"colour":     colColor,
}

// LoadConditions reads a condition table from a .csv or .xlsx file.
// The first row is the header.
func LoadConditions(path string) (*Experiment, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = readCSV(path)
	case ".xlsx":
		records, err = readXLSX(path)
	default:
		return nil, ErrConfig.GenWithStackByArgs("unsupported conditions file: " + path)
	}
	if err != nil {
		return nil, ErrConfig.GenWithStackByArgs(fmt.Sprintf("read %s: %v", path, err))
	}
	exp, err := parseConditions(records)
	if err != nil {
		return nil, ErrConfig.GenWithStackByArgs(fmt.Sprintf("%s: %v", path, err))
	}
	return exp, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return records, nil
}

func parseConditions(records [][]string) (*Experiment, error) {
	if len(records) == 0 {
		return nil, errors.New("missing header row")
	}

	header := make([]string, len(records[0]))
	seen := make(map[string]bool, len(header))
	for i, h := range records[0] {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if alias, ok := columnAliases[name]; ok {
			name = alias
		}
		if name == "" {
			return nil, errors.Annotatef(errEmptyColumn, "line 1, column %d", i+1)
		}
		if seen[name] {
			return nil, errors.Errorf("line 1: duplicate column %q", name)
		}
		seen[name] = true
		header[i] = name
	}

	exp := &Experiment{Columns: header}
	attrCols := exp.AttrColumns()
	for i, record := range records[1:] {
		if blank(record) {
			continue
		}
		if len(record) > len(header) {
			return nil, errors.Errorf("line %d: %d fields, header has %d", i+2, len(record), len(header))
		}

		t := Trial{ConditionIndex: len(exp.Conditions)}
		if len(attrCols) > 0 {
			t.Attrs = make(map[string]string, len(attrCols))
			for _, c := range attrCols {
				t.Attrs[c] = ""
			}
		}
		for j, cell := range record {
			cell = strings.TrimSpace(cell)
			switch header[j] {
			case colWord:
				t.Word = cell
			case colColor:
				t.Color = cell
			case colImage:
				t.Image = cell
			default:
				t.Attrs[header[j]] = cell
			}
		}
		exp.Conditions = append(exp.Conditions, t)
	}
	return exp, nil
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// WriteConditions stores a condition table as .csv or .xlsx.
func WriteConditions(path string, exp *Experiment) error {
	rows := conditionRows(exp)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return writeCSV(path, rows)
	case ".xlsx":
		return writeXLSX(path, rows)
	}
	return ErrConfig.GenWithStackByArgs("unsupported conditions file: " + path)
}

func conditionRows(exp *Experiment) [][]string {
	rows := make([][]string, 0, len(exp.Conditions)+1)
	rows = append(rows, append([]string(nil), exp.Columns...))
	for _, t := range exp.Conditions {
		row := make([]string, len(exp.Columns))
		for j, c := range exp.Columns {
			switch c {
			case colWord:
				row[j] = t.Word
			case colColor:
				row[j] = t.Color
			case colImage:
				row[j] = t.Image
			default:
				row[j] = t.Attrs[c]
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(f.Sync())
}
