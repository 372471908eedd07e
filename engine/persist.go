package engine

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pingcap/errors"
)

var (
	leadColumns  = []string{"trial_index", "condition_index", "rep", colWord, colColor, colImage}
	trailColumns = []string{"key", "rt", "key_duration", "correctness", "rating", "stim_onset", "isi",
		"participant", "session", "date", "task", "run_id"}
)

// SaveCSV writes the wide, one-row-per-trial form of the log.
func (l *ExperimentLog) SaveCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := make([]string, 0, len(leadColumns)+len(l.Columns)+len(trailColumns))
	header = append(header, leadColumns...)
	header = append(header, l.Columns...)
	header = append(header, trailColumns...)
	if err := w.Write(header); err != nil {
		return errors.Trace(err)
	}

	m := l.Meta
	for _, r := range l.Records {
		row := []string{
			strconv.Itoa(r.Index),
			strconv.Itoa(r.ConditionIndex),
			strconv.Itoa(r.Rep),
			r.Word,
			r.Color,
			r.Image,
		}
		for _, c := range l.Columns {
			row = append(row, r.Attrs[c])
		}
		row = append(row,
			fmtString(r.Key),
			fmtFloat(r.RT),
			fmtFloat(r.KeyDuration),
			string(r.Correctness),
			fmtInt(r.Rating),
			strconv.FormatFloat(r.Onset, 'g', -1, 64),
			strconv.FormatFloat(r.ISI, 'g', -1, 64),
			m.Participant, m.Session, m.Date, m.Task, m.RunID,
		)
		if err := w.Write(row); err != nil {
			return errors.Trace(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(f.Sync())
}

// ReadResultsCSV parses a file written by SaveCSV. Run metadata other than
// the per-row identity columns is not part of the wide form.
func ReadResultsCSV(path string) (*ExperimentLog, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.Errorf("%s: empty results file", path)
	}
	header := records[0]
	nAttrs := len(header) - len(leadColumns) - len(trailColumns)
	if nAttrs < 0 {
		return nil, errors.Errorf("%s: not a results file, %d columns", path, len(header))
	}
	for i, c := range leadColumns {
		if header[i] != c {
			return nil, errors.Errorf("%s: column %d is %q, want %q", path, i+1, header[i], c)
		}
	}
	for i, c := range trailColumns {
		if header[len(leadColumns)+nAttrs+i] != c {
			return nil, errors.Errorf("%s: column %q missing", path, c)
		}
	}

	l := &ExperimentLog{Records: []Record{}}
	if nAttrs > 0 {
		l.Columns = append([]string(nil), header[len(leadColumns):len(leadColumns)+nAttrs]...)
	}
	for i, row := range records[1:] {
		if len(row) != len(header) {
			return nil, errors.Errorf("%s: line %d: %d fields, want %d", path, i+2, len(row), len(header))
		}
		r, err := parseResultRow(row, l.Columns)
		if err != nil {
			return nil, errors.Annotatef(err, "%s: line %d", path, i+2)
		}
		l.Records = append(l.Records, r)
		tail := row[len(leadColumns)+nAttrs+7:]
		l.Meta.Participant, l.Meta.Session, l.Meta.Date, l.Meta.Task, l.Meta.RunID =
			tail[0], tail[1], tail[2], tail[3], tail[4]
	}
	return l, nil
}

func parseResultRow(row []string, attrCols []string) (Record, error) {
	var (
		r   Record
		err error
	)
	if r.Index, err = strconv.Atoi(row[0]); err != nil {
		return r, errors.Trace(err)
	}
	if r.ConditionIndex, err = strconv.Atoi(row[1]); err != nil {
		return r, errors.Trace(err)
	}
	if r.Rep, err = strconv.Atoi(row[2]); err != nil {
		return r, errors.Trace(err)
	}
	r.Word, r.Color, r.Image = row[3], row[4], row[5]
	if len(attrCols) > 0 {
		r.Attrs = make(map[string]string, len(attrCols))
		for i, c := range attrCols {
			r.Attrs[c] = row[len(leadColumns)+i]
		}
	}

	tail := row[len(leadColumns)+len(attrCols):]
	if tail[0] != "" {
		key := tail[0]
		r.Key = &key
	}
	if r.RT, err = parseFloatPtr(tail[1]); err != nil {
		return r, err
	}
	if r.KeyDuration, err = parseFloatPtr(tail[2]); err != nil {
		return r, err
	}
	r.Correctness = Correctness(tail[3])
	if tail[4] != "" {
		v, err := strconv.Atoi(tail[4])
		if err != nil {
			return r, errors.Trace(err)
		}
		r.Rating = &v
	}
	if r.Onset, err = strconv.ParseFloat(tail[5], 64); err != nil {
		return r, errors.Trace(err)
	}
	if r.ISI, err = strconv.ParseFloat(tail[6], 64); err != nil {
		return r, errors.Trace(err)
	}
	return r, nil
}

// SaveJSON writes the full snapshot: metadata, records and phase events.
func (l *ExperimentLog) SaveJSON(path string) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(os.WriteFile(path, append(data, '\n'), 0o644))
}

func LoadSnapshot(path string) (*ExperimentLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var l ExperimentLog
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, errors.Annotatef(err, "decode %s", path)
	}
	return &l, nil
}

// LoadResults reads either persisted form, chosen by extension.
func LoadResults(path string) (*ExperimentLog, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadSnapshot(path)
	case ".csv":
		return ReadResultsCSV(path)
	}
	return nil, errors.Errorf("unsupported results file: %s", path)
}

// UniquePath appends _1, _2, ... before the extension until the name is free.
func UniquePath(path string) string {
	ext := filepath.Ext(path)
	return UniqueStem(strings.TrimSuffix(path, ext), ext) + ext
}

// UniqueStem appends _1, _2, ... to stem until stem+ext is free for every ext,
// so files written together keep one name.
func UniqueStem(stem string, exts ...string) string {
	free := func(s string) bool {
		for _, ext := range exts {
			if _, err := os.Stat(s + ext); !os.IsNotExist(err) {
				return false
			}
		}
		return true
	}
	if free(stem) {
		return stem
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", stem, i)
		if free(candidate) {
			return candidate
		}
	}
}

func fmtString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func fmtFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'g', -1, 64)
}

func fmtInt(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}

func parseFloatPtr(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &v, nil
}
