package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

// ReadFile parses uploaded file bytes according to the declared
// extension and maps every data row through m. The second return value
// is the count of rows dropped by the survival rule.
func ReadFile(filename string, data []byte, m *Mapping) ([]Row, int, error) {
	ext := strings.ToLower(filename[strings.LastIndex(filename, ".")+1:])
	switch ext {
	case "csv", "txt", "tsv":
		return ReadCSV(bytes.NewReader(data), m)
	case "xlsx", "xlsm", "xls":
		return ReadXLSX(bytes.NewReader(data), m)
	default:
		return nil, 0, errors.Wrap(ErrUnsupportedFormat, ext)
	}
}

// ReadCSV treats the first line as a header row, trims cells and skips
// blank lines.
func ReadCSV(r io.Reader, m *Mapping) ([]Row, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, 0, errors.Wrap(err, "read csv")
	}
	if len(records) == 0 {
		return nil, 0, nil
	}
	return mapRecords(records[0], records[1:], m)
}

// ReadXLSX reads the first sheet of a spreadsheet. A workbook with no
// sheets yields an empty list rather than an error.
func ReadXLSX(r io.Reader, m *Mapping) ([]Row, int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, 0, errors.Wrap(err, "open workbook")
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, 0, nil
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, 0, errors.Wrap(err, "read sheet")
	}
	if len(records) == 0 {
		return nil, 0, nil
	}
	return mapRecords(records[0], records[1:], m)
}

// FromJSON maps an already-parsed array of raw row objects (the non-file
// bulk-create path). Values are stringified before mapping so numeric
// phone cells behave the same as in spreadsheets.
func FromJSON(items []map[string]any, m *Mapping) ([]Row, int) {
	rows := make([]Row, 0, len(items))
	dropped := 0
	for i, item := range items {
		raw := make(map[string]string, len(item))
		for k, v := range item {
			raw[k] = stringify(v)
		}
		row, ok := m.Apply(i+1, raw)
		if !ok {
			dropped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, dropped
}

func mapRecords(header []string, records [][]string, m *Mapping) ([]Row, int, error) {
	rows := make([]Row, 0, len(records))
	dropped := 0
	for i, record := range records {
		if isBlank(record) {
			continue
		}
		raw := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(record) {
				raw[h] = record[j]
			}
		}
		row, ok := m.Apply(i+1, raw)
		if !ok {
			dropped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, dropped, nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case bool:
		return fmt.Sprintf("%t", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
