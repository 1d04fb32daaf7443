package tabular

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV_HeaderMappingAndBlankLines(t *testing.T) {
	csv := strings.Join([]string{
		"Sr.No,Name,Contact Number,Division",
		"1, Alice ,111,Ops",
		"",
		"2,Bob,222,",
		"3,,333,Sales", // dropped: no name
	}, "\n")

	rows, dropped, err := ReadCSV(strings.NewReader(csv), testMapping())
	require.NoError(t, err)
	require.Equal(t, 1, dropped)
	require.Len(t, rows, 2)

	require.Equal(t, 1, rows[0].Index)
	require.Equal(t, "Alice", rows[0].Values["name"])
	require.Equal(t, "111", rows[0].Values["phone"])
	require.Equal(t, "Ops", rows[0].Values["lobby"])

	// The blank line is skipped by the reader and does not consume an
	// index or the dropped counter.
	require.Equal(t, 2, rows[1].Index)
	require.Equal(t, "Bob", rows[1].Values["name"])
	require.NotContains(t, rows[1].Values, "lobby")
}

func TestReadCSV_EmptyInput(t *testing.T) {
	rows, dropped, err := ReadCSV(strings.NewReader(""), testMapping())
	require.NoError(t, err)
	require.Zero(t, dropped)
	require.Empty(t, rows)
}

func TestReadXLSX_FirstSheetOnly(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Name", "Mobile"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Alice", "8980000000"}))
	_, err := f.NewSheet("Second")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Second", "A1", &[]any{"Name", "Mobile"}))
	require.NoError(t, f.SetSheetRow("Second", "A2", &[]any{"Bob", "111"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	rows, dropped, err := ReadXLSX(bytes.NewReader(buf.Bytes()), testMapping())
	require.NoError(t, err)
	require.Zero(t, dropped)
	require.Len(t, rows, 1)
	require.Equal(t, "Alice", rows[0].Values["name"])
}

func TestReadFile_UnsupportedExtension(t *testing.T) {
	_, _, err := ReadFile("contacts.pdf", nil, testMapping())
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFromJSON_StringifiesValues(t *testing.T) {
	items := []map[string]any{
		{"Name": "Alice", "Mobile": float64(8980000000)},
		{"Name": "Bob"}, // dropped: no phone
		{"Name": "Cara", "Mobile": "333", "Active": true},
	}

	rows, dropped := FromJSON(items, testMapping())
	require.Equal(t, 1, dropped)
	require.Len(t, rows, 2)
	require.Equal(t, "8980000000", rows[0].Values["phone"])
	require.Equal(t, 1, rows[0].Index)
	require.Equal(t, 3, rows[1].Index)
	require.Equal(t, "true", rows[1].Values["Active"])
}
