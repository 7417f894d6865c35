package parse

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrEmptyTable is returned when the input holds no rows at all.
var ErrEmptyTable = errors.New("empty file: no rows to parse")

// Format identifies how an upload is decoded into rows.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFor picks the decoder from the file extension; anything that is not
// .xlsx is read as CSV.
func FormatFor(fileName string) Format {
	if strings.EqualFold(filepath.Ext(fileName), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// ReadTable decodes an uploaded file into raw rows.
// Cells are kept as text and empty cells stay "".
func ReadTable(fileName string, r io.Reader) ([][]string, error) {
	var (
		rows [][]string
		err  error
	)
	switch FormatFor(fileName) {
	case FormatXLSX:
		rows, err = ReadXLSX(r)
	default:
		rows, err = ReadCSV(r)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}
	return rows, nil
}

// ReadCSV reads a header-less CSV with variable row widths.
func ReadCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(NewBOMReader(r))
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = DecodeText(data)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	return rows, nil
}

// ReadXLSX reads every row of the workbook's first sheet.
func ReadXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("invalid xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("invalid xlsx: workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("invalid xlsx: read sheet %q: %w", sheets[0], err)
	}
	return padRows(rows), nil
}

// padRows widens every row to the widest one. GetRows drops trailing empty
// cells, which would otherwise turn a blank units cell into a short row.
func padRows(rows [][]string) [][]string {
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	for i, row := range rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			rows[i] = padded
		}
	}
	return rows
}
