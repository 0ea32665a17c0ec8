package render

import (
	"bytes"
	"encoding/csv"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/chartdata/go-datasource/viz"
	"github.com/chartdata/go-datasource/viz/format"
)

// CSV renders the response as comma-separated values with CRLF line ends:
// a header row of column labels followed by one row of display strings per
// table row. An error response renders as a single error record.
func CSV(r *Response) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeSeparated(&buf, r, ','); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TSVExcel renders the response like CSV but tab-separated and encoded as
// UTF-16LE with a byte order mark, the encoding spreadsheet imports
// expect.
func TSVExcel(r *Response) ([]byte, error) {
	var buf bytes.Buffer
	enc := transform.NewWriter(&buf, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder())
	if err := writeSeparated(enc, r, '\t'); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSeparated(dst io.Writer, r *Response, comma rune) error {
	w := csv.NewWriter(dst)
	w.Comma = comma
	w.UseCRLF = true

	if r.Status() == StatusError {
		for _, m := range r.errorMessages() {
			record := []string{"Error: " + m.message}
			if m.detailed != "" {
				record = append(record, m.detailed)
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	}

	t := r.Table
	if t == nil || t.NumColumns() == 0 {
		w.Flush()
		return w.Error()
	}
	header := make([]string, t.NumColumns())
	for i, col := range t.Columns() {
		header[i] = columnHeader(&col)
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for i := range t.Rows() {
		record := make([]string, t.NumColumns())
		for j := range record {
			record[j] = displayString(t.Cell(i, j), t.Column(j).Type)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// columnHeader prefers the label and falls back to the id.
func columnHeader(col *viz.ColumnDescription) string {
	if col.Label != "" {
		return col.Label
	}
	return col.ID
}

// displayString is the cell text shown in non-JSON outputs: the formatted
// value when present, the default rendering otherwise, empty for null.
func displayString(cell *viz.Cell, typ viz.ValueType) string {
	if cell.Formatted != "" {
		return cell.Formatted
	}
	return format.Default(typ).Format(cell.Value)
}
