// Package csvsource loads comma-separated data into tables and serves it
// as a data provider. Column types can be declared up front or inferred
// from the data; a configurable row cap truncates oversized files with a
// warning instead of failing the request.
package csvsource

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	errors "gopkg.in/src-d/go-errors.v1"

	"github.com/chartdata/go-datasource/viz"
	"github.com/chartdata/go-datasource/viz/query"
)

var (
	// ErrRead is returned when the underlying reader or the CSV framing
	// fails.
	ErrRead = errors.NewKind("cannot read csv data: %s")
	// ErrHeader is returned when the data has no header row to derive
	// column ids from.
	ErrHeader = errors.NewKind("csv data has no header row")
	// ErrColumnCount is returned when a record width does not match the
	// declared columns.
	ErrColumnCount = errors.NewKind("csv record %d has %d fields, expected %d")
)

type config struct {
	columns []viz.ColumnDescription
	header  bool
	maxRows int
}

// Option configures reading.
type Option func(*config)

// WithColumns declares the column descriptions instead of inferring them.
// The data is expected to carry no header row unless WithHeader is also
// given.
func WithColumns(columns ...viz.ColumnDescription) Option {
	return func(c *config) {
		c.columns = columns
		c.header = false
	}
}

// WithHeader makes the reader skip the first record. Only meaningful
// together with WithColumns; inferred schemas always consume the header.
func WithHeader() Option {
	return func(c *config) { c.header = true }
}

// WithMaxRows caps the number of data rows. Further rows are dropped and
// the table carries a data_truncated warning.
func WithMaxRows(n int) Option {
	return func(c *config) { c.maxRows = n }
}

// ReadFile loads a CSV file into a table.
func ReadFile(path string, opts ...Option) (*viz.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ErrRead.New(err)
	}
	defer f.Close()
	return Read(f, opts...)
}

// Read loads CSV data into a table. Without declared columns the first
// record supplies the column ids and the types are inferred from the data:
// the narrowest of number, boolean, date, datetime and time of day that
// fits every non-empty cell, text otherwise. Empty cells are null.
func Read(r io.Reader, opts ...Option) (*viz.Table, error) {
	cfg := config{header: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, ErrRead.New(err)
	}

	columns := cfg.columns
	if columns == nil {
		if len(records) == 0 {
			return nil, ErrHeader.New()
		}
		columns = inferColumns(records[0], records[1:])
	}
	if cfg.header {
		if len(records) == 0 {
			return nil, ErrHeader.New()
		}
		records = records[1:]
	}

	table, err := viz.NewTable(columns...)
	if err != nil {
		return nil, err
	}
	truncated := false
	for i, record := range records {
		if cfg.maxRows > 0 && table.NumRows() >= cfg.maxRows {
			truncated = true
			break
		}
		if len(record) != len(columns) {
			return nil, ErrColumnCount.New(i+1, len(record), len(columns))
		}
		values := make([]viz.Value, len(record))
		for j, field := range record {
			values[j] = parseCell(field, columns[j].Type)
		}
		if err := table.AddRowValues(values...); err != nil {
			return nil, err
		}
	}
	if truncated {
		table.AddWarning(viz.ReasonDataTruncated, "")
	}
	return table, nil
}

// inferColumns derives the schema from the header ids and the data rows.
func inferColumns(header []string, rows [][]string) []viz.ColumnDescription {
	columns := make([]viz.ColumnDescription, len(header))
	for i, id := range header {
		columns[i] = viz.NewColumnDescription(strings.TrimSpace(id), inferType(rows, i))
	}
	return columns
}

// candidate types from narrowest to widest; text always fits.
var candidates = []viz.ValueType{
	viz.TypeNumber,
	viz.TypeBoolean,
	viz.TypeDate,
	viz.TypeDateTime,
	viz.TypeTimeOfDay,
}

func inferType(rows [][]string, col int) viz.ValueType {
	seen := false
	for _, typ := range candidates {
		fits := true
		for _, row := range rows {
			if col >= len(row) {
				continue
			}
			field := strings.TrimSpace(row[col])
			if field == "" {
				continue
			}
			seen = true
			if _, ok := parseTyped(field, typ); !ok {
				fits = false
				break
			}
		}
		if fits && seen {
			return typ
		}
		if !seen {
			// Column has no data at all; restart gives the same answer
			// for every candidate, call it text.
			break
		}
	}
	return viz.TypeText
}

// parseCell converts one field to a value of the column type. Empty fields
// are null; fields the type cannot represent fall back to a cast for
// numbers and booleans and to null otherwise.
func parseCell(field string, typ viz.ValueType) viz.Value {
	field = strings.TrimSpace(field)
	if field == "" {
		return viz.NewNull(typ)
	}
	if v, ok := parseTyped(field, typ); ok {
		return v
	}
	switch typ {
	case viz.TypeNumber:
		if f, err := cast.ToFloat64E(field); err == nil {
			return viz.NewNumber(f)
		}
	case viz.TypeBoolean:
		if b, err := cast.ToBoolE(field); err == nil {
			return viz.NewBool(b)
		}
	}
	return viz.NewNull(typ)
}

func parseTyped(field string, typ viz.ValueType) (viz.Value, bool) {
	switch typ {
	case viz.TypeText:
		return viz.NewText(field), true
	case viz.TypeNumber:
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return viz.Value{}, false
		}
		return viz.NewNumber(f), true
	case viz.TypeBoolean:
		switch strings.ToLower(field) {
		case "true":
			return viz.NewBool(true), true
		case "false":
			return viz.NewBool(false), true
		}
		return viz.Value{}, false
	case viz.TypeDate:
		t, err := time.ParseInLocation("2006-01-02", field, time.UTC)
		if err != nil {
			return viz.Value{}, false
		}
		return viz.NewDateOf(t.Year(), t.Month(), t.Day()), true
	case viz.TypeDateTime:
		for _, layout := range []string{"2006-01-02 15:04:05.000", "2006-01-02 15:04:05"} {
			if t, err := time.ParseInLocation(layout, field, time.UTC); err == nil {
				v, err := viz.NewDateTime(t)
				if err != nil {
					return viz.Value{}, false
				}
				return v, true
			}
		}
		return viz.Value{}, false
	default:
		for _, layout := range []string{"15:04:05.000", "15:04:05"} {
			if t, err := time.ParseInLocation(layout, field, time.UTC); err == nil {
				v, err := viz.NewTimeOfDay(t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/1e6)
				if err != nil {
					return viz.Value{}, false
				}
				return v, true
			}
		}
		return viz.Value{}, false
	}
}

// Provider serves a loaded table. CSV files cannot execute any part of a
// query, so the capability level is NONE and Generate returns the table
// unchanged.
type Provider struct {
	table *viz.Table
}

// NewProvider returns a provider over the loaded table.
func NewProvider(table *viz.Table) *Provider {
	return &Provider{table: table}
}

// Capabilities implements datasource.DataProvider.
func (p *Provider) Capabilities() viz.Capabilities { return viz.CapNone }

// Generate implements datasource.DataProvider. The provider query of a
// NONE-capability provider is always empty.
func (p *Provider) Generate(ctx *viz.Context, q *query.Query) (*viz.Table, error) {
	return p.table.Clone(), nil
}
