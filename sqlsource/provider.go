// Package sqlsource serves tables from a SQL database. The provider
// declares the SQL capability level: the splitter pushes selection,
// filtering, grouping, sorting and pagination down, the package renders
// them as a SELECT statement in the dialect of the target database and
// maps the result set back to the tabular model.
package sqlsource

import (
	"database/sql"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	errors "gopkg.in/src-d/go-errors.v1"

	"github.com/chartdata/go-datasource/viz"
	"github.com/chartdata/go-datasource/viz/query"
)

// ErrQuery is returned when statement execution fails.
var ErrQuery = errors.NewKind("sql query %q failed: %s")

// Provider executes provider queries against one database table.
type Provider struct {
	db      *sql.DB
	table   string
	dialect Dialect
}

// NewProvider returns a provider over the named table of db.
func NewProvider(db *sql.DB, table string, dialect Dialect) *Provider {
	return &Provider{db: db, table: table, dialect: dialect}
}

// Capabilities implements datasource.DataProvider.
func (p *Provider) Capabilities() viz.Capabilities { return viz.CapSQL }

// Generate renders q as a SELECT, executes it and converts the result set
// to a table. Cancellation of ctx propagates into the driver.
func (p *Provider) Generate(ctx *viz.Context, q *query.Query) (*viz.Table, error) {
	stmt, args, err := BuildStatement(q, p.table, p.dialect)
	if err != nil {
		return nil, err
	}

	span, ctx := ctx.Span("sqlsource.query")
	defer span.Finish()

	rows, err := p.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"dialect":   p.dialect,
			"statement": stmt,
		}).WithError(err).Error("sqlsource query failed")
		return nil, ErrQuery.New(stmt, err)
	}
	defer rows.Close()
	return scanTable(rows)
}

func scanTable(rows *sql.Rows) (*viz.Table, error) {
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	columns := make([]viz.ColumnDescription, len(colTypes))
	for i, ct := range colTypes {
		columns[i] = viz.NewColumnDescription(ct.Name(), valueTypeOf(ct))
	}
	table, err := viz.NewTable(columns...)
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		holders := make([]interface{}, len(columns))
		for i, col := range columns {
			holders[i] = holderFor(col.Type)
		}
		if err := rows.Scan(holders...); err != nil {
			return nil, err
		}
		values := make([]viz.Value, len(columns))
		for i, col := range columns {
			v, err := holderValue(holders[i], col.Type)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		if err := table.AddRowValues(values...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

// valueTypeOf maps a driver column type to a value type by its database
// type name.
func valueTypeOf(ct *sql.ColumnType) viz.ValueType {
	name := strings.ToUpper(ct.DatabaseTypeName())
	switch {
	case strings.Contains(name, "BOOL"):
		return viz.TypeBoolean
	case name == "DATE":
		return viz.TypeDate
	case strings.Contains(name, "DATETIME") || strings.Contains(name, "TIMESTAMP"):
		return viz.TypeDateTime
	case name == "TIME" || name == "TIMETZ":
		return viz.TypeTimeOfDay
	case strings.Contains(name, "INT") || strings.Contains(name, "DEC") ||
		strings.Contains(name, "NUM") || strings.Contains(name, "FLOAT") ||
		strings.Contains(name, "DOUBLE") || strings.Contains(name, "REAL"):
		return viz.TypeNumber
	}
	return viz.TypeText
}

func holderFor(typ viz.ValueType) interface{} {
	switch typ {
	case viz.TypeNumber:
		return &sql.NullFloat64{}
	case viz.TypeBoolean:
		return &sql.NullBool{}
	case viz.TypeDate, viz.TypeDateTime:
		return &sql.NullTime{}
	default:
		return &sql.NullString{}
	}
}

func holderValue(holder interface{}, typ viz.ValueType) (viz.Value, error) {
	switch typ {
	case viz.TypeNumber:
		h := holder.(*sql.NullFloat64)
		if !h.Valid {
			return viz.NewNull(typ), nil
		}
		return viz.NewNumber(h.Float64), nil
	case viz.TypeBoolean:
		h := holder.(*sql.NullBool)
		if !h.Valid {
			return viz.NewNull(typ), nil
		}
		return viz.NewBool(h.Bool), nil
	case viz.TypeDate:
		h := holder.(*sql.NullTime)
		if !h.Valid {
			return viz.NewNull(typ), nil
		}
		return viz.NewDate(h.Time.In(time.UTC))
	case viz.TypeDateTime:
		h := holder.(*sql.NullTime)
		if !h.Valid {
			return viz.NewNull(typ), nil
		}
		return viz.NewDateTime(h.Time.In(time.UTC))
	case viz.TypeTimeOfDay:
		h := holder.(*sql.NullString)
		if !h.Valid || h.String == "" {
			return viz.NewNull(typ), nil
		}
		return parseClock(h.String)
	default:
		h := holder.(*sql.NullString)
		if !h.Valid {
			return viz.NewNull(typ), nil
		}
		return viz.NewText(h.String), nil
	}
}

func parseClock(s string) (viz.Value, error) {
	for _, layout := range []string{"15:04:05.000", "15:04:05", "15:04"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return viz.NewTimeOfDay(t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/1e6)
		}
	}
	return viz.NewNull(viz.TypeTimeOfDay), nil
}
