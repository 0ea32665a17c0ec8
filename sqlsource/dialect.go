package sqlsource

import (
	"strconv"
	"strings"

	errors "gopkg.in/src-d/go-errors.v1"
)

// ErrUnknownDialect is returned for driver names outside the supported set.
var ErrUnknownDialect = errors.NewKind("unknown sql dialect %q")

// Dialect selects identifier quoting, placeholder style, pagination syntax
// and the regular expression operator of the target database.
type Dialect byte

const (
	MySQL Dialect = iota
	Postgres
	SQLite
)

// ParseDialect resolves a driver or dialect name.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return 0, ErrUnknownDialect.New(s)
}

func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	}
	return "mysql"
}

// QuoteIdent quotes an identifier, doubling any embedded quote character.
func (d Dialect) QuoteIdent(id string) string {
	if d == MySQL {
		return "`" + strings.ReplaceAll(id, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// Placeholder returns the n-th bind placeholder, 1-based.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// LimitOffset renders the pagination clause. limit is -1 when absent. MySQL
// and SQLite cannot express an offset without a limit and use their
// conventional unlimited forms.
func (d Dialect) LimitOffset(limit, offset int) string {
	if limit < 0 && offset <= 0 {
		return ""
	}
	var b strings.Builder
	if limit >= 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(limit))
	} else if d == MySQL {
		b.WriteString(" LIMIT 18446744073709551615")
	} else if d == SQLite {
		b.WriteString(" LIMIT -1")
	}
	if offset > 0 {
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.Itoa(offset))
	}
	return b.String()
}

// RegexpCondition renders the regular expression match of the dialect over
// an operand and a placeholder.
func (d Dialect) RegexpCondition(operand, placeholder string) string {
	if d == Postgres {
		return operand + " ~ " + placeholder
	}
	return operand + " REGEXP " + placeholder
}
