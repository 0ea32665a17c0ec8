// Package parse implements the query language parser: a hand written lexer
// and recursive descent parser producing the query tree.
package parse

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/chartdata/go-datasource/internal/similartext"
	"github.com/chartdata/go-datasource/viz"
	"github.com/chartdata/go-datasource/viz/query"
	"github.com/chartdata/go-datasource/viz/query/function"
)

// aggregationNames are the operator names that form aggregation columns
// when applied to a single simple column. sum is special: with two
// arguments it is the arithmetic scalar function.
var aggregationNames = map[string]query.AggregationType{
	"min":   query.AggMin,
	"max":   query.AggMax,
	"sum":   query.AggSum,
	"avg":   query.AggAvg,
	"count": query.AggCount,
}

// Parse parses a query string into a query tree. The returned query has not
// been validated; syntax failures are invalid_query errors with a localized
// parse error message.
func Parse(ctx *viz.Context, tq string) (*query.Query, error) {
	tokens, err := lex(tq)
	if err != nil {
		return nil, viz.InvalidQuery(ctx.Locale(), viz.MsgParseError, err.Error())
	}
	p := &parser{tokens: tokens, loc: ctx.Locale()}
	q, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	return q, nil
}

type parser struct {
	tokens []token
	pos    int
	loc    language.Tag
}

func (p *parser) cur() token { return p.tokens[p.pos] }

func (p *parser) advance() token {
	t := p.tokens[p.pos]
	if t.typ != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) accept(typ tokenType) bool {
	if p.cur().typ == typ {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(typ tokenType, what string) (token, error) {
	if p.cur().typ != typ {
		return token{}, p.syntaxError("expected %s, found %s", what, p.cur())
	}
	return p.advance(), nil
}

func (p *parser) syntaxError(format string, args ...interface{}) error {
	return viz.InvalidQuery(p.loc, viz.MsgParseError, fmt.Sprintf(format, args...))
}

func (p *parser) parseQuery() (*query.Query, error) {
	q := query.NewQuery()
	var err error
	if p.accept(tokSelect) {
		if !p.accept(tokStar) {
			if q.Selection, err = p.parseColumnList(); err != nil {
				return nil, err
			}
		}
	}
	if p.accept(tokWhere) {
		if q.Filter, err = p.parseOrFilter(); err != nil {
			return nil, err
		}
	}
	if p.accept(tokGroup) {
		if _, err = p.expect(tokBy, "'by'"); err != nil {
			return nil, err
		}
		if q.GroupBy, err = p.parseColumnList(); err != nil {
			return nil, err
		}
	}
	if p.accept(tokPivot) {
		if q.Pivot, err = p.parseColumnList(); err != nil {
			return nil, err
		}
	}
	if p.accept(tokOrder) {
		if _, err = p.expect(tokBy, "'by'"); err != nil {
			return nil, err
		}
		if q.Sort, err = p.parseSortList(); err != nil {
			return nil, err
		}
	}
	if p.accept(tokSkipping) {
		if q.RowSkipping, err = p.parseClauseInt(viz.MsgInvalidSkipping, 1); err != nil {
			return nil, err
		}
	}
	if p.accept(tokLimit) {
		if q.RowLimit, err = p.parseClauseInt(viz.MsgInvalidLimit, 0); err != nil {
			return nil, err
		}
	}
	if p.accept(tokOffset) {
		if q.RowOffset, err = p.parseClauseInt(viz.MsgInvalidOffset, 0); err != nil {
			return nil, err
		}
	}
	if p.accept(tokLabel) {
		if err = p.parseAssignments(q, query.ClauseLabel); err != nil {
			return nil, err
		}
	}
	if p.accept(tokFormat) {
		if err = p.parseAssignments(q, query.ClauseFormat); err != nil {
			return nil, err
		}
	}
	if p.accept(tokOptions) {
		if err = p.parseOptions(q); err != nil {
			return nil, err
		}
	}
	if p.cur().typ != tokEOF {
		return nil, p.syntaxError("unexpected %s", p.cur())
	}
	return q, nil
}

func (p *parser) parseColumnList() ([]query.AbstractColumn, error) {
	var out []query.AbstractColumn
	for {
		col, err := p.parseColumn()
		if err != nil {
			return nil, err
		}
		out = append(out, col)
		if !p.accept(tokComma) {
			return out, nil
		}
	}
}

func (p *parser) parseSortList() ([]query.SortColumn, error) {
	var out []query.SortColumn
	for {
		col, err := p.parseColumn()
		if err != nil {
			return nil, err
		}
		order := query.Ascending
		if p.accept(tokDesc) {
			order = query.Descending
		} else {
			p.accept(tokAsc)
		}
		out = append(out, query.NewSortColumn(col, order))
		if !p.accept(tokComma) {
			return out, nil
		}
	}
}

func (p *parser) parseClauseInt(key viz.MessageKey, min int) (int, error) {
	text := ""
	if p.accept(tokMinus) {
		text = "-"
	}
	tok, err := p.expect(tokNumber, "a number")
	if err != nil {
		return 0, err
	}
	text += tok.text
	n, convErr := strconv.Atoi(text)
	if convErr != nil || n < min {
		return 0, viz.InvalidQuery(p.loc, key, text)
	}
	return n, nil
}

func (p *parser) parseAssignments(q *query.Query, clause string) error {
	for {
		col, err := p.parseColumn()
		if err != nil {
			return err
		}
		tok, err := p.expect(tokString, "a quoted string")
		if err != nil {
			return err
		}
		switch clause {
		case query.ClauseLabel:
			if _, dup := q.Labels[col.ID()]; dup {
				return viz.InvalidQuery(p.loc, viz.MsgColumnOnlyOnce, col.QueryString(), clause)
			}
			q.SetLabel(col, tok.text)
		default:
			if _, dup := q.Formats[col.ID()]; dup {
				return viz.InvalidQuery(p.loc, viz.MsgColumnOnlyOnce, col.QueryString(), clause)
			}
			q.SetFormat(col, tok.text)
		}
		if !p.accept(tokComma) {
			return nil
		}
	}
}

func (p *parser) parseOptions(q *query.Query) error {
	seen := false
	for p.cur().typ == tokIdent {
		tok := p.advance()
		switch strings.ToLower(tok.text) {
		case "no_format":
			q.Options.NoFormat = true
		case "no_values":
			q.Options.NoValues = true
		default:
			return p.syntaxError("unknown option %s", tok)
		}
		seen = true
	}
	if !seen {
		return p.syntaxError("expected an option name, found %s", p.cur())
	}
	return nil
}

// Column expressions

func (p *parser) parseColumn() (query.AbstractColumn, error) {
	return p.parseAdditive()
}

func (p *parser) parseAdditive() (query.AbstractColumn, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var symbol string
		switch p.cur().typ {
		case tokPlus:
			symbol = "+"
		case tokMinus:
			symbol = "-"
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		fn, _ := function.ByOperator(symbol)
		left = query.NewScalarFunctionColumn(fn, left, right)
	}
}

func (p *parser) parseMultiplicative() (query.AbstractColumn, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var symbol string
		switch p.cur().typ {
		case tokStar:
			symbol = "*"
		case tokSlash:
			symbol = "/"
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		fn, _ := function.ByOperator(symbol)
		left = query.NewScalarFunctionColumn(fn, left, right)
	}
}

func (p *parser) parseUnary() (query.AbstractColumn, error) {
	if p.accept(tokMinus) {
		tok, err := p.expect(tokNumber, "a number")
		if err != nil {
			return nil, err
		}
		f, convErr := strconv.ParseFloat(tok.text, 64)
		if convErr != nil {
			return nil, p.syntaxError("invalid number %s", tok)
		}
		return query.NewConstantColumn(viz.NewNumber(-f)), nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (query.AbstractColumn, error) {
	tok := p.cur()
	switch tok.typ {
	case tokNumber:
		p.advance()
		f, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, p.syntaxError("invalid number %s", tok)
		}
		return query.NewConstantColumn(viz.NewNumber(f)), nil
	case tokString:
		p.advance()
		return query.NewConstantColumn(viz.NewText(tok.text)), nil
	case tokTrue:
		p.advance()
		return query.NewConstantColumn(viz.NewBool(true)), nil
	case tokFalse:
		p.advance()
		return query.NewConstantColumn(viz.NewBool(false)), nil
	case tokDate, tokDateTime, tokTimeOfDay:
		return p.parseTimeLiteral()
	case tokQuotedIdent:
		p.advance()
		return query.NewSimpleColumn(tok.text), nil
	case tokIdent:
		p.advance()
		if p.cur().typ == tokLParen {
			return p.parseCall(tok)
		}
		return query.NewSimpleColumn(tok.text), nil
	case tokLParen:
		p.advance()
		col, err := p.parseColumn()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return col, nil
	default:
		return nil, p.syntaxError("unexpected %s", tok)
	}
}

func (p *parser) parseTimeLiteral() (query.AbstractColumn, error) {
	kind := p.advance()
	tok, err := p.expect(tokString, "a quoted "+kind.text+" literal")
	if err != nil {
		return nil, err
	}
	var v viz.Value
	switch kind.typ {
	case tokDate:
		t, convErr := time.Parse("2006-01-02", tok.text)
		if convErr != nil {
			return nil, p.syntaxError("invalid date literal %s", tok)
		}
		v, err = viz.NewDate(t)
	case tokDateTime:
		t, convErr := time.Parse("2006-01-02 15:04:05", tok.text)
		if convErr != nil {
			return nil, p.syntaxError("invalid datetime literal %s", tok)
		}
		v, err = viz.NewDateTime(t)
	default:
		t, convErr := time.Parse("15:04:05", tok.text)
		if convErr != nil {
			return nil, p.syntaxError("invalid timeofday literal %s", tok)
		}
		v, err = viz.NewTimeOfDayFrom(t)
	}
	if err != nil {
		return nil, p.syntaxError("invalid %s literal %s", kind.text, tok)
	}
	return query.NewConstantColumn(v), nil
}

func (p *parser) parseCall(name token) (query.AbstractColumn, error) {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}
	var args []query.AbstractColumn
	if p.cur().typ != tokRParen {
		var err error
		if args, err = p.parseColumnList(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}

	lower := strings.ToLower(name.text)
	if op, ok := aggregationNames[lower]; ok {
		if len(args) == 1 {
			simple, isSimple := args[0].(query.SimpleColumn)
			if !isSimple {
				return nil, p.syntaxError("%s aggregates a column, got %s",
					name, args[0].QueryString())
			}
			return query.NewAggregationColumn(simple, op), nil
		}
		if lower != "sum" {
			return nil, p.syntaxError("%s takes exactly one column", name)
		}
	}
	fn, ok := function.Lookup(lower)
	if !ok {
		return nil, p.syntaxError("unknown function %s%s",
			name, similartext.Find(function.Names(), lower))
	}
	return query.NewScalarFunctionColumn(fn, args...), nil
}

// Filters

func (p *parser) parseOrFilter() (query.Filter, error) {
	first, err := p.parseAndFilter()
	if err != nil {
		return nil, err
	}
	filters := []query.Filter{first}
	for p.accept(tokOr) {
		next, err := p.parseAndFilter()
		if err != nil {
			return nil, err
		}
		filters = append(filters, next)
	}
	if len(filters) == 1 {
		return first, nil
	}
	return query.NewCompoundFilter(query.OpOr, filters...), nil
}

func (p *parser) parseAndFilter() (query.Filter, error) {
	first, err := p.parseNotFilter()
	if err != nil {
		return nil, err
	}
	filters := []query.Filter{first}
	for p.accept(tokAnd) {
		next, err := p.parseNotFilter()
		if err != nil {
			return nil, err
		}
		filters = append(filters, next)
	}
	if len(filters) == 1 {
		return first, nil
	}
	return query.NewCompoundFilter(query.OpAnd, filters...), nil
}

func (p *parser) parseNotFilter() (query.Filter, error) {
	if p.accept(tokNot) {
		inner, err := p.parseNotFilter()
		if err != nil {
			return nil, err
		}
		return query.NewNegationFilter(inner), nil
	}
	return p.parsePredicate()
}

// parsePredicate handles the ambiguity between a parenthesized sub-filter
// and a parenthesized arithmetic operand: it first tries the sub-filter
// reading and backtracks to a comparison when that fails.
func (p *parser) parsePredicate() (query.Filter, error) {
	if p.cur().typ == tokLParen {
		save := p.pos
		p.advance()
		if f, err := p.parseOrFilter(); err == nil {
			if p.accept(tokRParen) {
				return f, nil
			}
		}
		p.pos = save
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (query.Filter, error) {
	left, err := p.parseColumn()
	if err != nil {
		return nil, err
	}
	if p.accept(tokIs) {
		negated := p.accept(tokNot)
		if _, err := p.expect(tokNull, "'null'"); err != nil {
			return nil, err
		}
		var f query.Filter = query.NewColumnIsNullFilter(left)
		if negated {
			f = query.NewNegationFilter(f)
		}
		return f, nil
	}
	op, err := p.parseComparisonOp()
	if err != nil {
		return nil, err
	}
	right, err := p.parseColumn()
	if err != nil {
		return nil, err
	}
	return buildComparison(left, right, op), nil
}

func (p *parser) parseComparisonOp() (query.ComparisonOp, error) {
	tok := p.advance()
	switch tok.typ {
	case tokEq:
		return query.OpEq, nil
	case tokNe:
		return query.OpNe, nil
	case tokLt:
		return query.OpLt, nil
	case tokLe:
		return query.OpLe, nil
	case tokGt:
		return query.OpGt, nil
	case tokGe:
		return query.OpGe, nil
	case tokContains:
		return query.OpContains, nil
	case tokMatches:
		return query.OpMatches, nil
	case tokLike:
		return query.OpLike, nil
	case tokStarts:
		if _, err := p.expect(tokWith, "'with'"); err != nil {
			return 0, err
		}
		return query.OpStartsWith, nil
	case tokEnds:
		if _, err := p.expect(tokWith, "'with'"); err != nil {
			return 0, err
		}
		return query.OpEndsWith, nil
	}
	return 0, p.syntaxError("expected a comparison operator, found %s", tok)
}

func buildComparison(left, right query.AbstractColumn, op query.ComparisonOp) query.Filter {
	if c, ok := right.(query.ConstantColumn); ok {
		return query.NewColumnValueFilter(left, c.ConstantValue(), op)
	}
	if c, ok := left.(query.ConstantColumn); ok {
		f := query.NewColumnValueFilter(right, c.ConstantValue(), op)
		f.Reversed = true
		return f
	}
	return query.NewColumnColumnFilter(left, right, op)
}
