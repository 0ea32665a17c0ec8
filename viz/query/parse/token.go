package parse

import "fmt"

type tokenType int

const (
	tokEOF tokenType = iota
	tokIdent
	tokQuotedIdent
	tokString
	tokNumber

	tokComma
	tokLParen
	tokRParen
	tokStar
	tokPlus
	tokMinus
	tokSlash

	tokEq
	tokNe
	tokLt
	tokLe
	tokGt
	tokGe

	tokSelect
	tokWhere
	tokGroup
	tokPivot
	tokOrder
	tokBy
	tokSkipping
	tokLimit
	tokOffset
	tokLabel
	tokFormat
	tokOptions
	tokAnd
	tokOr
	tokNot
	tokTrue
	tokFalse
	tokDate
	tokDateTime
	tokTimeOfDay
	tokContains
	tokStarts
	tokEnds
	tokWith
	tokMatches
	tokLike
	tokIs
	tokNull
	tokAsc
	tokDesc
)

// keywords maps the lowercase reserved words of the grammar to their token
// types. A column whose id collides with a reserved word must be written in
// backticks.
var keywords = map[string]tokenType{
	"select":    tokSelect,
	"where":     tokWhere,
	"group":     tokGroup,
	"pivot":     tokPivot,
	"order":     tokOrder,
	"by":        tokBy,
	"skipping":  tokSkipping,
	"limit":     tokLimit,
	"offset":    tokOffset,
	"label":     tokLabel,
	"format":    tokFormat,
	"options":   tokOptions,
	"and":       tokAnd,
	"or":        tokOr,
	"not":       tokNot,
	"true":      tokTrue,
	"false":     tokFalse,
	"date":      tokDate,
	"datetime":  tokDateTime,
	"timestamp": tokDateTime,
	"timeofday": tokTimeOfDay,
	"contains":  tokContains,
	"starts":    tokStarts,
	"ends":      tokEnds,
	"with":      tokWith,
	"matches":   tokMatches,
	"like":      tokLike,
	"is":        tokIs,
	"null":      tokNull,
	"asc":       tokAsc,
	"desc":      tokDesc,
}

type token struct {
	typ  tokenType
	text string
	pos  int
}

func (t token) String() string {
	switch t.typ {
	case tokEOF:
		return "end of query"
	case tokString:
		return fmt.Sprintf("%q", t.text)
	default:
		return "'" + t.text + "'"
	}
}
