package viz

import "strings"

// ValueType identifies the type of a Value and of every cell in a column.
type ValueType byte

const (
	TypeText ValueType = iota
	TypeNumber
	TypeBoolean
	TypeDate
	TypeDateTime
	TypeTimeOfDay
)

var typeNames = map[ValueType]string{
	TypeText:      "string",
	TypeNumber:    "number",
	TypeBoolean:   "boolean",
	TypeDate:      "date",
	TypeDateTime:  "datetime",
	TypeTimeOfDay: "timeofday",
}

// String returns the wire name of the type, as it appears in column
// descriptions of serialized responses.
func (t ValueType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "invalid"
}

// ParseValueType resolves a wire name back to a ValueType. Matching is
// case-insensitive and accepts "timestamp" as an alias for "datetime".
func ParseValueType(s string) (ValueType, bool) {
	switch strings.ToLower(s) {
	case "string", "text":
		return TypeText, true
	case "number":
		return TypeNumber, true
	case "boolean":
		return TypeBoolean, true
	case "date":
		return TypeDate, true
	case "datetime", "timestamp":
		return TypeDateTime, true
	case "timeofday":
		return TypeTimeOfDay, true
	}
	return TypeText, false
}

// Ordered reports whether values of the type carry a meaningful order for
// MIN and MAX aggregation. Booleans compare, but extremes of a boolean
// column are not considered meaningful aggregates.
func (t ValueType) Ordered() bool {
	return t != TypeBoolean
}
