package query

import "github.com/chartdata/go-datasource/viz"

// ScalarFunction is one entry of the fixed scalar function catalog. A
// function is pure: its value on a row depends only on its evaluated
// arguments.
//
// Unless a function documents otherwise, implementations return the null of
// their return type when any argument is null.
type ScalarFunction interface {
	// Name returns the lowercase function name used in query syntax and in
	// structural column ids.
	Name() string
	// Validate checks the argument column types against the function
	// signature.
	Validate(args []viz.ValueType) error
	// ReturnType returns the result type for the given argument types,
	// which must have passed Validate.
	ReturnType(args []viz.ValueType) viz.ValueType
	// Apply evaluates the function.
	Apply(args []viz.Value) (viz.Value, error)
	// QueryString renders an application of the function over the already
	// rendered arguments: call syntax for most functions, infix for the
	// arithmetic ones.
	QueryString(args []string) string
}
