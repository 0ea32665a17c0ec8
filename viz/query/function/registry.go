// Package function implements the fixed scalar function catalog of the
// query language. The catalog is process-wide and immutable.
package function

import (
	"strings"

	"github.com/chartdata/go-datasource/viz"
	"github.com/chartdata/go-datasource/viz/query"
	errors "gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrArity is returned when a function is applied to the wrong number
	// of arguments.
	ErrArity = errors.NewKind("%s takes %d arguments, got %d")
	// ErrArityAtLeast is returned by variadic functions applied to too few
	// arguments.
	ErrArityAtLeast = errors.NewKind("%s takes at least %d argument, got %d")
	// ErrArgType is returned when an argument type does not match the
	// function signature.
	ErrArgType = errors.NewKind("%s argument %d must be %s, got %s")
)

var catalog = map[string]query.ScalarFunction{}

func register(fns ...query.ScalarFunction) {
	for _, fn := range fns {
		catalog[strings.ToLower(fn.Name())] = fn
	}
}

func init() {
	register(
		now{},
		toDate{},
		timeComponent{name: "year", kinds: dateKinds},
		timeComponent{name: "month", kinds: dateKinds},
		timeComponent{name: "day", kinds: dateKinds},
		timeComponent{name: "quarter", kinds: dateKinds},
		timeComponent{name: "dayOfWeek", kinds: dateKinds},
		timeComponent{name: "hour", kinds: clockKinds},
		timeComponent{name: "minute", kinds: clockKinds},
		timeComponent{name: "second", kinds: clockKinds},
		timeComponent{name: "millisecond", kinds: clockKinds},
		dateDiff{},
		textMap{name: "lower", apply: strings.ToLower},
		textMap{name: "upper", apply: strings.ToUpper},
		concat{},
		arithmetic{name: "sum", symbol: "+"},
		arithmetic{name: "difference", symbol: "-"},
		arithmetic{name: "product", symbol: "*"},
		arithmetic{name: "quotient", symbol: "/"},
	)
}

// Lookup resolves a function name, case-insensitively.
func Lookup(name string) (query.ScalarFunction, bool) {
	fn, ok := catalog[strings.ToLower(name)]
	return fn, ok
}

// ByOperator resolves an infix arithmetic operator to its function.
func ByOperator(symbol string) (query.ScalarFunction, bool) {
	switch symbol {
	case "+":
		return catalog["sum"], true
	case "-":
		return catalog["difference"], true
	case "*":
		return catalog["product"], true
	case "/":
		return catalog["quotient"], true
	}
	return nil, false
}

// Names returns the catalog function names, for suggestions in parse
// errors.
func Names() []string {
	out := make([]string, 0, len(catalog))
	for name := range catalog {
		out = append(out, name)
	}
	return out
}

func call(name string, args []string) string {
	return name + "(" + strings.Join(args, ", ") + ")"
}

func exactArity(name string, want, got int) error {
	if got != want {
		return ErrArity.New(name, want, got)
	}
	return nil
}

func argOneOf(name string, pos int, got viz.ValueType, want ...viz.ValueType) error {
	for _, t := range want {
		if got == t {
			return nil
		}
	}
	names := make([]string, len(want))
	for i, t := range want {
		names[i] = t.String()
	}
	return ErrArgType.New(name, pos, strings.Join(names, " or "), got)
}

func anyNull(args []viz.Value) bool {
	for _, a := range args {
		if a.IsNull() {
			return true
		}
	}
	return false
}
