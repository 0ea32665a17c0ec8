package function

import "github.com/chartdata/go-datasource/viz"

// arithmetic implements the four binary number functions. They render in
// infix form: sum(a, b) prints as (a + b).
type arithmetic struct {
	name   string
	symbol string
}

func (f arithmetic) Name() string { return f.name }

func (f arithmetic) Validate(args []viz.ValueType) error {
	if err := exactArity(f.name, 2, len(args)); err != nil {
		return err
	}
	for i, a := range args {
		if err := argOneOf(f.name, i, a, viz.TypeNumber); err != nil {
			return err
		}
	}
	return nil
}

func (f arithmetic) ReturnType([]viz.ValueType) viz.ValueType { return viz.TypeNumber }

// Apply evaluates the operation. Quotient of a division by zero is null.
func (f arithmetic) Apply(args []viz.Value) (viz.Value, error) {
	if anyNull(args) {
		return viz.NewNull(viz.TypeNumber), nil
	}
	a, b := args[0].Number(), args[1].Number()
	switch f.symbol {
	case "+":
		return viz.NewNumber(a + b), nil
	case "-":
		return viz.NewNumber(a - b), nil
	case "*":
		return viz.NewNumber(a * b), nil
	default:
		if b == 0 {
			return viz.NewNull(viz.TypeNumber), nil
		}
		return viz.NewNumber(a / b), nil
	}
}

func (f arithmetic) QueryString(args []string) string {
	return "(" + args[0] + " " + f.symbol + " " + args[1] + ")"
}
