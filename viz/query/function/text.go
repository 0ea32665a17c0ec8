package function

import (
	"strings"

	"github.com/chartdata/go-datasource/viz"
)

// textMap applies a string transform to one text argument.
type textMap struct {
	name  string
	apply func(string) string
}

func (f textMap) Name() string { return f.name }

func (f textMap) Validate(args []viz.ValueType) error {
	if err := exactArity(f.name, 1, len(args)); err != nil {
		return err
	}
	return argOneOf(f.name, 0, args[0], viz.TypeText)
}

func (f textMap) ReturnType([]viz.ValueType) viz.ValueType { return viz.TypeText }

func (f textMap) Apply(args []viz.Value) (viz.Value, error) {
	if args[0].IsNull() {
		return viz.NewNull(viz.TypeText), nil
	}
	return viz.NewText(f.apply(args[0].Text())), nil
}

func (f textMap) QueryString(args []string) string { return call(f.name, args) }

// concat joins any number of text arguments.
type concat struct{}

func (concat) Name() string { return "concat" }

func (concat) Validate(args []viz.ValueType) error {
	if len(args) < 1 {
		return ErrArityAtLeast.New("concat", 1, len(args))
	}
	for i, a := range args {
		if err := argOneOf("concat", i, a, viz.TypeText); err != nil {
			return err
		}
	}
	return nil
}

func (concat) ReturnType([]viz.ValueType) viz.ValueType { return viz.TypeText }

func (concat) Apply(args []viz.Value) (viz.Value, error) {
	if anyNull(args) {
		return viz.NewNull(viz.TypeText), nil
	}
	var b strings.Builder
	for _, a := range args {
		b.WriteString(a.Text())
	}
	return viz.NewText(b.String()), nil
}

func (concat) QueryString(args []string) string { return call("concat", args) }
