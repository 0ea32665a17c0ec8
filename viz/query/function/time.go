package function

import (
	"time"

	"github.com/chartdata/go-datasource/viz"
)

var (
	dateKinds  = []viz.ValueType{viz.TypeDate, viz.TypeDateTime}
	clockKinds = []viz.ValueType{viz.TypeDateTime, viz.TypeTimeOfDay}
)

// now returns the current GMT datetime, truncated to milliseconds.
type now struct{}

func (now) Name() string { return "now" }

func (now) Validate(args []viz.ValueType) error {
	return exactArity("now", 0, len(args))
}

func (now) ReturnType([]viz.ValueType) viz.ValueType { return viz.TypeDateTime }

func (now) Apply([]viz.Value) (viz.Value, error) {
	return viz.NewDateTime(time.Now().UTC())
}

func (now) QueryString(args []string) string { return call("now", args) }

// toDate converts its argument to a date: identity on dates, the date part
// of a datetime, and for numbers the GMT date of that millisecond epoch
// offset.
type toDate struct{}

func (toDate) Name() string { return "toDate" }

func (toDate) Validate(args []viz.ValueType) error {
	if err := exactArity("toDate", 1, len(args)); err != nil {
		return err
	}
	return argOneOf("toDate", 0, args[0], viz.TypeDate, viz.TypeDateTime, viz.TypeNumber)
}

func (toDate) ReturnType([]viz.ValueType) viz.ValueType { return viz.TypeDate }

func (toDate) Apply(args []viz.Value) (viz.Value, error) {
	v := args[0]
	if v.IsNull() {
		return viz.NewNull(viz.TypeDate), nil
	}
	switch v.Type() {
	case viz.TypeDate:
		return v, nil
	case viz.TypeDateTime:
		y, m, d := v.Time().Date()
		return viz.NewDateOf(y, m, d), nil
	default:
		return viz.NewDate(time.UnixMilli(int64(v.Number())).UTC())
	}
}

func (toDate) QueryString(args []string) string { return call("toDate", args) }

// timeComponent extracts one calendar or clock component as a number. The
// month is zero based and the day of week runs 1 (Sunday) through 7, both
// matching the wire protocol.
type timeComponent struct {
	name  string
	kinds []viz.ValueType
}

func (f timeComponent) Name() string { return f.name }

func (f timeComponent) Validate(args []viz.ValueType) error {
	if err := exactArity(f.name, 1, len(args)); err != nil {
		return err
	}
	return argOneOf(f.name, 0, args[0], f.kinds...)
}

func (f timeComponent) ReturnType([]viz.ValueType) viz.ValueType { return viz.TypeNumber }

func (f timeComponent) Apply(args []viz.Value) (viz.Value, error) {
	v := args[0]
	if v.IsNull() {
		return viz.NewNull(viz.TypeNumber), nil
	}
	t := v.Time()
	var n int
	switch f.name {
	case "year":
		n = t.Year()
	case "month":
		n = int(t.Month()) - 1
	case "day":
		n = t.Day()
	case "quarter":
		n = (int(t.Month())-1)/3 + 1
	case "dayOfWeek":
		n = int(t.Weekday()) + 1
	case "hour":
		n = t.Hour()
	case "minute":
		n = t.Minute()
	case "second":
		n = t.Second()
	case "millisecond":
		n = t.Nanosecond() / 1e6
	}
	return viz.NewNumber(float64(n)), nil
}

func (f timeComponent) QueryString(args []string) string { return call(f.name, args) }

// dateDiff returns the whole number of days between the date parts of its
// arguments, first minus second.
type dateDiff struct{}

func (dateDiff) Name() string { return "datediff" }

func (dateDiff) Validate(args []viz.ValueType) error {
	if err := exactArity("datediff", 2, len(args)); err != nil {
		return err
	}
	for i, a := range args {
		if err := argOneOf("datediff", i, a, viz.TypeDate, viz.TypeDateTime); err != nil {
			return err
		}
	}
	return nil
}

func (dateDiff) ReturnType([]viz.ValueType) viz.ValueType { return viz.TypeNumber }

func (dateDiff) Apply(args []viz.Value) (viz.Value, error) {
	if anyNull(args) {
		return viz.NewNull(viz.TypeNumber), nil
	}
	a := dateOnly(args[0].Time())
	b := dateOnly(args[1].Time())
	days := a.Sub(b) / (24 * time.Hour)
	return viz.NewNumber(float64(days)), nil
}

func (dateDiff) QueryString(args []string) string { return call("datediff", args) }

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
