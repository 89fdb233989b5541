package spreadsheet

import "strconv"

// Value is the tagged union a cell or an evaluated formula produces:
// exactly one of Number, Text, or Err is meaningful, selected by Kind.
// Go has no sum types; this module follows the teacher's own plain-switch
// style (see its CellType dispatch) rather than reaching for an
// interface{}-typed Primitive, since the set of arms is closed and small.
type Value struct {
	Kind ValueKind
	Num  float64
	Text string
	Err  *FormulaError
}

// ValueKind discriminates Value's arms.
type ValueKind uint8

const (
	ValueNumber ValueKind = iota
	ValueText
	ValueErr
)

// NumberValue builds a numeric Value.
func NumberValue(n float64) Value { return Value{Kind: ValueNumber, Num: n} }

// TextValue builds a textual Value.
func TextValue(s string) Value { return Value{Kind: ValueText, Text: s} }

// ErrValue builds an error-carrying Value.
func ErrValue(cat FormulaErrorCategory) Value {
	return Value{Kind: ValueErr, Err: &FormulaError{Category: cat}}
}

// Render formats the value the way Sheet.PrintValues emits it: the
// platform's default float formatting for numbers, the raw string for
// text, and the error's literal sentinel for an error.
func (v Value) Render() string {
	switch v.Kind {
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case ValueText:
		return v.Text
	case ValueErr:
		return v.Err.String()
	default:
		return ""
	}
}
