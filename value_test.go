package spreadsheet

import "testing"

func TestValueRender(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want string
	}{
		{"number", NumberValue(3.5), "3.5"},
		{"integral number", NumberValue(3), "3"},
		{"text", TextValue("hi"), "hi"},
		{"ref error", ErrValue(FormulaErrorRef), "#REF!"},
		{"value error", ErrValue(FormulaErrorValue), "#VALUE!"},
		{"arithmetic error", ErrValue(FormulaErrorArithmetic), "#ARITHM!"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.v.Render(); got != c.want {
				t.Errorf("Render() = %q, want %q", got, c.want)
			}
		})
	}
}

func TestFormulaErrorString(t *testing.T) {
	e := &FormulaError{Category: FormulaErrorValue}
	if got := e.String(); got != "#VALUE!" {
		t.Errorf("String() = %q, want %q", got, "#VALUE!")
	}
	if got := e.Error(); got != "#VALUE!" {
		t.Errorf("Error() = %q, want %q", got, "#VALUE!")
	}
}
