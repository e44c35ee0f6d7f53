// Package expr implements the typed expression language used to write
// relational assertions (invariants and when-clauses) over configuration
// Variables, and the compiler that lowers those expressions to SMT atoms.
package expr

import "fmt"

// Kind identifies the runtime type carried by a Value or held by a Variable's
// value slot.
type Kind int

const (
	Str Kind = iota
	Bool
	Int
	Real
)

func (k Kind) String() string {
	switch k {
	case Str:
		return "str"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Real:
		return "real"
	default:
		return "unknown"
	}
}

// Value is a tagged union over the four value kinds the engine supports.
// The zero Value is not meaningful; use the constructors below.
type Value struct {
	Kind Kind
	Str  string
	Bool bool
	Int  int64
	Real float64
}

func StringVal(s string) Value { return Value{Kind: Str, Str: s} }
func BoolVal(b bool) Value     { return Value{Kind: Bool, Bool: b} }
func IntVal(i int64) Value     { return Value{Kind: Int, Int: i} }
func RealVal(r float64) Value  { return Value{Kind: Real, Real: r} }

// Equal reports whether two Values of the same Kind carry the same payload.
// Values of differing Kind are never equal.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case Str:
		return v.Str == o.Str
	case Bool:
		return v.Bool == o.Bool
	case Int:
		return v.Int == o.Int
	case Real:
		return v.Real == o.Real
	default:
		return false
	}
}

// Less reports whether v is ordered strictly before o. Only numeric kinds
// (Int, Real) support ordering; Less panics if either Value is not numeric
// or the Kinds differ, which indicates a compiler bug rather than user
// input (callers must type-check comparisons before reaching this point).
func (v Value) Less(o Value) bool {
	if v.Kind != o.Kind {
		panic(fmt.Sprintf("expr: cannot compare values of kind %s and %s", v.Kind, o.Kind))
	}
	switch v.Kind {
	case Int:
		return v.Int < o.Int
	case Real:
		return v.Real < o.Real
	default:
		panic(fmt.Sprintf("expr: kind %s does not support ordering", v.Kind))
	}
}

func (v Value) Numeric() bool { return v.Kind == Int || v.Kind == Real }

func (v Value) String() string {
	switch v.Kind {
	case Str:
		return v.Str
	case Bool:
		if v.Bool {
			return "True"
		}
		return "False"
	case Int:
		return fmt.Sprintf("%d", v.Int)
	case Real:
		return fmt.Sprintf("%g", v.Real)
	default:
		return "<invalid>"
	}
}

// Key returns a string uniquely identifying this Value among Values of the
// same Kind, suitable for use as a map key when interning atoms.
func (v Value) Key() string {
	return fmt.Sprintf("%d:%s", v.Kind, v.String())
}
