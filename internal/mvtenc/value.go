package mvtenc

import (
	"encoding/json"
	"strconv"
)

// ValueKind tags the variant held by a TypedValue.
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueBool
	ValueInt
	ValueUint
	ValueDouble
	ValueString
)

// TypedValue is the tagged union over the MVT Value wire message's variants.
// Equality for dictionary deduplication is structural: same tag, same
// payload. Numeric tags are never collapsed — int64(1) and float64(1.0) are
// distinct dictionary entries (spec.md §9).
type TypedValue struct {
	Kind   ValueKind
	Bool   bool
	Int    int64
	Uint   uint64
	Double float64
	String string
}

// Equal reports structural equality, used by the layer assembler's
// find-or-insert dictionary lookup.
func (v TypedValue) Equal(other TypedValue) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case ValueBool:
		return v.Bool == other.Bool
	case ValueInt:
		return v.Int == other.Int
	case ValueUint:
		return v.Uint == other.Uint
	case ValueDouble:
		return v.Double == other.Double
	case ValueString:
		return v.String == other.String
	default:
		return true // ValueNull
	}
}

// TypedValueFromJSON converts a decoded JSON value into a TypedValue. Rows
// must be decoded with json.Decoder.UseNumber so that numeric literals that
// look integral but were written with a decimal point (e.g. "1.0") are still
// routed to the double variant, matching the "int 1 != double 1.0" invariant
// in spec.md §9. Arrays and objects are not representable and the caller
// should skip the property entirely, signalled by ok == false.
func TypedValueFromJSON(v interface{}) (TypedValue, bool) {
	switch val := v.(type) {
	case nil:
		return TypedValue{}, false
	case bool:
		return TypedValue{Kind: ValueBool, Bool: val}, true
	case string:
		return TypedValue{Kind: ValueString, String: val}, true
	case json.Number:
		return typedValueFromNumber(val)
	default:
		return TypedValue{}, false
	}
}

// typedValueFromNumber dispatches per spec.md §4.6: if the literal fits i64
// use int, else if it fits u64 use uint, else fall back to double.
func typedValueFromNumber(n json.Number) (TypedValue, bool) {
	s := n.String()
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return TypedValue{Kind: ValueInt, Int: i}, true
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return TypedValue{Kind: ValueUint, Uint: u}, true
	}
	f, err := n.Float64()
	if err != nil {
		return TypedValue{}, false
	}
	return TypedValue{Kind: ValueDouble, Double: f}, true
}
