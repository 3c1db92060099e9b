package types

import (
	"encoding/json"
	"math"
	"strconv"
)

// OptFloat is a float that may be absent or infinite and still encodes to
// JSON: absent values become null and infinities become the strings
// "Infinity" / "-Infinity".
type OptFloat struct {
	Value float64
	Valid bool
}

// Some wraps v as a present value.
func Some(v float64) OptFloat { return OptFloat{Value: v, Valid: true} }

// None is the absent value.
func None() OptFloat { return OptFloat{} }

// IsInf reports whether the value is present and infinite with the given sign.
func (f OptFloat) IsInf(sign int) bool {
	return f.Valid && math.IsInf(f.Value, sign)
}

// Or returns the value when present and finite, otherwise def.
func (f OptFloat) Or(def float64) float64 {
	if !f.Valid || math.IsNaN(f.Value) || math.IsInf(f.Value, 0) {
		return def
	}
	return f.Value
}

func (f OptFloat) MarshalJSON() ([]byte, error) {
	switch {
	case !f.Valid || math.IsNaN(f.Value):
		return []byte("null"), nil
	case math.IsInf(f.Value, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(f.Value, -1):
		return []byte(`"-Infinity"`), nil
	}
	return []byte(strconv.FormatFloat(f.Value, 'g', -1, 64)), nil
}

func (f *OptFloat) UnmarshalJSON(data []byte) error {
	s := string(data)
	switch s {
	case "null":
		*f = None()
		return nil
	case `"Infinity"`:
		*f = Some(math.Inf(1))
		return nil
	case `"-Infinity"`:
		*f = Some(math.Inf(-1))
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Some(v)
	return nil
}
