// Package valuerange resolves the numeric domain a heatmap is colored over,
// from configured bounds and, for "auto" bounds, from the grid itself.
package valuerange

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind says where a bound's value comes from.
type Kind int

const (
	Unset Kind = iota
	Auto
	Fixed
)

const autoLiteral = "auto"

// Bound is a configured range limit: a number, "auto" or nothing.
type Bound struct {
	kind  Kind
	value float64
}

// AutoBound returns a bound resolved from observed data.
func AutoBound() Bound { return Bound{kind: Auto} }

// FixedBound returns a literal bound.
func FixedBound(v float64) Bound { return Bound{kind: Fixed, value: v} }

func (b Bound) Kind() Kind     { return b.kind }
func (b Bound) IsSet() bool    { return b.kind != Unset }
func (b Bound) IsAuto() bool   { return b.kind == Auto }
func (b Bound) Value() float64 { return b.value }

func (b Bound) String() string {
	switch b.kind {
	case Auto:
		return autoLiteral
	case Fixed:
		return strconv.FormatFloat(b.value, 'g', -1, 64)
	default:
		return ""
	}
}

// ParseBound accepts "auto", a number, or an empty string for unset.
func ParseBound(s string) (Bound, error) {
	switch s {
	case "":
		return Bound{}, nil
	case autoLiteral:
		return AutoBound(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Bound{}, fmt.Errorf("bound %q need to be either `auto` or a number", s)
	}
	return FixedBound(v), nil
}

func (b Bound) MarshalJSON() ([]byte, error) {
	switch b.kind {
	case Auto:
		return json.Marshal(autoLiteral)
	case Fixed:
		return json.Marshal(b.value)
	default:
		return []byte("null"), nil
	}
}

func (b *Bound) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = Bound{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != autoLiteral {
			return fmt.Errorf("bound %q need to be either `auto` or a number", s)
		}
		*b = AutoBound()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("bound %s need to be either `auto` or a number", data)
	}
	*b = FixedBound(v)
	return nil
}
