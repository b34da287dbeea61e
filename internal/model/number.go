// Package model defines the core data structures for the clearance engine.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Number is a numeric field that may also be blank.
// Blank numbers behave as zero in arithmetic and in rule comparisons.
type Number struct {
	value float64
	valid bool
}

// Num returns a non-blank Number.
func Num(v float64) Number {
	return Number{value: v, valid: true}
}

// Blank returns a blank Number.
func Blank() Number {
	return Number{}
}

// ParseNumber coerces free text into a Number. Thousand separators are ignored and
// unparseable, empty or non-finite input ("NaN", "Inf") yields a blank Number.
func ParseNumber(s string) Number {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return Blank()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Blank()
	}
	return finite(v)
}

func finite(v float64) Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Blank()
	}
	return Num(v)
}

// Float returns the value, or 0 when blank.
func (n Number) Float() float64 {
	if !n.valid {
		return 0
	}
	return n.value
}

// IsBlank reports whether the number has no value.
func (n Number) IsBlank() bool {
	return !n.valid
}

// IsPositive reports whether the number is set and greater than zero.
func (n Number) IsPositive() bool {
	return n.valid && n.value > 0
}

// Add sums two numbers. The result is blank only when both operands are blank.
func (n Number) Add(o Number) Number {
	if !n.valid && !o.valid {
		return Blank()
	}
	return finite(n.Float() + o.Float())
}

// String renders the number without trailing zeros; blank renders as "".
func (n Number) String() string {
	if !n.valid {
		return ""
	}
	return strconv.FormatFloat(n.value, 'f', -1, 64)
}

// MarshalJSON encodes blank as null.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.value)
}

// UnmarshalJSON accepts numbers, numeric strings, "" and null.
func (n *Number) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*n = Blank()
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to decode number: %w", err)
		}
		*n = ParseNumber(s)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("failed to decode number: %w", err)
	}
	*n = finite(v)
	return nil
}

// MarshalYAML encodes blank as null.
func (n Number) MarshalYAML() (any, error) {
	if !n.valid {
		return nil, nil
	}
	return n.value, nil
}

// UnmarshalYAML accepts scalars of any tag and coerces them like ParseNumber.
func (n *Number) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar number", node.Line)
	}
	if node.Tag == "!!null" {
		*n = Blank()
		return nil
	}
	*n = ParseNumber(node.Value)
	return nil
}
