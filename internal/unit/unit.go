package unit

import (
	"fmt"
	"math"
	"strings"
)

// MassUnit is the closed set of mass units a listing may price in. All
// conversions route through grams as the canonical unit.
type MassUnit string

const (
	Gram     MassUnit = "g"
	Kilogram MassUnit = "kg"
	Ounce    MassUnit = "oz"
	Pound    MassUnit = "lb"
)

var gramsPer = map[MassUnit]float64{
	Gram:     1,
	Kilogram: 1000,
	Ounce:    28.3495,
	Pound:    453.592,
}

func Parse(s string) (MassUnit, error) {
	u := MassUnit(strings.TrimSpace(s))
	if _, ok := gramsPer[u]; !ok {
		return "", fmt.Errorf("invalid mass unit: %q", s)
	}
	return u, nil
}

func (u MassUnit) String() string {
	return string(u)
}

// ToGrams converts amount expressed in u to grams. Non-finite amounts are
// rejected so that a poisoned tag value cannot propagate NaN into totals.
func (u MassUnit) ToGrams(amount float64) (float64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("invalid mass amount: %v", amount)
	}
	factor, ok := gramsPer[u]
	if !ok {
		return 0, fmt.Errorf("invalid mass unit: %q", string(u))
	}
	return amount * factor, nil
}

// Convert re-expresses amount from one unit in another, via grams.
func Convert(amount float64, from, to MassUnit) float64 {
	return amount * gramsPer[from] / gramsPer[to]
}

// Round2 rounds a monetary amount to two decimals, half away from zero on
// the scaled integer.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// UnitPrice is the price of one quantity unit for a tier priced as
// amount per quantityAmount units.
func UnitPrice(amount, quantityAmount float64) float64 {
	return amount / quantityAmount
}
