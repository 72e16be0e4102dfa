package unit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    MassUnit
		wantErr bool
	}{
		{name: "gram", input: "g", want: Gram},
		{name: "kilogram", input: "kg", want: Kilogram},
		{name: "ounce", input: "oz", want: Ounce},
		{name: "pound", input: "lb", want: Pound},
		{name: "surrounding whitespace", input: " kg ", want: Kilogram},
		{name: "unknown unit", input: "stone", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "uppercase is not accepted", input: "KG", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		from   MassUnit
		to     MassUnit
		want   float64
	}{
		{name: "kg to g", amount: 2, from: Kilogram, to: Gram, want: 2000},
		{name: "g to kg", amount: 500, from: Gram, to: Kilogram, want: 0.5},
		{name: "lb to g", amount: 1, from: Pound, to: Gram, want: 453.592},
		{name: "oz to g", amount: 2, from: Ounce, to: Gram, want: 56.699},
		{name: "identity", amount: 3.5, from: Kilogram, to: Kilogram, want: 3.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Convert(tt.amount, tt.from, tt.to), 1e-9)
		})
	}
}

func TestConvertRoundTrip(t *testing.T) {
	units := []MassUnit{Gram, Kilogram, Ounce, Pound}
	amounts := []float64{0.001, 1, 2.5, 1000, 12345.678}

	for _, from := range units {
		for _, to := range units {
			for _, amount := range amounts {
				back := Convert(Convert(amount, from, to), to, from)
				assert.InEpsilon(t, amount, back, 1e-9,
					"round trip %v %s -> %s", amount, from, to)
			}
		}
	}
}

func TestToGrams(t *testing.T) {
	got, err := Kilogram.ToGrams(1.5)
	require.NoError(t, err)
	assert.InDelta(t, 1500, got, 1e-9)

	_, err = Gram.ToGrams(math.NaN())
	require.Error(t, err)

	_, err = Gram.ToGrams(math.Inf(1))
	require.Error(t, err)

	_, err = MassUnit("stone").ToGrams(1)
	require.Error(t, err)
}

func TestRound2(t *testing.T) {
	tests := []struct {
		input float64
		want  float64
	}{
		{input: 3.14159, want: 3.14},
		{input: 2.718, want: 2.72},
		{input: 10.445001, want: 10.45},
		{input: -1.006, want: -1.01},
		{input: 0, want: 0},
		{input: 19.999, want: 20},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, Round2(tt.input), 1e-12, "Round2(%v)", tt.input)
	}
}

func TestUnitPrice(t *testing.T) {
	assert.InDelta(t, 5, UnitPrice(10, 2), 1e-9)
	assert.InDelta(t, 0.01, UnitPrice(10, 1000), 1e-9)
}
