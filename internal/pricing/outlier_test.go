package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func decimals(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = d(v)
	}
	return out
}

func TestFilterOutliers(t *testing.T) {
	tests := []struct {
		name string
		in   []decimal.Decimal
		want []decimal.Decimal
	}{
		{name: "empty", in: nil, want: nil},
		{name: "two kept", in: decimals("1", "1000"), want: decimals("1", "1000")},
		{name: "low outlier of five", in: decimals("1", "1.02", "0.01", "0.98", "1"), want: decimals("0.98", "1", "1", "1.02")},
		{name: "high outlier of five is q3", in: decimals("1", "100", "1", "1", "1"), want: decimals("1", "1", "1", "1", "100")},
		{name: "high outlier of eight", in: decimals("1", "1", "1.1", "0.9", "1", "100", "1", "1"), want: decimals("0.9", "1", "1", "1", "1", "1", "1.1")},
		{name: "tight set unchanged", in: decimals("3", "1", "2"), want: decimals("1", "2", "3")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterOutliers(tt.in)
			require.Len(t, got, len(tt.want))
			for i := range got {
				assert.True(t, got[i].Equal(tt.want[i]), "index %d: got %s want %s", i, got[i], tt.want[i])
			}
		})
	}
}

func TestFilterOutliersDoesNotMutateInput(t *testing.T) {
	in := decimals("5", "1", "3", "2")
	FilterOutliers(in)
	assert.Equal(t, decimals("5", "1", "3", "2"), in)
}

func TestFilterOutliersNeverEmpty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.SliceOfN(rapid.Int64Range(-1_000_000, 1_000_000), 1, 40).Draw(t, "values")
		values := make([]decimal.Decimal, len(raw))
		for i, v := range raw {
			values[i] = decimal.New(v, -3)
		}

		filtered := FilterOutliers(values)
		if len(filtered) == 0 || len(filtered) > len(values) {
			t.Fatalf("filtered %d of %d", len(filtered), len(values))
		}
		mean := Mean(filtered)
		lo, hi := filtered[0], filtered[0]
		for _, v := range filtered {
			lo = decimal.Min(lo, v)
			hi = decimal.Max(hi, v)
		}
		if mean.LessThan(lo) || mean.GreaterThan(hi) {
			t.Fatalf("mean %s outside [%s, %s]", mean, lo, hi)
		}
	})
}

func TestMean(t *testing.T) {
	assert.True(t, Mean(nil).IsZero())
	assert.True(t, Mean(decimals("1", "2")).Equal(d("1.5")))
	assert.True(t, Mean(decimals("1", "1", "2")).Equal(d("1.333333333333333333")))
}
