package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

var iqrMultiplier = decimal.RequireFromString("1.5")

// FilterOutliers drops candidates outside [Q1 - 1.5*IQR, Q3 + 1.5*IQR].
// Q1 is sorted[n/4] and Q3 is sorted[ceil(3n/4)], capped at the last index.
// Two or fewer values are kept as is, and an empty result falls back to the
// input. The returned slice is sorted ascending unless it is the fallback.
func FilterOutliers(values []decimal.Decimal) []decimal.Decimal {
	n := len(values)
	if n <= 2 {
		return append([]decimal.Decimal(nil), values...)
	}

	sorted := make([]decimal.Decimal, n)
	copy(sorted, values)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LessThan(sorted[j])
	})

	// with n=5 a lone high outlier is Q3 itself and stays in the set
	q3Idx := (3*n + 3) / 4
	if q3Idx > n-1 {
		q3Idx = n - 1
	}
	q1 := sorted[n/4]
	q3 := sorted[q3Idx]
	iqr := q3.Sub(q1)
	lower := q1.Sub(iqr.Mul(iqrMultiplier))
	upper := q3.Add(iqr.Mul(iqrMultiplier))

	filtered := make([]decimal.Decimal, 0, n)
	for _, v := range sorted {
		if v.LessThan(lower) || v.GreaterThan(upper) {
			continue
		}
		filtered = append(filtered, v)
	}
	if len(filtered) == 0 {
		return append([]decimal.Decimal(nil), values...)
	}
	return filtered
}

// Mean returns the arithmetic mean, zero for an empty slice.
func Mean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	return sum.DivRound(decimal.NewFromInt(int64(len(values))), Scale)
}
