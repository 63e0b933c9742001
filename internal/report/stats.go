package report

import (
	"math"
)

// Quartiles returns Q1 and Q3 of an ascending slice using floor-indexed
// positions: Q1 = sorted[n/4], Q3 = sorted[3n/4]. No interpolation.
// It panics on an empty slice.
func Quartiles(sorted []int) (q1, q3 int) {
	n := len(sorted)
	return sorted[n/4], sorted[3*n/4]
}

// Bounds are the inclusive limits of the non-outlier range.
type Bounds struct {
	Q1, Q3 int
	IQR    int
	Lower  float64
	Upper  float64
}

// IQRBounds computes the boxplot fences [Q1-1.5·IQR, Q3+1.5·IQR] for an
// ascending slice.
func IQRBounds(sorted []int) Bounds {
	q1, q3 := Quartiles(sorted)
	iqr := q3 - q1
	return Bounds{
		Q1:    q1,
		Q3:    q3,
		IQR:   iqr,
		Lower: float64(q1) - 1.5*float64(iqr),
		Upper: float64(q3) + 1.5*float64(iqr),
	}
}

// Outliers returns the values strictly outside b, in input order.
func (b Bounds) Outliers(values []int) []int {
	var out []int
	for _, v := range values {
		if f := float64(v); f < b.Lower || f > b.Upper {
			out = append(out, v)
		}
	}
	return out
}

// SturgesK returns the number of classes for n observations,
// round(1 + 3.322·log10(n)), rounding halves to even. n must be positive.
func SturgesK(n int) int {
	return int(math.RoundToEven(1 + 3.322*math.Log10(float64(n))))
}

// ClassWidth returns ceil(span/k), never less than 1.
func ClassWidth(span, k int) int {
	if k <= 0 {
		return 1
	}
	w := int(math.Ceil(float64(span) / float64(k)))
	if w < 1 {
		w = 1
	}
	return w
}

// Interval is an inclusive integer range.
type Interval struct {
	Lo, Hi int
}

// Contains reports whether v lies in [Lo, Hi].
func (iv Interval) Contains(v int) bool { return iv.Lo <= v && v <= iv.Hi }

// Intervals builds k contiguous intervals of the given width starting at
// min. The last one may end past the data maximum, or before it when the
// span is an exact multiple of k.
func Intervals(min, width, k int) []Interval {
	out := make([]Interval, k)
	lo := min
	for i := range out {
		hi := lo + width - 1
		out[i] = Interval{Lo: lo, Hi: hi}
		lo = hi + 1
	}
	return out
}

// Bin returns the index of the first interval containing v, or -1.
func Bin(ivs []Interval, v int) int {
	for i, iv := range ivs {
		if iv.Contains(v) {
			return i
		}
	}
	return -1
}

// AgeBands are the fixed 5-year bands [0,4], [5,9] ... [100,104].
func AgeBands() []Interval {
	return Intervals(0, 5, 21)
}

// Percent returns part/total*100, or 0 when total is 0.
func Percent(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// argmax returns the index of the first maximum, or -1 for an empty slice.
func argmax[T int64 | float64](xs []T) int {
	best := -1
	for i, x := range xs {
		if best < 0 || x > xs[best] {
			best = i
		}
	}
	return best
}
