// Package scoring turns raw per-player quantities into 0..100 scores and
// combines them into the Composite Leadership Value (CLV).
//
// All arithmetic is null-safe: an absent score is a nil *float64, and the
// only places that collapse absence into numbers are the primitives below.
package scoring

import "math"

const maxScore = 100.0

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Finite returns v and true when v is a real number; NaN and ±Inf yield (0, false).
func Finite(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// SafeNumber collapses a nil or non-finite value into zero.
func SafeNumber(v *float64) float64 {
	if v == nil {
		return 0
	}
	f, _ := Finite(*v)
	return f
}

// Present returns v when it is non-nil and finite, nil otherwise.
func Present(v *float64) *float64 {
	if v == nil {
		return nil
	}
	if f, ok := Finite(*v); ok {
		return &f
	}
	return nil
}

// Clamp bounds v to [lo, hi]; non-finite values clamp to lo.
func Clamp(v, lo, hi float64) float64 {
	f, ok := Finite(v)
	if !ok {
		return lo
	}
	return math.Max(lo, math.Min(hi, f))
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// NormalizeRange scales value linearly from [min, max] onto [0, 100], clamped.
// A nil value yields nil. When the population is degenerate (min == max) the
// result is 100 for a non-zero max and 0 otherwise.
func NormalizeRange(value *float64, min, max float64) *float64 {
	v := Present(value)
	if v == nil {
		return nil
	}
	if max == min {
		if max != 0 {
			return Float(maxScore)
		}
		return Float(0)
	}
	return Float(Clamp((*v-min)/(max-min)*maxScore, 0, maxScore))
}

// Weighted is one (score, weight) term of a weighted average.
type Weighted struct {
	Score  *float64
	Weight float64
}

// WeightedAverage divides the weighted sum by the sum of weights, skipping
// terms whose score is absent or whose weight is not positive. With no
// usable terms it returns 0, never nil.
func WeightedAverage(terms []Weighted) float64 {
	var sum, total float64
	for _, t := range terms {
		s := Present(t.Score)
		w, ok := Finite(t.Weight)
		if s == nil || !ok || w <= 0 {
			continue
		}
		sum += *s * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return sum / total
}
