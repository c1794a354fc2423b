package bitvec

import "fmt"

// Counts holds the four cells of the 2x2 contingency table for a vector
// pair: A positions set in both, B set only in x, C set only in y, D set in
// neither. Fields are float64 so measure formulas divide without casts.
type Counts struct {
	A float64
	B float64
	C float64
	D float64
}

// N returns the number of counted positions, a+b+c+d.
func (c Counts) N() float64 {
	return c.A + c.B + c.C + c.D
}

// Count tabulates the contingency table for x and y. The vectors must be
// non-empty and of equal length.
func Count(x, y Vector) (Counts, error) {
	return CountMasked(x, y, nil)
}

// CountMasked tabulates the contingency table for x and y over the
// positions where mask is set; positions where mask is clear are excluded
// from all four cells. A nil mask counts every position. The mask, when
// present, must match the vector length. A mask covering no positions
// yields all-zero Counts.
func CountMasked(x, y, mask Vector) (Counts, error) {
	n := x.Len()
	if n == 0 {
		return Counts{}, ErrEmptyVector
	}
	if y.Len() != n {
		return Counts{}, fmt.Errorf("%w: x has %d bits, y has %d", ErrLengthMismatch, n, y.Len())
	}
	if mask != nil && mask.Len() != n {
		return Counts{}, fmt.Errorf("%w: vectors have %d bits, mask has %d", ErrLengthMismatch, n, mask.Len())
	}

	px, okx := x.(Packed)
	py, oky := y.(Packed)
	if okx && oky && px.bits != nil && py.bits != nil {
		if mask == nil {
			return countPacked(px, py), nil
		}
		if pm, ok := mask.(Packed); ok && pm.bits != nil {
			return countPackedMasked(px, py, pm), nil
		}
	}
	return countGeneric(x, y, mask, n), nil
}

// countPacked uses word-level popcounts instead of per-bit tests.
func countPacked(x, y Packed) Counts {
	a := float64(x.bits.IntersectionCardinality(y.bits))
	b := float64(x.bits.DifferenceCardinality(y.bits))
	c := float64(y.bits.DifferenceCardinality(x.bits))
	d := float64(x.Len()) - a - b - c
	return Counts{A: a, B: b, C: c, D: d}
}

func countPackedMasked(x, y, mask Packed) Counts {
	mx := x.bits.Intersection(mask.bits)
	my := y.bits.Intersection(mask.bits)
	n := float64(mask.bits.Count())
	a := float64(mx.IntersectionCardinality(my))
	b := float64(mx.DifferenceCardinality(my))
	c := float64(my.DifferenceCardinality(mx))
	return Counts{A: a, B: b, C: c, D: n - a - b - c}
}

func countGeneric(x, y, mask Vector, n int) Counts {
	var counts Counts
	for i := 0; i < n; i++ {
		if mask != nil && !mask.Test(i) {
			continue
		}
		switch {
		case x.Test(i) && y.Test(i):
			counts.A++
		case x.Test(i):
			counts.B++
		case y.Test(i):
			counts.C++
		default:
			counts.D++
		}
	}
	return counts
}
