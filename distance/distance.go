package distance

import (
	"math"

	"github.com/mkadlec/binsim/bitvec"
)

// Hamming computes the mismatch count b + c.
func Hamming(c bitvec.Counts) float64 {
	return c.B + c.C
}

// Euclid computes sqrt(b + c).
func Euclid(c bitvec.Counts) float64 {
	return math.Sqrt(c.B + c.C)
}

// SquaredEuclid computes sqrt((b+c)^2), which reduces to b + c.
func SquaredEuclid(c bitvec.Counts) float64 {
	return math.Sqrt((c.B + c.C) * (c.B + c.C))
}

// Canberra reduces to b + c on binary data.
func Canberra(c bitvec.Counts) float64 {
	return c.B + c.C
}

// Manhattan reduces to b + c on binary data.
func Manhattan(c bitvec.Counts) float64 {
	return c.B + c.C
}

// Cityblock reduces to b + c on binary data.
func Cityblock(c bitvec.Counts) float64 {
	return c.B + c.C
}

// Minkowski reduces to b + c on binary data.
func Minkowski(c bitvec.Counts) float64 {
	return c.B + c.C
}

// MeanManhattan computes (b+c) / n.
func MeanManhattan(c bitvec.Counts) float64 {
	return (c.B + c.C) / c.N()
}

// Vari computes (b+c) / 4n.
func Vari(c bitvec.Counts) float64 {
	return (c.B + c.C) / (4 * c.N())
}

// SizeDifference computes (b+c)^2 / n^2.
func SizeDifference(c bitvec.Counts) float64 {
	n := c.N()
	return ((c.B + c.C) * (c.B + c.C)) / (n * n)
}

// ShapeDifference computes (n(b+c) - (b+c)^2) / n^2.
func ShapeDifference(c bitvec.Counts) float64 {
	n := c.N()
	mismatch := c.B + c.C
	return (n*mismatch - mismatch*mismatch) / (n * n)
}

// PatternDifference computes 4bc / n^2.
func PatternDifference(c bitvec.Counts) float64 {
	n := c.N()
	return (4 * c.B * c.C) / (n * n)
}

// LanceWilliams computes (b+c) / (2a+b+c).
func LanceWilliams(c bitvec.Counts) float64 {
	return (c.B + c.C) / (2*c.A + c.B + c.C)
}

// BrayCurtis computes (b+c) / (2a+b+c), matching Lance-Williams on
// binary data.
func BrayCurtis(c bitvec.Counts) float64 {
	return (c.B + c.C) / (2*c.A + c.B + c.C)
}

// Hellinger computes 2 sqrt(1 - a/sqrt((a+b)(a+c))).
func Hellinger(c bitvec.Counts) float64 {
	return 2 * math.Sqrt(1-c.A/math.Sqrt((c.A+c.B)*(c.A+c.C)))
}

// Chord computes sqrt(2 (1 - a/sqrt((a+b)(a+c)))).
func Chord(c bitvec.Counts) float64 {
	return math.Sqrt(2 * (1 - c.A/math.Sqrt((c.A+c.B)*(c.A+c.C))))
}
