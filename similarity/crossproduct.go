package similarity

import (
	"math"

	"github.com/mkadlec/binsim/bitvec"
)

// Yule1 computes the Yule Q coefficient (ad-bc) / (ad+bc).
func Yule1(c bitvec.Counts) float64 {
	return (c.A*c.D - c.B*c.C) / (c.A*c.D + c.B*c.C)
}

// Yule2 computes the Yule W coefficient
// (sqrt(ad) - sqrt(bc)) / (sqrt(ad) + sqrt(bc)).
func Yule2(c bitvec.Counts) float64 {
	rootAD, rootBC := math.Sqrt(c.A*c.D), math.Sqrt(c.B*c.C)
	return (rootAD - rootBC) / (rootAD + rootBC)
}

// Peirce1 computes (ad-bc) / ((a+b)(c+d)).
func Peirce1(c bitvec.Counts) float64 {
	return (c.A*c.D - c.B*c.C) / ((c.A + c.B) * (c.C + c.D))
}

// Peirce2 computes (ad-bc) / ((a+c)(b+d)).
func Peirce2(c bitvec.Counts) float64 {
	return (c.A*c.D - c.B*c.C) / ((c.A + c.C) * (c.B + c.D))
}

// PearsonHeron1 computes the phi coefficient
// (ad-bc) / sqrt((a+b)(a+c)(b+d)(c+d)).
func PearsonHeron1(c bitvec.Counts) float64 {
	return (c.A*c.D - c.B*c.C) / math.Sqrt((c.A+c.B)*(c.A+c.C)*(c.B+c.D)*(c.C+c.D))
}

// PearsonHeron2 computes cos(pi sqrt(bc) / (sqrt(ad) + sqrt(bc))).
func PearsonHeron2(c bitvec.Counts) float64 {
	rootAD, rootBC := math.Sqrt(c.A*c.D), math.Sqrt(c.B*c.C)
	return math.Cos((math.Pi * rootBC) / (rootAD + rootBC))
}

// Pearson1 computes the chi-squared statistic
// n(ad-bc)^2 / ((a+b)(a+c)(b+d)(c+d)).
func Pearson1(c bitvec.Counts) float64 {
	det := c.A*c.D - c.B*c.C
	return (c.N() * det * det) / ((c.A + c.B) * (c.A + c.C) * (c.B + c.D) * (c.C + c.D))
}

// Pearson2 computes sqrt(x2 / (n + x2)) with x2 the Pearson1 statistic.
func Pearson2(c bitvec.Counts) float64 {
	x2 := Pearson1(c)
	return math.Sqrt(x2 / (c.N() + x2))
}

// Pearson3 computes sqrt(p / (n + p)) with p the phi coefficient.
func Pearson3(c bitvec.Counts) float64 {
	p := PearsonHeron1(c)
	return math.Sqrt(p / (c.N() + p))
}

// Cole computes the C7 coefficient, switching denominators with the sign
// of ad-bc and the ordering of a and d:
//
//	ad >= bc:         (ad-bc) / ((a+b)(b+d))
//	ad <  bc, a <= d: (ad-bc) / ((a+b)(a+c))
//	otherwise:        (ad-bc) / ((b+d)(c+d))
func Cole(c bitvec.Counts) float64 {
	det := c.A*c.D - c.B*c.C
	switch {
	case c.A*c.D >= c.B*c.C:
		return det / ((c.A + c.B) * (c.B + c.D))
	case c.A <= c.D:
		return det / ((c.A + c.B) * (c.A + c.C))
	default:
		return det / ((c.B + c.D) * (c.C + c.D))
	}
}

// Cole1 computes (ad-bc) / ((a+c)(c+d)).
func Cole1(c bitvec.Counts) float64 {
	return (c.A*c.D - c.B*c.C) / ((c.A + c.C) * (c.C + c.D))
}

// Cole2 computes (ad-bc) / ((a+b)(b+d)).
func Cole2(c bitvec.Counts) float64 {
	return (c.A*c.D - c.B*c.C) / ((c.A + c.B) * (c.B + c.D))
}

// Cohen computes 2(ad-bc) / ((a+b)(b+d) + (a+c)(c+d)).
func Cohen(c bitvec.Counts) float64 {
	return (2 * (c.A*c.D - c.B*c.C)) / ((c.A+c.B)*(c.B+c.D) + (c.A+c.C)*(c.C+c.D))
}

// MaxwellPilliner computes 2(ad-bc) / ((a+b)(c+d) + (a+c)(b+d)).
func MaxwellPilliner(c bitvec.Counts) float64 {
	return (2 * (c.A*c.D - c.B*c.C)) / ((c.A+c.B)*(c.C+c.D) + (c.A+c.C)*(c.B+c.D))
}

// Dennis computes (ad-bc) / sqrt(n(a+b)(a+c)).
func Dennis(c bitvec.Counts) float64 {
	return (c.A*c.D - c.B*c.C) / math.Sqrt(c.N()*(c.A+c.B)*(c.A+c.C))
}

// Dispersion computes (ad-bc) / n^2.
func Dispersion(c bitvec.Counts) float64 {
	n := c.N()
	return (c.A*c.D - c.B*c.C) / (n * n)
}

// Michael computes 4(ad-bc) / ((a+d)^2 + (b+c)^2).
func Michael(c bitvec.Counts) float64 {
	match, mismatch := c.A+c.D, c.B+c.C
	return 4 * (c.A*c.D - c.B*c.C) / (match*match + mismatch*mismatch)
}

// Scott computes (4ad - (b+c)^2) / ((2a+b+c)(2d+b+c)).
func Scott(c bitvec.Counts) float64 {
	mismatch := c.B + c.C
	return (4*c.A*c.D - mismatch*mismatch) / ((2*c.A + mismatch) * (2*c.D + mismatch))
}

// ConsonniTodeschini5 computes (ln(1+ad) - ln(1+bc)) / ln(1 + n^2/4).
func ConsonniTodeschini5(c bitvec.Counts) float64 {
	n := c.N()
	return (math.Log(1+c.A*c.D) - math.Log(1+c.B*c.C)) / math.Log(1+(n*n)/4)
}

// Stiles computes log10(n t^2 / (bc(n-b)(n-c))) with t = |an-bc| - n/2.
func Stiles(c bitvec.Counts) float64 {
	n := c.N()
	t := math.Abs(c.A*n-c.B*c.C) - 0.5*n
	return math.Log10((n * t * t) / (c.B * c.C * (n - c.B) * (n - c.C)))
}
