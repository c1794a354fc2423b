package similarity

import (
	"math"

	"github.com/mkadlec/binsim/bitvec"
)

// Jaccard computes a / (a+b+c).
func Jaccard(c bitvec.Counts) float64 {
	return c.A / (c.A + c.B + c.C)
}

// Tanimoto computes a / ((a+b) + (a+c) - a), which reduces to Jaccard.
func Tanimoto(c bitvec.Counts) float64 {
	return c.A / ((c.A + c.B) + (c.A + c.C) - c.A)
}

// Gleason computes 2a / (2a+b+c). The same form circulates as Dice,
// Sorenson-Dice, Czekanowski and Nei-Li.
func Gleason(c bitvec.Counts) float64 {
	return (2 * c.A) / (2*c.A + c.B + c.C)
}

// SWJaccard computes the 3W-Jaccard weighting 3a / (3a+b+c).
func SWJaccard(c bitvec.Counts) float64 {
	return (3 * c.A) / (3*c.A + c.B + c.C)
}

// Dice1 computes a / (a+b).
func Dice1(c bitvec.Counts) float64 {
	return c.A / (c.A + c.B)
}

// Dice2 computes a / (a+c).
func Dice2(c bitvec.Counts) float64 {
	return c.A / (c.A + c.C)
}

// SokalSneath1 computes a / (a+2b+2c).
func SokalSneath1(c bitvec.Counts) float64 {
	return c.A / (c.A + 2*c.B + 2*c.C)
}

// Kulczynski1 computes a / (b+c).
func Kulczynski1(c bitvec.Counts) float64 {
	return c.A / (c.B + c.C)
}

// Kulczynski2 computes the arithmetic mean of a/(a+b) and a/(a+c).
func Kulczynski2(c bitvec.Counts) float64 {
	return 0.5 * (c.A/(c.A+c.B) + c.A/(c.A+c.C))
}

// Johnson computes a/(a+b) + a/(a+c).
func Johnson(c bitvec.Counts) float64 {
	return c.A/(c.A+c.B) + c.A/(c.A+c.C)
}

// VanDerMaarel computes (2a-b-c) / (2a+b+c).
func VanDerMaarel(c bitvec.Counts) float64 {
	return (2*c.A - c.B - c.C) / (2*c.A + c.B + c.C)
}

// DriverKroeber computes a / sqrt((a+b)(a+c)), the geometric mean of the
// two conditional match rates. The same form circulates as Ochiai and as
// the cosine coefficient.
func DriverKroeber(c bitvec.Counts) float64 {
	return c.A / math.Sqrt((c.A+c.B)*(c.A+c.C))
}

// McConnaughey computes (a^2 - bc) / ((a+b)(a+c)).
func McConnaughey(c bitvec.Counts) float64 {
	return (c.A*c.A - c.B*c.C) / ((c.A + c.B) * (c.A + c.C))
}

// Simpson computes a / min(a+b, a+c).
func Simpson(c bitvec.Counts) float64 {
	return c.A / math.Min(c.A+c.B, c.A+c.C)
}

// BraunBlanquet computes a / max(a+b, a+c).
func BraunBlanquet(c bitvec.Counts) float64 {
	return c.A / math.Max(c.A+c.B, c.A+c.C)
}

// FagerMcGowan computes a/sqrt((a+b)(a+c)) - 1/(2 sqrt(max(a+b, a+c))).
func FagerMcGowan(c bitvec.Counts) float64 {
	return c.A/math.Sqrt((c.A+c.B)*(c.A+c.C)) - 1/(2*math.Sqrt(math.Max(c.A+c.B, c.A+c.C)))
}

// Sorgenfrei computes a^2 / ((a+b)(a+c)).
func Sorgenfrei(c bitvec.Counts) float64 {
	return (c.A * c.A) / ((c.A + c.B) * (c.A + c.C))
}

// Mountford computes 2a / (ab + ac + 2bc).
func Mountford(c bitvec.Counts) float64 {
	return (2 * c.A) / (c.A*c.B + c.A*c.C + 2*c.B*c.C)
}

// ConsonniTodeschini4 computes ln(1+a) / ln(1+a+b+c).
func ConsonniTodeschini4(c bitvec.Counts) float64 {
	return math.Log(1+c.A) / math.Log(1+c.A+c.B+c.C)
}

// Intersection returns a itself.
func Intersection(c bitvec.Counts) float64 {
	return c.A
}
