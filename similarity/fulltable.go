package similarity

import (
	"math"

	"github.com/mkadlec/binsim/bitvec"
)

// SMC computes the simple matching coefficient (a+d) / n, also known as
// Sokal-Michener.
func SMC(c bitvec.Counts) float64 {
	return (c.A + c.D) / c.N()
}

// AustinColwell computes the angular transformation of SMC,
// 2/pi * asin(sqrt((a+d)/n)).
func AustinColwell(c bitvec.Counts) float64 {
	return 2 / math.Pi * math.Asin(math.Sqrt((c.A+c.D)/c.N()))
}

// RussellRao computes a / n.
func RussellRao(c bitvec.Counts) float64 {
	return c.A / c.N()
}

// Faith computes (a + d/2) / n.
func Faith(c bitvec.Counts) float64 {
	return (c.A + 0.5*c.D) / c.N()
}

// RogersTanimoto computes (a+d) / (a + 2(b+c) + d).
func RogersTanimoto(c bitvec.Counts) float64 {
	return (c.A + c.D) / (c.A + 2*(c.B+c.C) + c.D)
}

// SokalSneath2 computes 2(a+d) / (2(a+d) + b + c).
func SokalSneath2(c bitvec.Counts) float64 {
	return (2 * (c.A + c.D)) / (2*(c.A+c.D) + c.B + c.C)
}

// GowerLegendre computes (a+d) / (a + (b+c)/2 + d).
func GowerLegendre(c bitvec.Counts) float64 {
	return (c.A + c.D) / (c.A + 0.5*(c.B+c.C) + c.D)
}

// Hamman computes (a+d-b-c) / n.
func Hamman(c bitvec.Counts) float64 {
	return (c.A + c.D - c.B - c.C) / c.N()
}

// InnerProduct returns a + d.
func InnerProduct(c bitvec.Counts) float64 {
	return c.A + c.D
}

// Gower computes (a+d) / sqrt((a+b)(a+c)(b+d)(c+d)).
func Gower(c bitvec.Counts) float64 {
	return (c.A + c.D) / math.Sqrt((c.A+c.B)*(c.A+c.C)*(c.B+c.D)*(c.C+c.D))
}

// SokalSneath3 computes the quarter sum
// (a/(a+b) + a/(a+c) + d/(b+d) + d/(c+d)) / 4.
func SokalSneath3(c bitvec.Counts) float64 {
	return 0.25 * (c.A/(c.A+c.B) + c.A/(c.A+c.C) + c.D/(c.B+c.D) + c.D/(c.C+c.D))
}

// SokalSneath4 computes a/sqrt((a+b)(a+c)) * d/sqrt((b+d)(c+d)).
func SokalSneath4(c bitvec.Counts) float64 {
	return c.A / math.Sqrt((c.A+c.B)*(c.A+c.C)) * c.D / math.Sqrt((c.B+c.D)*(c.C+c.D))
}

// SokalSneath3a computes (a+d) / (b+c).
func SokalSneath3a(c bitvec.Counts) float64 {
	return (c.A + c.D) / (c.B + c.C)
}

// SokalSneath4a computes ad / sqrt((a+b)(a+c)(b+d)(c+d)). The same form
// circulates as Ochiai 2 and Sokal-Sneath 5.
func SokalSneath4a(c bitvec.Counts) float64 {
	return (c.A * c.D) / math.Sqrt((c.A+c.B)*(c.A+c.C)*(c.B+c.D)*(c.C+c.D))
}

// RogotGoldberg computes a/(2a+b+c) + d/(2d+b+c).
func RogotGoldberg(c bitvec.Counts) float64 {
	return c.A/(2*c.A+c.B+c.C) + c.D/(2*c.D+c.B+c.C)
}

// HawkinsDotson computes the mean of a/(a+b+c) and d/(d+b+c).
func HawkinsDotson(c bitvec.Counts) float64 {
	return 0.5 * (c.A/(c.A+c.B+c.C) + c.D/(c.D+c.B+c.C))
}

// HarrisLahey computes
// a(2d+b+c) / (2(a+b+c)) + d(2a+b+c) / (2(b+c+d)).
func HarrisLahey(c bitvec.Counts) float64 {
	return (c.A*(2*c.D+c.B+c.C))/(2*(c.A+c.B+c.C)) + (c.D*(2*c.A+c.B+c.C))/(2*(c.B+c.C+c.D))
}

// Forbes1 computes na / ((a+b)(a+c)).
func Forbes1(c bitvec.Counts) float64 {
	return (c.N() * c.A) / ((c.A + c.B) * (c.A + c.C))
}

// Forbes2 computes (na - (a+b)(a+c)) / (n min(a+b, a+c) - (a+b)(a+c)).
func Forbes2(c bitvec.Counts) float64 {
	n := c.N()
	return (n*c.A - (c.A+c.B)*(c.A+c.C)) / (n*math.Min(c.A+c.B, c.A+c.C) - (c.A+c.B)*(c.A+c.C))
}

// Fossum computes n(a - 1/2)^2 / ((a+b)(a+c)).
func Fossum(c bitvec.Counts) float64 {
	return (c.N() * (c.A - 0.5) * (c.A - 0.5)) / ((c.A + c.B) * (c.A + c.C))
}

// Tarwid computes (na - (a+b)(a+c)) / (na + (a+b)(a+c)).
func Tarwid(c bitvec.Counts) float64 {
	n := c.N()
	return (n*c.A - (c.A+c.B)*(c.A+c.C)) / (n*c.A + (c.A+c.B)*(c.A+c.C))
}

// Eyraud computes n^2 (na - (a+b)(a+c)) / ((a+b)(a+c)(b+d)(c+d)).
func Eyraud(c bitvec.Counts) float64 {
	n := c.N()
	return (n * n * (n*c.A - (c.A+c.B)*(c.A+c.C))) / ((c.A + c.B) * (c.A + c.C) * (c.B + c.D) * (c.C + c.D))
}

// Tarantula computes a(c+d) / (c(a+b)).
func Tarantula(c bitvec.Counts) float64 {
	return (c.A * (c.C + c.D)) / (c.C * (c.A + c.B))
}

// Ample is the absolute value of Tarantula.
func Ample(c bitvec.Counts) float64 {
	return math.Abs(Tarantula(c))
}

// GoodmanKruskal1 computes (p1-p2) / (2n-p2) over the max-sums p1 and p2.
func GoodmanKruskal1(c bitvec.Counts) float64 {
	p1, p2 := maxSums(c)
	return (p1 - p2) / (2*c.N() - p2)
}

// GoodmanKruskal2 computes (2 min(a,d) - b - c) / (2 min(a,d) + b + c).
func GoodmanKruskal2(c bitvec.Counts) float64 {
	m := math.Min(c.A, c.D)
	return (2*m - c.B - c.C) / (2*m + c.B + c.C)
}

// Anderberg computes (p1-p2) / 2n over the max-sums p1 and p2.
func Anderberg(c bitvec.Counts) float64 {
	p1, p2 := maxSums(c)
	return (p1 - p2) / (2 * c.N())
}

// maxSums returns p1 = max(a,b)+max(c,d)+max(a,c)+max(b,d) and
// p2 = max(a+c, b+d)+max(a+b, c+d), the shared core of the
// Goodman-Kruskal and Anderberg coefficients.
func maxSums(c bitvec.Counts) (float64, float64) {
	p1 := math.Max(c.A, c.B) + math.Max(c.C, c.D) + math.Max(c.A, c.C) + math.Max(c.B, c.D)
	p2 := math.Max(c.A+c.C, c.B+c.D) + math.Max(c.A+c.B, c.C+c.D)
	return p1, p2
}

// BaroniUrbaniBuser1 computes (sqrt(ad) + a) / (sqrt(ad) + a + b + c).
func BaroniUrbaniBuser1(c bitvec.Counts) float64 {
	s := math.Sqrt(c.A * c.D)
	return (s + c.A) / (s + c.A + c.B + c.C)
}

// BaroniUrbaniBuser2 computes (sqrt(ad) + a - b - c) / (sqrt(ad) + a + b + c).
func BaroniUrbaniBuser2(c bitvec.Counts) float64 {
	s := math.Sqrt(c.A * c.D)
	return (s + c.A - c.B - c.C) / (s + c.A + c.B + c.C)
}

// ConsonniTodeschini1 computes ln(1+a+d) / ln(1+n).
func ConsonniTodeschini1(c bitvec.Counts) float64 {
	return math.Log(1+c.A+c.D) / math.Log(1+c.N())
}

// ConsonniTodeschini2 computes (ln(1+n) - ln(1+b+c)) / ln(1+n).
func ConsonniTodeschini2(c bitvec.Counts) float64 {
	n := c.N()
	return (math.Log(1+n) - math.Log(1+c.B+c.C)) / math.Log(1+n)
}

// ConsonniTodeschini3 computes ln(1+a) / ln(1+n).
func ConsonniTodeschini3(c bitvec.Counts) float64 {
	return math.Log(1+c.A) / math.Log(1+c.N())
}

// Peirce3 computes (ab + bc) / (ab + 2bc + cd).
func Peirce3(c bitvec.Counts) float64 {
	return (c.A*c.B + c.B*c.C) / (c.A*c.B + 2*c.B*c.C + c.C*c.D)
}

// GilbertWells computes
// ln(n^3 / (2 pi (a+b)(a+c)(b+d)(c+d)) + 2 ln(n! a! b! c! d! / ((a+b)! (a+c)! (b+d)! (c+d)!)))
// with the factorial ratio evaluated through log-gamma.
func GilbertWells(c bitvec.Counts) float64 {
	n := c.N()
	lead := (n * n * n) / (2 * math.Pi * (c.A + c.B) * (c.A + c.C) * (c.B + c.D) * (c.C + c.D))
	ratio := lnFactorial(n) + lnFactorial(c.A) + lnFactorial(c.B) + lnFactorial(c.C) + lnFactorial(c.D) -
		lnFactorial(c.A+c.B) - lnFactorial(c.A+c.C) - lnFactorial(c.B+c.D) - lnFactorial(c.C+c.D)
	return math.Log(lead + 2*ratio)
}

func lnFactorial(v float64) float64 {
	lg, _ := math.Lgamma(v + 1)
	return lg
}
