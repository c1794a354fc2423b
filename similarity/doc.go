// Package similarity implements similarity coefficients over the
// contingency counts of two binary feature vectors.
//
// Every coefficient is a pure function of bitvec.Counts. Values follow
// float64 arithmetic: a zero denominator yields NaN or an infinity rather
// than an error, and callers that need finite results check with math.IsNaN
// and math.IsInf. Several historical coefficients share one formula; each
// shared form is implemented once and the equivalent names are registered
// as aliases in the measure package.
package similarity
