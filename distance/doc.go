// Package distance implements distance measures over the contingency
// counts of two binary feature vectors.
//
// On binary data several classical distances collapse to the mismatch
// count b+c; each keeps its own entry so callers can request the name they
// know. Values follow float64 arithmetic: a zero denominator yields NaN or
// an infinity rather than an error.
package distance
