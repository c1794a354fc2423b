// Package bitvec provides fixed-length binary feature vectors and the
// contingency-table counts that similarity and distance measures are
// computed from.
//
// Two representations implement the Vector interface: Dense, a bool slice,
// and Packed, a word-packed bitset. Counting agrees exactly across
// representations; Packed pairs take a word-level popcount fast path.
package bitvec
