package models

import "time"

// Fingerprint is a named binary feature vector held in the store. Bits is
// the "0101" rendering; Length is kept alongside so listings avoid decoding.
type Fingerprint struct {
	Name      string    `json:"name"`
	Bits      string    `json:"bits"`
	Length    int       `json:"length"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type RankingEntry struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Ranking lists stored fingerprints ordered by a measure against one
// target: descending for similarities, ascending for distances. Skipped
// counts fingerprints left out for length mismatch or undefined values.
type Ranking struct {
	Measure string         `json:"measure"`
	Kind    string         `json:"kind"`
	Target  string         `json:"target"`
	Entries []RankingEntry `json:"entries"`
	Skipped int            `json:"skipped,omitempty"`
	Stale   bool           `json:"stale,omitempty"` // Served from stale cache after a store failure
}

// SimilarityMatrix holds pairwise values over Names; cells are nil where
// the measure is undefined for the pair.
type SimilarityMatrix struct {
	Measure string       `json:"measure"`
	Kind    string       `json:"kind"`
	Names   []string     `json:"names"`
	Values  [][]*float64 `json:"values"`
	Stale   bool         `json:"stale,omitempty"`
}

type ImportError struct {
	Line    int    `json:"line"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

// ImportReport summarizes a bulk fingerprint import. Failed records never
// abort the rest of the stream; their errors are collected here.
type ImportReport struct {
	Imported int           `json:"imported"`
	Failed   int           `json:"failed"`
	Errors   []ImportError `json:"errors,omitempty"`
}
