package models

// Counts is the 2x2 contingency table echoed back with comparison results.
type Counts struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
	D float64 `json:"d"`
}

type ComparisonResult struct {
	Measure string  `json:"measure"`
	Kind    string  `json:"kind"`
	Family  string  `json:"family"`
	Value   float64 `json:"value"`
	Counts  Counts  `json:"counts"`
}

// BatchEntry is one measure's outcome inside a batch comparison. Value is
// nil when Error is set; an entry error never aborts the other entries.
type BatchEntry struct {
	Measure string   `json:"measure"`
	Value   *float64 `json:"value,omitempty"`
	Error   string   `json:"error,omitempty"`
}

type BatchResult struct {
	Counts  Counts       `json:"counts"`
	Results []BatchEntry `json:"results"`
}

type MeasureInfo struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Family  string   `json:"family"`
	Aliases []string `json:"aliases,omitempty"`
}
