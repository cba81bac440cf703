// Package types contains common types used across the application
package types

// Report bundles the tie value with the three exhaustive outcomes of a competition.
type Report struct {
	Events       int     `json:"events" yaml:"events"`
	ScheduleKind string  `json:"schedule" yaml:"schedule"`
	WinProb      float64 `json:"win_prob" yaml:"win_prob"`
	TieValue     float64 `json:"tie_value" yaml:"tie_value"`
	Tie          float64 `json:"tie" yaml:"tie"`
	Win          float64 `json:"win" yaml:"win"`
	Loss         float64 `json:"loss" yaml:"loss"`
}

// Point is one distinct total and the probability of finishing on it.
type Point struct {
	Total       float64 `json:"total" yaml:"total"`
	Probability float64 `json:"probability" yaml:"probability"`
}

// Summary describes the score distribution.
type Summary struct {
	Outcomes int     `json:"outcomes" yaml:"outcomes"`
	Mean     float64 `json:"mean" yaml:"mean"`
	StdDev   float64 `json:"stddev" yaml:"stddev"`
}

// Distribution is the probability of every reachable total, ascending by total.
type Distribution struct {
	Points  []Point `json:"points" yaml:"points"`
	Summary Summary `json:"summary" yaml:"summary"`
}
