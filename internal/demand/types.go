// Package demand computes percent shares, monthly series, and map values
// over the tidy demand table for a selected year range.
package demand

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// YearRange is an inclusive range of calendar years.
type YearRange struct {
	Min int `json:"min_year"`
	Max int `json:"max_year"`
}

// Validate rejects inverted ranges.
func (r YearRange) Validate() error {
	if r.Min > r.Max {
		return fmt.Errorf("demand: min year %d is after max year %d", r.Min, r.Max)
	}
	return nil
}

func (r YearRange) String() string {
	if r.Min == r.Max {
		return fmt.Sprintf("%d", r.Min)
	}
	return fmt.Sprintf("%d - %d", r.Min, r.Max)
}

// ErrEmptyRange indicates a year range that selects no rows.
var ErrEmptyRange = errors.New("demand: empty year range")

// ErrUnknownEntity indicates a distributor or region name not present in the table.
var ErrUnknownEntity = errors.New("demand: unknown entity")

// EmptyRangeError reports that a mean could not be taken over the range.
type EmptyRangeError struct {
	Range  YearRange
	Reason string
}

func (e *EmptyRangeError) Error() string {
	return fmt.Sprintf("demand: %s for years %s", e.Reason, e.Range)
}

func (e *EmptyRangeError) Is(target error) bool { return target == ErrEmptyRange }

// Mode selects whether queries address distributors or regions.
type Mode string

const (
	ModeDistributor Mode = "distributor"
	ModeRegion      Mode = "region"
)

// ParseMode accepts the English and Portuguese filter names.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "distributor", "distribuidora":
		return ModeDistributor, nil
	case "region", "regiao", "região":
		return ModeRegion, nil
	}
	return "", fmt.Errorf("demand: unknown mode %q", s)
}

// Percentual is one entity's average demand as a percentage of the national average.
type Percentual struct {
	Name  string  `json:"name"`
	Share float64 `json:"share"`
}

// PercentualTable holds percent shares in output order. Dropped lists
// distributors left out of a region breakdown because their state or
// region could not be resolved.
type PercentualTable struct {
	Range   YearRange    `json:"range"`
	Entries []Percentual `json:"entries"`
	Dropped []string     `json:"dropped,omitempty"`
}

// Share returns the share recorded for name.
func (p PercentualTable) Share(name string) (float64, bool) {
	for _, e := range p.Entries {
		if e.Name == name {
			return e.Share, true
		}
	}
	return 0, false
}

// Total sums all entry shares.
func (p PercentualTable) Total() float64 {
	var sum float64
	for _, e := range p.Entries {
		sum += e.Share
	}
	return sum
}

// Series is a monthly demand series for one entity.
type Series struct {
	Name   string      `json:"name"`
	Dates  []time.Time `json:"dates"`
	Values []float64   `json:"values"`
}

// Average is a mean monthly demand keyed by a state or region with its
// boundary code.
type Average struct {
	Key   string  `json:"key"`
	Code  string  `json:"code"`
	Value float64 `json:"value"`
}
