// Package insights derives market-structure metrics from percent-share
// tables: Top-N concentration with HHI banding, and composition shifts
// between two year ranges.
package insights

import (
	"errors"
	"math"
	"sort"

	"github.com/vinodismyname/gasdash/internal/demand"
)

// DefaultTopN is used when a caller passes a non-positive or oversized N.
const DefaultTopN = 5

// MaxTopN caps the number of groups reported explicitly.
const MaxTopN = 20

// ErrZeroTotal is returned when no group has a positive share.
var ErrZeroTotal = errors.New("insights: zero total share; cannot compute concentration")

// Band classifies an HHI value.
type Band string

const (
	Unconcentrated         Band = "unconcentrated"
	ModeratelyConcentrated Band = "moderately_concentrated"
	HighlyConcentrated     Band = "highly_concentrated"
)

// BandFor applies the common antitrust thresholds (HHI on 0..1 shares).
func BandFor(hhi float64) Band {
	switch {
	case hhi < 0.15:
		return Unconcentrated
	case hhi < 0.25:
		return ModeratelyConcentrated
	default:
		return HighlyConcentrated
	}
}

// GroupShare is one entity's fraction of the combined total.
type GroupShare struct {
	Name  string  `json:"name"`
	Share float64 `json:"share" jsonschema_description:"Fraction (0-1) of the summed shares"`
}

// ConcentrationReport describes how demand is spread across entities.
type ConcentrationReport struct {
	Range      demand.YearRange `json:"range"`
	TopN       int              `json:"top_n"`
	Groups     []GroupShare     `json:"groups" jsonschema_description:"Top-N entities by share, descending"`
	TopShare   float64          `json:"top_share"`
	OtherShare float64          `json:"other_share"`
	HHI        float64          `json:"hhi" jsonschema_description:"Herfindahl-Hirschman index on 0-1 shares"`
	Band       Band             `json:"band"`
	Entities   int              `json:"entities"`
}

func clampTopN(n int) int {
	if n <= 0 || n > MaxTopN {
		return DefaultTopN
	}
	return n
}

// Concentration renormalizes pt's shares to their sum and reports the Top-N
// groups, their combined share, and the HHI over every group. Entities with
// a zero share still count toward Entities but contribute nothing.
func Concentration(pt demand.PercentualTable, topN int) (ConcentrationReport, error) {
	out := ConcentrationReport{Range: pt.Range, TopN: clampTopN(topN), Entities: len(pt.Entries)}

	total := pt.Total()
	if total <= 0 {
		return out, ErrZeroTotal
	}
	sorted := append([]demand.Percentual(nil), pt.Entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Share > sorted[j].Share })

	keep := min(out.TopN, len(sorted))
	var top, hhi float64
	for i, e := range sorted {
		sh := e.Share / total
		hhi += sh * sh
		if i < keep {
			out.Groups = append(out.Groups, GroupShare{Name: e.Name, Share: round3(sh)})
			top += sh
		}
	}
	out.TopShare = round3(top)
	out.OtherShare = round3(1 - top)
	out.HHI = round3(hhi)
	out.Band = BandFor(hhi)
	return out, nil
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }

func round3(x float64) float64 { return math.Round(x*1000) / 1000 }
