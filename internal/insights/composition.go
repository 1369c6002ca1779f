package insights

import (
	"math"
	"sort"

	"github.com/vinodismyname/gasdash/internal/demand"
)

// DefaultThresholdPP is the default highlight threshold in percentage points.
const DefaultThresholdPP = 1.0

// GroupMix is one entity's share in both ranges.
type GroupMix struct {
	Name          string  `json:"name"`
	ShareBaseline float64 `json:"share_baseline" jsonschema_description:"Percent of national demand in the baseline range"`
	ShareCurrent  float64 `json:"share_current" jsonschema_description:"Percent of national demand in the current range"`
	PPChange      float64 `json:"pp_change" jsonschema_description:"Current minus baseline, in percentage points"`
	Highlight     bool    `json:"highlight"`
}

// ShiftReport lists the entities whose share moved most between two ranges.
type ShiftReport struct {
	Baseline      demand.YearRange `json:"baseline"`
	Current       demand.YearRange `json:"current"`
	TopN          int              `json:"top_n"`
	ThresholdPP   float64          `json:"threshold_pp"`
	Groups        []GroupMix       `json:"groups" jsonschema_description:"Top-N movers by absolute change"`
	OtherBaseline float64          `json:"other_share_baseline"`
	OtherCurrent  float64          `json:"other_share_current"`
}

// CompositionShift compares two percent tables entity by entity. Entities
// present in only one table count as zero in the other. Movers are ordered
// by absolute change, ties by name.
func CompositionShift(baseline, current demand.PercentualTable, topN int, thresholdPP float64) ShiftReport {
	if thresholdPP <= 0 {
		thresholdPP = DefaultThresholdPP
	}
	out := ShiftReport{
		Baseline:    baseline.Range,
		Current:     current.Range,
		TopN:        clampTopN(topN),
		ThresholdPP: thresholdPP,
	}

	var names []string
	seen := map[string]bool{}
	for _, pt := range []demand.PercentualTable{baseline, current} {
		for _, e := range pt.Entries {
			if !seen[e.Name] {
				seen[e.Name] = true
				names = append(names, e.Name)
			}
		}
	}

	rows := make([]GroupMix, 0, len(names))
	for _, name := range names {
		b, _ := baseline.Share(name)
		c, _ := current.Share(name)
		pp := c - b
		rows = append(rows, GroupMix{
			Name:          name,
			ShareBaseline: round2(b),
			ShareCurrent:  round2(c),
			PPChange:      round2(pp),
			Highlight:     math.Abs(pp) >= thresholdPP,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		ai, aj := math.Abs(rows[i].PPChange), math.Abs(rows[j].PPChange)
		if ai == aj {
			return rows[i].Name < rows[j].Name
		}
		return ai > aj
	})

	keep := min(out.TopN, len(rows))
	out.Groups = rows[:keep]
	var selBase, selCurr float64
	for _, r := range out.Groups {
		selBase += r.ShareBaseline
		selCurr += r.ShareCurrent
	}
	out.OtherBaseline = round2(baseline.Total() - selBase)
	out.OtherCurrent = round2(current.Total() - selCurr)
	return out
}
