package insights

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vinodismyname/gasdash/internal/demand"
)

func table(yr demand.YearRange, pairs ...any) demand.PercentualTable {
	pt := demand.PercentualTable{Range: yr}
	for i := 0; i < len(pairs); i += 2 {
		pt.Entries = append(pt.Entries, demand.Percentual{Name: pairs[i].(string), Share: pairs[i+1].(float64)})
	}
	return pt
}

func TestConcentration_HighlyConcentrated(t *testing.T) {
	pt := table(demand.YearRange{Min: 2020, Max: 2021}, "B", 20.0, "A", 80.0)
	out, err := Concentration(pt, 1)
	require.NoError(t, err)
	require.Equal(t, HighlyConcentrated, out.Band)
	require.InDelta(t, 0.68, out.HHI, 0.001)
	require.Equal(t, []GroupShare{{Name: "A", Share: 0.8}}, out.Groups)
	require.InDelta(t, 0.8, out.TopShare, 1e-9)
	require.InDelta(t, 0.2, out.OtherShare, 1e-9)
	require.Equal(t, 2, out.Entities)
}

func TestConcentration_RenormalizesPartialTotals(t *testing.T) {
	// Shares of national demand need not sum to 100.
	var pairs []any
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		pairs = append(pairs, n, 9.0)
	}
	out, err := Concentration(table(demand.YearRange{}, pairs...), 0)
	require.NoError(t, err)
	require.Equal(t, DefaultTopN, out.TopN)
	require.Len(t, out.Groups, DefaultTopN)
	require.InDelta(t, 0.1, out.HHI, 1e-9)
	require.Equal(t, Unconcentrated, out.Band)
	require.InDelta(t, 0.5, out.TopShare, 1e-9)
}

func TestConcentration_ZeroTotal(t *testing.T) {
	_, err := Concentration(table(demand.YearRange{}, "a", 0.0), 3)
	require.ErrorIs(t, err, ErrZeroTotal)
}

func TestBandFor(t *testing.T) {
	require.Equal(t, Unconcentrated, BandFor(0.149))
	require.Equal(t, ModeratelyConcentrated, BandFor(0.15))
	require.Equal(t, ModeratelyConcentrated, BandFor(0.249))
	require.Equal(t, HighlyConcentrated, BandFor(0.25))
}

func TestCompositionShift(t *testing.T) {
	base := table(demand.YearRange{Min: 2010, Max: 2012}, "A", 50.0, "B", 30.0, "C", 20.0)
	curr := table(demand.YearRange{Min: 2020, Max: 2022}, "A", 40.0, "B", 30.5, "D", 29.5)

	out := CompositionShift(base, curr, 3, 0)
	require.Equal(t, DefaultThresholdPP, out.ThresholdPP)
	require.Equal(t, demand.YearRange{Min: 2010, Max: 2012}, out.Baseline)
	require.Len(t, out.Groups, 3)

	require.Equal(t, "D", out.Groups[0].Name)
	require.InDelta(t, 29.5, out.Groups[0].PPChange, 1e-9)
	require.True(t, out.Groups[0].Highlight)

	require.Equal(t, "C", out.Groups[1].Name)
	require.InDelta(t, -20.0, out.Groups[1].PPChange, 1e-9)

	require.Equal(t, "A", out.Groups[2].Name)
	require.InDelta(t, -10.0, out.Groups[2].PPChange, 1e-9)

	// B moved only half a point and falls outside the top three.
	require.InDelta(t, 30.0, out.OtherBaseline, 1e-9)
	require.InDelta(t, 30.5, out.OtherCurrent, 1e-9)
}

func TestCompositionShift_TiesByName(t *testing.T) {
	base := table(demand.YearRange{}, "Z", 10.0, "Y", 10.0)
	curr := table(demand.YearRange{}, "Z", 12.0, "Y", 12.0)
	out := CompositionShift(base, curr, 5, 5)
	require.Equal(t, "Y", out.Groups[0].Name)
	require.Equal(t, "Z", out.Groups[1].Name)
	require.False(t, out.Groups[0].Highlight)
}
