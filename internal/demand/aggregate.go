package demand

import (
	"context"
	"math"

	"github.com/rs/zerolog"
	"github.com/vinodismyname/gasdash/internal/dataset"
	"github.com/vinodismyname/gasdash/internal/regions"
)

// filterRange restricts the table to the range and returns the national mean.
func filterRange(t *dataset.Table, yr YearRange) (*dataset.Table, float64, error) {
	if err := yr.Validate(); err != nil {
		return nil, 0, err
	}
	filtered := t.FilterYears(yr.Min, yr.Max)
	if filtered.Len() == 0 {
		return nil, 0, &EmptyRangeError{Range: yr, Reason: "no monthly rows"}
	}
	national, ok := dataset.Mean(filtered.National)
	if !ok || national == 0 {
		return nil, 0, &EmptyRangeError{Range: yr, Reason: "national demand is zero"}
	}
	return filtered, national, nil
}

func shareOf(column []float64, national float64) float64 {
	mean, ok := dataset.Mean(column)
	if !ok {
		return 0
	}
	return 100 * mean / national
}

// PercentualsByDistributor computes each distributor's average demand as a
// percentage of the national average over the range, in table column order.
func PercentualsByDistributor(t *dataset.Table, yr YearRange) (PercentualTable, error) {
	filtered, national, err := filterRange(t, yr)
	if err != nil {
		return PercentualTable{}, err
	}
	out := PercentualTable{Range: yr, Entries: make([]Percentual, len(filtered.Distributors))}
	for i, name := range filtered.Distributors {
		out.Entries[i] = Percentual{Name: name, Share: shareOf(filtered.ColumnAt(i), national)}
	}
	return out, nil
}

// PercentualsByRegion sums distributor shares into the five regions, always
// returned in declaration order. Distributors whose state or region cannot
// be resolved contribute nothing and are listed in Dropped.
func PercentualsByRegion(ctx context.Context, t *dataset.Table, yr YearRange, lookup *regions.Lookup) (PercentualTable, error) {
	filtered, national, err := filterRange(t, yr)
	if err != nil {
		return PercentualTable{}, err
	}
	acc := make(map[regions.Region]float64, len(regions.Order))
	var dropped []string
	for i, name := range filtered.Distributors {
		region, _, ok := lookup.RegionOfDistributor(name)
		if !ok {
			dropped = append(dropped, name)
			continue
		}
		acc[region] += shareOf(filtered.ColumnAt(i), national)
	}
	if len(dropped) > 0 {
		zerolog.Ctx(ctx).Warn().
			Strs("distributors", dropped).
			Int("min_year", yr.Min).
			Int("max_year", yr.Max).
			Msg("distributors without a mapped region left out of regional shares")
	}

	out := PercentualTable{Range: yr, Dropped: dropped}
	for _, r := range lookup.Regions() {
		out.Entries = append(out.Entries, Percentual{Name: string(r), Share: acc[r]})
	}
	return out, nil
}

// sumWhere adds, month by month, the columns selected by keep. Missing
// observations count as zero.
func sumWhere(t *dataset.Table, keep func(name string) bool) []float64 {
	out := make([]float64, t.Len())
	for i, name := range t.Distributors {
		if !keep(name) {
			continue
		}
		for j, v := range t.ColumnAt(i) {
			if !math.IsNaN(v) {
				out[j] += v
			}
		}
	}
	return out
}

func filterOnly(t *dataset.Table, yr YearRange) (*dataset.Table, error) {
	if err := yr.Validate(); err != nil {
		return nil, err
	}
	filtered := t.FilterYears(yr.Min, yr.Max)
	if filtered.Len() == 0 {
		return nil, &EmptyRangeError{Range: yr, Reason: "no monthly rows"}
	}
	return filtered, nil
}

// StateAverages returns, for every state in lookup order, the mean over the
// range of the monthly sum of that state's distributors.
func StateAverages(t *dataset.Table, yr YearRange, lookup *regions.Lookup) ([]Average, error) {
	filtered, err := filterOnly(t, yr)
	if err != nil {
		return nil, err
	}
	states := lookup.States()
	out := make([]Average, 0, len(states))
	for _, uf := range states {
		sums := sumWhere(filtered, func(name string) bool {
			s, ok := regions.StateOf(name)
			return ok && s == uf
		})
		mean, _ := dataset.Mean(sums)
		code, _ := lookup.StateCode(uf)
		out = append(out, Average{Key: uf, Code: code, Value: mean})
	}
	return out, nil
}

// RegionAverages returns, for every region in declaration order, the mean
// over the range of the monthly sum of that region's distributors.
func RegionAverages(t *dataset.Table, yr YearRange, lookup *regions.Lookup) ([]Average, error) {
	filtered, err := filterOnly(t, yr)
	if err != nil {
		return nil, err
	}
	out := make([]Average, 0, len(regions.Order))
	for _, r := range lookup.Regions() {
		sums := sumWhere(filtered, func(name string) bool {
			got, _, ok := lookup.RegionOfDistributor(name)
			return ok && got == r
		})
		mean, _ := dataset.Mean(sums)
		code, _ := lookup.RegionCode(r)
		out = append(out, Average{Key: string(r), Code: code, Value: mean})
	}
	return out, nil
}

// SeriesFor returns monthly series for the named entities. Region series
// are the month-by-month sum of the region's distributors.
func SeriesFor(t *dataset.Table, yr YearRange, mode Mode, names []string, lookup *regions.Lookup) ([]Series, error) {
	filtered, err := filterOnly(t, yr)
	if err != nil {
		return nil, err
	}
	out := make([]Series, 0, len(names))
	for _, name := range names {
		var values []float64
		switch mode {
		case ModeRegion:
			r, ok := regions.ParseRegion(name)
			if !ok {
				return nil, &unknownEntityError{name: name}
			}
			name = string(r)
			values = sumWhere(filtered, func(d string) bool {
				got, _, ok := lookup.RegionOfDistributor(d)
				return ok && got == r
			})
		default:
			col, ok := filtered.Column(name)
			if !ok {
				return nil, &unknownEntityError{name: name}
			}
			values = append([]float64(nil), col...)
		}
		out = append(out, Series{Name: name, Dates: filtered.Dates, Values: values})
	}
	return out, nil
}

// Entities lists the selectable names for a mode.
func Entities(t *dataset.Table, mode Mode, lookup *regions.Lookup) []string {
	if mode == ModeRegion {
		rs := lookup.Regions()
		out := make([]string, len(rs))
		for i, r := range rs {
			out[i] = string(r)
		}
		return out
	}
	out := make([]string, len(t.Distributors))
	copy(out, t.Distributors)
	return out
}

type unknownEntityError struct{ name string }

func (e *unknownEntityError) Error() string { return "demand: unknown entity " + e.name }

func (e *unknownEntityError) Is(target error) bool { return target == ErrUnknownEntity }
