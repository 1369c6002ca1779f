package demand

import (
	"context"

	"github.com/vinodismyname/gasdash/internal/dataset"
	"github.com/vinodismyname/gasdash/internal/memo"
	"github.com/vinodismyname/gasdash/internal/regions"
)

// Service answers range queries over one loaded table. Aggregates are
// memoized per year range for the life of the Service; callers must treat
// returned slices as read-only.
type Service struct {
	table   *dataset.Table
	version int64
	lookup  *regions.Lookup

	byDistributor *memo.Cache[YearRange, PercentualTable]
	byRegion      *memo.Cache[YearRange, PercentualTable]
	stateAvg      *memo.Cache[YearRange, []Average]
	regionAvg     *memo.Cache[YearRange, []Average]
}

// NewService binds a table snapshot to the region lookup.
func NewService(snap dataset.Snapshot, lookup *regions.Lookup) *Service {
	return &Service{
		table:         snap.Table,
		version:       snap.Version,
		lookup:        lookup,
		byDistributor: memo.New[YearRange, PercentualTable](),
		byRegion:      memo.New[YearRange, PercentualTable](),
		stateAvg:      memo.New[YearRange, []Average](),
		regionAvg:     memo.New[YearRange, []Average](),
	}
}

// Table exposes the underlying immutable table.
func (s *Service) Table() *dataset.Table { return s.table }

// Lookup exposes the region lookup.
func (s *Service) Lookup() *regions.Lookup { return s.lookup }

// Version identifies the loaded workbook revision.
func (s *Service) Version() int64 { return s.version }

// Years lists the calendar years present in the data.
func (s *Service) Years() []int { return s.table.Years() }

// Bounds returns the full year range of the data.
func (s *Service) Bounds() YearRange {
	years := s.table.Years()
	if len(years) == 0 {
		return YearRange{}
	}
	return YearRange{Min: years[0], Max: years[len(years)-1]}
}

// Entities lists selectable names for a mode.
func (s *Service) Entities(mode Mode) []string {
	return Entities(s.table, mode, s.lookup)
}

// PercentualsByDistributor is the memoized form of the package function.
func (s *Service) PercentualsByDistributor(ctx context.Context, yr YearRange) (PercentualTable, error) {
	return s.byDistributor.Get(ctx, yr, func(context.Context) (PercentualTable, error) {
		return PercentualsByDistributor(s.table, yr)
	})
}

// PercentualsByRegion is the memoized form of the package function.
func (s *Service) PercentualsByRegion(ctx context.Context, yr YearRange) (PercentualTable, error) {
	return s.byRegion.Get(ctx, yr, func(ctx context.Context) (PercentualTable, error) {
		return PercentualsByRegion(ctx, s.table, yr, s.lookup)
	})
}

// Percentuals dispatches on mode.
func (s *Service) Percentuals(ctx context.Context, mode Mode, yr YearRange) (PercentualTable, error) {
	if mode == ModeRegion {
		return s.PercentualsByRegion(ctx, yr)
	}
	return s.PercentualsByDistributor(ctx, yr)
}

// Averages returns per-state averages in distributor mode and per-region
// averages in region mode, the values shaded on the national map.
func (s *Service) Averages(ctx context.Context, mode Mode, yr YearRange) ([]Average, error) {
	if mode == ModeRegion {
		return s.regionAvg.Get(ctx, yr, func(context.Context) ([]Average, error) {
			return RegionAverages(s.table, yr, s.lookup)
		})
	}
	return s.stateAvg.Get(ctx, yr, func(context.Context) ([]Average, error) {
		return StateAverages(s.table, yr, s.lookup)
	})
}

// Series returns monthly series for the selected entities.
func (s *Service) Series(mode Mode, yr YearRange, names []string) ([]Series, error) {
	return SeriesFor(s.table, yr, mode, names, s.lookup)
}

// Resolve fills zero bounds from the data's full range, so an omitted
// range selects every year.
func (s *Service) Resolve(minYear, maxYear int) YearRange {
	b := s.Bounds()
	if minYear == 0 {
		minYear = b.Min
	}
	if maxYear == 0 {
		maxYear = b.Max
	}
	return YearRange{Min: minYear, Max: maxYear}
}
