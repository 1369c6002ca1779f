// Package view assembles what the dashboard shows for a selection: a
// national choropleth when nothing is selected, or a line chart of the
// selected entities next to a bar chart of every entity's share.
package view

import (
	"context"
	"errors"
	"fmt"
	"image/color"

	"github.com/rs/zerolog"
	"github.com/vinodismyname/gasdash/internal/charts"
	"github.com/vinodismyname/gasdash/internal/demand"
	"github.com/vinodismyname/gasdash/internal/geo"
)

// DemandUnit labels demand axes and legends.
const DemandUnit = "Demanda GN em milhões de m³/dia"

// BoundarySource supplies boundary collections; *geo.Fetcher implements it.
type BoundarySource interface {
	Fetch(ctx context.Context, kind geo.Kind) (*geo.Collection, error)
}

// Kind tells which presentation a Dashboard carries.
type Kind string

const (
	KindMap    Kind = "map"
	KindCharts Kind = "charts"
)

// Chart names one image of a ChartSet.
type Chart string

const (
	ChartLine Chart = "line"
	ChartBars Chart = "bars"
)

// ChartSet is the two-chart presentation for a non-empty selection.
type ChartSet struct {
	Mode        demand.Mode            `json:"mode"`
	Range       demand.YearRange       `json:"range"`
	Selected    []string               `json:"selected"`
	LineTitle   string                 `json:"line_title"`
	BarsTitle   string                 `json:"bars_title"`
	Percentuals demand.PercentualTable `json:"percentuals"`
	Line        []byte                 `json:"-"`
	Bars        []byte                 `json:"-"`
}

// MapView is the choropleth presentation for an empty selection.
type MapView struct {
	Mode   demand.Mode      `json:"mode"`
	Range  demand.YearRange `json:"range"`
	Title  string           `json:"title"`
	Legend string           `json:"legend"`
	Values []demand.Average `json:"values"`
	Map    geo.Map          `json:"map"`
}

// Dashboard holds exactly one of Map or Charts, according to Kind.
type Dashboard struct {
	Kind   Kind      `json:"kind"`
	Map    *MapView  `json:"map,omitempty"`
	Charts *ChartSet `json:"charts,omitempty"`
}

// Builder renders views over a demand service. A nil source, or offline
// mode, yields maps in the unavailable state.
type Builder struct {
	svc     *demand.Service
	source  BoundarySource
	offline bool

	renderLine func(title, ylabel string, series []demand.Series) ([]byte, error)
	renderBars func(title, ylabel string, entries []demand.Percentual, highlight map[string]color.Color) ([]byte, error)
}

// NewBuilder constructs a Builder.
func NewBuilder(svc *demand.Service, source BoundarySource, offline bool) *Builder {
	return &Builder{
		svc:        svc,
		source:     source,
		offline:    offline,
		renderLine: charts.Line,
		renderBars: charts.Bars,
	}
}

// Service exposes the underlying demand service.
func (b *Builder) Service() *demand.Service { return b.svc }

func span(yr demand.YearRange) string { return fmt.Sprintf("%d - %d", yr.Min, yr.Max) }

// Charts renders the line chart of the selected entities and the share bar
// chart of all entities, the selected ones colored like their lines.
func (b *Builder) Charts(ctx context.Context, mode demand.Mode, yr demand.YearRange, names []string) (*ChartSet, error) {
	return b.charts(ctx, mode, yr, names, ChartLine, ChartBars)
}

// Chart renders a single image of the chart set; the other is not drawn.
func (b *Builder) Chart(ctx context.Context, mode demand.Mode, yr demand.YearRange, names []string, which Chart) ([]byte, error) {
	if which != ChartLine && which != ChartBars {
		return nil, fmt.Errorf("view: unknown chart %q", which)
	}
	set, err := b.charts(ctx, mode, yr, names, which)
	if err != nil {
		return nil, err
	}
	if which == ChartBars {
		return set.Bars, nil
	}
	return set.Line, nil
}

func (b *Builder) charts(ctx context.Context, mode demand.Mode, yr demand.YearRange, names []string, draw ...Chart) (*ChartSet, error) {
	if len(names) == 0 {
		return nil, errors.New("view: charts need at least one selected entity")
	}
	series, err := b.svc.Series(mode, yr, names)
	if err != nil {
		return nil, err
	}
	pct, err := b.svc.Percentuals(ctx, mode, yr)
	if err != nil {
		return nil, err
	}
	selected := make([]string, len(series))
	for i, s := range series {
		selected[i] = s.Name
	}

	set := &ChartSet{
		Mode:        mode,
		Range:       yr,
		Selected:    selected,
		LineTitle:   "Demanda de GN em " + span(yr),
		BarsTitle:   barsTitle(mode, yr),
		Percentuals: pct,
	}
	for _, which := range draw {
		switch which {
		case ChartLine:
			set.Line, err = b.renderLine(set.LineTitle, DemandUnit, series)
		case ChartBars:
			set.Bars, err = b.renderBars(set.BarsTitle, "Percentual demanda GN", pct.Entries, charts.Highlights(selected))
		}
		if err != nil {
			return nil, err
		}
	}
	return set, nil
}

func barsTitle(mode demand.Mode, yr demand.YearRange) string {
	if mode == demand.ModeRegion {
		return "Percentual de cada região em relação ao total nacional " + span(yr)
	}
	return "Percentual de cada distribuidora em relação ao total nacional " + span(yr)
}

// Map renders the national choropleth: state averages in distributor mode
// on the fixed 0..15 scale, region averages in region mode on a scale
// derived from the data. Boundary failures degrade to an unavailable map.
func (b *Builder) Map(ctx context.Context, mode demand.Mode, yr demand.YearRange) (*MapView, error) {
	avgs, err := b.svc.Averages(ctx, mode, yr)
	if err != nil {
		return nil, err
	}
	values := make(map[string]float64, len(avgs))
	for _, a := range avgs {
		values[a.Code] = a.Value
	}

	kind, scale, by := geo.KindStates, geo.StateScale, "estado"
	if mode == demand.ModeRegion {
		kind, scale, by = geo.KindRegions, geo.LinearScale(values, 6), "região"
	}
	mv := &MapView{
		Mode:   mode,
		Range:  yr,
		Title:  fmt.Sprintf("Mapa de calor da Demanda de GN %s por %s", span(yr), by),
		Legend: "Demanda de GN",
		Values: avgs,
	}

	switch {
	case b.offline:
		mv.Map = geo.EmptyMap("boundary fetching disabled (offline mode)")
		return mv, nil
	case b.source == nil:
		mv.Map = geo.EmptyMap("no boundary source configured")
		return mv, nil
	}

	col, err := b.source.Fetch(ctx, kind)
	if err != nil {
		if !errors.Is(err, geo.ErrRemoteFetch) {
			return nil, err
		}
		zerolog.Ctx(ctx).Warn().Err(err).Str("kind", string(kind)).Msg("rendering map without boundaries")
		mv.Map = geo.EmptyMap(err.Error())
		return mv, nil
	}
	if mv.Map, err = geo.Choropleth(col, values, scale); err != nil {
		return nil, err
	}
	return mv, nil
}

// Dashboard applies the selection rule: no entities shows the map, one or
// more shows the charts.
func (b *Builder) Dashboard(ctx context.Context, mode demand.Mode, yr demand.YearRange, names []string) (*Dashboard, error) {
	if len(names) == 0 {
		m, err := b.Map(ctx, mode, yr)
		if err != nil {
			return nil, err
		}
		return &Dashboard{Kind: KindMap, Map: m}, nil
	}
	c, err := b.Charts(ctx, mode, yr, names)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Kind: KindCharts, Charts: c}, nil
}
