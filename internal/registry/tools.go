package registry

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/vinodismyname/gasdash/config"
	"github.com/vinodismyname/gasdash/internal/demand"
	"github.com/vinodismyname/gasdash/internal/errcode"
	"github.com/vinodismyname/gasdash/internal/regions"
	"github.com/vinodismyname/gasdash/internal/view"
	"github.com/vinodismyname/gasdash/pkg/mcperr"
	"github.com/vinodismyname/gasdash/pkg/pagination"
	"github.com/vinodismyname/gasdash/pkg/validation"
)

// Tool names.
const (
	ToolListYears         = "list_years"
	ToolListEntities      = "list_entities"
	ToolLookupDistributor = "lookup_distributor"
	ToolByDistributor     = "percentuals_by_distributor"
	ToolByRegion          = "percentuals_by_region"
	ToolDemandSeries      = "demand_series"
	ToolRenderCharts      = "render_charts"
	ToolDemandMap         = "demand_map"
	ToolDashboardView     = "dashboard_view"
)

// --- Input / Output Schemas (typed for discovery) ---

// ListYearsInput takes no parameters.
type ListYearsInput struct{}

// ListYearsOutput describes the loaded data's coverage.
type ListYearsOutput struct {
	Years        []int `json:"years" jsonschema_description:"Distinct calendar years in ascending order"`
	MinYear      int   `json:"min_year" jsonschema_description:"First year (slider lower bound)"`
	MaxYear      int   `json:"max_year" jsonschema_description:"Last year (slider upper bound)"`
	Months       int   `json:"months" jsonschema_description:"Number of monthly rows"`
	Distributors int   `json:"distributors" jsonschema_description:"Number of distributor columns"`
}

// ListEntitiesInput selects the entity kind.
type ListEntitiesInput struct {
	Mode string `json:"mode,omitempty" validate:"omitempty,mode" jsonschema_description:"distributor (default) or region"`
}

// ListEntitiesOutput lists selectable names.
type ListEntitiesOutput struct {
	Mode     demand.Mode `json:"mode"`
	Entities []string    `json:"entities"`
}

// LookupDistributorInput names one distributor.
type LookupDistributorInput struct {
	Name string `json:"name" validate:"required,entity" jsonschema_description:"Distributor display name, e.g. 'Comgás (SP)'"`
}

// LookupDistributorOutput reports the state and region parsed from a name.
type LookupDistributorOutput struct {
	Name      string `json:"name"`
	State     string `json:"state,omitempty" jsonschema_description:"Two-letter state code from the trailing parenthetical"`
	StateCode string `json:"state_code,omitempty" jsonschema_description:"IBGE state code (GEOCODIGO)"`
	Region    string `json:"region,omitempty"`
	Mapped    bool   `json:"mapped" jsonschema_description:"False when the name carries no known state"`
	InDataset bool   `json:"in_dataset" jsonschema_description:"True when the name is a column of the loaded table"`
}

// RangeInput is an inclusive year range. Omitted bounds default to the
// data's first and last year.
type RangeInput struct {
	MinYear int `json:"min_year,omitempty" validate:"omitempty,gte=1900,lte=2100" jsonschema_description:"First year (inclusive)"`
	MaxYear int `json:"max_year,omitempty" validate:"omitempty,gte=1900,lte=2100" jsonschema_description:"Last year (inclusive)"`
}

// SeriesInput selects monthly series with cursor paging.
type SeriesInput struct {
	Mode     string   `json:"mode,omitempty" validate:"omitempty,mode" jsonschema_description:"distributor (default) or region"`
	Entities []string `json:"entities" validate:"required,min=1,max=20,dive,entity" jsonschema_description:"Distributor or region names"`
	MinYear  int      `json:"min_year,omitempty" validate:"omitempty,gte=1900,lte=2100" jsonschema_description:"First year (inclusive)"`
	MaxYear  int      `json:"max_year,omitempty" validate:"omitempty,gte=1900,lte=2100" jsonschema_description:"Last year (inclusive)"`
	PageSize int      `json:"page_size,omitempty" validate:"omitempty,min=1,max=600" jsonschema_description:"Months per page"`
	Cursor   string   `json:"cursor,omitempty" validate:"omitempty,cursor" jsonschema_description:"nextCursor from a previous page; other inputs must match"`
}

// SeriesRow is one month; Values align with SeriesOutput.Entities and
// are null where the month has no observation.
type SeriesRow struct {
	Month  string     `json:"month"`
	Values []*float64 `json:"values"`
}

// PageMeta captures paging metadata.
type PageMeta struct {
	Total      int    `json:"total"`
	Offset     int    `json:"offset"`
	Returned   int    `json:"returned"`
	Truncated  bool   `json:"truncated"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// SeriesOutput is one page of monthly rows.
type SeriesOutput struct {
	Mode     demand.Mode      `json:"mode"`
	Range    demand.YearRange `json:"range"`
	Entities []string         `json:"entities"`
	Rows     []SeriesRow      `json:"rows"`
	Meta     PageMeta         `json:"meta"`
}

// SelectionInput is a mode, a year range and an entity selection.
type SelectionInput struct {
	Mode     string   `json:"mode,omitempty" validate:"omitempty,mode" jsonschema_description:"distributor (default) or region"`
	Entities []string `json:"entities,omitempty" validate:"omitempty,max=10,dive,entity" jsonschema_description:"Selected distributors or regions"`
	MinYear  int      `json:"min_year,omitempty" validate:"omitempty,gte=1900,lte=2100" jsonschema_description:"First year (inclusive)"`
	MaxYear  int      `json:"max_year,omitempty" validate:"omitempty,gte=1900,lte=2100" jsonschema_description:"Last year (inclusive)"`
}

// MapInput is a mode and a year range.
type MapInput struct {
	Mode    string `json:"mode,omitempty" validate:"omitempty,mode" jsonschema_description:"distributor (state map, default) or region (region map)"`
	MinYear int    `json:"min_year,omitempty" validate:"omitempty,gte=1900,lte=2100" jsonschema_description:"First year (inclusive)"`
	MaxYear int    `json:"max_year,omitempty" validate:"omitempty,gte=1900,lte=2100" jsonschema_description:"Last year (inclusive)"`
}

// Handlers implements the demand tools over a view builder.
type Handlers struct {
	views    *view.Builder
	svc      *demand.Service
	pageSize int
}

// NewHandlers constructs Handlers.
func NewHandlers(views *view.Builder) *Handlers {
	return &Handlers{views: views, svc: views.Service(), pageSize: config.DefaultSeriesPageSize}
}

func (h *Handlers) resolve(minYear, maxYear int) (demand.YearRange, *mcp.CallToolResult) {
	yr := h.svc.Resolve(minYear, maxYear)
	if err := yr.Validate(); err != nil {
		return yr, mcperr.Wrapf(mcperr.Validation, "min_year %d is after max_year %d", yr.Min, yr.Max)
	}
	return yr, nil
}

func mode(s string) demand.Mode {
	m, err := demand.ParseMode(s)
	if err != nil {
		return demand.ModeDistributor
	}
	return m
}

// ListYears reports available years.
func (h *Handlers) ListYears(ctx context.Context, req mcp.CallToolRequest, in ListYearsInput) (*mcp.CallToolResult, error) {
	b := h.svc.Bounds()
	out := ListYearsOutput{
		Years:        h.svc.Years(),
		MinYear:      b.Min,
		MaxYear:      b.Max,
		Months:       h.svc.Table().Len(),
		Distributors: len(h.svc.Table().Distributors),
	}
	summary := fmt.Sprintf("%d years (%d-%d), %d months, %d distributors", len(out.Years), out.MinYear, out.MaxYear, out.Months, out.Distributors)
	return mcp.NewToolResultStructured(out, summary), nil
}

// ListEntities lists distributors or regions.
func (h *Handlers) ListEntities(ctx context.Context, req mcp.CallToolRequest, in ListEntitiesInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	m := mode(in.Mode)
	out := ListEntitiesOutput{Mode: m, Entities: h.svc.Entities(m)}
	return mcp.NewToolResultStructured(out, strings.Join(out.Entities, "\n")), nil
}

// LookupDistributor resolves a name's state and region.
func (h *Handlers) LookupDistributor(ctx context.Context, req mcp.CallToolRequest, in LookupDistributorInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	name := strings.TrimSpace(in.Name)
	out := LookupDistributorOutput{Name: name}
	_, out.InDataset = h.svc.Table().Column(name)

	lookup := h.svc.Lookup()
	if uf, ok := regions.StateOf(name); ok {
		out.State = uf
		out.StateCode, _ = lookup.StateCode(uf)
		if r, ok := lookup.RegionOf(uf); ok {
			out.Region = string(r)
			out.Mapped = true
		}
	}
	summary := fmt.Sprintf("%s: unmapped", name)
	if out.Mapped {
		summary = fmt.Sprintf("%s: %s, %s", name, out.State, out.Region)
	}
	return mcp.NewToolResultStructured(out, summary), nil
}

func (h *Handlers) percentuals(ctx context.Context, m demand.Mode, in RangeInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	yr, bad := h.resolve(in.MinYear, in.MaxYear)
	if bad != nil {
		return bad, nil
	}
	pt, err := h.svc.Percentuals(ctx, m, yr)
	if err != nil {
		return errcode.Result(err), nil
	}
	return mcp.NewToolResultStructured(pt, percentualSummary(pt)), nil
}

func percentualSummary(pt demand.PercentualTable) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Percent of national demand, %s\n", pt.Range)
	for _, e := range pt.Entries {
		fmt.Fprintf(&b, "%s: %.2f%%\n", e.Name, e.Share)
	}
	if len(pt.Dropped) > 0 {
		fmt.Fprintf(&b, "unmapped: %s\n", strings.Join(pt.Dropped, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// PercentualsByDistributor returns each distributor's share.
func (h *Handlers) PercentualsByDistributor(ctx context.Context, req mcp.CallToolRequest, in RangeInput) (*mcp.CallToolResult, error) {
	return h.percentuals(ctx, demand.ModeDistributor, in)
}

// PercentualsByRegion returns the five regional shares.
func (h *Handlers) PercentualsByRegion(ctx context.Context, req mcp.CallToolRequest, in RangeInput) (*mcp.CallToolResult, error) {
	return h.percentuals(ctx, demand.ModeRegion, in)
}

// DemandSeries pages monthly values for the selected entities.
func (h *Handlers) DemandSeries(ctx context.Context, req mcp.CallToolRequest, in SeriesInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	m := mode(in.Mode)
	yr, bad := h.resolve(in.MinYear, in.MaxYear)
	if bad != nil {
		return bad, nil
	}
	series, err := h.svc.Series(m, yr, in.Entities)
	if err != nil {
		return errcode.Result(err), nil
	}
	names := make([]string, len(series))
	for i, s := range series {
		names[i] = s.Name
	}
	hash := pagination.HashEntities(names)

	off, ps := 0, h.pageSize
	if in.PageSize > 0 {
		ps = in.PageSize
	}
	if in.Cursor != "" {
		c, err := pagination.DecodeCursor(in.Cursor)
		if err != nil {
			return errcode.Result(err), nil
		}
		if err := c.Matches(string(m), hash, yr.Min, yr.Max, h.svc.Version()); err != nil {
			return errcode.Result(err), nil
		}
		off, ps = c.Off, c.Ps
	}

	total := 0
	if len(series) > 0 {
		total = len(series[0].Dates)
	}
	if off > total {
		return mcperr.New(mcperr.CursorInvalid, "offset beyond the selected months"), nil
	}
	end := min(off+ps, total)

	rows := make([]SeriesRow, 0, end-off)
	for i := off; i < end; i++ {
		row := SeriesRow{Month: series[0].Dates[i].Format("2006-01"), Values: make([]*float64, len(series))}
		for j, s := range series {
			if v := s.Values[i]; !math.IsNaN(v) {
				row.Values[j] = &v
			}
		}
		rows = append(rows, row)
	}

	out := SeriesOutput{
		Mode:     m,
		Range:    yr,
		Entities: names,
		Rows:     rows,
		Meta:     PageMeta{Total: total, Offset: off, Returned: len(rows), Truncated: end < total},
	}
	if end < total {
		tok, err := pagination.EncodeCursor(pagination.Cursor{
			M: string(m), E: hash, Y0: yr.Min, Y1: yr.Max,
			Off: pagination.NextOffset(off, len(rows)), Ps: ps, Dv: h.svc.Version(),
		})
		if err != nil {
			return errcode.Result(err), nil
		}
		out.Meta.NextCursor = tok
	}
	summary := fmt.Sprintf("%d of %d months for %s", len(rows), total, strings.Join(names, ", "))
	return mcp.NewToolResultStructured(out, summary), nil
}

func chartsResult(set *view.ChartSet) *mcp.CallToolResult {
	summary := fmt.Sprintf("%s; %s. Selected: %s", set.LineTitle, set.BarsTitle, strings.Join(set.Selected, ", "))
	res := mcp.NewToolResultStructured(set, summary)
	res.Content = []mcp.Content{
		mcp.NewTextContent(summary),
		mcp.NewImageContent(base64.StdEncoding.EncodeToString(set.Line), "image/png"),
		mcp.NewImageContent(base64.StdEncoding.EncodeToString(set.Bars), "image/png"),
	}
	return res
}

func mapResult(mv *view.MapView) *mcp.CallToolResult {
	summary := mv.Title
	if !mv.Map.Available {
		summary += " (map unavailable: " + mv.Map.Reason + ")"
	}
	return mcp.NewToolResultStructured(mv, summary)
}

// RenderCharts draws the line and bar charts for a selection.
func (h *Handlers) RenderCharts(ctx context.Context, req mcp.CallToolRequest, in SelectionInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	if len(in.Entities) == 0 {
		return mcperr.New(mcperr.Validation, "entities is required"), nil
	}
	yr, bad := h.resolve(in.MinYear, in.MaxYear)
	if bad != nil {
		return bad, nil
	}
	set, err := h.views.Charts(ctx, mode(in.Mode), yr, in.Entities)
	if err != nil {
		return errcode.Result(err), nil
	}
	return chartsResult(set), nil
}

// DemandMap builds the national choropleth.
func (h *Handlers) DemandMap(ctx context.Context, req mcp.CallToolRequest, in MapInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	yr, bad := h.resolve(in.MinYear, in.MaxYear)
	if bad != nil {
		return bad, nil
	}
	mv, err := h.views.Map(ctx, mode(in.Mode), yr)
	if err != nil {
		return errcode.Result(err), nil
	}
	return mapResult(mv), nil
}

// DashboardView returns the map for an empty selection and the charts otherwise.
func (h *Handlers) DashboardView(ctx context.Context, req mcp.CallToolRequest, in SelectionInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	yr, bad := h.resolve(in.MinYear, in.MaxYear)
	if bad != nil {
		return bad, nil
	}
	d, err := h.views.Dashboard(ctx, mode(in.Mode), yr, in.Entities)
	if err != nil {
		return errcode.Result(err), nil
	}
	if d.Kind == view.KindCharts {
		return chartsResult(d.Charts), nil
	}
	return mapResult(d.Map), nil
}

// RegisterDemandTools defines the tool schemas and binds them to h.
func RegisterDemandTools(s *server.MCPServer, reg *Registry, h *Handlers) {
	add := func(tool mcp.Tool, handler server.ToolHandlerFunc) {
		group := GroupCore
		if tool.Name == ToolDemandMap {
			group = GroupMap
		}
		s.AddTool(tool, handler)
		reg.Register(group, tool)
	}

	add(mcp.NewTool(ToolListYears,
		mcp.WithDescription("List the calendar years covered by the demand workbook, with first/last year for range selection."),
		mcp.WithInputSchema[ListYearsInput](),
		mcp.WithOutputSchema[ListYearsOutput](),
	), mcp.NewTypedToolHandler(h.ListYears))

	add(mcp.NewTool(ToolListEntities,
		mcp.WithDescription("List selectable distributors (source column order) or the five regions (Norte, Sul, Sudeste, Nordeste, Centro-Oeste)."),
		mcp.WithInputSchema[ListEntitiesInput](),
		mcp.WithOutputSchema[ListEntitiesOutput](),
	), mcp.NewTypedToolHandler(h.ListEntities))

	add(mcp.NewTool(ToolLookupDistributor,
		mcp.WithDescription("Resolve a distributor name's state from its trailing '(UF)' and map it to a region. Names without a valid two-letter state are reported unmapped."),
		mcp.WithInputSchema[LookupDistributorInput](),
		mcp.WithOutputSchema[LookupDistributorOutput](),
	), mcp.NewTypedToolHandler(h.LookupDistributor))

	add(mcp.NewTool(ToolByDistributor,
		mcp.WithDescription("Percent of national average demand held by each distributor over an inclusive year range: 100 * mean(distributor) / mean(national total). Errors: EMPTY_RANGE when no months fall in the range."),
		mcp.WithInputSchema[RangeInput](),
		mcp.WithOutputSchema[demand.PercentualTable](),
	), mcp.NewTypedToolHandler(h.PercentualsByDistributor))

	add(mcp.NewTool(ToolByRegion,
		mcp.WithDescription("Percent of national average demand held by each of the five regions, always in the order Norte, Sul, Sudeste, Nordeste, Centro-Oeste. Distributors with an unmapped state are listed in 'dropped'."),
		mcp.WithInputSchema[RangeInput](),
		mcp.WithOutputSchema[demand.PercentualTable](),
	), mcp.NewTypedToolHandler(h.PercentualsByRegion))

	add(mcp.NewTool(ToolDemandSeries,
		mcp.WithDescription("Monthly demand (million m³/day) for selected distributors or regions, paged by month. Region values are the monthly sum of their distributors. Pass meta.nextCursor with the same inputs to continue."),
		mcp.WithInputSchema[SeriesInput](),
		mcp.WithOutputSchema[SeriesOutput](),
	), mcp.NewTypedToolHandler(h.DemandSeries))

	add(mcp.NewTool(ToolRenderCharts,
		mcp.WithDescription("Render two PNG charts: monthly demand lines for the selected entities, and every entity's percent share as bars with the selected ones in their line color and the rest in black."),
		mcp.WithInputSchema[SelectionInput](),
	), mcp.NewTypedToolHandler(h.RenderCharts))

	add(mcp.NewTool(ToolDemandMap,
		mcp.WithDescription("National choropleth as GeoJSON: mean demand per state (distributor mode, fixed 0-15 scale) or per region (region mode). If the boundary service is unreachable the map is returned with available=false and the values table only."),
		mcp.WithInputSchema[MapInput](),
	), mcp.NewTypedToolHandler(h.DemandMap))

	add(mcp.NewTool(ToolDashboardView,
		mcp.WithDescription("What the dashboard shows for a selection: the national map when no entities are selected, otherwise the line and bar charts."),
		mcp.WithInputSchema[SelectionInput](),
	), mcp.NewTypedToolHandler(h.DashboardView))
}
