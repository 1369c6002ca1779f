package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/vinodismyname/gasdash/internal/errcode"
	"github.com/vinodismyname/gasdash/internal/insights"
	"github.com/vinodismyname/gasdash/pkg/mcperr"
	"github.com/vinodismyname/gasdash/pkg/validation"
)

const (
	ToolConcentration    = "demand_concentration"
	ToolCompositionShift = "composition_shift"
)

// ConcentrationInput selects the entity kind, range and Top-N.
type ConcentrationInput struct {
	Mode    string `json:"mode,omitempty" validate:"omitempty,mode" jsonschema_description:"distributor (default) or region"`
	MinYear int    `json:"min_year,omitempty" validate:"omitempty,gte=1900,lte=2100" jsonschema_description:"First year (inclusive)"`
	MaxYear int    `json:"max_year,omitempty" validate:"omitempty,gte=1900,lte=2100" jsonschema_description:"Last year (inclusive)"`
	TopN    int    `json:"top_n,omitempty" validate:"omitempty,min=1,max=20" jsonschema_description:"Entities to report explicitly (default 5)"`
}

// CompositionShiftInput compares shares between a baseline and a current range.
type CompositionShiftInput struct {
	Mode        string  `json:"mode,omitempty" validate:"omitempty,mode" jsonschema_description:"distributor (default) or region"`
	BaselineMin int     `json:"baseline_min_year" validate:"required,gte=1900,lte=2100" jsonschema_description:"First year of the baseline range"`
	BaselineMax int     `json:"baseline_max_year" validate:"required,gtefield=BaselineMin,lte=2100" jsonschema_description:"Last year of the baseline range"`
	CurrentMin  int     `json:"current_min_year" validate:"required,gte=1900,lte=2100" jsonschema_description:"First year of the current range"`
	CurrentMax  int     `json:"current_max_year" validate:"required,gtefield=CurrentMin,lte=2100" jsonschema_description:"Last year of the current range"`
	TopN        int     `json:"top_n,omitempty" validate:"omitempty,min=1,max=20" jsonschema_description:"Movers to report (default 5)"`
	ThresholdPP float64 `json:"threshold_pp,omitempty" validate:"omitempty,gt=0,lte=100" jsonschema_description:"Highlight moves of at least this many percentage points (default 1)"`
}

// DemandConcentration reports Top-N share and HHI over percent shares.
func (h *Handlers) DemandConcentration(ctx context.Context, req mcp.CallToolRequest, in ConcentrationInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	yr, bad := h.resolve(in.MinYear, in.MaxYear)
	if bad != nil {
		return bad, nil
	}
	pt, err := h.svc.Percentuals(ctx, mode(in.Mode), yr)
	if err != nil {
		return errcode.Result(err), nil
	}
	out, err := insights.Concentration(pt, in.TopN)
	if err != nil {
		return errcode.Result(err), nil
	}
	names := make([]string, len(out.Groups))
	for i, g := range out.Groups {
		names[i] = fmt.Sprintf("%s %.1f%%", g.Name, 100*g.Share)
	}
	summary := fmt.Sprintf("hhi=%.3f band=%s top%d=%.1f%% (%s)", out.HHI, out.Band, out.TopN, 100*out.TopShare, strings.Join(names, ", "))
	return mcp.NewToolResultStructured(out, summary), nil
}

// CompositionShift reports the entities whose share moved most between two ranges.
func (h *Handlers) CompositionShift(ctx context.Context, req mcp.CallToolRequest, in CompositionShiftInput) (*mcp.CallToolResult, error) {
	if msg := validation.ValidateStruct(in); msg != "" {
		return mcperr.FromText(msg), nil
	}
	m := mode(in.Mode)
	base, err := h.svc.Percentuals(ctx, m, h.svc.Resolve(in.BaselineMin, in.BaselineMax))
	if err != nil {
		return errcode.Result(err), nil
	}
	curr, err := h.svc.Percentuals(ctx, m, h.svc.Resolve(in.CurrentMin, in.CurrentMax))
	if err != nil {
		return errcode.Result(err), nil
	}
	out := insights.CompositionShift(base, curr, in.TopN, in.ThresholdPP)

	lines := []string{fmt.Sprintf("share shift %s -> %s", out.Baseline, out.Current)}
	for _, g := range out.Groups {
		mark := ""
		if g.Highlight {
			mark = " *"
		}
		lines = append(lines, fmt.Sprintf("- %s %.2f%% -> %.2f%% (%+.2f pp)%s", g.Name, g.ShareBaseline, g.ShareCurrent, g.PPChange, mark))
	}
	res := mcp.NewToolResultStructured(out, lines[0])
	res.Content = []mcp.Content{mcp.NewTextContent(strings.Join(lines, "\n"))}
	return res, nil
}

// RegisterInsightTools wires the share-structure tools.
func RegisterInsightTools(s *server.MCPServer, reg *Registry, h *Handlers) {
	conc := mcp.NewTool(ToolConcentration,
		mcp.WithDescription("How concentrated national demand is across distributors or regions over a year range: Top-N entities with their share of the combined total, the Herfindahl-Hirschman index on 0-1 shares, and a band (unconcentrated < 0.15 <= moderately_concentrated < 0.25 <= highly_concentrated)."),
		mcp.WithInputSchema[ConcentrationInput](),
		mcp.WithOutputSchema[insights.ConcentrationReport](),
	)
	s.AddTool(conc, mcp.NewTypedToolHandler(h.DemandConcentration))
	reg.Register(GroupInsights, conc)

	shift := mcp.NewTool(ToolCompositionShift,
		mcp.WithDescription("Compare each entity's percent of national demand between a baseline and a current year range. Returns the Top-N movers by absolute change in percentage points; moves at or above threshold_pp are highlighted."),
		mcp.WithInputSchema[CompositionShiftInput](),
		mcp.WithOutputSchema[insights.ShiftReport](),
	)
	s.AddTool(shift, mcp.NewTypedToolHandler(h.CompositionShift))
	reg.Register(GroupInsights, shift)
}
