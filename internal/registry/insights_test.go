package registry

import (
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"
	"github.com/vinodismyname/gasdash/internal/insights"
)

func TestDemandConcentration(t *testing.T) {
	h := newHandlers(t)
	res, err := h.DemandConcentration(bg, mcp.CallToolRequest{}, ConcentrationInput{TopN: 1})
	require.NoError(t, err)
	out := res.StructuredContent.(insights.ConcentrationReport)
	require.Equal(t, "D1 (SP)", out.Groups[0].Name)
	require.InDelta(t, 0.667, out.Groups[0].Share, 1e-3)
	// (2/3)^2 + (1/3)^2
	require.InDelta(t, 0.556, out.HHI, 1e-3)
	require.Equal(t, insights.HighlyConcentrated, out.Band)

	res, err = h.DemandConcentration(bg, mcp.CallToolRequest{}, ConcentrationInput{TopN: 50})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(errText(t, res), "VALIDATION:"))
}

func TestCompositionShift(t *testing.T) {
	h := newHandlers(t)
	in := CompositionShiftInput{BaselineMin: 2020, BaselineMax: 2020, CurrentMin: 2021, CurrentMax: 2021}
	res, err := h.CompositionShift(bg, mcp.CallToolRequest{}, in)
	require.NoError(t, err)
	out := res.StructuredContent.(insights.ShiftReport)
	require.Len(t, out.Groups, 2)
	for _, g := range out.Groups {
		require.Zero(t, g.PPChange)
		require.False(t, g.Highlight)
	}

	in.BaselineMax = 2019
	res, err = h.CompositionShift(bg, mcp.CallToolRequest{}, in)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(errText(t, res), "VALIDATION:"))

	in = CompositionShiftInput{BaselineMin: 1990, BaselineMax: 1991, CurrentMin: 2021, CurrentMax: 2021}
	res, err = h.CompositionShift(bg, mcp.CallToolRequest{}, in)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(errText(t, res), "EMPTY_RANGE:"))
}

func TestRegisterInsightTools(t *testing.T) {
	s := server.NewMCPServer("t", "0")
	reg := New()
	RegisterInsightTools(s, reg, newHandlers(t))
	_, ok := reg.Get(ToolConcentration)
	require.True(t, ok)
	g, ok := reg.GroupOf(ToolCompositionShift)
	require.True(t, ok)
	require.Equal(t, GroupInsights, g)

	// Insight tools survive offline mode.
	require.Len(t, NewOfflineFilter(reg, true).FilterTools(bg, reg.Tools()), 2)
}
