package mcperr

import (
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"
)

func TestText_AppendsGuidance(t *testing.T) {
	s := Text(EmptyRange, "")
	require.True(t, strings.HasPrefix(s, "EMPTY_RANGE: no data in the selected year range | nextSteps: "))

	require.Equal(t, "CUSTOM: boom", Text(Code("CUSTOM"), "boom"))
	require.Equal(t, "CUSTOM", Text(Code("CUSTOM"), " "))
}

func TestFromText(t *testing.T) {
	res := FromText("VALIDATION: min_year is required")
	require.True(t, res.IsError)
	tc := res.Content[0].(mcp.TextContent)
	require.True(t, strings.HasPrefix(tc.Text, "VALIDATION: min_year is required | nextSteps:"))
}

func TestHTTPStatus(t *testing.T) {
	require.Equal(t, 400, HTTPStatus(Validation))
	require.Equal(t, 404, HTTPStatus(UnknownEntity))
	require.Equal(t, 422, HTTPStatus(EmptyRange))
	require.Equal(t, 502, HTTPStatus(RemoteFetchFailed))
	require.Equal(t, 500, HTTPStatus(Code("NOPE")))
}
