package mcperr

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Code defines a canonical error code used across tools and HTTP routes.
type Code string

const (
	// Validation & Input
	Validation    Code = "VALIDATION"
	CursorInvalid Code = "CURSOR_INVALID"
	UnknownEntity Code = "UNKNOWN_ENTITY"

	// Resource & Limits
	BusyResource Code = "BUSY_RESOURCE"
	Timeout      Code = "TIMEOUT"

	// Data
	DataFormat  Code = "DATA_FORMAT"
	ParseFailed Code = "PARSE_FAILED"
	EmptyRange  Code = "EMPTY_RANGE"

	// Remote & Rendering
	RemoteFetchFailed Code = "REMOTE_FETCH_FAILED"
	RenderFailed      Code = "RENDER_FAILED"
	AnalysisFailed    Code = "ANALYSIS_FAILED"

	// Integrity
	PermissionDenied Code = "PERMISSION_DENIED"
)

// Entry documents a code's standard message, retry semantics, and next steps.
type Entry struct {
	Code       Code
	Message    string
	Retryable  bool
	HTTPStatus int
	NextSteps  []string
}

var catalog = map[Code]Entry{
	Validation:    {Code: Validation, Message: "invalid inputs", Retryable: true, HTTPStatus: 400, NextSteps: []string{"Correct the inputs per schema and retry", "Call list_years for the valid year bounds"}},
	CursorInvalid: {Code: CursorInvalid, Message: "cursor is invalid for current query", Retryable: true, HTTPStatus: 400, NextSteps: []string{"Restart pagination from the first page", "Reissue the query without a cursor"}},
	UnknownEntity: {Code: UnknownEntity, Message: "entity not found", Retryable: true, HTTPStatus: 404, NextSteps: []string{"Call list_entities to see valid names", "Check the mode (distributor or region)"}},

	BusyResource: {Code: BusyResource, Message: "concurrent request limit reached", Retryable: true, HTTPStatus: 503, NextSteps: []string{"Retry after a short delay"}},
	Timeout:      {Code: Timeout, Message: "operation exceeded configured time limit", Retryable: true, HTTPStatus: 504, NextSteps: []string{"Narrow the year range or select fewer entities"}},

	DataFormat:  {Code: DataFormat, Message: "workbook does not have the expected layout", Retryable: false, HTTPStatus: 422, NextSteps: []string{"Verify the sheet name and header labels", "Provide the original ANP workbook"}},
	ParseFailed: {Code: ParseFailed, Message: "workbook contains an unparseable month", Retryable: false, HTTPStatus: 422, NextSteps: []string{"Fix the header cell to YYYY-MM"}},
	EmptyRange:  {Code: EmptyRange, Message: "no data in the selected year range", Retryable: true, HTTPStatus: 422, NextSteps: []string{"Widen the year range", "Call list_years for the valid bounds"}},

	RemoteFetchFailed: {Code: RemoteFetchFailed, Message: "boundary service unavailable", Retryable: true, HTTPStatus: 502, NextSteps: []string{"Retry later", "Use percentuals_by_region for a tabular view"}},
	RenderFailed:      {Code: RenderFailed, Message: "chart rendering failed", Retryable: true, HTTPStatus: 500, NextSteps: []string{"Select entities with data in the year range"}},
	AnalysisFailed:    {Code: AnalysisFailed, Message: "analysis failed", Retryable: true, HTTPStatus: 500, NextSteps: []string{"Retry with a different year range"}},

	PermissionDenied: {Code: PermissionDenied, Message: "insufficient permissions to access path", Retryable: false, HTTPStatus: 403, NextSteps: []string{"Adjust permissions or choose an allowed directory"}},
}

// Lookup returns the catalog entry for code.
func Lookup(code Code) (Entry, bool) {
	e, ok := catalog[code]
	return e, ok
}

// HTTPStatus returns the status used when code is rendered over HTTP.
func HTTPStatus(code Code) int {
	if e, ok := catalog[code]; ok && e.HTTPStatus != 0 {
		return e.HTTPStatus
	}
	return 500
}

// Text builds the standard "CODE: message | nextSteps: ..." string.
func Text(code Code, msg string) string {
	base := strings.TrimSpace(msg)
	e, ok := catalog[code]
	if !ok {
		if base == "" {
			return string(code)
		}
		return fmt.Sprintf("%s: %s", string(code), base)
	}
	if base == "" {
		base = e.Message
	}
	guidance := ""
	if len(e.NextSteps) > 0 {
		guidance = " | nextSteps: " + strings.Join(e.NextSteps, "; ")
	}
	return fmt.Sprintf("%s: %s%s", e.Code, base, guidance)
}

// FromText parses a "CODE: message" string, enriches it with catalog guidance,
// and returns an MCP tool error result.
func FromText(text string) *mcp.CallToolResult {
	t := strings.TrimSpace(text)
	if t == "" {
		return mcp.NewToolResultError(Text(Validation, ""))
	}
	parts := strings.SplitN(t, ":", 2)
	code := Code(strings.TrimSpace(parts[0]))
	msg := ""
	if len(parts) > 1 {
		msg = strings.TrimSpace(parts[1])
	}
	return mcp.NewToolResultError(Text(code, msg))
}

// New returns an MCP error result for a given code and optional message override.
func New(code Code, message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(Text(code, message))
}

// Wrapf formats details and returns an MCP error result for the code.
func Wrapf(code Code, format string, args ...any) *mcp.CallToolResult {
	return mcp.NewToolResultError(Text(code, fmt.Sprintf(format, args...)))
}
