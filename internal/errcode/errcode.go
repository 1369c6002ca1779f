// Package errcode maps domain errors onto the mcperr catalog.
package errcode

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/vinodismyname/gasdash/internal/charts"
	"github.com/vinodismyname/gasdash/internal/dataset"
	"github.com/vinodismyname/gasdash/internal/demand"
	"github.com/vinodismyname/gasdash/internal/geo"
	"github.com/vinodismyname/gasdash/internal/security"
	"github.com/vinodismyname/gasdash/pkg/mcperr"
	"github.com/vinodismyname/gasdash/pkg/pagination"
)

// Of returns the catalog code for err. Unrecognized errors fall back to
// AnalysisFailed; nil yields the empty code.
func Of(err error) mcperr.Code {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return mcperr.Timeout
	case errors.Is(err, dataset.ErrParse):
		return mcperr.ParseFailed
	case errors.Is(err, dataset.ErrDataFormat):
		return mcperr.DataFormat
	case errors.Is(err, demand.ErrEmptyRange):
		return mcperr.EmptyRange
	case errors.Is(err, demand.ErrUnknownEntity):
		return mcperr.UnknownEntity
	case errors.Is(err, geo.ErrRemoteFetch):
		return mcperr.RemoteFetchFailed
	case errors.Is(err, charts.ErrNoData):
		return mcperr.RenderFailed
	case errors.Is(err, pagination.ErrInvalidCursor):
		return mcperr.CursorInvalid
	case errors.Is(err, security.ErrNotAllowed),
		errors.Is(err, security.ErrUnsupportedExtension),
		errors.Is(err, security.ErrNotFound):
		return mcperr.PermissionDenied
	}
	return mcperr.AnalysisFailed
}

// Result converts err into a tool-level error result.
func Result(err error) *mcp.CallToolResult {
	return mcperr.New(Of(err), err.Error())
}
