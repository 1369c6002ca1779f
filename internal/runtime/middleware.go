package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/vinodismyname/gasdash/pkg/mcperr"
)

type callIDKey struct{}

// CallID returns the correlation id assigned to the current tool call.
func CallID(ctx context.Context) string {
	id, _ := ctx.Value(callIDKey{}).(string)
	return id
}

// Middleware enforces runtime limits for tool calls using the Controller.
// It bounds global concurrency, applies an operation timeout, and tags the
// call context with a call_id carried by the logger.
type Middleware struct {
	ctrl   *Controller
	logger zerolog.Logger
}

// NewMiddleware constructs a Middleware bound to the provided Controller.
func NewMiddleware(ctrl *Controller, logger zerolog.Logger) *Middleware {
	return &Middleware{ctrl: ctrl, logger: logger}
}

// ToolMiddleware implements mcp-go's tool handler middleware interface.
func (m *Middleware) ToolMiddleware(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := uuid.NewString()
		logger := m.logger.With().Str("call_id", id).Str("tool", req.Params.Name).Logger()
		ctx = logger.WithContext(context.WithValue(ctx, callIDKey{}, id))

		if err := m.ctrl.TryAcquireRequest(ctx); err != nil {
			logger.Warn().Int("max", m.ctrl.limits.MaxConcurrentRequests).Msg("request rejected: busy")
			return mcperr.New(mcperr.BusyResource, fmt.Sprintf("concurrent request limit reached (max=%d)", m.ctrl.limits.MaxConcurrentRequests)), nil
		}
		defer m.ctrl.ReleaseRequest()

		callCtx := ctx
		cancel := func() {}
		if m.ctrl.limits.OperationTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, m.ctrl.limits.OperationTimeout)
		}
		defer cancel()

		start := time.Now()
		res, err := next(callCtx, req)
		dur := time.Since(start)

		if errors.Is(err, context.DeadlineExceeded) || (callCtx.Err() == context.DeadlineExceeded && err == nil && res == nil) {
			logger.Warn().Dur("duration", dur).Msg("tool call timed out")
			return mcperr.New(mcperr.Timeout, ""), nil
		}
		evt := logger.Debug()
		if res != nil && res.IsError {
			evt = logger.Info().Bool("tool_error", true)
		}
		evt.Dur("duration", dur).Msg("tool call finished")
		return res, err
	}
}
