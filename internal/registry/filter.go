package registry

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// OfflineFilter hides GroupMap tools when boundary fetching is disabled
// (GASDASH_OFFLINE=true). Tools unknown to the registry pass through.
type OfflineFilter struct {
	reg     *Registry
	offline bool
}

func NewOfflineFilter(reg *Registry, offline bool) *OfflineFilter {
	return &OfflineFilter{reg: reg, offline: offline}
}

// FilterTools has the signature server.WithToolFilter expects.
func (f *OfflineFilter) FilterTools(ctx context.Context, tools []mcp.Tool) []mcp.Tool {
	if !f.offline {
		return tools
	}
	out := make([]mcp.Tool, 0, len(tools))
	for _, t := range tools {
		if g, ok := f.reg.GroupOf(t.Name); ok && g == GroupMap {
			continue
		}
		out = append(out, t)
	}
	return out
}
