package registry

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tmc/langchaingo/llms"
)

// Group classifies tools by what they depend on.
type Group string

const (
	// GroupCore tools only read the loaded table.
	GroupCore Group = "core"
	// GroupMap tools need the remote boundary services.
	GroupMap Group = "map"
	// GroupInsights tools derive share-structure metrics.
	GroupInsights Group = "insights"
)

type entry struct {
	tool  mcp.Tool
	group Group
}

// Registry keeps the advertised tool definitions with their group.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func New() *Registry {
	return &Registry{entries: map[string]entry{}}
}

// Register records tool under group, replacing any earlier definition.
func (r *Registry) Register(group Group, tool mcp.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[tool.Name] = entry{tool: tool, group: group}
}

func (r *Registry) Get(name string) (mcp.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e.tool, ok
}

// GroupOf reports the group name was registered under.
func (r *Registry) GroupOf(name string) (Group, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e.group, ok
}

// Tools returns the definitions sorted by name.
func (r *Registry) Tools() []mcp.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]mcp.Tool, 0, len(r.entries))
	for _, e := range r.entries {
		tools = append(tools, e.tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// ModelContextSize is the context window of modelName, for sizing tool output.
func (r *Registry) ModelContextSize(modelName string) int {
	return llms.GetModelContextSize(modelName)
}

// TokenFootprint counts the prompt tokens the serialized definitions cost.
// The encoder tables may be downloaded on first use.
func (r *Registry) TokenFootprint(modelName string) (int, error) {
	b, err := json.Marshal(r.Tools())
	if err != nil {
		return 0, err
	}
	return llms.CountTokens(modelName, string(b)), nil
}
