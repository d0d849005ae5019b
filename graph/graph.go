// Package graph implements the conversational tool graph: a router that
// dispatches model tool calls to per-family subgraphs, each driving one
// agent tool through validate, infer, confirm and execute steps with
// human-in-the-loop interrupts.
package graph

import (
	"sync"

	"github.com/google/uuid"
	"github.com/nexxia-ai/nimbus/ai"
)

// Family composes exactly one handler/interrupt pair around a single agent
// tool. The one-pair topology is what enforces the at-most-one-in-flight
// invariant per thread.
type Family struct {
	Name string
	Tool *AgentTool
}

// Graph holds the router and the registered tool families. One Graph serves
// all threads; per-conversation state lives on the Thread.
type Graph struct {
	router   *Router
	mu       sync.RWMutex
	families map[string]*Family // keyed by tool name
	extra    []ai.Tool          // directly executed tools, no interrupt pipeline
}

func New(model *ai.Model) *Graph {
	return &Graph{
		router:   NewRouter(model),
		families: make(map[string]*Family),
	}
}

func (g *Graph) Router() *Router {
	return g.router
}

// Register adds a tool family. family is the subgraph name, e.g.
// "cds_ingestor_subgraph".
func (g *Graph) Register(family string, tool *AgentTool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.families[tool.Name] = &Family{Name: family, Tool: tool}
}

// RegisterExternal adds tools that execute directly without the argument
// pipeline, such as tools fetched from an mcp server.
func (g *Graph) RegisterExternal(tools ...ai.Tool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.extra = append(g.extra, tools...)
}

func (g *Graph) family(toolName string) (*Family, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	f, ok := g.families[toolName]
	return f, ok
}

func (g *Graph) externalTool(name string) (ai.Tool, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, t := range g.extra {
		if t.Name == name {
			return t, true
		}
	}
	return ai.Tool{}, false
}

// Tools lists every router-visible tool descriptor.
func (g *Graph) Tools() []ai.Tool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]ai.Tool, 0, len(g.families)+len(g.extra))
	for _, f := range g.families {
		out = append(out, f.Tool.AITool())
	}
	out = append(out, g.extra...)
	return out
}

// NewThread creates an independent conversation thread. Threads do not share
// mutable state; running them concurrently is safe.
func (g *Graph) NewThread(userID string) *Thread {
	return newThread(uuid.NewString(), userID, g)
}

// NewThreadWithID restores a thread under a known identifier, for callers
// that key threads by session.
func (g *Graph) NewThreadWithID(id, userID string) *Thread {
	return newThread(id, userID, g)
}
