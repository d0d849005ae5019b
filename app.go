// Package nimbus wires the conversational notebook agent together: model,
// tool graph, document store and per-session threads.
package nimbus

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/nexxia-ai/nimbus/ai"
	"github.com/nexxia-ai/nimbus/graph"
	"github.com/nexxia-ai/nimbus/store"
	"github.com/nexxia-ai/nimbus/tools"
)

type App struct {
	Config *Config
	Store  store.Store
	Model  *ai.Model
	Graph  *graph.Graph

	mcp *ai.MCPHost

	mu      sync.Mutex
	threads map[string]*graph.Thread
}

// New assembles the application from configuration.
func New(cfg *Config) (*App, error) {
	setupLogging(cfg.LogLevel)

	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	model := ai.NewOpenAIModel(cfg.Model.Name, cfg.Model.APIKey, cfg.Model.BaseURL)
	if cfg.Model.RateLimit > 0 {
		model = ai.WithRateLimit(model, cfg.Model.RateLimit, cfg.Model.Burst)
	}
	model = ai.WithBreaker(model, "chat-model")

	g := graph.New(model)
	tools.RegisterAll(g, tools.Deps{Store: st, Model: model})

	app := &App{
		Config:  cfg,
		Store:   st,
		Model:   model,
		Graph:   g,
		threads: make(map[string]*graph.Thread),
	}

	if cfg.MCPConfig != "" {
		mcpCfg, err := ai.LoadMCPConfig(cfg.MCPConfig)
		if err != nil {
			return nil, err
		}
		app.mcp, err = ai.NewMCPHost(mcpCfg)
		if err != nil {
			return nil, err
		}
		g.RegisterExternal(app.mcp.AllTools()...)
	}

	return app, nil
}

// Thread returns the conversation thread for the session, creating it on
// first use. Each thread is independent; concurrent sessions never share
// state.
func (a *App) Thread(threadID, userID string) *graph.Thread {
	a.mu.Lock()
	defer a.mu.Unlock()
	if th, ok := a.threads[threadID]; ok {
		return th
	}
	th := a.Graph.NewThreadWithID(threadID, userID)
	a.threads[threadID] = th
	return th
}

func (a *App) Close() error {
	if a.mcp != nil {
		a.mcp.Close()
	}
	return a.Store.Close()
}

func openStore(cfg *Config) (store.Store, error) {
	switch strings.ToLower(cfg.Store.Backend) {
	case "", "memory":
		return store.NewInMemoryStore(), nil
	case "sqlite":
		return store.NewSQLiteStore(cfg.Store.DSN)
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
