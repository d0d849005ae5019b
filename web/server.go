// Package web exposes the agent over a websocket chat endpoint plus a small
// REST surface for notebook management.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	nimbus "github.com/nexxia-ai/nimbus"
	"github.com/nexxia-ai/nimbus/event"
	"github.com/nexxia-ai/nimbus/notebook"
	"github.com/nexxia-ai/nimbus/store"
)

// inbound is a client frame. Type "message" sends user text, "resume" answers
// a pending interrupt. Values carries structured corrections; Text is used
// when the client answers with plain text.
type inbound struct {
	Type   string         `json:"type"`
	Text   string         `json:"text,omitempty"`
	Values map[string]any `json:"values,omitempty"`
}

// outbound is a server frame mirroring the thread's event stream.
type outbound struct {
	Type        string         `json:"type"`
	ThreadID    string         `json:"thread_id,omitempty"`
	CallID      string         `json:"call_id,omitempty"`
	Tool        string         `json:"tool,omitempty"`
	Content     string         `json:"content,omitempty"`
	Args        map[string]any `json:"args,omitempty"`
	Kind        string         `json:"kind,omitempty"`
	Prompt      string         `json:"prompt,omitempty"`
	Fields      []string       `json:"fields,omitempty"`
	Pending     map[string]any `json:"pending,omitempty"`
	ResponseKey string         `json:"response_key,omitempty"`
	Error       string         `json:"error,omitempty"`
}

type Server struct {
	app  *nimbus.App
	mux  *http.ServeMux
	http *http.Server
}

func NewServer(app *nimbus.App) *Server {
	s := &Server{app: app, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /ws", s.handleChat)
	s.mux.HandleFunc("GET /notebooks", s.handleListNotebooks)
	s.mux.HandleFunc("GET /notebooks/{name}", s.handleDownloadNotebook)
	s.mux.HandleFunc("POST /notebooks", s.handleUploadNotebook)
	s.mux.HandleFunc("DELETE /notebooks/{name}", s.handleDeleteNotebook)
	s.http = &http.Server{
		Addr:              app.Config.Listen,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the routing table, mainly for tests and for embedding the
// server behind an existing mux.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe() error {
	slog.Info("web server listening", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		http.Error(w, "missing user query parameter", http.StatusBadRequest)
		return
	}
	threadID := r.URL.Query().Get("thread")
	if threadID == "" {
		threadID = uuid.NewString()
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*", r.Host},
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "server error")

	ctx := r.Context()
	thread := s.app.Thread(threadID, userID)

	// Tell the client which thread it landed on so it can reconnect.
	if err := wsjson.Write(ctx, conn, outbound{Type: "session", ThreadID: threadID}); err != nil {
		return
	}

	for {
		var in inbound
		if err := wsjson.Read(ctx, conn, &in); err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				conn.Close(websocket.StatusNormalClosure, "")
			} else if !errors.Is(err, context.Canceled) {
				slog.Debug("websocket read ended", "thread", threadID, "error", err)
			}
			return
		}

		var runErr error
		switch in.Type {
		case "message":
			runErr = thread.Send(ctx, in.Text)
		case "resume":
			if len(in.Values) > 0 {
				runErr = thread.ResumeValues(ctx, in.Values)
			} else {
				runErr = thread.Resume(ctx, in.Text)
			}
		default:
			runErr = fmt.Errorf("unknown frame type %q", in.Type)
		}

		if err := s.drainEvents(ctx, conn, thread.Events()); err != nil {
			return
		}
		if runErr != nil {
			if err := wsjson.Write(ctx, conn, outbound{Type: "error", ThreadID: threadID, Error: runErr.Error()}); err != nil {
				return
			}
		}
	}
}

// drainEvents forwards every event queued during the last turn. The thread
// runs turns synchronously, so once Send or Resume returns the channel holds
// the complete trace and nothing more arrives until the next frame.
func (s *Server) drainEvents(ctx context.Context, conn *websocket.Conn, events <-chan event.Event) error {
	for {
		select {
		case ev := <-events:
			if err := wsjson.Write(ctx, conn, toOutbound(ev)); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func toOutbound(ev event.Event) outbound {
	switch e := ev.(type) {
	case *event.ContentEvent:
		return outbound{Type: "content", ThreadID: e.ThreadID, Content: e.Content}
	case *event.ToolCallEvent:
		return outbound{Type: "tool_call", ThreadID: e.ThreadID, CallID: e.CallID, Tool: e.ToolName, Args: e.Args}
	case *event.ToolResponseEvent:
		return outbound{Type: "tool_response", ThreadID: e.ThreadID, CallID: e.CallID, Tool: e.ToolName, Content: e.Content}
	case *event.InterruptEvent:
		return outbound{
			Type:        "interrupt",
			ThreadID:    e.ThreadID,
			CallID:      e.CallID,
			Tool:        e.ToolName,
			Kind:        e.Kind,
			Prompt:      e.Prompt,
			Fields:      e.Fields,
			Pending:     e.Pending,
			ResponseKey: e.ResponseKey,
		}
	case *event.ErrorEvent:
		return outbound{Type: "error", ThreadID: e.ThreadID, Error: e.Err.Error()}
	}
	return outbound{Type: "unknown", Content: fmt.Sprintf("%T", ev)}
}

type notebookSummary struct {
	Name        string    `json:"name"`
	Authors     []string  `json:"authors"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *Server) handleListNotebooks(w http.ResponseWriter, r *http.Request) {
	author := r.URL.Query().Get("author")
	if author == "" {
		http.Error(w, "missing author query parameter", http.StatusBadRequest)
		return
	}
	nbs, err := s.app.Store.NotebooksByAuthor(r.Context(), author, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]notebookSummary, 0, len(nbs))
	for _, nb := range nbs {
		out = append(out, notebookSummary{
			Name:        nb.Name,
			Authors:     nb.Authors,
			Description: nb.Description,
			UpdatedAt:   nb.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDownloadNotebook(w http.ResponseWriter, r *http.Request) {
	author := r.URL.Query().Get("author")
	if author == "" {
		http.Error(w, "missing author query parameter", http.StatusBadRequest)
		return
	}
	name := r.PathValue("name")
	nb, err := s.app.Store.NotebookByName(r.Context(), author, name, true)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "notebook not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/x-ipynb+json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", nb.Name))
	w.WriteHeader(http.StatusOK)
	w.Write(nb.Source)
}

type uploadRequest struct {
	Name        string          `json:"name"`
	Author      string          `json:"author"`
	Description string          `json:"description,omitempty"`
	Source      json.RawMessage `json:"source"`
}

func (s *Server) handleUploadNotebook(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Author == "" || !strings.HasSuffix(req.Name, ".ipynb") {
		http.Error(w, "author and a .ipynb name are required", http.StatusBadRequest)
		return
	}
	if _, err := notebook.Decode(req.Source); err != nil {
		http.Error(w, fmt.Sprintf("invalid notebook source: %v", err), http.StatusBadRequest)
		return
	}
	nb := &store.Notebook{
		Name:        req.Name,
		Authors:     []string{req.Author},
		Description: req.Description,
		Source:      req.Source,
	}
	if err := s.app.Store.SaveNotebook(r.Context(), nb); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": req.Name})
}

func (s *Server) handleDeleteNotebook(w http.ResponseWriter, r *http.Request) {
	author := r.URL.Query().Get("author")
	if author == "" {
		http.Error(w, "missing author query parameter", http.StatusBadRequest)
		return
	}
	name := r.PathValue("name")

	// Same ownership rule as list and download: only an author (or ADMIN)
	// may remove a notebook.
	if _, err := s.app.Store.NotebookByName(r.Context(), author, name, false); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "notebook not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	err := s.app.Store.DeleteNotebook(r.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "notebook not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response failed", "error", err)
	}
}
