package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Billy-Davies-2/adp-draft-board/internal/board"
	"github.com/Billy-Davies-2/adp-draft-board/internal/dal"
	"github.com/Billy-Davies-2/adp-draft-board/internal/export"
	"github.com/Billy-Davies-2/adp-draft-board/internal/logger"
	"github.com/Billy-Davies-2/adp-draft-board/internal/models"
	"github.com/Billy-Davies-2/adp-draft-board/internal/pubsub"
	"github.com/Billy-Davies-2/adp-draft-board/internal/rankings"
)

const (
	maxUploadSize      = 8 << 20
	defaultSearchLimit = 10
	keepaliveInterval  = 30 * time.Second
)

// APIHandlers contains all API handler methods
type APIHandlers struct {
	board   *board.Service
	store   dal.DocumentDAL
	events  pubsub.Broker
	docName string

	done     chan struct{}
	doneOnce sync.Once
}

// NewAPIHandlers creates a new API handlers instance. store and events may be nil.
func NewAPIHandlers(b *board.Service, store dal.DocumentDAL, events pubsub.Broker, docName string) *APIHandlers {
	return &APIHandlers{
		board:   b,
		store:   store,
		events:  events,
		docName: docName,
		done:    make(chan struct{}),
	}
}

// Shutdown ends every open event stream. Register it with
// http.Server.RegisterOnShutdown so Shutdown does not wait on SSE clients.
func (h *APIHandlers) Shutdown() {
	h.doneOnce.Do(func() { close(h.done) })
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logger.Warn("Failed to decode request", "path", r.URL.Path, "error", err)
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

// GetBoard returns the render-ready board
func (h *APIHandlers) GetBoard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.board.View())
}

// SortBoard sorts by {column, direction}. Omitting direction acts like a header click.
func (h *APIHandlers) SortBoard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Column    string `json:"column"`
		Direction string `json:"direction"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	column := models.SortColumn(strings.ToLower(strings.TrimSpace(req.Column)))
	direction := models.Direction(strings.ToLower(strings.TrimSpace(req.Direction)))

	var ok bool
	if direction == "" {
		ok = h.board.SelectColumn(column)
	} else {
		ok = h.board.Sort(column, direction)
	}
	if !ok {
		http.Error(w, fmt.Sprintf("Cannot sort by %q %q", req.Column, req.Direction), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, h.board.View())
}

// FilterBoard sets the position filter
func (h *APIHandlers) FilterBoard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Position string `json:"position"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	h.board.Filter(req.Position)
	writeJSON(w, http.StatusOK, h.board.View())
}

// ToggleDrafted flips a player's drafted mark
func (h *APIHandlers) ToggleDrafted(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Player string `json:"player"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	player := strings.TrimSpace(req.Player)
	if player == "" {
		http.Error(w, "player is required", http.StatusBadRequest)
		return
	}

	drafted := h.board.ToggleDrafted(player)
	writeJSON(w, http.StatusOK, map[string]any{"player": player, "drafted": drafted})
}

// BestAvailable returns the highlighted player
func (h *APIHandlers) BestAvailable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	best, ok := h.board.BestAvailable()
	if !ok {
		http.Error(w, "No available player", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, best)
}

// Search fuzzily matches player names: ?q=&limit=
func (h *APIHandlers) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		http.Error(w, "q is required", http.StatusBadRequest)
		return
	}

	limit := defaultSearchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	results := h.board.Search(query, limit)
	if results == nil {
		results = []models.SearchResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

// ExportXLSX downloads the visible board as a spreadsheet
func (h *APIHandlers) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteBoardXLSX(&buf, h.board.View()); err != nil {
		logger.Error("Failed to export board", "error", err)
		http.Error(w, "Failed to export board", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="adp-board.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		logger.Warn("Failed to send board export", "error", err)
	}
}

// Documents lists stored versions (GET) or stores a new CSV version (POST).
// A new version is used the next time the board loads from the store.
func (h *APIHandlers) Documents(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		http.Error(w, "Document store not configured", http.StatusNotImplemented)
		return
	}

	switch r.Method {
	case http.MethodGet:
		docs, err := h.store.ListDocuments(r.Context(), h.docName)
		if err != nil {
			logger.Error("Failed to list documents", "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, docs)
	case http.MethodPost:
		h.uploadDocument(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *APIHandlers) uploadDocument(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadSize))
	if err != nil {
		http.Error(w, "Document too large", http.StatusRequestEntityTooLarge)
		return
	}

	records := rankings.Parse(string(body), h.board.Layout())
	if len(records) == 0 {
		http.Error(w, "Document has no player rows", http.StatusBadRequest)
		return
	}

	doc, err := h.store.SaveDocument(r.Context(), h.docName, body)
	if err != nil {
		logger.Error("Failed to save document", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	logger.Info("Stored ADP document", "name", doc.Name, "version", doc.ID, "players", len(records))
	if h.events != nil {
		h.events.Publish(pubsub.NewEvent(pubsub.EventDocumentSaved, map[string]any{
			"name":    doc.Name,
			"version": doc.ID,
			"players": len(records),
		}))
	}
	writeJSON(w, http.StatusCreated, doc)
}

// EventsSSE streams board events as Server-Sent Events
func (h *APIHandlers) EventsSSE(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		http.Error(w, "Events not enabled", http.StatusNotImplemented)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.events.Subscribe()
	defer h.events.Unsubscribe(ch)

	fmt.Fprintf(w, "data: {\"type\":\"connected\"}\n\n")
	flusher.Flush()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				logger.Warn("Failed to encode event", "type", event.Type, "error", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			logger.Debug("SSE client disconnected")
			return
		case <-h.done:
			logger.Debug("SSE stream closed for shutdown")
			return
		}
	}
}
