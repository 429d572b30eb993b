package board

import (
	"context"
	"sync"

	"github.com/Billy-Davies-2/adp-draft-board/internal/logger"
	"github.com/Billy-Davies-2/adp-draft-board/internal/models"
	"github.com/Billy-Davies-2/adp-draft-board/internal/pubsub"
	"github.com/Billy-Davies-2/adp-draft-board/internal/rankings"
	"github.com/Billy-Davies-2/adp-draft-board/internal/source"
)

// Service is the single board of this process. Every table operation runs
// under one mutex; fetching the CSV does not.
type Service struct {
	mu     sync.Mutex
	table  *rankings.Table
	loader source.Loader
	events pubsub.Broker
}

// NewService creates an empty board. events may be nil.
func NewService(layout rankings.Layout, loader source.Loader, events pubsub.Broker) *Service {
	return &Service{
		table:  rankings.NewTable(layout),
		loader: loader,
		events: events,
	}
}

func (s *Service) publish(eventType string, payload map[string]any) {
	if s.events == nil {
		return
	}
	s.events.Publish(pubsub.NewEvent(eventType, payload))
}

// Load fetches the document and replaces the board with it. A failed fetch
// leaves the board empty with the error recorded, and the error is returned
// for logging only.
func (s *Service) Load(ctx context.Context) error {
	body, err := s.loader.Fetch(ctx)

	s.mu.Lock()
	if err != nil {
		s.table.LoadFailed(err)
	} else {
		s.table.LoadText(string(body))
	}
	count := s.table.Len()
	s.mu.Unlock()

	if err != nil {
		logger.Error("Failed to load ADP data", "source", s.loader.Describe(), "error", err)
		s.publish(pubsub.EventBoardLoaded, map[string]any{"ok": false, "error": err.Error()})
		return err
	}

	logger.Info("Loaded ADP data", "source", s.loader.Describe(), "players", count)
	s.publish(pubsub.EventBoardLoaded, map[string]any{"ok": true, "players": count})
	return nil
}

// Refresh fetches the document and swaps in its records while keeping the
// drafted set, sort and filter. A failed fetch leaves the board untouched.
func (s *Service) Refresh(ctx context.Context) error {
	body, err := s.loader.Fetch(ctx)
	if err != nil {
		logger.Warn("Failed to refresh ADP data, keeping current board", "source", s.loader.Describe(), "error", err)
		return err
	}

	s.mu.Lock()
	s.table.RefreshText(string(body))
	count := s.table.Len()
	s.mu.Unlock()

	logger.Info("Refreshed ADP data", "source", s.loader.Describe(), "players", count)
	s.publish(pubsub.EventBoardRefreshed, map[string]any{"players": count})
	return nil
}

// Sort applies an explicit column and direction
func (s *Service) Sort(column models.SortColumn, dir models.Direction) bool {
	s.mu.Lock()
	ok := s.table.Sort(column, dir)
	state := s.table.SortState()
	s.mu.Unlock()

	if ok {
		s.publish(pubsub.EventBoardSorted, sortPayload(state))
	}
	return ok
}

// SelectColumn toggles or switches the sort like a header click
func (s *Service) SelectColumn(column models.SortColumn) bool {
	s.mu.Lock()
	ok := s.table.SelectColumn(column)
	state := s.table.SortState()
	s.mu.Unlock()

	if ok {
		s.publish(pubsub.EventBoardSorted, sortPayload(state))
	}
	return ok
}

func sortPayload(state models.SortState) map[string]any {
	return map[string]any{"column": string(state.Column), "direction": string(state.Direction)}
}

// Filter shows only rows whose position prefix matches
func (s *Service) Filter(prefix string) string {
	s.mu.Lock()
	s.table.Filter(prefix)
	applied := s.table.FilterValue()
	s.mu.Unlock()

	s.publish(pubsub.EventBoardFiltered, map[string]any{"position": applied})
	return applied
}

// ToggleDrafted flips a player's drafted mark and returns the new state
func (s *Service) ToggleDrafted(player string) bool {
	s.mu.Lock()
	drafted := s.table.ToggleDrafted(player)
	s.mu.Unlock()

	logger.Debug("Toggled drafted", "player", player, "drafted", drafted)
	s.publish(pubsub.EventPlayerToggled, map[string]any{"player": player, "drafted": drafted})
	return drafted
}

// View returns the render-ready board
func (s *Service) View() models.BoardView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.View()
}

// BestAvailable returns the highlighted player, if any
func (s *Service) BestAvailable() (models.RowView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := s.table.View()
	if view.Best == nil {
		return models.RowView{}, false
	}
	return *view.Best, true
}

// Search fuzzily matches player names
func (s *Service) Search(query string, limit int) []models.SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Search(query, limit)
}

// Records returns the loaded records in current sort order
func (s *Service) Records() []models.PlayerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Records()
}

// Layout returns the column layout of the board
func (s *Service) Layout() rankings.Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Layout()
}

// Ready reports whether the last load succeeded
func (s *Service) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Err() == "" && !s.table.LoadedAt().IsZero()
}
