package clickhouse

import (
	"context"
	"errors"
	"testing"

	"github.com/Billy-Davies-2/adp-draft-board/internal/dal"
	"github.com/Billy-Davies-2/adp-draft-board/internal/logger"
	"github.com/Billy-Davies-2/adp-draft-board/internal/mocks"
	"github.com/Billy-Davies-2/adp-draft-board/internal/models"
	"github.com/Billy-Davies-2/adp-draft-board/internal/rankings"
)

func init() {
	logger.Init()
}

type fixedSource []models.PlatformADP

func (f fixedSource) PlatformADP(context.Context) ([]models.PlatformADP, error) { return f, nil }
func (f fixedSource) Close() error                                          { return nil }

func TestSyncSavesParsableDocument(t *testing.T) {
	layout := rankings.DefaultLayout()
	store := dal.NewMemoryDAL()
	src := mocks.NewMockADPSource(layout.SourceIDs(), 42)

	doc, err := Sync(context.Background(), src, store, layout, "adp")
	if err != nil {
		t.Fatalf("Sync() failed: %v", err)
	}

	latest, err := store.LatestDocument(context.Background(), "adp")
	if err != nil {
		t.Fatalf("LatestDocument() failed: %v", err)
	}
	if latest.ID != doc.ID {
		t.Errorf("latest = %s, want %s", latest.ID, doc.ID)
	}

	table := rankings.NewTable(layout)
	table.LoadText(string(latest.Body))
	if table.Len() != 15 {
		t.Fatalf("expected 15 players in synced document, got %d", table.Len())
	}
	best, ok := table.BestAvailable()
	if !ok || best.Player != "Christian McCaffrey" {
		t.Errorf("best available = %+v", best)
	}
}

func TestSyncIgnoresUnknownPlatforms(t *testing.T) {
	layout := rankings.DefaultLayout()
	store := dal.NewMemoryDAL()

	src := fixedSource{
		{Position: "RB-1", Player: "Bijan Robinson", Team: "ATL", Platform: "sleeper", ADP: 3},
	}
	_, err := Sync(context.Background(), src, store, layout, "adp")
	if !errors.Is(err, ErrNoPicks) {
		t.Fatalf("expected ErrNoPicks, got %v", err)
	}
	if _, err := store.LatestDocument(context.Background(), "adp"); !errors.Is(err, dal.ErrNotFound) {
		t.Error("nothing should be saved when no aggregate matches")
	}
}

func TestSyncEmptySource(t *testing.T) {
	_, err := Sync(context.Background(), fixedSource(nil), dal.NewMemoryDAL(), rankings.DefaultLayout(), "adp")
	if !errors.Is(err, ErrNoPicks) {
		t.Fatalf("expected ErrNoPicks, got %v", err)
	}
}
