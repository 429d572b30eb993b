package mocks

import (
	"context"
	"math/rand"
	"sync"

	"github.com/Billy-Davies-2/adp-draft-board/internal/logger"
	"github.com/Billy-Davies-2/adp-draft-board/internal/models"
)

type mockPlayer struct {
	position string
	name     string
	team     string
	adp      float64
}

// MockADPSource stands in for ClickHouse during local development. It
// returns a fixed player pool with per-platform jitter around a base ADP.
type MockADPSource struct {
	mu        sync.Mutex
	rng       *rand.Rand
	platforms []string
	players   []mockPlayer
}

// NewMockADPSource creates a mock source producing aggregates for platforms
func NewMockADPSource(platforms []string, seed int64) *MockADPSource {
	logger.Info("Using MOCK ClickHouse ADP source for local development", "platforms", platforms)

	return &MockADPSource{
		rng:       rand.New(rand.NewSource(seed)),
		platforms: platforms,
		players: []mockPlayer{
			{"RB-1", "Christian McCaffrey", "SF", 1.4},
			{"WR-1", "CeeDee Lamb", "DAL", 2.6},
			{"WR-2", "Tyreek Hill", "MIA", 3.1},
			{"WR-3", "Justin Jefferson", "MIN", 4.2},
			{"WR-4", "Ja'Marr Chase", "CIN", 5.5},
			{"RB-2", "Breece Hall", "NYJ", 6.8},
			{"RB-3", "Bijan Robinson", "ATL", 7.3},
			{"WR-5", "Amon-Ra St. Brown", "DET", 8.1},
			{"TE-1", "Sam LaPorta", "DET", 24.7},
			{"QB-1", "Josh Allen", "BUF", 27.9},
			{"TE-2", "Travis Kelce", "KC", 29.4},
			{"QB-2", "Jalen Hurts", "PHI", 31.2},
			{"RB-4", "Kenneth Walker, III", "SEA", 38.5},
			{"K-1", "Justin Tucker", "BAL", 151.0},
			{"DST-1", "San Francisco 49ers", "SF", 142.3},
		},
	}
}

// PlatformADP returns one aggregate per player and platform. Roughly one in
// ten combinations is skipped, as if too few drafts reached that player.
func (m *MockADPSource) PlatformADP(ctx context.Context) ([]models.PlatformADP, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.PlatformADP, 0, len(m.players)*len(m.platforms))
	for _, p := range m.players {
		for _, platform := range m.platforms {
			if m.rng.Intn(10) == 0 {
				continue
			}
			// ±10% around the base
			jitter := (m.rng.Float64()*0.2 - 0.1) * p.adp
			adp := p.adp + jitter
			if adp < 1 {
				adp = 1
			}
			out = append(out, models.PlatformADP{
				Position: p.position,
				Player:   p.name,
				Team:     p.team,
				Platform: platform,
				ADP:      adp,
			})
		}
	}

	logger.Debug("Mock ClickHouse: generated ADP aggregates", "count", len(out))
	return out, nil
}

// Close is a no-op for the mock source
func (m *MockADPSource) Close() error {
	return nil
}
