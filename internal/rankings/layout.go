package rankings

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Billy-Davies-2/adp-draft-board/internal/models"
)

// Source is a named ranking provider and the CSV column holding its rank
type Source struct {
	ID     string `yaml:"id"`
	Label  string `yaml:"label"`
	Column int    `yaml:"column"`
	// Platform is the analytics platform name mapped onto this source.
	// Defaults to ID.
	Platform string `yaml:"platform"`
}

// Layout maps fixed CSV column indices to record fields
type Layout struct {
	Position int      `yaml:"position"`
	Player   int      `yaml:"player"`
	Team     int      `yaml:"team"`
	Sources  []Source `yaml:"sources"`
}

// DefaultLayout matches the FantasyPros-style ADP export:
// rank, position, player, team, then per-platform ranks with column 9 unused.
func DefaultLayout() Layout {
	return Layout{
		Position: 1,
		Player:   2,
		Team:     3,
		Sources: []Source{
			{ID: "underdog", Label: "Underdog", Column: 4, Platform: "underdog"},
			{ID: "cbs", Label: "CBS", Column: 5, Platform: "cbs"},
			{ID: "espn", Label: "ESPN", Column: 6, Platform: "espn"},
			{ID: "ffpc", Label: "FFPC", Column: 7, Platform: "ffpc"},
			{ID: "bb10s", Label: "BB10s", Column: 8, Platform: "bb10s"},
			{ID: "yahoo", Label: "Y!", Column: 10, Platform: "yahoo"},
		},
	}
}

// LoadLayout reads a YAML layout file. An empty path returns DefaultLayout.
func LoadLayout(path string) (Layout, error) {
	if path == "" {
		return DefaultLayout(), nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("failed to read layout file: %w", err)
	}

	return ParseLayout(b)
}

// ParseLayout decodes and validates a YAML layout
func ParseLayout(b []byte) (Layout, error) {
	var layout Layout
	if err := yaml.Unmarshal(b, &layout); err != nil {
		return Layout{}, fmt.Errorf("failed to parse layout: %w", err)
	}

	for i := range layout.Sources {
		s := &layout.Sources[i]
		s.ID = strings.ToLower(strings.TrimSpace(s.ID))
		if s.Label == "" {
			s.Label = s.ID
		}
		if s.Platform == "" {
			s.Platform = s.ID
		}
	}

	if err := layout.Validate(); err != nil {
		return Layout{}, err
	}
	return layout, nil
}

// Validate checks column indices and source ids
func (l Layout) Validate() error {
	if l.Position < 0 || l.Player < 0 || l.Team < 0 {
		return fmt.Errorf("layout: column indices must be non-negative")
	}
	if len(l.Sources) == 0 {
		return fmt.Errorf("layout: at least one ranking source is required")
	}

	seen := make(map[string]bool, len(l.Sources))
	for _, s := range l.Sources {
		if s.ID == "" {
			return fmt.Errorf("layout: source id is required")
		}
		if isTextColumn(s.ID) || s.ID == string(models.ColumnADP) {
			return fmt.Errorf("layout: source id %q collides with a text column", s.ID)
		}
		if s.Column < 0 {
			return fmt.Errorf("layout: source %s has negative column", s.ID)
		}
		if seen[s.ID] {
			return fmt.Errorf("layout: duplicate source id %s", s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// Width is the number of columns a row needs to fill every field
func (l Layout) Width() int {
	w := max(l.Position, l.Player, l.Team)
	for _, s := range l.Sources {
		w = max(w, s.Column)
	}
	return w + 1
}

// SourceIDs returns the source ids in display order
func (l Layout) SourceIDs() []string {
	ids := make([]string, len(l.Sources))
	for i, s := range l.Sources {
		ids[i] = s.ID
	}
	return ids
}

// SourceLabels returns the source column headers in display order
func (l Layout) SourceLabels() []string {
	labels := make([]string, len(l.Sources))
	for i, s := range l.Sources {
		labels[i] = s.Label
	}
	return labels
}

func (l Layout) hasSource(id string) bool {
	for _, s := range l.Sources {
		if s.ID == id {
			return true
		}
	}
	return false
}
