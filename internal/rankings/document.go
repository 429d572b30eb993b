package rankings

import (
	"slices"
	"strconv"
	"strings"

	"github.com/Billy-Davies-2/adp-draft-board/internal/models"
)

// BuildDocument renders aggregated per-platform picks as an ADP CSV document
// in the given layout. Platforms that map to no source are ignored. Players
// are ordered by their resulting average ADP, then by name.
func BuildDocument(layout Layout, picks []models.PlatformADP) []byte {
	byPlatform := make(map[string]Source, len(layout.Sources))
	for _, s := range layout.Sources {
		byPlatform[strings.ToLower(s.Platform)] = s
	}

	width := layout.Width()
	rankCol := -1
	if !usesColumn(layout, 0) {
		rankCol = 0
	}

	rows := make(map[string][]string)
	var order []string
	for _, p := range picks {
		src, ok := byPlatform[strings.ToLower(p.Platform)]
		if !ok {
			continue
		}
		row, seen := rows[p.Player]
		if !seen {
			row = make([]string, width)
			row[layout.Position] = p.Position
			row[layout.Player] = p.Player
			row[layout.Team] = p.Team
			rows[p.Player] = row
			order = append(order, p.Player)
		}
		row[src.Column] = strconv.FormatFloat(p.ADP, 'f', 1, 64)
	}

	records := make([]models.PlayerRecord, len(order))
	for i, name := range order {
		records[i] = ParseRow(rows[name], layout)
	}
	slices.SortStableFunc(records, func(a, b models.PlayerRecord) int {
		if c := compareFloat(sortKey(a, models.ColumnADP), sortKey(b, models.ColumnADP)); c != 0 {
			return c
		}
		return strings.Compare(a.Player, b.Player)
	})

	header := make([]string, width)
	if rankCol >= 0 {
		header[rankCol] = "Rank"
	}
	header[layout.Position] = "POS"
	header[layout.Player] = "Player"
	header[layout.Team] = "Team"
	for _, s := range layout.Sources {
		header[s.Column] = s.Label
	}

	var sb strings.Builder
	sb.WriteString(FormatLine(header))
	sb.WriteByte('\n')
	for i, rec := range records {
		row := rows[rec.Player]
		if rankCol >= 0 {
			row[rankCol] = strconv.Itoa(i + 1)
		}
		sb.WriteString(FormatLine(row))
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}

func usesColumn(layout Layout, col int) bool {
	if layout.Position == col || layout.Player == col || layout.Team == col {
		return true
	}
	for _, s := range layout.Sources {
		if s.Column == col {
			return true
		}
	}
	return false
}
