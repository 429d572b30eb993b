package rankings

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/Billy-Davies-2/adp-draft-board/internal/models"
)

// Search finds players whose name fuzzily contains query, closest first.
// A non-positive limit returns every match.
func (t *Table) Search(query string, limit int) []models.SearchResult {
	query = strings.TrimSpace(query)
	if query == "" || len(t.records) == 0 {
		return nil
	}

	names := make([]string, len(t.records))
	for i, rec := range t.records {
		names[i] = rec.Player
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Stable(ranks)

	if limit > 0 && len(ranks) > limit {
		ranks = ranks[:limit]
	}

	results := make([]models.SearchResult, 0, len(ranks))
	for _, r := range ranks {
		rec := t.records[r.OriginalIndex]
		results = append(results, models.SearchResult{
			Player:   rec.Player,
			Position: rec.Position,
			Team:     rec.Team,
			ADP:      FormatADP(rec),
			Drafted:  t.IsDrafted(rec.Player),
			Distance: r.Distance,
		})
	}
	return results
}
