package rankings

import (
	"math"
	"strconv"
	"strings"

	"github.com/Billy-Davies-2/adp-draft-board/internal/models"
)

// UnrankedADP is assigned to players without any usable source rank.
// It is displayed blank and always compares after real ranks.
const UnrankedADP = 999.0

// ParseRank converts a raw CSV rank field. Empty fields, "-", and anything
// that is not a finite number are reported as missing.
func ParseRank(raw string) models.SourceRank {
	raw = strings.TrimSpace(raw)
	rank := models.SourceRank{Raw: raw}
	if raw == "" || raw == "-" {
		return rank
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return rank
	}

	rank.Value = v
	rank.OK = true
	return rank
}

// AverageADP returns the mean of the present ranks and whether any existed.
// With no usable rank the result is UnrankedADP.
func AverageADP(ranks []models.SourceRank) (float64, bool) {
	sum := 0.0
	n := 0
	for _, r := range ranks {
		if !r.OK {
			continue
		}
		sum += r.Value
		n++
	}
	if n == 0 {
		return UnrankedADP, false
	}
	return sum / float64(n), true
}

// FormatADP renders an ADP with two decimals, or blank when unranked
func FormatADP(rec models.PlayerRecord) string {
	if !rec.Ranked {
		return ""
	}
	return strconv.FormatFloat(rec.AverageADP, 'f', 2, 64)
}

// FormatRank renders a source rank, "-" when missing
func FormatRank(r models.SourceRank) string {
	if !r.OK {
		return "-"
	}
	return r.Raw
}

// sortKey is the numeric comparison key of a column; missing is +Inf
func sortKey(rec models.PlayerRecord, column models.SortColumn) float64 {
	if column == models.ColumnADP {
		if !rec.Ranked {
			return math.Inf(1)
		}
		return rec.AverageADP
	}

	r, ok := rec.Ranks[string(column)]
	if !ok || !r.OK {
		return math.Inf(1)
	}
	return r.Value
}
