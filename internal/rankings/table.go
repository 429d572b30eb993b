package rankings

import (
	"cmp"
	"errors"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/Billy-Davies-2/adp-draft-board/internal/models"
)

// FilterAll shows every position
const FilterAll = "ALL"

// ErrNoData is recorded when a load produced nothing usable
var ErrNoData = errors.New("no data")

// Table owns the board state: records, drafted set, sort and filter.
// It is not safe for concurrent use; callers serialize access.
type Table struct {
	layout   Layout
	records  []models.PlayerRecord
	visible  []bool
	drafted  map[string]struct{}
	best     int
	sort     models.SortState
	filter   string
	loadErr  string
	loadedAt time.Time
}

// NewTable creates an empty table for the given layout
func NewTable(layout Layout) *Table {
	return &Table{
		layout:  layout,
		drafted: make(map[string]struct{}),
		best:    -1,
		sort:    defaultSort(),
		filter:  FilterAll,
	}
}

func defaultSort() models.SortState {
	return models.SortState{Column: models.ColumnADP, Direction: models.Ascending}
}

// Layout returns the column layout the table was built with
func (t *Table) Layout() Layout {
	return t.layout
}

// Load replaces the collection, clears the drafted set and resets the sort
// to ADP ascending. The current filter is kept.
func (t *Table) Load(records []models.PlayerRecord) {
	t.records = slices.Clone(records)
	t.drafted = make(map[string]struct{})
	t.loadErr = ""
	t.loadedAt = time.Now()
	t.sort = defaultSort()

	t.sortRecords()
	t.applyFilter()
	t.RecomputeHighlights()
}

// LoadText parses a CSV document and loads it
func (t *Table) LoadText(text string) {
	t.Load(Parse(text, t.layout))
}

// Refresh replaces the collection but keeps the drafted set, sort and
// filter. Drafted names missing from the new records stay in the set.
func (t *Table) Refresh(records []models.PlayerRecord) {
	t.records = slices.Clone(records)
	t.loadErr = ""
	t.loadedAt = time.Now()

	t.sortRecords()
	t.applyFilter()
	t.RecomputeHighlights()
}

// RefreshText parses a CSV document and refreshes the table with it
func (t *Table) RefreshText(text string) {
	t.Refresh(Parse(text, t.layout))
}

// LoadFailed moves the table into the empty error state. Nothing from a
// previous load survives.
func (t *Table) LoadFailed(err error) {
	if err == nil {
		err = ErrNoData
	}
	t.records = nil
	t.visible = nil
	t.drafted = make(map[string]struct{})
	t.best = -1
	t.sort = defaultSort()
	t.loadErr = err.Error()
	t.loadedAt = time.Now()
}

// Err returns the last load error, if any
func (t *Table) Err() string {
	return t.loadErr
}

// LoadedAt returns when the last load or load failure happened
func (t *Table) LoadedAt() time.Time {
	return t.loadedAt
}

// Len returns the number of loaded records
func (t *Table) Len() int {
	return len(t.records)
}

// Records returns a copy of the records in current sort order
func (t *Table) Records() []models.PlayerRecord {
	return slices.Clone(t.records)
}

// SortState returns the active sort
func (t *Table) SortState() models.SortState {
	return t.sort
}

// FilterValue returns the active position filter
func (t *Table) FilterValue() string {
	return t.filter
}

// ValidColumn reports whether column can be sorted on
func (t *Table) ValidColumn(column models.SortColumn) bool {
	if isTextColumn(string(column)) || column == models.ColumnADP {
		return true
	}
	return t.layout.hasSource(string(column))
}

func isTextColumn(c string) bool {
	switch models.SortColumn(c) {
	case models.ColumnPosition, models.ColumnPlayer, models.ColumnTeam:
		return true
	}
	return false
}

// Sort orders the full collection by column, then reapplies the filter and
// highlights. An unknown column or direction leaves the table untouched.
func (t *Table) Sort(column models.SortColumn, dir models.Direction) bool {
	if !t.ValidColumn(column) {
		return false
	}
	if dir != models.Ascending && dir != models.Descending {
		return false
	}

	t.sort = models.SortState{Column: column, Direction: dir}
	t.sortRecords()
	t.applyFilter()
	t.RecomputeHighlights()
	return true
}

// SelectColumn handles a header click: the active column flips direction,
// any other column starts ascending.
func (t *Table) SelectColumn(column models.SortColumn) bool {
	dir := models.Ascending
	if column == t.sort.Column {
		dir = t.sort.Direction.Flip()
	}
	return t.Sort(column, dir)
}

func (t *Table) sortRecords() {
	column := t.sort.Column
	desc := t.sort.Direction == models.Descending

	slices.SortStableFunc(t.records, func(a, b models.PlayerRecord) int {
		c := compareRecords(a, b, column)
		if desc {
			return -c
		}
		return c
	})
}

func compareRecords(a, b models.PlayerRecord, column models.SortColumn) int {
	switch column {
	case models.ColumnPosition:
		return compareFold(a.Position, b.Position)
	case models.ColumnPlayer:
		return compareFold(a.Player, b.Player)
	case models.ColumnTeam:
		return compareFold(a.Team, b.Team)
	default:
		return compareFloat(sortKey(a, column), sortKey(b, column))
	}
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareFloat(a, b float64) int {
	return cmp.Compare(a, b)
}

// Filter sets the position prefix and recomputes visibility and highlights.
// An empty prefix means ALL.
func (t *Table) Filter(prefix string) {
	t.filter = normalizeFilter(prefix)
	t.applyFilter()
	t.RecomputeHighlights()
}

func normalizeFilter(prefix string) string {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		return FilterAll
	}
	return prefix
}

// PositionPrefix is the upper-cased part of a position before its first hyphen
func PositionPrefix(position string) string {
	before, _, _ := strings.Cut(position, "-")
	return strings.ToUpper(strings.TrimSpace(before))
}

func (t *Table) applyFilter() {
	t.visible = make([]bool, len(t.records))
	for i, rec := range t.records {
		t.visible[i] = t.filter == FilterAll || PositionPrefix(rec.Position) == t.filter
	}
}

// ToggleDrafted flips a player's drafted mark and returns the new state
func (t *Table) ToggleDrafted(player string) bool {
	_, drafted := t.drafted[player]
	if drafted {
		delete(t.drafted, player)
	} else {
		t.drafted[player] = struct{}{}
	}
	t.RecomputeHighlights()
	return !drafted
}

// IsDrafted reports whether a player is marked drafted
func (t *Table) IsDrafted(player string) bool {
	_, ok := t.drafted[player]
	return ok
}

// RecomputeHighlights picks the best available player from scratch: the
// visible, undrafted, ranked record with the strictly lowest ADP, first in
// visible order on ties.
func (t *Table) RecomputeHighlights() {
	t.best = -1
	bestADP := math.Inf(1)
	for i, rec := range t.records {
		if !t.visible[i] || t.IsDrafted(rec.Player) || !rec.Ranked {
			continue
		}
		if rec.AverageADP < bestADP {
			bestADP = rec.AverageADP
			t.best = i
		}
	}
}

// BestAvailable returns the highlighted record, if any
func (t *Table) BestAvailable() (models.PlayerRecord, bool) {
	if t.best < 0 {
		return models.PlayerRecord{}, false
	}
	return t.records[t.best], true
}

// Positions lists the distinct position prefixes in the collection
func (t *Table) Positions() []string {
	seen := make(map[string]bool)
	var out []string
	for _, rec := range t.records {
		p := PositionPrefix(rec.Position)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// View renders the table for the view layer. Hidden rows carry no drafted
// or best-available flag.
func (t *Table) View() models.BoardView {
	view := models.BoardView{
		Rows:      make([]models.RowView, len(t.records)),
		Sources:   t.layout.SourceLabels(),
		SourceIDs: t.layout.SourceIDs(),
		Sort:      t.sort,
		Filter:    t.filter,
		Positions: t.Positions(),
		Drafted:   len(t.drafted),
		Error:     t.loadErr,
		LoadedAt:  t.loadedAt,
	}

	for i, rec := range t.records {
		row := t.rowView(rec)
		if t.visible[i] {
			row.Drafted = t.IsDrafted(rec.Player)
			row.BestAvailable = i == t.best
		} else {
			row.Hidden = true
		}
		view.Rows[i] = row
	}

	if t.best >= 0 {
		best := view.Rows[t.best]
		view.Best = &best
	}
	return view
}

func (t *Table) rowView(rec models.PlayerRecord) models.RowView {
	ranks := make([]string, len(t.layout.Sources))
	for i, s := range t.layout.Sources {
		ranks[i] = FormatRank(rec.Ranks[s.ID])
	}
	return models.RowView{
		Position: rec.Position,
		Player:   rec.Player,
		Team:     rec.Team,
		ADP:      FormatADP(rec),
		Ranks:    ranks,
	}
}
