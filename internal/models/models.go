package models

import "time"

// SortColumn identifies a sortable board column
type SortColumn string

const (
	ColumnADP      SortColumn = "adp"
	ColumnPosition SortColumn = "position"
	ColumnPlayer   SortColumn = "player"
	ColumnTeam     SortColumn = "team"
)

// Direction is the sort direction of the active column
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Flip returns the opposite direction
func (d Direction) Flip() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

// SourceRank is one ranking source's value for a player
type SourceRank struct {
	Raw   string  `json:"raw"`
	Value float64 `json:"value"`
	OK    bool    `json:"ok"`
}

// PlayerRecord represents one row of the ADP document
type PlayerRecord struct {
	Position   string                `json:"position"`
	Player     string                `json:"player"`
	Team       string                `json:"team"`
	Ranks      map[string]SourceRank `json:"ranks"`
	AverageADP float64               `json:"averageAdp"`
	Ranked     bool                  `json:"ranked"`
}

// SortState is the single active sort
type SortState struct {
	Column    SortColumn `json:"column"`
	Direction Direction  `json:"direction"`
}

// RowView is a render-ready board row
type RowView struct {
	Position      string   `json:"position"`
	Player        string   `json:"player"`
	Team          string   `json:"team"`
	ADP           string   `json:"adp"`
	Ranks         []string `json:"ranks"`
	Drafted       bool     `json:"drafted"`
	BestAvailable bool     `json:"bestAvailable"`
	Hidden        bool     `json:"hidden"`
}

// BoardView is everything the view layer needs to draw the table
type BoardView struct {
	Rows      []RowView `json:"rows"`
	Sources   []string  `json:"sources"`
	SourceIDs []string  `json:"sourceIds"`
	Sort      SortState `json:"sort"`
	Filter    string    `json:"filter"`
	Positions []string  `json:"positions"`
	Best      *RowView  `json:"best,omitempty"`
	Drafted   int       `json:"drafted"`
	Error     string    `json:"error,omitempty"`
	LoadedAt  time.Time `json:"loadedAt"`
}

// Document is a stored ADP CSV document
type Document struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Body      []byte    `json:"-"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// PlatformADP is an aggregated average pick for one player on one platform
type PlatformADP struct {
	Position string
	Player   string
	Team     string
	Platform string
	ADP      float64
}

// SearchResult is a fuzzy player-name match
type SearchResult struct {
	Player   string `json:"player"`
	Position string `json:"position"`
	Team     string `json:"team"`
	ADP      string `json:"adp"`
	Drafted  bool   `json:"drafted"`
	Distance int    `json:"distance"`
}
