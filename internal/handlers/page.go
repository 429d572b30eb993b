package handlers

import (
	"bytes"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Billy-Davies-2/adp-draft-board/internal/auth"
	"github.com/Billy-Davies-2/adp-draft-board/internal/board"
	"github.com/Billy-Davies-2/adp-draft-board/internal/logger"
	"github.com/Billy-Davies-2/adp-draft-board/internal/models"
)

// PageHandlers renders the server-side board page
type PageHandlers struct {
	board *board.Service
	tmpl  *template.Template
}

var pageFuncs = template.FuncMap{
	"rowClass": func(r models.RowView) string {
		var classes []string
		if r.Drafted {
			classes = append(classes, "drafted")
		}
		if r.BestAvailable {
			classes = append(classes, "best-available")
		}
		return strings.Join(classes, " ")
	},
	"sortMark": func(s models.SortState, column string) string {
		if string(s.Column) != column {
			return ""
		}
		if s.Direction == models.Descending {
			return "▼"
		}
		return "▲"
	},
}

// NewPageHandlers parses board.html from the templates directory
func NewPageHandlers(b *board.Service, templatesDir string) (*PageHandlers, error) {
	tmpl, err := template.New("board.html").Funcs(pageFuncs).ParseFiles(filepath.Join(templatesDir, "board.html"))
	if err != nil {
		return nil, err
	}
	return &PageHandlers{board: b, tmpl: tmpl}, nil
}

// BoardPage renders the board. Hidden rows are left out of the markup.
func (p *PageHandlers) BoardPage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	view := p.board.View()
	visible := make([]models.RowView, 0, len(view.Rows))
	for _, row := range view.Rows {
		if !row.Hidden {
			visible = append(visible, row)
		}
	}

	user := auth.GetUser(r)
	data := map[string]any{
		"View":    view,
		"Rows":    visible,
		"User":    user,
		"IsAdmin": auth.IsAdmin(user),
	}

	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, "board.html", data); err != nil {
		logger.Error("Failed to render board page", "error", err)
		http.Error(w, "Failed to render board", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}
