package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Billy-Davies-2/adp-draft-board/internal/board"
	"github.com/Billy-Davies-2/adp-draft-board/internal/models"
)

type BoardArgs struct {
	IncludeHidden bool `json:"include_hidden,omitempty" jsonschema:"Include rows hidden by the position filter"`
}

type ToggleArgs struct {
	Player string `json:"player" jsonschema:"Exact player name as shown on the board (required)"`
}

type SearchArgs struct {
	Query string `json:"query" jsonschema:"Approximate player name (required)"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum results (default 5)"`
}

type SortArgs struct {
	Column    string `json:"column" jsonschema:"adp, position, player, team or a source id (required)"`
	Direction string `json:"direction,omitempty" jsonschema:"asc or desc; omitted toggles like a header click"`
}

type FilterArgs struct {
	Position string `json:"position" jsonschema:"Position prefix such as RB, or ALL"`
}

// New builds an MCP server exposing the board to draft assistants
func New(b *board.Service, version string) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "adp-draft-board",
			Version: version,
		},
		nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "board",
		Description: "Current ADP board: rows in sort order with drafted and best-available flags",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args BoardArgs) (*mcp.CallToolResult, any, error) {
		view := b.View()
		if !args.IncludeHidden {
			rows := make([]models.RowView, 0, len(view.Rows))
			for _, r := range view.Rows {
				if !r.Hidden {
					rows = append(rows, r)
				}
			}
			view.Rows = rows
		}
		return toolJSON(view)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "best_available",
		Description: "The undrafted visible player with the lowest average draft position",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args struct{}) (*mcp.CallToolResult, any, error) {
		best, ok := b.BestAvailable()
		if !ok {
			return toolError(errors.New("no available player")), nil, nil
		}
		return toolJSON(best)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "toggle_drafted",
		Description: "Mark a player drafted, or undrafted if already marked",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ToggleArgs) (*mcp.CallToolResult, any, error) {
		player := strings.TrimSpace(args.Player)
		if player == "" {
			return toolError(errors.New("player is required")), nil, nil
		}
		drafted := b.ToggleDrafted(player)
		return toolJSON(map[string]any{"player": player, "drafted": drafted})
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_players",
		Description: "Fuzzy search of player names, closest match first",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
		if strings.TrimSpace(args.Query) == "" {
			return toolError(errors.New("query is required")), nil, nil
		}
		limit := args.Limit
		if limit <= 0 {
			limit = 5
		}
		results := b.Search(args.Query, limit)
		if results == nil {
			results = []models.SearchResult{}
		}
		return toolJSON(results)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sort_board",
		Description: "Sort the board by a column",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SortArgs) (*mcp.CallToolResult, any, error) {
		column := models.SortColumn(strings.ToLower(strings.TrimSpace(args.Column)))
		direction := models.Direction(strings.ToLower(strings.TrimSpace(args.Direction)))

		var ok bool
		if direction == "" {
			ok = b.SelectColumn(column)
		} else {
			ok = b.Sort(column, direction)
		}
		if !ok {
			return toolError(fmt.Errorf("cannot sort by %q %q", args.Column, args.Direction)), nil, nil
		}
		return toolJSON(b.View().Sort)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "filter_board",
		Description: "Show only one position, or ALL",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args FilterArgs) (*mcp.CallToolResult, any, error) {
		return toolJSON(map[string]string{"filter": b.Filter(args.Position)})
	})

	return server
}

// Handler serves the MCP server over streamable HTTP
func Handler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
