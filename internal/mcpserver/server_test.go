package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Billy-Davies-2/adp-draft-board/internal/board"
	"github.com/Billy-Davies-2/adp-draft-board/internal/logger"
	"github.com/Billy-Davies-2/adp-draft-board/internal/models"
	"github.com/Billy-Davies-2/adp-draft-board/internal/rankings"
)

func init() {
	logger.Init()
}

const mcpDoc = `Rank,POS,Player,Team,Underdog,CBS,ESPN,FFPC,BB10s,,Y!
1,RB-1,Christian McCaffrey,SF,1,1,1,1,1,,1
2,WR-1,Justin Jefferson,MIN,3,2,2,3,2,,2
3,QB-1,Josh Allen,BUF,25,-,30,20,,,28
`

type docLoader string

func (d docLoader) Fetch(context.Context) ([]byte, error) { return []byte(d), nil }
func (d docLoader) Describe() string                      { return "test" }

func connect(t *testing.T) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	svc := board.NewService(rankings.DefaultLayout(), docLoader(mcpDoc), nil)
	if err := svc.Load(ctx); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	if _, err := New(svc, "test").Connect(ctx, serverTransport, nil); err != nil {
		t.Fatalf("server Connect() failed: %v", err)
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client Connect() failed: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func call(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s) failed: %v", name, err)
	}
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content %T", res.Content[0])
	}
	return tc.Text
}

func TestListTools(t *testing.T) {
	session := connect(t)

	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools() failed: %v", err)
	}
	names := make(map[string]bool)
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"board", "best_available", "toggle_drafted", "search_players", "sort_board", "filter_board"} {
		if !names[want] {
			t.Errorf("tool %s not registered", want)
		}
	}
}

func TestToggleAndBestAvailable(t *testing.T) {
	session := connect(t)

	var best models.RowView
	json.Unmarshal([]byte(text(t, call(t, session, "best_available", nil))), &best)
	if best.Player != "Christian McCaffrey" {
		t.Fatalf("best = %+v", best)
	}

	call(t, session, "toggle_drafted", map[string]any{"player": "Christian McCaffrey"})

	json.Unmarshal([]byte(text(t, call(t, session, "best_available", nil))), &best)
	if best.Player != "Justin Jefferson" {
		t.Errorf("best after toggle = %+v", best)
	}

	if res := call(t, session, "toggle_drafted", map[string]any{"player": ""}); !res.IsError {
		t.Error("expected tool error for empty player")
	}
}

func TestBoardToolHonorsFilter(t *testing.T) {
	session := connect(t)

	call(t, session, "filter_board", map[string]any{"position": "qb"})

	var view models.BoardView
	json.Unmarshal([]byte(text(t, call(t, session, "board", nil))), &view)
	if len(view.Rows) != 1 || view.Rows[0].Player != "Josh Allen" {
		t.Errorf("filtered board rows = %+v", view.Rows)
	}

	json.Unmarshal([]byte(text(t, call(t, session, "board", map[string]any{"include_hidden": true}))), &view)
	if len(view.Rows) != 3 {
		t.Errorf("expected all rows with include_hidden, got %d", len(view.Rows))
	}
}

func TestSearchAndSortTools(t *testing.T) {
	session := connect(t)

	var results []models.SearchResult
	json.Unmarshal([]byte(text(t, call(t, session, "search_players", map[string]any{"query": "jeffersn"}))), &results)
	if len(results) == 0 || results[0].Player != "Justin Jefferson" {
		t.Errorf("search = %+v", results)
	}

	if res := call(t, session, "sort_board", map[string]any{"column": "salary"}); !res.IsError {
		t.Error("expected tool error for unknown column")
	}

	var state models.SortState
	json.Unmarshal([]byte(text(t, call(t, session, "sort_board", map[string]any{"column": "team"}))), &state)
	if state.Column != models.ColumnTeam || state.Direction != models.Ascending {
		t.Errorf("sort state = %+v", state)
	}
}
