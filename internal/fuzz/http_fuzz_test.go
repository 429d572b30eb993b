package fuzz

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Billy-Davies-2/adp-draft-board/internal/board"
	"github.com/Billy-Davies-2/adp-draft-board/internal/dal"
	"github.com/Billy-Davies-2/adp-draft-board/internal/handlers"
	"github.com/Billy-Davies-2/adp-draft-board/internal/logger"
	"github.com/Billy-Davies-2/adp-draft-board/internal/pubsub"
	"github.com/Billy-Davies-2/adp-draft-board/internal/rankings"
	"github.com/Billy-Davies-2/adp-draft-board/internal/source"
)

const boardDoc = `Rank,POS,Player,Team,Underdog,CBS,ESPN,FFPC,BB10s,,Y!
1,RB-1,Christian McCaffrey,SF,1,1,1,1,1,,1
2,WR-1,Justin Jefferson,MIN,3,2,2,3,2,,2
3,QB-1,Josh Allen,BUF,25,-,30,20,,,28
4,DST-1,Nobody Defense,NYJ,-,-,-,-,-,,-
`

func init() {
	logger.InitWithLevel("error")
}

// newBoard loads boardDoc through the memory store
func newBoard(t *testing.T) (*board.Service, dal.DocumentDAL, *pubsub.PubSub) {
	t.Helper()
	ctx := context.Background()

	store := dal.NewMemoryDAL()
	if _, err := store.SaveDocument(ctx, "adp", []byte(boardDoc)); err != nil {
		t.Fatalf("SaveDocument() failed: %v", err)
	}

	events := pubsub.New()
	svc := board.NewService(rankings.DefaultLayout(), &source.StoreLoader{Store: store, Name: "adp"}, events)
	if err := svc.Load(ctx); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	return svc, store, events
}

func post(h http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

// FuzzHTTPSortBoard fuzzes the sort endpoint
func FuzzHTTPSortBoard(f *testing.F) {
	f.Add(`{"column":"adp","direction":"asc"}`)
	f.Add(`{"column":"espn"}`)
	f.Add(`{"column":"nope","direction":"sideways"}`)
	f.Add(`{"column":`)

	f.Fuzz(func(t *testing.T, data string) {
		svc, store, events := newBoard(t)
		defer events.Close()
		api := handlers.NewAPIHandlers(svc, store, events, "adp")

		w := post(api.SortBoard, "/api/board/sort", data)
		if w.Code >= http.StatusInternalServerError {
			t.Errorf("status %d for %q", w.Code, data)
		}
		if got := len(svc.View().Rows); got != 4 {
			t.Errorf("sorting changed row count to %d", got)
		}
	})
}

// FuzzHTTPFilterBoard fuzzes the filter endpoint
func FuzzHTTPFilterBoard(f *testing.F) {
	f.Add(`{"position":"WR"}`)
	f.Add(`{"position":""}`)
	f.Add(`{"position":"K"}`)
	f.Add(`[]`)

	f.Fuzz(func(t *testing.T, data string) {
		svc, store, events := newBoard(t)
		defer events.Close()
		api := handlers.NewAPIHandlers(svc, store, events, "adp")

		w := post(api.FilterBoard, "/api/board/filter", data)
		if w.Code >= http.StatusInternalServerError {
			t.Errorf("status %d for %q", w.Code, data)
		}
	})
}

// FuzzHTTPToggleDrafted fuzzes the drafted toggle endpoint
func FuzzHTTPToggleDrafted(f *testing.F) {
	f.Add(`{"player":"Justin Jefferson"}`)
	f.Add(`{"player":"Nobody"}`)
	f.Add(`{"player":""}`)
	f.Add(`{"player":12}`)

	f.Fuzz(func(t *testing.T, data string) {
		svc, store, events := newBoard(t)
		defer events.Close()
		api := handlers.NewAPIHandlers(svc, store, events, "adp")

		w := post(api.ToggleDrafted, "/api/board/toggle", data)
		if w.Code >= http.StatusInternalServerError {
			t.Errorf("status %d for %q", w.Code, data)
		}
		if best, ok := svc.BestAvailable(); ok && best.Drafted {
			t.Errorf("drafted player %q is best available", best.Player)
		}
	})
}

// FuzzHTTPUploadDocument fuzzes document uploads
func FuzzHTTPUploadDocument(f *testing.F) {
	f.Add(boardDoc)
	f.Add("Rank,POS,Player\n")
	f.Add("")

	f.Fuzz(func(t *testing.T, data string) {
		svc, store, events := newBoard(t)
		defer events.Close()
		api := handlers.NewAPIHandlers(svc, store, events, "adp")

		w := post(api.Documents, "/api/documents", data)
		if w.Code >= http.StatusInternalServerError {
			t.Errorf("status %d", w.Code)
		}
	})
}
