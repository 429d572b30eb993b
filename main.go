package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/Billy-Davies-2/adp-draft-board/internal/auth"
	"github.com/Billy-Davies-2/adp-draft-board/internal/board"
	"github.com/Billy-Davies-2/adp-draft-board/internal/clickhouse"
	"github.com/Billy-Davies-2/adp-draft-board/internal/config"
	"github.com/Billy-Davies-2/adp-draft-board/internal/dal"
	grpcserver "github.com/Billy-Davies-2/adp-draft-board/internal/grpc"
	"github.com/Billy-Davies-2/adp-draft-board/internal/handlers"
	"github.com/Billy-Davies-2/adp-draft-board/internal/logger"
	"github.com/Billy-Davies-2/adp-draft-board/internal/mcpserver"
	"github.com/Billy-Davies-2/adp-draft-board/internal/mocks"
	"github.com/Billy-Davies-2/adp-draft-board/internal/pubsub"
	"github.com/Billy-Davies-2/adp-draft-board/internal/rankings"
	"github.com/Billy-Davies-2/adp-draft-board/internal/scheduler"
	"github.com/Billy-Davies-2/adp-draft-board/internal/source"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		logger.Error("ADP draft board exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		logger.Init()
		return err
	}
	logger.InitWithLevel(cfg.LogLevel)
	logger.Info("Starting ADP draft board", "environment", cfg.Environment, "source", cfg.Data.Source)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	layout, err := rankings.LoadLayout(cfg.LayoutFile)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	events, eventsCheck, err := openEvents(cfg)
	if err != nil {
		return err
	}
	defer events.Close()

	svc := board.NewService(layout, newLoader(cfg, store), events)
	if err := svc.Load(ctx); err != nil {
		// The board keeps serving its error row until a later load succeeds
		logger.Warn("Initial board load failed", "error", err)
	}

	stopSync, err := startSync(cfg, layout, store, svc, events)
	if err != nil {
		return err
	}
	defer stopSync()

	grpcSrv := grpc.NewServer()
	grpcserver.RegisterBoardServiceServer(grpcSrv, grpcserver.NewServer(svc, events))
	lis, err := net.Listen("tcp", "0.0.0.0:"+cfg.GRPCPort)
	if err != nil {
		return err
	}
	go func() {
		logger.Info("gRPC server starting", "address", lis.Addr().String())
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error("gRPC server failed", "error", err)
		}
	}()
	defer grpcSrv.Stop()

	mux, closeStreams, err := routes(cfg, svc, store, events, eventsCheck)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(closeStreams)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config) (dal.DocumentDAL, error) {
	var store dal.DocumentDAL
	switch cfg.Data.Source {
	case config.SourceMemory:
		store = dal.NewMemoryDAL()
		logger.Info("Using in-memory document store")
	case config.SourceSQLite:
		s, err := dal.NewSQLiteDAL(cfg.SQLiteFile)
		if err != nil {
			return nil, err
		}
		store = s
		logger.Info("Connected to SQLite database", "file", cfg.SQLiteFile)
	case config.SourcePostgres:
		s, err := dal.NewPostgresDAL(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store = s
		logger.Info("Connected to Postgres database")
	default:
		return nil, nil
	}

	if _, err := source.SeedStore(ctx, store, cfg.DocumentName, cfg.CSVPath); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func newLoader(cfg *config.Config, store dal.DocumentDAL) source.Loader {
	switch cfg.Data.Source {
	case config.SourceHTTP:
		return source.NewHTTPLoader(cfg.CSVURL)
	case config.SourceFile:
		return &source.FileLoader{Path: cfg.CSVPath}
	default:
		return &source.StoreLoader{Store: store, Name: cfg.DocumentName}
	}
}

// openEvents picks external NATS, embedded NATS in development, or an
// in-process broker. The returned check is nil when there is no NATS.
func openEvents(cfg *config.Config) (*pubsub.PubSub, handlers.Check, error) {
	var bus *pubsub.NATSBus
	var err error

	switch {
	case cfg.NATSURL != "":
		bus, err = pubsub.NewNATSBus(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Connected to NATS", "url", cfg.NATSURL, "subject", cfg.NATSSubject)
	case cfg.IsDevelopment() && cfg.EmbeddedNATS:
		opts := pubsub.DefaultEmbeddedOptions()
		opts.Subject = cfg.NATSSubject
		bus, err = pubsub.NewEmbeddedNATSBus(opts)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Embedded NATS server ready", "url", bus.ServerURL())
	default:
		logger.Info("Using in-process event broker")
		return pubsub.New(), nil, nil
	}

	return pubsub.NewWithUpstream(bus), bus.Healthy, nil
}

// startSync schedules the ClickHouse ADP sync. The returned func stops it.
func startSync(cfg *config.Config, layout rankings.Layout, store dal.DocumentDAL, svc *board.Service, events pubsub.Broker) (func(), error) {
	noop := func() {}
	if !cfg.AnalyticsEnabled() {
		logger.Info("Skipping ADP sync (ClickHouse not configured)")
		return noop, nil
	}
	if store == nil {
		logger.Warn("Skipping ADP sync: DATA_SOURCE has no document store", "source", cfg.Data.Source)
		return noop, nil
	}

	var src clickhouse.ADPSource
	if cfg.ClickHouseAddr != "" {
		c, err := clickhouse.NewClient(cfg.ClickHouseAddr, cfg.ClickHouseDB, cfg.ClickHouseUser, cfg.ClickHousePassword)
		if err != nil {
			return noop, err
		}
		src = c
		logger.Info("Connected to ClickHouse", "address", cfg.ClickHouseAddr, "database", cfg.ClickHouseDB)
	} else {
		platforms := make([]string, 0, len(layout.Sources))
		for _, s := range layout.Sources {
			platforms = append(platforms, s.Platform)
		}
		src = mocks.NewMockADPSource(platforms, time.Now().UnixNano())
	}

	sched, err := scheduler.NewScheduler()
	if err != nil {
		src.Close()
		return noop, err
	}

	err = sched.Every("adp-sync", cfg.SyncInterval, func(ctx context.Context) error {
		doc, err := clickhouse.Sync(ctx, src, store, layout, cfg.DocumentName)
		if err != nil {
			return err
		}
		refreshErr := svc.Refresh(ctx)
		events.Publish(pubsub.NewEvent(pubsub.EventSyncCompleted, map[string]any{
			"document": doc.ID,
			"bytes":    doc.Size,
			"loaded":   refreshErr == nil,
		}))
		return refreshErr
	})
	if err != nil {
		src.Close()
		return noop, err
	}

	sched.Start()
	return func() {
		if err := sched.Stop(); err != nil {
			logger.Warn("Scheduler shutdown failed", "error", err)
		}
		src.Close()
	}, nil
}

func routes(cfg *config.Config, svc *board.Service, store dal.DocumentDAL, events pubsub.Broker, eventsCheck handlers.Check) (*http.ServeMux, func(), error) {
	var authProvider auth.Provider
	if cfg.IsDevelopment() {
		logger.Info("Using mock authentication for local development")
		authProvider = auth.NewMockAuth()
	} else {
		authProvider = auth.NewOIDCAuth(auth.OIDCConfig{
			BaseURL:      cfg.OIDCBaseURL,
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.OIDCClientSecret,
			RedirectURL:  cfg.OIDCRedirectURL,
		})
		logger.Info("Using OIDC authentication", "url", cfg.OIDCBaseURL)
	}

	pages, err := handlers.NewPageHandlers(svc, cfg.TemplatesDir)
	if err != nil {
		return nil, nil, err
	}
	api := handlers.NewAPIHandlers(svc, store, events, cfg.DocumentName)
	health := handlers.NewHealthHandlers(svc, store)
	if eventsCheck != nil {
		health.AddCheck("nats", eventsCheck)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/auth/login", authProvider.LoginHandler)
	mux.HandleFunc("/auth/callback", authProvider.CallbackHandler)
	mux.HandleFunc("/auth/logout", authProvider.LogoutHandler)

	mux.HandleFunc("/", authProvider.Middleware(pages.BoardPage))

	mux.HandleFunc("/api/board", authProvider.APIMiddleware(api.GetBoard))
	mux.HandleFunc("/api/board/sort", authProvider.APIMiddleware(api.SortBoard))
	mux.HandleFunc("/api/board/filter", authProvider.APIMiddleware(api.FilterBoard))
	mux.HandleFunc("/api/board/toggle", authProvider.APIMiddleware(api.ToggleDrafted))
	mux.HandleFunc("/api/board/best", authProvider.APIMiddleware(api.BestAvailable))
	mux.HandleFunc("/api/board/search", authProvider.APIMiddleware(api.Search))
	mux.HandleFunc("/api/board/export.xlsx", authProvider.APIMiddleware(api.ExportXLSX))

	uploadDocument := auth.RequireAdmin(api.Documents)
	mux.HandleFunc("/api/documents", authProvider.APIMiddleware(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			uploadDocument(w, r)
			return
		}
		api.Documents(w, r)
	}))

	mux.HandleFunc("/api/events", authProvider.APIMiddleware(api.EventsSSE))

	if cfg.MCP.Enabled {
		mcpHandler := mcpserver.Handler(mcpserver.New(svc, version))
		mux.HandleFunc(cfg.MCP.Path, authProvider.APIMiddleware(mcpHandler.ServeHTTP))
		logger.Info("MCP endpoint enabled", "path", cfg.MCP.Path)
	}

	mux.HandleFunc("/api/health", health.Health)
	mux.HandleFunc("/healthz", health.Liveness)
	mux.HandleFunc("/readyz", health.Readiness)

	return mux, api.Shutdown, nil
}
