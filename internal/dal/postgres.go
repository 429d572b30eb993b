package dal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/Billy-Davies-2/adp-draft-board/internal/models"
)

// PostgresDAL implements DocumentDAL using PostgreSQL
type PostgresDAL struct {
	db *sql.DB
}

// NewPostgresDAL creates a new PostgreSQL data access layer optimized for CloudNativePG
func NewPostgresDAL(connString string) (*PostgresDAL, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, err
	}

	// Documents are few and large; a small pool is plenty
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute) // Recycle connections to handle failovers gracefully
	db.SetConnMaxIdleTime(1 * time.Minute)

	// Retry the first ping to ride out Kubernetes DNS propagation
	maxRetries := 5
	retryDelay := 5 * time.Second
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		lastErr = db.PingContext(ctx)
		cancel()

		if lastErr == nil {
			break
		}
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	if lastErr != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres after %d retries: %w", maxRetries, lastErr)
	}

	dal := &PostgresDAL{db: db}
	if err := dal.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return dal, nil
}

func (p *PostgresDAL) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		body BYTEA NOT NULL,
		size INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_documents_name_created ON documents(name, created_at DESC);
	`

	if _, err := p.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create documents schema: %w", err)
	}
	return nil
}

func (p *PostgresDAL) SaveDocument(ctx context.Context, name string, body []byte) (*models.Document, error) {
	if name == "" {
		return nil, fmt.Errorf("document name is required")
	}

	doc := &models.Document{
		ID:   uuid.NewString(),
		Name: name,
		Body: body,
		Size: len(body),
	}

	err := p.db.QueryRowContext(ctx, `
		INSERT INTO documents (id, name, body, size)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, doc.ID, doc.Name, doc.Body, doc.Size).Scan(&doc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	return doc, nil
}

func (p *PostgresDAL) LatestDocument(ctx context.Context, name string) (*models.Document, error) {
	var doc models.Document
	err := p.db.QueryRowContext(ctx, `
		SELECT id, name, body, size, created_at
		FROM documents
		WHERE name = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, name).Scan(&doc.ID, &doc.Name, &doc.Body, &doc.Size, &doc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (p *PostgresDAL) ListDocuments(ctx context.Context, name string) ([]models.Document, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, size, created_at
		FROM documents
		WHERE name = $1
		ORDER BY created_at DESC
	`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.Size, &doc.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (p *PostgresDAL) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresDAL) Close() error {
	return p.db.Close()
}
