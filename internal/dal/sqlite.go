package dal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Billy-Davies-2/adp-draft-board/internal/models"
)

// SQLiteDAL implements DocumentDAL using SQLite
type SQLiteDAL struct {
	db *sql.DB
}

// NewSQLiteDAL creates a new SQLite data access layer
func NewSQLiteDAL(dbPath string) (*SQLiteDAL, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	dal := &SQLiteDAL{db: db}
	if err := dal.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return dal, nil
}

func (s *SQLiteDAL) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		body BLOB NOT NULL,
		size INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_name_created ON documents(name, created_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create documents schema: %w", err)
	}
	return nil
}

func (s *SQLiteDAL) SaveDocument(ctx context.Context, name string, body []byte) (*models.Document, error) {
	if name == "" {
		return nil, fmt.Errorf("document name is required")
	}

	doc := &models.Document{
		ID:        uuid.NewString(),
		Name:      name,
		Body:      body,
		Size:      len(body),
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, name, body, size, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, doc.ID, doc.Name, doc.Body, doc.Size, doc.CreatedAt.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	return doc, nil
}

func (s *SQLiteDAL) LatestDocument(ctx context.Context, name string) (*models.Document, error) {
	var doc models.Document
	var createdAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, body, size, created_at
		FROM documents
		WHERE name = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, name).Scan(&doc.ID, &doc.Name, &doc.Body, &doc.Size, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	doc.CreatedAt = time.Unix(0, createdAt).UTC()
	return &doc, nil
}

func (s *SQLiteDAL) ListDocuments(ctx context.Context, name string) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, size, created_at
		FROM documents
		WHERE name = ?
		ORDER BY created_at DESC, rowid DESC
	`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		var doc models.Document
		var createdAt int64
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.Size, &createdAt); err != nil {
			return nil, err
		}
		doc.CreatedAt = time.Unix(0, createdAt).UTC()
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteDAL) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteDAL) Close() error {
	return s.db.Close()
}
