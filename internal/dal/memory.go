package dal

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Billy-Davies-2/adp-draft-board/internal/models"
)

// MemoryDAL implements DocumentDAL using in-memory storage
type MemoryDAL struct {
	mu   sync.RWMutex
	docs []models.Document
}

// NewMemoryDAL creates a new in-memory data access layer
func NewMemoryDAL() *MemoryDAL {
	return &MemoryDAL{}
}

func (m *MemoryDAL) SaveDocument(ctx context.Context, name string, body []byte) (*models.Document, error) {
	if name == "" {
		return nil, fmt.Errorf("document name is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc := models.Document{
		ID:        uuid.NewString(),
		Name:      name,
		Body:      slices.Clone(body),
		Size:      len(body),
		CreatedAt: time.Now().UTC(),
	}
	m.docs = append(m.docs, doc)

	return &doc, nil
}

func (m *MemoryDAL) LatestDocument(ctx context.Context, name string) (*models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.docs) - 1; i >= 0; i-- {
		if m.docs[i].Name == name {
			doc := m.docs[i]
			doc.Body = slices.Clone(doc.Body)
			return &doc, nil
		}
	}
	return nil, ErrNotFound
}

// ListDocuments returns metadata for every version, newest first
func (m *MemoryDAL) ListDocuments(ctx context.Context, name string) ([]models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.Document{}
	for i := len(m.docs) - 1; i >= 0; i-- {
		if m.docs[i].Name == name {
			doc := m.docs[i]
			doc.Body = nil
			out = append(out, doc)
		}
	}
	return out, nil
}

func (m *MemoryDAL) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryDAL) Close() error {
	return nil
}
