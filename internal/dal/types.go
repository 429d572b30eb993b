package dal

import (
	"context"
	"errors"

	"github.com/Billy-Davies-2/adp-draft-board/internal/models"
)

// ErrNotFound is returned when no document exists under a name
var ErrNotFound = errors.New("document not found")

// DocumentDAL stores ADP CSV documents. Every save creates a new version;
// readers use the latest one.
type DocumentDAL interface {
	SaveDocument(ctx context.Context, name string, body []byte) (*models.Document, error)
	LatestDocument(ctx context.Context, name string) (*models.Document, error)
	ListDocuments(ctx context.Context, name string) ([]models.Document, error)
	Ping(ctx context.Context) error
	Close() error
}
