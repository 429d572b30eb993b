package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/Billy-Davies-2/adp-draft-board/internal/dal"
	"github.com/Billy-Davies-2/adp-draft-board/internal/logger"
)

// maxDocumentSize bounds a fetched CSV document
const maxDocumentSize = 8 << 20

// Loader fetches the raw ADP CSV document
type Loader interface {
	Fetch(ctx context.Context) ([]byte, error)
	Describe() string
}

// FileLoader reads the document from a local path
type FileLoader struct {
	Path string
}

func (f *FileLoader) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Path, err)
	}
	defer file.Close()

	b, err := io.ReadAll(io.LimitReader(file, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Path, err)
	}
	if len(b) > maxDocumentSize {
		return nil, fmt.Errorf("CSV document exceeds %d bytes", maxDocumentSize)
	}
	return b, nil
}

func (f *FileLoader) Describe() string {
	return "file:" + f.Path
}

// HTTPLoader downloads the document from a URL
type HTTPLoader struct {
	URL        string
	httpClient *http.Client
}

// NewHTTPLoader creates an HTTP loader with a bounded timeout
func NewHTTPLoader(url string) *HTTPLoader {
	return &HTTPLoader{
		URL:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (h *HTTPLoader) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to load CSV: unexpected status code %d", resp.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}
	if len(b) > maxDocumentSize {
		return nil, fmt.Errorf("CSV document exceeds %d bytes", maxDocumentSize)
	}
	return b, nil
}

func (h *HTTPLoader) Describe() string {
	return "http:" + h.URL
}

// StoreLoader reads the latest version of a named document from the store
type StoreLoader struct {
	Store dal.DocumentDAL
	Name  string
}

func (s *StoreLoader) Fetch(ctx context.Context) ([]byte, error) {
	doc, err := s.Store.LatestDocument(ctx, s.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to load document %q: %w", s.Name, err)
	}
	return doc.Body, nil
}

func (s *StoreLoader) Describe() string {
	return "store:" + s.Name
}

// SeedStore saves the file at path as the first version of name when the
// store has none. It reports whether a document was written.
func SeedStore(ctx context.Context, store dal.DocumentDAL, name, path string) (bool, error) {
	_, err := store.LatestDocument(ctx, name)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, dal.ErrNotFound) {
		return false, err
	}

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("No seed document found", "path", path)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read seed document: %w", err)
	}

	if _, err := store.SaveDocument(ctx, name, b); err != nil {
		return false, err
	}
	logger.Info("Seeded document store", "name", name, "path", path, "bytes", len(b))
	return true, nil
}
