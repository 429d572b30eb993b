package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/Billy-Davies-2/adp-draft-board/internal/dal"
	"github.com/Billy-Davies-2/adp-draft-board/internal/logger"
	"github.com/Billy-Davies-2/adp-draft-board/internal/models"
	"github.com/Billy-Davies-2/adp-draft-board/internal/rankings"
)

// ErrNoPicks is returned when the analytics window holds no draft picks
var ErrNoPicks = errors.New("no draft picks in window")

// ADPSource aggregates average draft position per player and platform
type ADPSource interface {
	PlatformADP(ctx context.Context) ([]models.PlatformADP, error)
	Close() error
}

// Client reads mock-draft picks from ClickHouse
type Client struct {
	conn       driver.Conn
	windowDays int
	minPicks   int
}

// NewClient creates a new ClickHouse client
func NewClient(addr, database, username, password string) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &Client{conn: conn, windowDays: 14, minPicks: 5}, nil
}

// PlatformADP averages pick numbers from the draft_picks table over the
// recent window. Players with too few picks on a platform are left out.
func (c *Client) PlatformADP(ctx context.Context) ([]models.PlatformADP, error) {
	query := `
		SELECT
			any(position) AS position,
			player,
			any(team) AS team,
			lower(platform) AS platform,
			avg(pick_number) AS adp
		FROM draft_picks
		WHERE drafted_at >= now() - toIntervalDay($1)
		GROUP BY player, platform
		HAVING count() >= $2
		ORDER BY adp
	`

	rows, err := c.conn.Query(ctx, query, c.windowDays, c.minPicks)
	if err != nil {
		return nil, fmt.Errorf("failed to query draft picks: %w", err)
	}
	defer rows.Close()

	var out []models.PlatformADP
	for rows.Next() {
		var p models.PlatformADP
		if err := rows.Scan(&p.Position, &p.Player, &p.Team, &p.Platform, &p.ADP); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Close closes the ClickHouse connection
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Sync builds an ADP document from the source and saves it as a new version
// of name. Platforms the layout does not know are ignored.
func Sync(ctx context.Context, src ADPSource, store dal.DocumentDAL, layout rankings.Layout, name string) (*models.Document, error) {
	picks, err := src.PlatformADP(ctx)
	if err != nil {
		return nil, err
	}
	if len(picks) == 0 {
		return nil, ErrNoPicks
	}

	known := make(map[string]bool)
	for _, s := range layout.Sources {
		known[strings.ToLower(s.Platform)] = true
	}
	matched := 0
	for _, p := range picks {
		if known[strings.ToLower(p.Platform)] {
			matched++
		}
	}
	if matched == 0 {
		return nil, fmt.Errorf("none of %d aggregates match a layout platform: %w", len(picks), ErrNoPicks)
	}

	doc, err := store.SaveDocument(ctx, name, rankings.BuildDocument(layout, picks))
	if err != nil {
		return nil, fmt.Errorf("failed to save synced document: %w", err)
	}

	logger.Info("Synced ADP from analytics", "document", name, "version", doc.ID, "aggregates", matched, "bytes", doc.Size)
	return doc, nil
}
