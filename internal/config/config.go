package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Data source kinds
const (
	SourceFile     = "file"
	SourceHTTP     = "http"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
	SourceMemory   = "memory"
)

type Config struct {
	Server
	Data
	Events
	Analytics
	Auth
	MCP
}

type Server struct {
	Port         string `envconfig:"PORT" default:"3000"`
	GRPCPort     string `envconfig:"GRPC_PORT" default:"50051"`
	Environment  string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	TemplatesDir string `envconfig:"TEMPLATES_DIR" default:"templates"`
}

type Data struct {
	Source       string `envconfig:"DATA_SOURCE" default:"file"`
	CSVPath      string `envconfig:"CSV_PATH" default:"data/adp.csv"`
	CSVURL       string `envconfig:"CSV_URL"`
	SQLiteFile   string `envconfig:"SQLITE_FILE" default:"dev.sqlite"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	DocumentName string `envconfig:"DOCUMENT_NAME" default:"adp"`
	LayoutFile   string `envconfig:"LAYOUT_FILE"`
}

type Events struct {
	NATSURL      string `envconfig:"NATS_URL"`
	NATSSubject  string `envconfig:"NATS_SUBJECT" default:"board.events"`
	EmbeddedNATS bool   `envconfig:"EMBEDDED_NATS" default:"true"`
}

type Analytics struct {
	ClickHouseAddr     string        `envconfig:"CLICKHOUSE_ADDR"`
	ClickHouseDB       string        `envconfig:"CLICKHOUSE_DB" default:"default"`
	ClickHouseUser     string        `envconfig:"CLICKHOUSE_USER" default:"default"`
	ClickHousePassword string        `envconfig:"CLICKHOUSE_PASSWORD"`
	SyncInterval       time.Duration `envconfig:"CLICKHOUSE_SYNC_INTERVAL" default:"15m"`
	MockAnalytics      bool          `envconfig:"MOCK_ANALYTICS" default:"false"`
}

type Auth struct {
	OIDCBaseURL      string `envconfig:"OIDC_BASE_URL"`
	OIDCClientID     string `envconfig:"OIDC_CLIENT_ID"`
	OIDCClientSecret string `envconfig:"OIDC_CLIENT_SECRET"`
	OIDCRedirectURL  string `envconfig:"OIDC_REDIRECT_URL" default:"http://localhost:3000/auth/callback"`
}

type MCP struct {
	Enabled bool   `envconfig:"MCP_ENABLED" default:"true"`
	Path    string `envconfig:"MCP_PATH" default:"/mcp"`
}

// Load reads .env when present, then the process environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return New()
}

// New reads configuration from the process environment only
func New() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	c.Data.Source = strings.ToLower(strings.TrimSpace(c.Data.Source))
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks settings that depend on each other
func (c *Config) Validate() error {
	switch c.Data.Source {
	case SourceFile, SourceSQLite, SourceMemory:
	case SourceHTTP:
		if c.CSVURL == "" {
			return errors.New("CSV_URL is required when DATA_SOURCE=http")
		}
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when DATA_SOURCE=postgres")
		}
	default:
		return fmt.Errorf("unknown DATA_SOURCE %q", c.Data.Source)
	}

	if c.DocumentName == "" {
		return errors.New("DOCUMENT_NAME must not be empty")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("CLICKHOUSE_SYNC_INTERVAL must be positive, got %s", c.SyncInterval)
	}
	if !strings.HasPrefix(c.MCP.Path, "/") {
		return fmt.Errorf("MCP_PATH must start with /, got %q", c.MCP.Path)
	}

	if !c.IsDevelopment() && (c.OIDCBaseURL == "" || c.OIDCClientID == "" || c.OIDCClientSecret == "") {
		return errors.New("OIDC_BASE_URL, OIDC_CLIENT_ID and OIDC_CLIENT_SECRET are required outside development")
	}
	return nil
}

// IsDevelopment reports whether development fallbacks (mock auth, embedded NATS) apply
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// UsesStore reports whether the board reads from the document store
func (c *Config) UsesStore() bool {
	switch c.Data.Source {
	case SourceSQLite, SourcePostgres, SourceMemory:
		return true
	}
	return false
}

// AnalyticsEnabled reports whether the ClickHouse sync job should run
func (c *Config) AnalyticsEnabled() bool {
	return c.ClickHouseAddr != "" || c.MockAnalytics
}
