package journal

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/goliatone/go-payment-ingest/core"
)

type persistenceConfig struct {
	driver string
	server string
}

func (c persistenceConfig) GetDebug() bool                { return false }
func (c persistenceConfig) GetDriver() string             { return c.driver }
func (c persistenceConfig) GetServer() string             { return c.server }
func (c persistenceConfig) GetPingTimeout() time.Duration { return time.Second }
func (c persistenceConfig) GetOtelIdentifier() string     { return "payment-ingest" }

// Open connects the journal database named by the config and returns a ready
// BunJournal with its schema ensured. Supported drivers: sqlite, postgres.
func Open(cfg core.JournalConfig) (*BunJournal, func() error, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	dsn := strings.TrimSpace(cfg.DSN)
	if driver == "" || dsn == "" {
		return nil, nil, fmt.Errorf("journal: driver and dsn are required")
	}

	var (
		sqlDriver string
		dialect   schema.Dialect
	)
	switch driver {
	case "sqlite":
		sqlDriver = "sqlite3"
		dialect = sqlitedialect.New()
	case "postgres":
		sqlDriver = "postgres"
		dialect = pgdialect.New()
	default:
		return nil, nil, fmt.Errorf("journal: unsupported driver %q", driver)
	}

	sqlDB, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("journal: open %s database: %w", driver, err)
	}
	if sqlDriver == "sqlite3" {
		sqlDB.SetMaxOpenConns(1)
	}

	client, err := persistence.New(persistenceConfig{driver: sqlDriver, server: dsn}, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("journal: new persistence client: %w", err)
	}

	bunJournal, err := NewBunJournal(client)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return bunJournal, client.Close, nil
}
