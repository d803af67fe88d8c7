package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/datallboy/gospool/internal/domain"
	"github.com/datallboy/gospool/internal/infra/config"

	_ "modernc.org/sqlite"
)

// Index persists article records and hands out per-group article numbers.
type Index interface {
	// SaveArticle records rec and numbers it in each of its groups.
	// Saving an article again keeps the numbers it already has.
	SaveArticle(ctx context.Context, rec *domain.ArticleRecord) (map[string]int64, error)
	GetArticle(ctx context.Context, messageID string) (*domain.ArticleRecord, error)
	DeleteArticle(ctx context.Context, messageID string) error
	ListGroups(ctx context.Context) ([]domain.Group, error)
	// Overview lists the records numbered low..high in group; high <= 0 means no upper bound.
	Overview(ctx context.Context, group string, low, high int64) ([]domain.OverviewLine, error)
	Close() error
}

// Open returns the index backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Index, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return NewPostgresStore(ctx, cfg.PostgresDSN)
	case config.DriverSQLite, "":
		return NewPersistentStore(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

type PersistentStore struct {
	db *sql.DB
}

var _ Index = (*PersistentStore)(nil)

func NewPersistentStore(dbPath string) (*PersistentStore, error) {

	dbDir := filepath.Dir(dbPath)

	// Ensure the database directory exists
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open the index db
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// Ping makes sure the file is actually accessible and the DSN is valid
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	store := &PersistentStore{db: db}

	if err := store.RunMigrations(); err != nil {
		return nil, fmt.Errorf("could not migrate database: %w", err)
	}

	// sqlite allows a single writer; serialise in the pool instead of on SQLITE_BUSY
	db.SetMaxOpenConns(1)

	return store, nil
}

func (s *PersistentStore) Close() error {
	return s.db.Close()
}
