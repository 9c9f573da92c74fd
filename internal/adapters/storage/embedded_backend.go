package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/singleflight"

	"github.com/comitanigiacomo/kanso-habit-store/internal/core/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

const createKVTable = `
        CREATE TABLE IF NOT EXISTS kv_store (
            grp   TEXT NOT NULL,
            key   TEXT NOT NULL,
            value TEXT NOT NULL,
            PRIMARY KEY (grp, key)
        )`

var _ domain.StorageBackend = (*EmbeddedBackend)(nil)

// EmbeddedBackend stores the document in a local key-value table. The
// database handle is opened on first use; concurrent first callers share one
// in-flight initialization.
type EmbeddedBackend struct {
	driver string
	dsn    string
	group  string

	open func(driver, dsn string) (*sqlx.DB, error)

	mu        sync.RWMutex
	db        *sqlx.DB
	initGroup singleflight.Group
}

func NewEmbeddedBackend(driver, dsn, group string) *EmbeddedBackend {
	if driver == "" {
		driver = DriverSQLite
	}
	if group == "" {
		group = domain.StorageGroup
	}
	return &EmbeddedBackend{
		driver: driver,
		dsn:    dsn,
		group:  group,
		open:   sqlx.Open,
	}
}

func (b *EmbeddedBackend) Name() string {
	return "embedded"
}

func (b *EmbeddedBackend) handle(ctx context.Context) (*sqlx.DB, error) {
	b.mu.RLock()
	db := b.db
	b.mu.RUnlock()
	if db != nil {
		return db, nil
	}

	v, err, _ := b.initGroup.Do("init", func() (interface{}, error) {
		b.mu.RLock()
		existing := b.db
		b.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		opened, err := b.initialize(ctx)
		if err != nil {
			return nil, err
		}

		b.mu.Lock()
		b.db = opened
		b.mu.Unlock()
		return opened, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sqlx.DB), nil
}

func (b *EmbeddedBackend) initialize(ctx context.Context) (*sqlx.DB, error) {
	db, err := b.open(b.driver, b.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", b.driver, err)
	}

	if b.driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", b.driver, err)
	}

	if _, err := db.ExecContext(ctx, createKVTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}

	log.Printf("[EMBEDDED] %s key-value store ready", b.driver)
	return db, nil
}

func (b *EmbeddedBackend) Load(ctx context.Context, key string) ([]byte, error) {
	db, err := b.handle(ctx)
	if err != nil {
		return nil, err
	}

	var value string
	query := db.Rebind(`SELECT value FROM kv_store WHERE grp = ? AND key = ?`)
	if err := db.GetContext(ctx, &value, query, b.group, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("kv select failed: %w", err)
	}

	return []byte(value), nil
}

func (b *EmbeddedBackend) Save(ctx context.Context, key string, data []byte) error {
	db, err := b.handle(ctx)
	if err != nil {
		return err
	}

	query := db.Rebind(`
        INSERT INTO kv_store (grp, key, value) VALUES (?, ?, ?)
        ON CONFLICT (grp, key) DO UPDATE SET value = excluded.value`)

	if _, err := db.ExecContext(ctx, query, b.group, key, string(data)); err != nil {
		return fmt.Errorf("kv upsert failed: %w", err)
	}
	return nil
}

func (b *EmbeddedBackend) Clear(ctx context.Context, key string) error {
	db, err := b.handle(ctx)
	if err != nil {
		return err
	}

	query := db.Rebind(`DELETE FROM kv_store WHERE grp = ? AND key = ?`)
	if _, err := db.ExecContext(ctx, query, b.group, key); err != nil {
		return fmt.Errorf("kv delete failed: %w", err)
	}
	return nil
}

// ReloadSurfaces is a no-op: nothing outside the process renders from the
// embedded store.
func (b *EmbeddedBackend) ReloadSurfaces(ctx context.Context) error {
	return nil
}

func (b *EmbeddedBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}
