// Package storage opens the on-device sqlite database, applies embedded
// migrations, and hands out the repositories built on top of it.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/avoronov/filevault/internal/client/migrations"
	"github.com/avoronov/filevault/internal/client/repositories/blobs"
	"github.com/avoronov/filevault/internal/client/repositories/metadata"
	"github.com/avoronov/filevault/internal/filex"
)

type Repositories struct {
	DB       *sql.DB
	Metadata metadata.Repository
	Blobs    blobs.Repository
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (creating if needed) the client database at dsn,
// migrates it to the current schema, and wires the repositories.
// cacheMaxBytes bounds the blob cache; <= 0 disables eviction.
func InitDatabase(ctx context.Context, dsn string, cacheMaxBytes int64) (*Repositories, error) {
	// Plain file paths get their parent directory created; "file:" URIs are
	// passed through untouched (used for in-memory databases).
	if !strings.HasPrefix(dsn, "file:") {
		if _, err := filex.EnsureParentDir(dsn); err != nil {
			return nil, fmt.Errorf("failed to prepare database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open client database: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate client database: %w", err)
	}

	return &Repositories{
		DB:       db,
		Metadata: metadata.NewSQLiteRepository(db),
		Blobs:    blobs.NewSQLiteRepository(db, cacheMaxBytes),
	}, nil
}

// Close releases the underlying database handle.
func (r *Repositories) Close() error {
	return r.DB.Close()
}
