package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mind-engage/eduverse/internal/config"
	"github.com/mind-engage/eduverse/internal/db"
	"github.com/mind-engage/eduverse/internal/identity"
	"github.com/mind-engage/eduverse/internal/storage"
	"github.com/mind-engage/eduverse/internal/supabase"
	"github.com/mind-engage/eduverse/internal/tables"
)

// backends are the three collaborator ports. Online mode serves all of them
// from Supabase; offline mode from a local database and directory.
type backends struct {
	tables   tables.Store
	identity identity.Provider
	signer   storage.Signer
	dbh      *sql.DB
}

func newBackends(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backends, error) {
	b := &backends{}
	var sb *supabase.Client
	if cfg.SupabaseURL != "" {
		sb = supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, cfg.UpstreamTimeout)
	}

	switch cfg.Mode {
	case config.ModeOnline:
		b.tables, b.identity = sb, sb
	case config.ModeOffline:
		dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
		}
		b.dbh = dbh
		store := tables.NewSQLStore(dbh, cfg.DBDriver)
		b.tables, b.identity = store, identity.NewLocal(store)
		log.Info().Str("driver", cfg.DBDriver).Msg("offline tables and identity")
	}

	switch cfg.StorageDriver {
	case config.StorageSupabase:
		b.signer = sb
	case config.StorageS3:
		s3, err := storage.NewS3Store(ctx, storage.S3Options{
			Endpoint:  cfg.S3URL,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			b.Close()
			return nil, err
		}
		b.signer = s3
	case config.StorageFS:
		fs, err := storage.NewFSStore(cfg.BlobBasePath)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("blob store: %w", err)
		}
		b.signer = fs
	}
	return b, nil
}

func (b *backends) Close() {
	if b.dbh != nil {
		_ = b.dbh.Close()
	}
}
