package main

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mind-engage/eduverse/internal/config"
	"github.com/mind-engage/eduverse/internal/identity"
	"github.com/mind-engage/eduverse/internal/supabase"
	"github.com/mind-engage/eduverse/internal/tables"
)

func TestNewBackendsOffline(t *testing.T) {
	cfg := &config.Config{
		Mode:          config.ModeOffline,
		DBDriver:      "sqlite",
		DBDSN:         "file:" + t.Name() + "?mode=memory&cache=shared",
		StorageDriver: config.StorageFS,
		BlobBasePath:  t.TempDir(),
	}
	ctx := context.Background()

	b, err := newBackends(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("newBackends: %v", err)
	}
	defer b.Close()

	if _, ok := b.tables.(*tables.SQLStore); !ok {
		t.Errorf("tables = %T, want *tables.SQLStore", b.tables)
	}
	if _, ok := b.identity.(*identity.Local); !ok {
		t.Errorf("identity = %T, want *identity.Local", b.identity)
	}
	url, err := b.signer.SignedURL(ctx, "videos", "1/intro.mp4", time.Hour)
	if err != nil || url == "" {
		t.Fatalf("signed url = %q, %v", url, err)
	}
	if _, err := b.tables.Select(ctx, "courses", tables.Query{}); err != nil {
		t.Errorf("select courses: %v", err)
	}
}

func TestNewBackendsOnlineSharesClient(t *testing.T) {
	cfg := &config.Config{
		Mode:                   config.ModeOnline,
		SupabaseURL:            "http://127.0.0.1:54321",
		SupabaseServiceRoleKey: "service-key",
		StorageDriver:          config.StorageSupabase,
		UpstreamTimeout:        time.Second,
	}

	b, err := newBackends(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("newBackends: %v", err)
	}
	defer b.Close()

	sb, ok := b.tables.(*supabase.Client)
	if !ok {
		t.Fatalf("tables = %T, want *supabase.Client", b.tables)
	}
	if b.identity != identity.Provider(sb) || b.signer == nil || b.dbh != nil {
		t.Errorf("backends = %+v", b)
	}
}
