package media_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-lodge-cms/internal/adapters/storage"
	"github.com/goliatone/go-lodge-cms/internal/media"
	"github.com/goliatone/go-lodge-cms/pkg/testsupport"
	"github.com/google/uuid"
)

func TestBunAssetRepositoryIngestLifecycle(t *testing.T) {
	db := testsupport.NewSQLiteDB(t)
	ctx := context.Background()
	store := storage.NewMemoryStore("")
	repo := media.NewBunAssetRepository(db)
	pipeline := media.NewPipeline(store, repo, media.WithTranscoder(failFor("sm")))
	svc := media.NewService(repo, store, pipeline)

	ingestion, err := svc.Ingest(ctx, media.IngestRequest{Data: testsupport.JPEG(t, 1200, 900), Filename: "Fire Pit.jpg", Caption: "Evening"})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	result := waitIngestion(t, ingestion)

	stored, err := svc.Get(ctx, result.Asset.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.ProcessingCompleted || len(stored.Variants) != 4 {
		t.Fatalf("unexpected stored asset %+v", stored)
	}
	if stored.Failures["sm"] == "" || len(stored.Planned) != 5 {
		t.Fatalf("expected planned labels and sm failure to survive storage: %v %v", stored.Planned, stored.Failures)
	}
	if stored.Width == nil || *stored.Width != 1200 || stored.Orientation != media.Landscape {
		t.Fatalf("unexpected dimensions %+v", stored)
	}

	caption := "Evening by the fire"
	updated, err := svc.UpdateMetadata(ctx, media.UpdateMetadataRequest{ID: stored.ID, Caption: &caption})
	if err != nil {
		t.Fatalf("update metadata: %v", err)
	}
	if updated.Caption != caption || len(updated.Variants) != 4 {
		t.Fatalf("unexpected update result %+v", updated)
	}

	listed, err := svc.List(ctx)
	if err != nil || len(listed) != 1 || len(listed[0].Variants) != 4 {
		t.Fatalf("unexpected list %+v %v", listed, err)
	}

	if err := svc.Delete(ctx, media.DeleteAssetRequest{ID: stored.ID}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, stored.ID); !media.IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	var variants int
	if err := db.NewRaw("SELECT COUNT(*) FROM media_variants").Scan(ctx, &variants); err != nil {
		t.Fatalf("count variants: %v", err)
	}
	if variants != 0 {
		t.Fatalf("expected variants removed, got %d", variants)
	}
	if len(store.Keys()) != 0 {
		t.Fatalf("expected objects removed, got %v", store.Keys())
	}
}

func TestBunAssetRepositoryListIncomplete(t *testing.T) {
	db := testsupport.NewSQLiteDB(t)
	ctx := context.Background()
	repo := media.NewBunAssetRepository(db)
	store := storage.NewMemoryStore("")
	now := time.Now().UTC().Truncate(time.Second)

	stale := seedInterruptedAsset(t, store, repo, now.Add(-2*time.Hour))
	seedInterruptedAsset(t, store, repo, now)

	pending, err := repo.ListIncomplete(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("list incomplete: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != stale.ID {
		t.Fatalf("expected only the stale asset, got %d", len(pending))
	}
	if pending[0].Variants["xl"] != "derived/xl/kept.jpg" {
		t.Fatalf("expected variants attached, got %v", pending[0].Variants)
	}

	if err := repo.AddVariant(ctx, &media.Variant{AssetID: stale.ID, Label: "xl", Path: "derived/xl/replaced.jpg", Width: 10, Height: 7}); err != nil {
		t.Fatalf("replace variant: %v", err)
	}
	reloaded, _ := repo.GetByID(ctx, stale.ID)
	if reloaded.Variants["xl"] != "derived/xl/replaced.jpg" {
		t.Fatalf("expected variant replaced, got %v", reloaded.Variants)
	}

	completed, err := repo.MarkProcessed(ctx, stale.ID, nil, now)
	if err != nil || !completed.ProcessingCompleted {
		t.Fatalf("mark processed: %+v %v", completed, err)
	}
	if _, err := repo.MarkProcessed(ctx, uuid.New(), nil, now); !media.IsNotFound(err) {
		t.Fatalf("expected not found for unknown asset, got %v", err)
	}
}
