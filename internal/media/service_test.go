package media_test

import (
	"bytes"
	"context"
	"errors"
	"image/jpeg"
	"testing"
	"time"

	"github.com/goliatone/go-lodge-cms/internal/adapters/storage"
	"github.com/goliatone/go-lodge-cms/internal/blocks"
	"github.com/goliatone/go-lodge-cms/internal/media"
	"github.com/goliatone/go-lodge-cms/pkg/testsupport"
	"github.com/google/uuid"
)

type serviceFixture struct {
	store  *storage.MemoryStore
	repo   *media.MemoryAssetRepository
	blocks blocks.Service
	media  media.Service
}

func newServiceFixture(t *testing.T, opts ...media.ServiceOption) serviceFixture {
	t.Helper()
	store := storage.NewMemoryStore("https://cdn.example.com/media")
	repo := media.NewMemoryAssetRepository()
	blockService := blocks.NewService(blocks.NewMemoryBlockRepository(), blocks.DefaultRegistry())
	pipeline := media.NewPipeline(store, repo)
	opts = append([]media.ServiceOption{media.WithReferenceFinder(blockService)}, opts...)
	return serviceFixture{
		store:  store,
		repo:   repo,
		blocks: blockService,
		media:  media.NewService(repo, store, pipeline, opts...),
	}
}

func (f serviceFixture) ingest(t *testing.T) *media.Asset {
	t.Helper()
	ingestion, err := f.media.Ingest(context.Background(), media.IngestRequest{Data: testsupport.JPEG(t, 1500, 1000), Filename: "cabin.jpg"})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	return waitIngestion(t, ingestion).Asset
}

func TestResolveBuildsPublicURLs(t *testing.T) {
	f := newServiceFixture(t)
	asset := f.ingest(t)

	attachment, err := f.media.Resolve(context.Background(), asset.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if attachment.Original.URL != "https://cdn.example.com/media/"+asset.OriginalPath {
		t.Fatalf("unexpected original url %s", attachment.Original.URL)
	}
	if !attachment.ProcessingCompleted || len(attachment.Variants) != 5 {
		t.Fatalf("unexpected attachment %+v", attachment)
	}
	md := attachment.Variants["md"]
	if md.Width != 960 || md.Height != 640 || md.MimeType != "image/jpeg" {
		t.Fatalf("unexpected md resource %+v", md)
	}
	if best := attachment.Best(1000); best.Label != "md" {
		t.Fatalf("expected md as best fit under 1000px, got %s", best.Label)
	}

	if _, err := f.media.Resolve(context.Background(), uuid.New()); !media.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.media.Get(context.Background(), uuid.Nil); !errors.Is(err, media.ErrAssetRequired) {
		t.Fatalf("expected ErrAssetRequired, got %v", err)
	}
}

func TestResolveReportsSquareThumbForSmallSource(t *testing.T) {
	f := newServiceFixture(t)
	ingestion, err := f.media.Ingest(context.Background(), media.IngestRequest{
		Data:      testsupport.PNG(t, 300, 200),
		Filename:  "badge.png",
		Thumbnail: true,
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	asset := waitIngestion(t, ingestion).Asset

	attachment, err := f.media.Resolve(context.Background(), asset.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	thumb := attachment.Variants[media.LabelThumb]
	if thumb.Width != 400 || thumb.Height != 400 {
		t.Fatalf("expected 400x400 thumb, got %dx%d", thumb.Width, thumb.Height)
	}
	if xs := attachment.Variants["xs"]; xs.Width != 300 || xs.Height != 200 {
		t.Fatalf("expected xs to keep the source size, got %dx%d", xs.Width, xs.Height)
	}

	data, err := f.store.Get(context.Background(), thumb.Path)
	if err != nil {
		t.Fatalf("read thumb: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width != 400 || cfg.Height != 400 {
		t.Fatalf("expected stored 400x400 thumb, got %dx%d (%v)", cfg.Width, cfg.Height, err)
	}
}

func TestUpdateMetadata(t *testing.T) {
	f := newServiceFixture(t)
	asset := f.ingest(t)

	alt := "  Cabin at dusk "
	updated, err := f.media.UpdateMetadata(context.Background(), media.UpdateMetadataRequest{ID: asset.ID, AltText: &alt})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.AltText != "Cabin at dusk" || updated.Caption != "" {
		t.Fatalf("unexpected metadata %q %q", updated.AltText, updated.Caption)
	}
	if len(updated.Variants) != 5 {
		t.Fatal("metadata updates must not touch the manifest")
	}
}

func TestDeleteRefusesPublishedReferences(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	asset := f.ingest(t)
	pageID := uuid.New()

	hero, err := f.blocks.CreateBlock(ctx, blocks.CreateBlockRequest{
		PageID:  pageID,
		Type:    blocks.TypeHeroImage,
		Payload: map[string]any{"title": "Arrivals", "imageSrc": f.store.PublicURL(asset.Variants["lg"])},
	})
	if err != nil {
		t.Fatalf("create hero: %v", err)
	}
	if _, err := f.media.Get(ctx, asset.ID); err != nil {
		t.Fatalf("get: %v", err)
	}

	// Draft-only references do not protect an asset.
	if err := f.media.Delete(ctx, media.DeleteAssetRequest{ID: asset.ID}); err != nil {
		t.Fatalf("draft references must not block delete: %v", err)
	}

	asset = f.ingest(t)
	if _, err := f.blocks.UpdateDraft(ctx, blocks.UpdateDraftRequest{
		BlockID: hero.ID,
		Payload: map[string]any{"title": "Arrivals", "imageSrc": f.store.PublicURL(asset.Variants["lg"])},
	}); err != nil {
		t.Fatalf("update hero: %v", err)
	}
	if _, err := f.blocks.PublishBlock(ctx, hero.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}

	err = f.media.Delete(ctx, media.DeleteAssetRequest{ID: asset.ID})
	var inUse *media.AssetInUseError
	if !errors.As(err, &inUse) || !errors.Is(err, media.ErrAssetInUse) {
		t.Fatalf("expected AssetInUseError, got %v", err)
	}
	if len(inUse.BlockIDs) != 1 || inUse.BlockIDs[0] != hero.ID {
		t.Fatalf("unexpected referencing blocks %v", inUse.BlockIDs)
	}
	if _, err := f.media.Get(ctx, asset.ID); err != nil {
		t.Fatalf("refused delete must keep the asset: %v", err)
	}

	if err := f.media.Delete(ctx, media.DeleteAssetRequest{ID: asset.ID, Force: true}); err != nil {
		t.Fatalf("force delete: %v", err)
	}
	if _, err := f.media.Get(ctx, asset.ID); !media.IsNotFound(err) {
		t.Fatalf("expected asset gone, got %v", err)
	}
	for _, path := range asset.Paths() {
		if _, err := f.store.Get(ctx, path); err == nil {
			t.Fatalf("object %s must be removed", path)
		}
	}
}

func TestDeleteMatchesAssetID(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	asset := f.ingest(t)

	gallery, err := f.blocks.CreateBlock(ctx, blocks.CreateBlockRequest{
		PageID: uuid.New(),
		Type:   blocks.TypeImageGallery,
		Payload: map[string]any{
			"columns": 3,
			"images":  []any{map[string]any{"src": asset.ID.String(), "alt": "Cabin"}},
		},
	})
	if err != nil {
		t.Fatalf("create gallery: %v", err)
	}
	if _, err := f.blocks.PublishBlock(ctx, gallery.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := f.media.Delete(ctx, media.DeleteAssetRequest{ID: asset.ID}); !errors.Is(err, media.ErrAssetInUse) {
		t.Fatalf("expected asset id reference to block delete, got %v", err)
	}
}

func TestResumeIncompleteSweepsOldAssets(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := newServiceFixture(t, media.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	stale := seedInterruptedAsset(t, f.store, f.repo, now.Add(-time.Hour))
	fresh := seedInterruptedAsset(t, f.store, f.repo, now.Add(-time.Minute))

	resumed, err := f.media.ResumeIncomplete(ctx, 10*time.Minute)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed != 1 {
		t.Fatalf("expected one resumed asset, got %d", resumed)
	}
	staleAsset, _ := f.media.Get(ctx, stale.ID)
	freshAsset, _ := f.media.Get(ctx, fresh.ID)
	if !staleAsset.ProcessingCompleted || freshAsset.ProcessingCompleted {
		t.Fatalf("only the stale asset may be resumed: stale=%v fresh=%v", staleAsset.ProcessingCompleted, freshAsset.ProcessingCompleted)
	}
}
