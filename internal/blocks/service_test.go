package blocks_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-lodge-cms/internal/blocks"
	"github.com/google/uuid"
)

func newTestService(t *testing.T, opts ...blocks.ServiceOption) (blocks.Service, blocks.BlockRepository) {
	t.Helper()
	repo := blocks.NewMemoryBlockRepository()
	return blocks.NewService(repo, blocks.DefaultRegistry(), opts...), repo
}

func assertDense(t *testing.T, svc blocks.Service, pageID uuid.UUID) []*blocks.Block {
	t.Helper()
	records, err := svc.ListPageBlocks(context.Background(), pageID)
	if err != nil {
		t.Fatalf("list blocks: %v", err)
	}
	for i, record := range records {
		if record.Position != i {
			t.Fatalf("block %s at position %d, expected %d", record.ID, record.Position, i)
		}
	}
	return records
}

func TestCreateBlockWithoutPayloadUsesDefaults(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	pageID := uuid.New()

	for _, blockType := range svc.Registry().Types() {
		block, err := svc.CreateBlock(ctx, blocks.CreateBlockRequest{PageID: pageID, Type: blockType})
		if err != nil {
			t.Fatalf("create %s: %v", blockType, err)
		}
		defaults, _ := svc.Registry().DefaultsFor(blockType)
		if !blocks.EqualPayloads(block.Payload, defaults) {
			t.Fatalf("%s: draft %v does not equal defaults %v", blockType, block.Payload, defaults)
		}
		if block.Published != nil {
			t.Fatalf("%s: expected nil published snapshot", blockType)
		}
		stored, err := svc.GetBlock(ctx, block.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if !blocks.EqualPayloads(stored.Payload, defaults) || stored.Published != nil {
			t.Fatalf("%s: stored block does not match defaults", blockType)
		}
	}
	assertDense(t, svc, pageID)
}

func TestCreateBlockRejectsInvalidPayloadAndUnknownType(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	pageID := uuid.New()

	_, err := svc.CreateBlock(ctx, blocks.CreateBlockRequest{
		PageID:  pageID,
		Type:    blocks.TypeHeroImage,
		Payload: map[string]any{"title": "Welcome", "imageSrc": ""},
	})
	var validationErr *blocks.FieldValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected FieldValidationError, got %v", err)
	}
	if _, ok := validationErr.Field("imageSrc"); !ok {
		t.Fatalf("expected imageSrc violation, got %+v", validationErr.Fields)
	}

	_, err = svc.CreateBlock(ctx, blocks.CreateBlockRequest{PageID: pageID, Type: "marquee"})
	if !errors.Is(err, blocks.ErrUnknownBlockType) {
		t.Fatalf("expected ErrUnknownBlockType, got %v", err)
	}

	records := assertDense(t, svc, pageID)
	if len(records) != 0 {
		t.Fatalf("rejected blocks must not be stored, got %d", len(records))
	}
}

func TestCreateBlockChecksPageExists(t *testing.T) {
	known := uuid.New()
	lookup := blocks.PageLookupFunc(func(_ context.Context, id uuid.UUID) (bool, error) {
		return id == known, nil
	})
	svc, _ := newTestService(t, blocks.WithPageLookup(lookup))

	if _, err := svc.CreateBlock(context.Background(), blocks.CreateBlockRequest{PageID: uuid.New(), Type: blocks.TypeRichText}); !blocks.IsNotFound(err) {
		t.Fatalf("expected not found for unknown page, got %v", err)
	}
	if _, err := svc.CreateBlock(context.Background(), blocks.CreateBlockRequest{PageID: known, Type: blocks.TypeRichText}); err != nil {
		t.Fatalf("create on known page: %v", err)
	}
}

func TestDeleteFirstBlockClosesGap(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	pageID := uuid.New()

	first, err := svc.CreateBlock(ctx, blocks.CreateBlockRequest{PageID: pageID, Type: blocks.TypeRichText})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := svc.CreateBlock(ctx, blocks.CreateBlockRequest{PageID: pageID, Type: blocks.TypeFAQ})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second.Position != 1 {
		t.Fatalf("expected second block at position 1, got %d", second.Position)
	}

	if err := svc.DeleteBlock(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	remaining, err := svc.GetBlock(ctx, second.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if remaining.Position != 0 {
		t.Fatalf("expected remaining block at position 0, got %d", remaining.Position)
	}
	if _, err := svc.GetBlock(ctx, first.ID); !blocks.IsNotFound(err) {
		t.Fatalf("expected deleted block to be gone, got %v", err)
	}
}

func TestUpdateDraftRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	block, err := svc.CreateBlock(ctx, blocks.CreateBlockRequest{PageID: uuid.New(), Type: blocks.TypeTestimonials})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	payload := map[string]any{
		"heading": "Guests",
		"entries": []any{
			map[string]any{"quote": "Best sauna in the valley", "author": "Mara", "rating": 5},
		},
	}
	if _, err := svc.UpdateDraft(ctx, blocks.UpdateDraftRequest{BlockID: block.ID, Payload: payload}); err != nil {
		t.Fatalf("update: %v", err)
	}
	payload["heading"] = "mutated after write"

	stored, err := svc.GetBlock(ctx, block.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := map[string]any{
		"heading": "Guests",
		"entries": []any{
			map[string]any{"quote": "Best sauna in the valley", "author": "Mara", "rating": 5},
		},
	}
	if !blocks.EqualPayloads(stored.Payload, want) {
		t.Fatalf("draft round trip mismatch: %v", stored.Payload)
	}
	if stored.Published != nil {
		t.Fatalf("update must not touch the published snapshot")
	}
}

func TestUpdateDraftRejectsInvalidPayloadAndKeepsDraft(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	block, err := svc.CreateBlock(ctx, blocks.CreateBlockRequest{PageID: uuid.New(), Type: blocks.TypeHeroImage})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = svc.UpdateDraft(ctx, blocks.UpdateDraftRequest{BlockID: block.ID, Payload: map[string]any{"title": ""}})
	var validationErr *blocks.FieldValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected FieldValidationError, got %v", err)
	}
	if len(validationErr.Fields) != 2 {
		t.Fatalf("expected title and imageSrc violations, got %+v", validationErr.Fields)
	}
	stored, _ := svc.GetBlock(ctx, block.ID)
	if !blocks.EqualPayloads(stored.Payload, block.Payload) {
		t.Fatalf("rejected update changed the draft")
	}
}

func TestMoveToRenumbersAndClamps(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	pageID := uuid.New()

	var created []*blocks.Block
	for i := 0; i < 4; i++ {
		block, err := svc.CreateBlock(ctx, blocks.CreateBlockRequest{PageID: pageID, Type: blocks.TypeRichText})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		created = append(created, block)
	}

	ordered, err := svc.MoveTo(ctx, created[3].ID, 0)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	want := []uuid.UUID{created[3].ID, created[0].ID, created[1].ID, created[2].ID}
	for i, id := range want {
		if ordered[i].ID != id || ordered[i].Position != i {
			t.Fatalf("slot %d: unexpected order after move", i)
		}
	}

	ordered, err = svc.MoveTo(ctx, created[3].ID, 42)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if ordered[3].ID != created[3].ID {
		t.Fatalf("expected block clamped to last slot")
	}
	assertDense(t, svc, pageID)
}

func TestStructuralSequencesStayDense(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	pageID := uuid.New()
	rng := rand.New(rand.NewSource(7))

	var live []uuid.UUID
	for step := 0; step < 200; step++ {
		switch op := rng.Intn(3); {
		case op == 0 || len(live) == 0:
			block, err := svc.CreateBlock(ctx, blocks.CreateBlockRequest{PageID: pageID, Type: blocks.TypeAmenities})
			if err != nil {
				t.Fatalf("step %d create: %v", step, err)
			}
			live = append(live, block.ID)
		case op == 1:
			index := rng.Intn(len(live))
			if err := svc.DeleteBlock(ctx, live[index]); err != nil {
				t.Fatalf("step %d delete: %v", step, err)
			}
			live = append(live[:index], live[index+1:]...)
		default:
			target := rng.Intn(len(live)+4) - 2
			if _, err := svc.MoveTo(ctx, live[rng.Intn(len(live))], target); err != nil {
				t.Fatalf("step %d move: %v", step, err)
			}
		}
		records := assertDense(t, svc, pageID)
		if len(records) != len(live) {
			t.Fatalf("step %d: expected %d blocks, got %d", step, len(live), len(records))
		}
	}
}

func TestConcurrentStructuralMutationsAreSerialised(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	pageID := uuid.New()

	seed, err := svc.CreateBlock(ctx, blocks.CreateBlockRequest{PageID: pageID, Type: blocks.TypeRichText})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, err := svc.CreateBlock(ctx, blocks.CreateBlockRequest{PageID: pageID, Type: blocks.TypeRichText})
				errs <- err
				return
			}
			_, err := svc.MoveTo(ctx, seed.ID, i%5)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent mutation: %v", err)
		}
	}

	records := assertDense(t, svc, pageID)
	if len(records) != 17 {
		t.Fatalf("expected 17 blocks, got %d", len(records))
	}
}

func TestDeletePageBlocks(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	pageID := uuid.New()
	other := uuid.New()

	for _, id := range []uuid.UUID{pageID, pageID, other} {
		if _, err := svc.CreateBlock(ctx, blocks.CreateBlockRequest{PageID: id, Type: blocks.TypeFAQ}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := svc.DeletePageBlocks(ctx, pageID); err != nil {
		t.Fatalf("delete page blocks: %v", err)
	}
	if records := assertDense(t, svc, pageID); len(records) != 0 {
		t.Fatalf("expected no blocks left, got %d", len(records))
	}
	if records := assertDense(t, svc, other); len(records) != 1 {
		t.Fatalf("other page must keep its block, got %d", len(records))
	}
}

func TestDeletePageWaitsForInFlightCreate(t *testing.T) {
	pageID := uuid.New()
	var mu sync.Mutex
	exists := true
	entered, release := make(chan struct{}), make(chan struct{})
	var once sync.Once
	lookup := blocks.PageLookupFunc(func(_ context.Context, id uuid.UUID) (bool, error) {
		once.Do(func() {
			close(entered)
			<-release
		})
		mu.Lock()
		defer mu.Unlock()
		return id == pageID && exists, nil
	})
	svc, _ := newTestService(t, blocks.WithPageLookup(lookup))
	ctx := context.Background()

	created := make(chan error, 1)
	go func() {
		_, err := svc.CreateBlock(ctx, blocks.CreateBlockRequest{PageID: pageID, Type: blocks.TypeFAQ})
		created <- err
	}()
	<-entered

	removed := make(chan error, 1)
	go func() {
		removed <- svc.DeletePage(ctx, pageID, func(context.Context) error {
			mu.Lock()
			exists = false
			mu.Unlock()
			return nil
		})
	}()

	select {
	case err := <-removed:
		t.Fatalf("page removed while a create was still checking it (err %v)", err)
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	if err := <-created; err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := <-removed; err != nil {
		t.Fatalf("delete page: %v", err)
	}
	if records := assertDense(t, svc, pageID); len(records) != 0 {
		t.Fatalf("expected no orphaned blocks, got %d", len(records))
	}
	if _, err := svc.CreateBlock(ctx, blocks.CreateBlockRequest{PageID: pageID, Type: blocks.TypeFAQ}); !blocks.IsNotFound(err) {
		t.Fatalf("expected not found after page delete, got %v", err)
	}
}

func TestServiceUsesInjectedClockAndIDs(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	id := uuid.MustParse("7e57d004-2b97-0e7a-b45f-5387367791cd")
	svc, _ := newTestService(t,
		blocks.WithClock(func() time.Time { return fixed }),
		blocks.WithIDGenerator(func() uuid.UUID { return id }),
	)

	block, err := svc.CreateBlock(context.Background(), blocks.CreateBlockRequest{PageID: uuid.New(), Type: blocks.TypeRichText})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if block.ID != id || !block.CreatedAt.Equal(fixed) {
		t.Fatalf("expected injected id and clock, got %s %s", block.ID, block.CreatedAt)
	}
}
