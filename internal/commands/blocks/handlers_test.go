package blockscmd_test

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-lodge-cms/internal/blocks"
	blockscmd "github.com/goliatone/go-lodge-cms/internal/commands/blocks"
	"github.com/google/uuid"
)

type recordingRegistry struct {
	handlers []any
}

func (r *recordingRegistry) RegisterCommand(handler any) error {
	r.handlers = append(r.handlers, handler)
	return nil
}

type failingPublishService struct {
	blocks.Service
	failing uuid.UUID
}

func (s *failingPublishService) PublishBlock(ctx context.Context, id uuid.UUID) (*blocks.Block, error) {
	if id == s.failing {
		return nil, errors.New("replica lagging")
	}
	return s.Service.PublishBlock(ctx, id)
}

func newBlockService() blocks.Service {
	return blocks.NewService(blocks.NewMemoryBlockRepository(), blocks.DefaultRegistry())
}

func TestRegisterBlockCommands(t *testing.T) {
	reg := &recordingRegistry{}
	set, err := blockscmd.RegisterBlockCommands(reg, newBlockService(), nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(reg.handlers) != 6 || set.PublishPage == nil {
		t.Fatalf("expected six registered handlers, got %d", len(reg.handlers))
	}
	if _, err := blockscmd.RegisterBlockCommands(reg, nil, nil); err == nil {
		t.Fatal("expected error for nil service")
	}
}

func TestCreateAndMoveThroughCommands(t *testing.T) {
	ctx := context.Background()
	var created []*blocks.Block
	var order []*blocks.Block
	set := blockscmd.NewHandlers(newBlockService(), nil,
		blockscmd.OnBlock(func(b *blocks.Block) { created = append(created, b) }),
		blockscmd.OnOrder(func(b []*blocks.Block) { order = b }),
	)
	pageID := uuid.New()

	for _, blockType := range []string{blocks.TypeHeroImage, blocks.TypeRichText, blocks.TypeFAQ} {
		if err := set.Create.Execute(ctx, blockscmd.CreateBlockCommand{PageID: pageID, Type: blockType}); err != nil {
			t.Fatalf("create %s: %v", blockType, err)
		}
	}
	if len(created) != 3 || created[2].Position != 2 {
		t.Fatalf("unexpected created blocks %+v", created)
	}

	if err := set.Move.Execute(ctx, blockscmd.MoveBlockCommand{BlockID: created[2].ID, Position: 0}); err != nil {
		t.Fatalf("move: %v", err)
	}
	if len(order) != 3 || order[0].ID != created[2].ID {
		t.Fatalf("unexpected order after move")
	}
}

func TestCommandValidationErrors(t *testing.T) {
	set := blockscmd.NewHandlers(newBlockService(), nil)
	ctx := context.Background()

	cases := map[string]error{
		"missing page":    set.Create.Execute(ctx, blockscmd.CreateBlockCommand{Type: blocks.TypeFAQ}),
		"nil payload":     set.UpdateDraft.Execute(ctx, blockscmd.UpdateBlockDraftCommand{BlockID: uuid.New()}),
		"negative move":   set.Move.Execute(ctx, blockscmd.MoveBlockCommand{BlockID: uuid.New(), Position: -1}),
		"missing block":   set.Delete.Execute(ctx, blockscmd.DeleteBlockCommand{}),
		"missing page id": set.PublishPage.Execute(ctx, blockscmd.PublishPageCommand{}),
	}
	for name, err := range cases {
		if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
			t.Fatalf("%s: expected validation category, got %v", name, err)
		}
	}
}

func TestDomainErrorsAreClassified(t *testing.T) {
	set := blockscmd.NewHandlers(newBlockService(), nil)
	ctx := context.Background()

	err := set.Create.Execute(ctx, blockscmd.CreateBlockCommand{PageID: uuid.New(), Type: "carousel"})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected unknown type to be a validation failure, got %v", err)
	}
	var unknown *blocks.UnknownBlockTypeError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownBlockTypeError to stay reachable, got %v", err)
	}

	err = set.Create.Execute(ctx, blockscmd.CreateBlockCommand{
		PageID:  uuid.New(),
		Type:    blocks.TypeHeroImage,
		Payload: map[string]any{"title": ""},
	})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected invalid payload to be a validation failure, got %v", err)
	}

	err = set.PublishBlock.Execute(ctx, blockscmd.PublishBlockCommand{BlockID: uuid.New()})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) || !blocks.IsNotFound(err) {
		t.Fatalf("expected not found in command category, got %v", err)
	}
}

func TestPublishPageReportsPartialFailure(t *testing.T) {
	ctx := context.Background()
	base := newBlockService()
	pageID := uuid.New()
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		block, err := base.CreateBlock(ctx, blocks.CreateBlockRequest{PageID: pageID, Type: blocks.TypeAmenities})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, block.ID)
	}

	var report *blocks.PublishReport
	set := blockscmd.NewHandlers(&failingPublishService{Service: base, failing: ids[1]}, nil,
		blockscmd.OnReport(func(r *blocks.PublishReport) { report = r }))

	err := set.PublishPage.Execute(ctx, blockscmd.PublishPageCommand{PageID: pageID})
	var partial *blocks.PartialPublishFailureError
	if !errors.As(err, &partial) || !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected partial publish failure, got %v", err)
	}
	if len(partial.Failed) != 1 || partial.Failed[0] != ids[1] {
		t.Fatalf("unexpected failed set %v", partial.Failed)
	}
	if report == nil || len(report.Published) != 2 {
		t.Fatalf("expected the partial report to reach the observer, got %+v", report)
	}
}
