package blockscmd_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	"github.com/goliatone/go-lodge-cms/internal/blocks"
	blockscmd "github.com/goliatone/go-lodge-cms/internal/commands/blocks"
	"github.com/google/uuid"
)

type contendedService struct {
	blocks.Service
	conflicts atomic.Int32
	attempts  atomic.Int32
}

func (s *contendedService) MoveTo(ctx context.Context, id uuid.UUID, position int) ([]*blocks.Block, error) {
	s.attempts.Add(1)
	if s.conflicts.Add(-1) >= 0 {
		return nil, &blocks.PositionConflictError{PageID: uuid.New()}
	}
	return s.Service.MoveTo(ctx, id, position)
}

func TestDispatchedMoveRetriesPositionConflicts(t *testing.T) {
	ctx := context.Background()
	base := newBlockService()
	pageID := uuid.New()
	first, _ := base.CreateBlock(ctx, blocks.CreateBlockRequest{PageID: pageID, Type: blocks.TypeFAQ})
	second, _ := base.CreateBlock(ctx, blocks.CreateBlockRequest{PageID: pageID, Type: blocks.TypeFAQ})

	svc := &contendedService{Service: base}
	svc.conflicts.Store(1)
	set := blockscmd.NewHandlers(svc, nil)

	sub := dispatcher.SubscribeCommand(set.Move, runner.WithMaxRetries(2))
	t.Cleanup(sub.Unsubscribe)

	if err := dispatcher.Dispatch(ctx, blockscmd.MoveBlockCommand{BlockID: second.ID, Position: 0}); err != nil {
		t.Fatalf("dispatch: expected success after retry, got %v", err)
	}
	if svc.attempts.Load() != 2 {
		t.Fatalf("expected one retry, got %d attempts", svc.attempts.Load())
	}
	ordered, _ := base.ListPageBlocks(ctx, pageID)
	if ordered[0].ID != second.ID || ordered[1].ID != first.ID {
		t.Fatal("expected the retried move to land")
	}
}
