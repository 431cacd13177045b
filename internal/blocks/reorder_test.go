package blocks

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func makeOrdered(n int) []*Block {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]*Block, n)
	for i := range out {
		out[i] = &Block{ID: uuid.New(), Position: i, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
	}
	return out
}

func ids(blocks []*Block) []uuid.UUID {
	out := make([]uuid.UUID, len(blocks))
	for i, b := range blocks {
		out[i] = b.ID
	}
	return out
}

func TestMoveWithinClampsTarget(t *testing.T) {
	cases := []struct {
		name   string
		from   int
		target int
		want   []int
	}{
		{"forward", 0, 2, []int{1, 2, 0, 3}},
		{"backward", 3, 1, []int{0, 3, 1, 2}},
		{"same slot", 2, 2, []int{0, 1, 2, 3}},
		{"clamp high", 1, 99, []int{0, 2, 3, 1}},
		{"clamp low", 2, -5, []int{2, 0, 1, 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ordered := makeOrdered(4)
			original := ids(ordered)

			moved, err := moveWithin(ordered, original[tc.from], tc.target)
			if err != nil {
				t.Fatalf("moveWithin: %v", err)
			}
			for i, idx := range tc.want {
				if moved[i].ID != original[idx] {
					t.Fatalf("slot %d: expected block %d", i, idx)
				}
			}
		})
	}
}

func TestMoveWithinUnknownBlock(t *testing.T) {
	if _, err := moveWithin(makeOrdered(2), uuid.New(), 0); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOrderBlocksBreaksTiesByCreation(t *testing.T) {
	blocks := makeOrdered(3)
	// Simulate a collision: the newest block claims position 0.
	blocks[2].Position = 0
	blocks[1].Position = 2

	ordered := orderBlocks(blocks)
	want := []uuid.UUID{blocks[0].ID, blocks[2].ID, blocks[1].ID}
	for i, id := range want {
		if ordered[i].ID != id {
			t.Fatalf("slot %d: unexpected block order", i)
		}
	}
}

func TestRenumberReportsOnlyChanges(t *testing.T) {
	blocks := makeOrdered(4)
	blocks[2].Position = 5
	blocks[3].Position = 9

	changed := renumber(orderBlocks(blocks))
	if len(changed) != 2 {
		t.Fatalf("expected two changed positions, got %v", changed)
	}
	if changed[blocks[2].ID] != 2 || changed[blocks[3].ID] != 3 {
		t.Fatalf("unexpected renumbering: %v", changed)
	}
	if err := checkDense(uuid.New(), blocks); err != nil {
		t.Fatalf("expected dense positions after renumber: %v", err)
	}
}

func TestCheckDenseDetectsGap(t *testing.T) {
	blocks := makeOrdered(3)
	blocks[2].Position = 3
	if err := checkDense(uuid.New(), blocks); err == nil {
		t.Fatal("expected gap to be reported")
	}
}

func TestKeyedMutexReleasesEntries(t *testing.T) {
	locks := newKeyedMutex()
	key := uuid.New()
	unlock := locks.Lock(key)
	unlock()
	if len(locks.locks) != 0 {
		t.Fatalf("expected lock entry to be released, got %d", len(locks.locks))
	}
}
