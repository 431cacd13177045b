package pages

import (
	"time"

	"github.com/goliatone/go-lodge-cms/internal/blocks"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Page is an addressable container of ordered blocks.
type Page struct {
	bun.BaseModel `bun:"table:pages,alias:p"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	Slug      string    `bun:"slug,notnull" json:"slug"`
	Name      string    `bun:"name,notnull" json:"name"`
	Template  string    `bun:"template,notnull" json:"template,omitempty"`
	Priority  int       `bun:"priority,notnull" json:"priority"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// CreatePageRequest captures the fields required to create a page.
type CreatePageRequest struct {
	// ID is optional; the service generator is used when it is uuid.Nil.
	ID       uuid.UUID
	Slug     string
	Name     string
	Template string
	Priority int
}

// UpdatePageRequest changes page metadata. Nil fields are left untouched.
type UpdatePageRequest struct {
	ID       uuid.UUID
	Name     *string
	Template *string
	Priority *int
}

// View selects which payload a page read exposes.
type View string

const (
	// ViewDraft returns every block with its draft payload.
	ViewDraft View = "draft"
	// ViewPublished returns only published blocks with their snapshots.
	ViewPublished View = "published"
)

// ParseView maps user input onto a View.
func ParseView(value string) (View, error) {
	switch View(value) {
	case ViewDraft:
		return ViewDraft, nil
	case ViewPublished, "":
		return ViewPublished, nil
	}
	return "", ErrUnknownView
}

// PageView is a page with its blocks resolved for one view.
type PageView struct {
	Page   *Page       `json:"page"`
	View   View        `json:"view"`
	Blocks []BlockView `json:"blocks"`
}

// BlockView is a block as seen through a view. HTML holds rendered rich text
// keyed by field path when rendering is enabled. State is empty on the
// published view.
type BlockView struct {
	ID          uuid.UUID           `json:"id"`
	Type        string              `json:"type"`
	Position    int                 `json:"position"`
	Payload     map[string]any      `json:"payload"`
	State       blocks.PublishState `json:"state,omitempty"`
	PublishedAt *time.Time          `json:"published_at,omitempty"`
	HTML        map[string]string   `json:"html,omitempty"`
}

func clonePage(p *Page) *Page {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}
