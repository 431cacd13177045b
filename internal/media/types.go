package media

import (
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Asset is an uploaded image and the manifest of its derivatives.
type Asset struct {
	bun.BaseModel `bun:"table:media_assets,alias:ma"`

	ID                  uuid.UUID         `bun:",pk,type:uuid" json:"id"`
	OriginalPath        string            `bun:"original_path,notnull" json:"original_path"`
	Filename            string            `bun:"filename,notnull" json:"filename"`
	Checksum            string            `bun:"checksum,notnull" json:"checksum"`
	AltText             string            `bun:"alt_text,notnull" json:"alt_text,omitempty"`
	Caption             string            `bun:"caption,notnull" json:"caption,omitempty"`
	MimeType            string            `bun:"mime_type,notnull" json:"mime_type"`
	Size                int64             `bun:"size,notnull" json:"size"`
	Width               *int              `bun:"width" json:"width,omitempty"`
	Height              *int              `bun:"height" json:"height,omitempty"`
	Orientation         Orientation       `bun:"orientation,notnull" json:"orientation"`
	Planned             []string          `bun:"planned,type:jsonb,notnull" json:"planned"`
	Failures            map[string]string `bun:"failures,type:jsonb,nullzero" json:"failures,omitempty"`
	ProcessingCompleted bool              `bun:"processing_completed,notnull" json:"processing_completed"`
	CreatedAt           time.Time         `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt           time.Time         `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`

	// Variants maps breakpoint label to storage path, assembled from
	// media_variants rows.
	Variants map[string]string `bun:"-" json:"variants"`
}

// Paths returns the original path followed by every variant path.
func (a *Asset) Paths() []string {
	out := []string{a.OriginalPath}
	for _, label := range slices.Sorted(maps.Keys(a.Variants)) {
		if p := a.Variants[label]; p != a.OriginalPath {
			out = append(out, p)
		}
	}
	return out
}

// Missing lists planned breakpoints that have neither a variant nor a
// recorded failure.
func (a *Asset) Missing() []string {
	var out []string
	for _, label := range a.Planned {
		if _, ok := a.Variants[label]; ok {
			continue
		}
		out = append(out, label)
	}
	return out
}

// Variant is one derivative row of an asset.
type Variant struct {
	bun.BaseModel `bun:"table:media_variants,alias:mv"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	AssetID   uuid.UUID `bun:"asset_id,notnull,type:uuid" json:"asset_id"`
	Label     string    `bun:"label,notnull" json:"label"`
	Path      string    `bun:"path,notnull" json:"path"`
	Width     int       `bun:"width,notnull" json:"width"`
	Height    int       `bun:"height,notnull" json:"height"`
	Size      int64     `bun:"size,notnull" json:"size"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}

// IngestRequest carries an upload into the pipeline.
type IngestRequest struct {
	Data      []byte
	Filename  string
	AltText   string
	Caption   string
	Thumbnail bool
}

// BreakpointFailure records why one breakpoint produced no variant.
type BreakpointFailure struct {
	Breakpoint string
	Err        error
}

// IngestResult is the final state of an asset once every breakpoint ran.
type IngestResult struct {
	Asset    *Asset
	Failures []BreakpointFailure
}

// UpdateMetadataRequest edits the descriptive fields of an asset.
type UpdateMetadataRequest struct {
	ID      uuid.UUID
	AltText *string
	Caption *string
}

// DeleteAssetRequest removes an asset. Force skips the published reference check.
type DeleteAssetRequest struct {
	ID    uuid.UUID
	Force bool
}

func cloneAsset(a *Asset) *Asset {
	if a == nil {
		return nil
	}
	out := *a
	out.Planned = slices.Clone(a.Planned)
	out.Failures = maps.Clone(a.Failures)
	out.Variants = maps.Clone(a.Variants)
	if out.Variants == nil {
		out.Variants = map[string]string{}
	}
	if a.Width != nil {
		w := *a.Width
		out.Width = &w
	}
	if a.Height != nil {
		h := *a.Height
		out.Height = &h
	}
	return &out
}
