package media

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-lodge-cms/internal/blocks"
	"github.com/goliatone/go-lodge-cms/internal/logging"
	"github.com/goliatone/go-lodge-cms/pkg/interfaces"
	"github.com/google/uuid"
)

// ReferenceFinder locates published blocks that mention any of values.
// blocks.Service satisfies it.
type ReferenceFinder interface {
	PublishedReferences(ctx context.Context, values ...string) ([]blocks.Reference, error)
}

// Service is the media facade used by commands and the CLI.
type Service interface {
	Ingest(ctx context.Context, req IngestRequest) (*Ingestion, error)
	Get(ctx context.Context, id uuid.UUID) (*Asset, error)
	List(ctx context.Context) ([]*Asset, error)
	UpdateMetadata(ctx context.Context, req UpdateMetadataRequest) (*Asset, error)
	Resolve(ctx context.Context, id uuid.UUID) (*interfaces.MediaAttachment, error)
	Delete(ctx context.Context, req DeleteAssetRequest) error
	// ResumeIncomplete resumes every unfinished asset older than grace and
	// returns how many were resumed.
	ResumeIncomplete(ctx context.Context, grace time.Duration) (int, error)
}

// ServiceOption configures the media service.
type ServiceOption func(*service)

// WithReferenceFinder enables the published reference check on delete.
func WithReferenceFinder(finder ReferenceFinder) ServiceOption {
	return func(s *service) {
		s.references = finder
	}
}

// WithLogger sets the module logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the clock used for metadata updates and resume cutoffs.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

type service struct {
	repo       AssetRepository
	store      interfaces.ObjectStore
	pipeline   *Pipeline
	references ReferenceFinder
	logger     interfaces.Logger
	now        func() time.Time
}

// NewService wires the media service around a pipeline.
func NewService(repo AssetRepository, store interfaces.ObjectStore, pipeline *Pipeline, opts ...ServiceOption) Service {
	s := &service{
		repo:     repo,
		store:    store,
		pipeline: pipeline,
		logger:   logging.NoOp(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Ingest(ctx context.Context, req IngestRequest) (*Ingestion, error) {
	return s.pipeline.Ingest(ctx, req)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Asset, error) {
	if id == uuid.Nil {
		return nil, ErrAssetRequired
	}
	asset, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storageError("asset read", err)
	}
	return asset, nil
}

func (s *service) List(ctx context.Context) ([]*Asset, error) {
	assets, err := s.repo.List(ctx)
	if err != nil {
		return nil, storageError("asset read", err)
	}
	return assets, nil
}

func (s *service) UpdateMetadata(ctx context.Context, req UpdateMetadataRequest) (*Asset, error) {
	current, err := s.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	altText, caption := current.AltText, current.Caption
	if req.AltText != nil {
		altText = strings.TrimSpace(*req.AltText)
	}
	if req.Caption != nil {
		caption = strings.TrimSpace(*req.Caption)
	}
	updated, err := s.repo.UpdateMetadata(ctx, req.ID, altText, caption, s.now())
	if err != nil {
		return nil, storageError("asset write", err)
	}
	return updated, nil
}

// Resolve builds the render-ready view of an asset with public URLs for the
// original and every variant produced so far.
func (s *service) Resolve(ctx context.Context, id uuid.UUID) (*interfaces.MediaAttachment, error) {
	asset, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	attachment := &interfaces.MediaAttachment{
		AssetID: asset.ID.String(),
		AltText: asset.AltText,
		Caption: asset.Caption,
		Original: interfaces.MediaResource{
			Label:    LabelOriginal,
			Path:     asset.OriginalPath,
			URL:      s.store.PublicURL(asset.OriginalPath),
			MimeType: asset.MimeType,
			Width:    derefInt(asset.Width),
			Height:   derefInt(asset.Height),
		},
		Variants:            make(map[string]interfaces.MediaResource, len(asset.Variants)),
		ProcessingCompleted: asset.ProcessingCompleted,
	}
	for label, path := range asset.Variants {
		resource := interfaces.MediaResource{
			Label:    label,
			Path:     path,
			URL:      s.store.PublicURL(path),
			MimeType: derivativeContentType,
		}
		if label == LabelOriginal {
			resource.MimeType = asset.MimeType
			resource.Width, resource.Height = derefInt(asset.Width), derefInt(asset.Height)
		} else if bp, ok := s.pipeline.planner.Lookup(asset.Orientation, label); ok {
			resource.Width, resource.Height = fittedSize(asset, bp)
		}
		attachment.Variants[label] = resource
	}
	return attachment, nil
}

// Delete removes an asset's objects and then its record. Unless req.Force is
// set, an asset referenced by published content is refused.
func (s *service) Delete(ctx context.Context, req DeleteAssetRequest) error {
	asset, err := s.Get(ctx, req.ID)
	if err != nil {
		return err
	}
	if !req.Force && s.references != nil {
		needles := append([]string{asset.ID.String()}, asset.Paths()...)
		refs, err := s.references.PublishedReferences(ctx, needles...)
		if err != nil {
			return err
		}
		if len(refs) > 0 {
			seen := map[uuid.UUID]bool{}
			inUse := &AssetInUseError{AssetID: asset.ID}
			for _, ref := range refs {
				if !seen[ref.BlockID] {
					seen[ref.BlockID] = true
					inUse.BlockIDs = append(inUse.BlockIDs, ref.BlockID)
				}
			}
			return inUse
		}
	}

	if err := s.store.Remove(ctx, asset.Paths()...); err != nil {
		return storageError("asset object delete", err)
	}
	if err := s.repo.Delete(ctx, asset.ID); err != nil {
		return storageError("asset delete", err)
	}
	s.logger.Info("media.delete", "asset_id", asset.ID, "force", req.Force)
	return nil
}

func (s *service) ResumeIncomplete(ctx context.Context, grace time.Duration) (int, error) {
	pending, err := s.repo.ListIncomplete(ctx, s.now().Add(-grace))
	if err != nil {
		return 0, storageError("asset read", err)
	}
	resumed := 0
	for _, asset := range pending {
		if err := ctx.Err(); err != nil {
			return resumed, err
		}
		if _, err := s.pipeline.Resume(ctx, asset.ID); err != nil {
			s.logger.Error("media.resume.failed", "asset_id", asset.ID, "error", err)
			continue
		}
		resumed++
	}
	if resumed > 0 {
		s.logger.Info("media.resume.completed", "resumed", resumed, "pending", len(pending))
	}
	return resumed, nil
}

func fittedSize(asset *Asset, bp Breakpoint) (int, int) {
	if bp.Crop {
		return bp.Width, bp.Height
	}
	return FitInside(derefInt(asset.Width), derefInt(asset.Height), bp.Width, bp.Height)
}
