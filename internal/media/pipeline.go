package media

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-lodge-cms/internal/logging"
	"github.com/goliatone/go-lodge-cms/pkg/interfaces"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	derivativeContentType    = "image/jpeg"
	defaultConcurrency       = 4
	defaultBreakpointTimeout = 30 * time.Second
	defaultMaxUploadBytes    = 25 << 20
)

// IDGenerator produces unique identifiers.
type IDGenerator func() uuid.UUID

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPlanner overrides the breakpoint matrix.
func WithPlanner(planner *Planner) PipelineOption {
	return func(p *Pipeline) {
		if planner != nil {
			p.planner = planner
		}
	}
}

// WithTranscoder overrides the resize/encode step.
func WithTranscoder(transcoder Transcoder) PipelineOption {
	return func(p *Pipeline) {
		if transcoder != nil {
			p.transcoder = transcoder
		}
	}
}

// WithConcurrency bounds how many breakpoints of one asset run at once.
func WithConcurrency(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithBreakpointTimeout limits each breakpoint independently.
func WithBreakpointTimeout(timeout time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithMaxUploadBytes rejects larger uploads. Zero disables the limit.
func WithMaxUploadBytes(limit int64) PipelineOption {
	return func(p *Pipeline) {
		if limit >= 0 {
			p.maxBytes = limit
		}
	}
}

// WithPipelineLogger sets the pipeline logger.
func WithPipelineLogger(logger interfaces.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithPipelineClock overrides the clock used for timestamps.
func WithPipelineClock(clock func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		if clock != nil {
			p.now = clock
		}
	}
}

// WithAssetIDGenerator overrides the asset id generator.
func WithAssetIDGenerator(generator IDGenerator) PipelineOption {
	return func(p *Pipeline) {
		if generator != nil {
			p.id = generator
		}
	}
}

// Pipeline turns uploads into a stored original plus a set of resized
// derivatives.
type Pipeline struct {
	store       interfaces.ObjectStore
	repo        AssetRepository
	planner     *Planner
	transcoder  Transcoder
	concurrency int
	timeout     time.Duration
	maxBytes    int64
	logger      interfaces.Logger
	now         func() time.Time
	id          IDGenerator
}

// NewPipeline wires a pipeline against an object store and asset repository.
func NewPipeline(store interfaces.ObjectStore, repo AssetRepository, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		store:       store,
		repo:        repo,
		planner:     DefaultPlanner(),
		transcoder:  JPEGTranscoder{},
		concurrency: defaultConcurrency,
		timeout:     defaultBreakpointTimeout,
		maxBytes:    defaultMaxUploadBytes,
		logger:      logging.NoOp(),
		now:         func() time.Time { return time.Now().UTC() },
		id:          uuid.New,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingestion tracks the background derivative work of one upload.
type Ingestion struct {
	asset  *Asset
	done   chan struct{}
	result *IngestResult
	err    error
}

// Asset returns the asset as registered, before any derivative exists.
func (i *Ingestion) Asset() *Asset { return cloneAsset(i.asset) }

// Done is closed once every breakpoint was attempted.
func (i *Ingestion) Done() <-chan struct{} { return i.done }

// Wait blocks until processing finishes or ctx ends. Cancelling ctx stops the
// wait only; processing continues.
func (i *Ingestion) Wait(ctx context.Context) (*IngestResult, error) {
	select {
	case <-i.done:
		return i.result, i.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (i *Ingestion) finish(result *IngestResult, err error) {
	i.result = result
	i.err = err
	close(i.done)
}

// Ingest validates and stores the original, registers the asset and starts
// the derivative work. The returned Ingestion is usable as soon as Ingest
// returns; derivative failures surface through Wait, never as an Ingest error.
func (p *Pipeline) Ingest(ctx context.Context, req IngestRequest) (*Ingestion, error) {
	if len(req.Data) == 0 {
		return nil, ErrEmptyUpload
	}
	if p.maxBytes > 0 && int64(len(req.Data)) > p.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrUploadTooLarge, len(req.Data))
	}
	sniffed, err := Sniff(req.Data)
	if err != nil {
		return nil, err
	}
	plan := p.planner.Plan(sniffed.Orientation, req.Thumbnail)

	id := p.id()
	checksum := Checksum(req.Data)
	originalPath := OriginalPath(checksum, id, req.Filename, sniffed.Extension)
	logger := logging.WithFields(logging.WithBreakpoint(p.logger, id.String(), ""), map[string]any{"path": originalPath})

	if err := p.store.Put(ctx, originalPath, req.Data, sniffed.MimeType); err != nil {
		logger.Error("media.ingest.upload_failed", "error", err)
		return nil, &UploadError{Path: originalPath, Err: err}
	}

	now := p.now()
	width, height := sniffed.Width, sniffed.Height
	record := &Asset{
		ID:           id,
		OriginalPath: originalPath,
		Filename:     req.Filename,
		Checksum:     checksum,
		AltText:      req.AltText,
		Caption:      req.Caption,
		MimeType:     sniffed.MimeType,
		Size:         int64(len(req.Data)),
		Width:        &width,
		Height:       &height,
		Orientation:  sniffed.Orientation,
		Planned:      labels(plan),
		CreatedAt:    now,
		UpdatedAt:    now,
		Variants:     map[string]string{},
	}
	created, err := p.repo.Create(ctx, record)
	if err != nil {
		if removeErr := p.store.Remove(context.WithoutCancel(ctx), originalPath); removeErr != nil {
			logger.Warn("media.ingest.cleanup_failed", "error", removeErr)
		}
		return nil, storageError("asset write", err)
	}
	if created.Variants == nil {
		created.Variants = map[string]string{}
	}
	logger.Info("media.ingest.registered", "mime_type", sniffed.MimeType, "orientation", sniffed.Orientation, "planned", len(plan))

	ingestion := &Ingestion{asset: cloneAsset(created), done: make(chan struct{})}
	go func() {
		result, err := p.process(context.WithoutCancel(ctx), created, req.Data, plan)
		ingestion.finish(result, err)
	}()
	return ingestion, nil
}

// Resume re-runs the breakpoints an interrupted asset never produced and marks
// it processed. Completed assets are returned unchanged.
func (p *Pipeline) Resume(ctx context.Context, assetID uuid.UUID) (*IngestResult, error) {
	asset, err := p.repo.GetByID(ctx, assetID)
	if err != nil {
		return nil, storageError("asset read", err)
	}
	if asset.ProcessingCompleted {
		return &IngestResult{Asset: asset}, nil
	}
	data, err := p.store.Get(ctx, asset.OriginalPath)
	if err != nil {
		return nil, storageError("asset original read", err)
	}

	var (
		plan    []Breakpoint
		unknown []BreakpointFailure
	)
	for _, label := range asset.Missing() {
		bp, ok := p.planner.Lookup(asset.Orientation, label)
		if !ok {
			unknown = append(unknown, BreakpointFailure{
				Breakpoint: label,
				Err:        &TranscodeError{Breakpoint: label, Err: fmt.Errorf("%w: breakpoint %q is no longer configured", ErrInvalidPlan, label)},
			})
			continue
		}
		plan = append(plan, bp)
	}
	p.logger.Info("media.ingest.resume", "asset_id", asset.ID, "missing", len(plan)+len(unknown))
	return p.finishBreakpoints(ctx, asset, data, plan, unknown)
}

func (p *Pipeline) process(ctx context.Context, asset *Asset, data []byte, plan []Breakpoint) (*IngestResult, error) {
	return p.finishBreakpoints(ctx, asset, data, plan, nil)
}

// finishBreakpoints runs plan, records failures alongside any carried in
// from the caller, and completes the asset.
func (p *Pipeline) finishBreakpoints(ctx context.Context, asset *Asset, data []byte, plan []Breakpoint, carried []BreakpointFailure) (*IngestResult, error) {
	img, decodeErr := decodeImage(data)

	var (
		mu       sync.Mutex
		failures = append([]BreakpointFailure(nil), carried...)
		produced = len(asset.Variants)
	)
	var group errgroup.Group
	group.SetLimit(p.concurrency)
	for _, bp := range plan {
		group.Go(func() error {
			err := p.runBreakpoint(ctx, asset, img, decodeErr, bp)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, BreakpointFailure{Breakpoint: bp.Label, Err: err})
			} else {
				produced++
			}
			return nil
		})
	}
	_ = group.Wait()

	order := make(map[string]int, len(asset.Planned))
	for i, label := range asset.Planned {
		order[label] = i
	}
	sort.SliceStable(failures, func(i, j int) bool {
		return order[failures[i].Breakpoint] < order[failures[j].Breakpoint]
	})

	if produced == 0 {
		fallback := &Variant{
			ID:        p.id(),
			AssetID:   asset.ID,
			Label:     LabelOriginal,
			Path:      asset.OriginalPath,
			Width:     derefInt(asset.Width),
			Height:    derefInt(asset.Height),
			Size:      asset.Size,
			CreatedAt: p.now(),
		}
		if err := p.repo.AddVariant(ctx, fallback); err != nil {
			p.logger.Error("media.ingest.fallback_failed", "asset_id", asset.ID, "error", err)
			return nil, storageError("asset variant write", err)
		}
		p.logger.Warn("media.ingest.fallback", "asset_id", asset.ID, "reason", "every breakpoint failed")
	}

	var failureMap map[string]string
	if len(failures) > 0 {
		failureMap = make(map[string]string, len(failures))
		for _, failure := range failures {
			failureMap[failure.Breakpoint] = failure.Err.Error()
		}
	}
	completed, err := p.repo.MarkProcessed(ctx, asset.ID, failureMap, p.now())
	if err != nil {
		p.logger.Error("media.ingest.complete_failed", "asset_id", asset.ID, "error", err)
		return nil, storageError("asset write", err)
	}
	p.logger.Info("media.ingest.completed", "asset_id", asset.ID, "variants", len(completed.Variants), "failures", len(failures))
	return &IngestResult{Asset: completed, Failures: failures}, nil
}

func (p *Pipeline) runBreakpoint(ctx context.Context, asset *Asset, img image.Image, decodeErr error, bp Breakpoint) error {
	logger := logging.WithBreakpoint(p.logger, asset.ID.String(), bp.Label)
	if decodeErr != nil {
		logger.Warn("media.breakpoint.failed", "error", decodeErr)
		return &TranscodeError{Breakpoint: bp.Label, Err: decodeErr}
	}

	bctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	derivative, err := p.transcode(bctx, img, bp)
	if err != nil {
		logger.Warn("media.breakpoint.failed", "error", err)
		return &TranscodeError{Breakpoint: bp.Label, Err: err}
	}

	path := DerivativePath(bp.Label, asset.Checksum, asset.ID)
	if err := p.store.Put(bctx, path, derivative.Data, derivativeContentType); err != nil {
		logger.Warn("media.breakpoint.upload_failed", "path", path, "error", err)
		return &UploadError{Path: path, Err: err}
	}
	variant := &Variant{
		ID:        p.id(),
		AssetID:   asset.ID,
		Label:     bp.Label,
		Path:      path,
		Width:     derivative.Width,
		Height:    derivative.Height,
		Size:      int64(len(derivative.Data)),
		CreatedAt: p.now(),
	}
	if err := p.repo.AddVariant(ctx, variant); err != nil {
		logger.Warn("media.breakpoint.record_failed", "path", path, "error", err)
		return storageError("asset variant write", err)
	}
	logger.Debug("media.breakpoint.stored", "path", path, "width", derivative.Width, "height", derivative.Height)
	return nil
}

type transcodeOutcome struct {
	derivative Derivative
	err        error
}

// transcode returns when the transcoder does or when ctx expires, whichever
// comes first.
func (p *Pipeline) transcode(ctx context.Context, img image.Image, bp Breakpoint) (Derivative, error) {
	outcome := make(chan transcodeOutcome, 1)
	go func() {
		derivative, err := p.transcoder.Transcode(ctx, img, bp)
		outcome <- transcodeOutcome{derivative: derivative, err: err}
	}()
	select {
	case result := <-outcome:
		if result.err == nil && len(result.derivative.Data) == 0 {
			return Derivative{}, errors.New("empty derivative")
		}
		return result.derivative, result.err
	case <-ctx.Done():
		return Derivative{}, ctx.Err()
	}
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
