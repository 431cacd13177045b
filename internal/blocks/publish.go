package blocks

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// PublishBlock promotes the stored draft to the published snapshot. The copy
// happens in a single row write so readers never see a mixed snapshot.
func (s *service) PublishBlock(ctx context.Context, id uuid.UUID) (*Block, error) {
	if id == uuid.Nil {
		return nil, ErrBlockRequired
	}
	published, err := s.repo.Publish(ctx, id, s.now())
	if err != nil {
		return nil, storageError("block publish", err)
	}
	s.logger.Info("blocks.publish", "block_id", id, "page_id", published.PageID)
	return published, nil
}

// PublishPage publishes every block on the page in position order. A block
// that fails to publish is reported and the run continues with the next one,
// unless the service was built with WithStopOnPublishFailure, in which case the
// remaining blocks are reported as skipped. Blocks already published are never
// rolled back; retrying the failed subset is the recovery path.
func (s *service) PublishPage(ctx context.Context, pageID uuid.UUID) (*PublishReport, error) {
	if pageID == uuid.Nil {
		return nil, ErrPageRequired
	}
	records, err := s.ListPageBlocks(ctx, pageID)
	if err != nil {
		return nil, err
	}

	report := &PublishReport{PageID: pageID, Published: make([]uuid.UUID, 0, len(records))}
	var failure *PartialPublishFailureError
	for index, record := range records {
		if ctx.Err() != nil || (failure != nil && s.stopOnPublishFailure) {
			for _, rest := range records[index:] {
				failure = ensureFailure(failure, pageID, ctx.Err())
				failure.Skipped = append(failure.Skipped, rest.ID)
			}
			break
		}
		if _, err := s.PublishBlock(ctx, record.ID); err != nil {
			failure = ensureFailure(failure, pageID, err)
			failure.Failed = append(failure.Failed, record.ID)
			s.logger.Error("blocks.publish_page.block_failed", "page_id", pageID, "block_id", record.ID, "error", err)
			continue
		}
		report.Published = append(report.Published, record.ID)
	}

	if failure != nil {
		failure.Succeeded = append([]uuid.UUID(nil), report.Published...)
		s.logger.Error("blocks.publish_page.partial",
			"page_id", pageID,
			"published", len(failure.Succeeded),
			"failed", len(failure.Failed),
			"skipped", len(failure.Skipped),
		)
		return report, failure
	}
	s.logger.Info("blocks.publish_page", "page_id", pageID, "published", len(report.Published))
	return report, nil
}

func ensureFailure(failure *PartialPublishFailureError, pageID uuid.UUID, cause error) *PartialPublishFailureError {
	if failure == nil {
		return &PartialPublishFailureError{PageID: pageID, Cause: cause}
	}
	if failure.Cause == nil {
		failure.Cause = cause
	}
	return failure
}

// IsDirty reports whether the draft differs from the published snapshot. A
// block that was never published is always dirty.
func (s *service) IsDirty(ctx context.Context, id uuid.UUID) (bool, error) {
	block, err := s.GetBlock(ctx, id)
	if err != nil {
		return false, err
	}
	return block.State() != StateClean, nil
}

// PageStatus reports the publish state of every block on a page.
func (s *service) PageStatus(ctx context.Context, pageID uuid.UUID) ([]BlockStatus, error) {
	records, err := s.ListPageBlocks(ctx, pageID)
	if err != nil {
		return nil, err
	}
	out := make([]BlockStatus, 0, len(records))
	for _, record := range records {
		status := BlockStatus{
			BlockID:  record.ID,
			Type:     record.Type,
			Position: record.Position,
			State:    record.State(),
		}
		if record.Published != nil && s.registry.Conforms(record.Type, record.Published) != nil {
			status.Stale = true
		}
		out = append(out, status)
	}
	return out, nil
}

// PublishedReferences finds published snapshots holding any of values as a
// string leaf. A leaf also matches when it ends with "/"+value, which covers
// absolute URLs built from a storage path.
func (s *service) PublishedReferences(ctx context.Context, values ...string) ([]Reference, error) {
	needles := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.Trim(strings.TrimSpace(value), "/"); trimmed != "" {
			needles = append(needles, trimmed)
		}
	}
	if len(needles) == 0 {
		return nil, nil
	}
	records, err := s.repo.ListPublished(ctx)
	if err != nil {
		return nil, storageError("block read", err)
	}

	var out []Reference
	for _, record := range records {
		if path, ok := findLeaf(record.Published, "", needles); ok {
			out = append(out, Reference{BlockID: record.ID, PageID: record.PageID, Path: path})
		}
	}
	return out, nil
}

func findLeaf(value any, path string, needles []string) (string, bool) {
	switch typed := value.(type) {
	case map[string]any:
		for key, child := range typed {
			if found, ok := findLeaf(child, childPath(path, key), needles); ok {
				return found, true
			}
		}
	case string:
		candidate := strings.TrimSpace(typed)
		for _, needle := range needles {
			if strings.Trim(candidate, "/") == needle || strings.HasSuffix(candidate, "/"+needle) {
				return path, true
			}
		}
	default:
		if items, ok := toSlice(value); ok {
			for index, item := range items {
				if found, ok := findLeaf(item, childPath(path, strconv.Itoa(index)), needles); ok {
					return found, true
				}
			}
		}
	}
	return "", false
}
