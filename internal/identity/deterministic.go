package identity

import (
	"strconv"
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// PageUUID is the seeded id of the page stored under slug.
func PageUUID(slug string) uuid.UUID {
	return UUID("lodge-cms:page:" + strings.ToLower(strings.TrimSpace(slug)))
}

// BlockUUID is the seeded id of the block declared at index within a page's
// seed document.
func BlockUUID(pageID uuid.UUID, blockType string, index int) uuid.UUID {
	return UUID("lodge-cms:block:" + pageID.String() + ":" + strings.ToLower(strings.TrimSpace(blockType)) + ":" + strconv.Itoa(index))
}
