package media

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"

	"github.com/goliatone/go-slug"
	"github.com/google/uuid"
)

const (
	originalsPrefix = "originals"
	derivedPrefix   = "derived"
	fallbackName    = "upload"
)

// Checksum returns the hex encoded SHA-256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// OriginalPath is originals/<sha[0:2]>/<sha>/<assetID>-<name><ext>, where name
// is the slugified base of the uploaded filename and ext comes from the
// sniffed type.
func OriginalPath(checksum string, assetID uuid.UUID, filename, ext string) string {
	return path.Join(originalsPrefix, shard(checksum), checksum, assetID.String()+"-"+slugName(filename)+ext)
}

// DerivativePath is derived/<label>/<sha[0:2]>/<assetID>.jpg.
func DerivativePath(label, checksum string, assetID uuid.UUID) string {
	return path.Join(derivedPrefix, label, shard(checksum), assetID.String()+".jpg")
}

func shard(checksum string) string {
	if len(checksum) < 2 {
		return "00"
	}
	return checksum[:2]
}

func slugName(filename string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "" || base == "." || base == "/" {
		return fallbackName
	}
	normalized, err := slug.Normalize(base)
	if err != nil || normalized == "" {
		return fallbackName
	}
	return normalized
}
