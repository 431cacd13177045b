package markdown

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// Loader discovers seed documents in a filesystem.
type Loader struct {
	fs        fs.FS
	pattern   string
	recursive bool
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithPattern limits discovered files to those matching the glob (defaults to "*.md").
func WithPattern(pattern string) LoaderOption {
	return func(l *Loader) {
		if strings.TrimSpace(pattern) != "" {
			l.pattern = pattern
		}
	}
}

// WithRecursive controls whether sub-directories are traversed.
func WithRecursive(recursive bool) LoaderOption {
	return func(l *Loader) {
		l.recursive = recursive
	}
}

// NewLoader constructs a Loader over filesystem.
func NewLoader(filesystem fs.FS, opts ...LoaderOption) *Loader {
	l := &Loader{fs: filesystem, pattern: "*.md", recursive: true}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// LoadFile reads and parses a single document.
func (l *Loader) LoadFile(ctx context.Context, name string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name = path.Clean(strings.TrimPrefix(name, "/"))
	data, err := fs.ReadFile(l.fs, name)
	if err != nil {
		return nil, fmt.Errorf("markdown loader read %s: %w", name, err)
	}
	info, err := fs.Stat(l.fs, name)
	if err != nil {
		return nil, fmt.Errorf("markdown loader stat %s: %w", name, err)
	}

	doc, err := ParseDocument(name, data)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	doc.Checksum = hex.EncodeToString(sum[:])
	doc.LastModified = info.ModTime()
	return doc, nil
}

// LoadDirectory parses every matching document under dir, ordered by path.
func (l *Loader) LoadDirectory(ctx context.Context, dir string) ([]*Document, error) {
	root := path.Clean(strings.TrimPrefix(dir, "/"))
	if root == "" {
		root = "."
	}

	var names []string
	err := fs.WalkDir(l.fs, root, func(name string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if name != root && !l.recursive {
				return fs.SkipDir
			}
			return nil
		}
		matched, err := path.Match(l.pattern, path.Base(name))
		if err != nil {
			return err
		}
		if matched {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("markdown loader walk %s: %w", root, err)
	}
	sort.Strings(names)

	docs := make([]*Document, 0, len(names))
	for _, name := range names {
		doc, err := l.LoadFile(ctx, name)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
