package whitelist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Entry is a single whitelisted account. Username keeps the casing it was added with.
type Entry struct {
	Username string `json:"username"`
	Reason   string `json:"reason"`
}

// Document is the persisted form of the whitelist. The JSON field names are shared with existing whitelist files and must not change.
type Document struct {
	WhitelistedUsers []Entry `json:"whitelistedUsers"`
}

// Durable storage for the whitelist document.
//
// Save must be atomic: a concurrent Load observes either the complete previous document or the complete new one.
type Backend interface {
	// Returns an error wrapping ErrNotExist if nothing has been persisted yet.
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
}

type FileBackend struct {
	Path string
}

var _ Backend = (*FileBackend)(nil)

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

func (b *FileBackend) Load(ctx context.Context) (*Document, error) {
	raw, err := os.ReadFile(b.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, b.Path)
	}
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing whitelist file %s: %w", b.Path, err)
	}
	return &doc, nil
}

// Writes the document to a temporary file in the same directory, then renames it over the old file.
func (b *FileBackend) Save(ctx context.Context, doc *Document) error {
	raw, err := marshalDocument(doc)
	if err != nil {
		return err
	}

	dir := filepath.Dir(b.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(b.Path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op once the rename succeeded
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, b.Path)
}

func marshalDocument(doc *Document) ([]byte, error) {
	out := doc
	if out.WhitelistedUsers == nil {
		// always write an array, never null
		out = &Document{WhitelistedUsers: []Entry{}}
	}
	return json.MarshalIndent(out, "", "  ")
}
