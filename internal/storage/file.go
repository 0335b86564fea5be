// Package storage provides JSON file persistence for stockwatch.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bobmcallan/stockwatch/internal/common"
)

// FileStore reads and writes whole JSON documents with atomic replacement
// and optional versioning.
type FileStore struct {
	versions int
	logger   *common.Logger
}

// writeOptions controls how a document is laid out on disk.
type writeOptions struct {
	indent    bool // two-space indentation, otherwise compact
	versioned bool // rotate .vN backups before replacing
}

// NewFileStore creates a FileStore keeping up to versions backups of
// versioned documents.
func NewFileStore(logger *common.Logger, versions int) *FileStore {
	if versions < 0 {
		versions = 0
	}
	return &FileStore{versions: versions, logger: logger}
}

// readJSON reads and unmarshals a JSON file. A missing file returns an error
// matching os.ErrNotExist; empty or malformed content matches common.ErrParse.
func (fs *FileStore) readJSON(path string, dest interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("'%s' not found: %w", path, os.ErrNotExist)
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: '%s' is empty", common.ErrParse, path)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %s: %v", common.ErrParse, path, err)
	}
	return nil
}

// marshal encodes data as UTF-8 JSON without HTML escaping.
func marshal(data interface{}, indent bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(data); err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return buf.Bytes(), nil
}

// writeJSON marshals data and writes it atomically, creating the parent
// directory if needed.
func (fs *FileStore) writeJSON(path string, data interface{}, opts writeOptions) error {
	jsonData, err := marshal(data, opts.indent)
	if err != nil {
		return err
	}

	// Back up before overwriting (user-authored data only)
	if opts.versioned && fs.versions > 0 {
		fs.rotateVersions(path)
	}

	return fs.WriteRaw(path, jsonData)
}

// rotateVersions shifts existing versions up and copies current to v1.
// v{N} -> deleted, v{N-1} -> v{N}, ..., v1 -> v2, current -> v1
// The current file stays in place until the new content is renamed over it.
func (fs *FileStore) rotateVersions(target string) {
	// Delete the oldest version if it exists
	oldest := fmt.Sprintf("%s.v%d", target, fs.versions)
	os.Remove(oldest)

	// Shift versions up: v{N-1} -> v{N}, ..., v1 -> v2
	for i := fs.versions; i > 1; i-- {
		src := fmt.Sprintf("%s.v%d", target, i-1)
		dst := fmt.Sprintf("%s.v%d", target, i)
		os.Rename(src, dst) // Ignore errors (file may not exist yet)
	}

	if err := copyFile(target, target+".v1"); err != nil && !errors.Is(err, os.ErrNotExist) {
		fs.logger.Warn().Err(err).Str("path", target).Msg("Failed to back up previous version")
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// WriteRaw writes arbitrary data atomically using temp file + rename.
func (fs *FileStore) WriteRaw(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// Atomic write: write to temp file in the same directory, then rename
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	fs.logger.Trace().Str("path", path).Int("bytes", len(data)).Msg("File written")
	return nil
}
