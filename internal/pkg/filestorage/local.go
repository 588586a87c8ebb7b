package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/yigit/admissions/internal/pkg/logger"
)

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath string // The root directory where files will be stored
}

// NewLocalStorage creates a new LocalStorage instance rooted at basePath, creating it if needed.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Debug().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{basePath: basePath}, nil
}

// Save writes content to basePath/subPath/<uuid><ext>. The returned reference
// is the slash-separated path relative to basePath.
func (ls *LocalStorage) Save(_ context.Context, subPath, ext string, content []byte) (string, error) {
	reference := path.Join(subPath, uuid.NewString()+ext)
	fullPath, err := ls.GetFullPath(reference)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		logger.Error().Err(err).Str("path", fullPath).Msg("Failed to create subdirectory")
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}

	// Write to a temp file and rename so readers never observe a partial document
	tmp := fullPath + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to save file content: %w", err)
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize file: %w", err)
	}

	logger.Debug().Str("reference", reference).Int("bytes", len(content)).Msg("File saved successfully")
	return reference, nil
}

// Read returns the content stored under reference
func (ls *LocalStorage) Read(_ context.Context, reference string) ([]byte, error) {
	fullPath, err := ls.GetFullPath(reference)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, reference)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return content, nil
}

// Delete removes a file from the storage filesystem.
// Returns nil if deletion is successful or if the file doesn't exist.
func (ls *LocalStorage) Delete(_ context.Context, reference string) error {
	fullPath, err := ls.GetFullPath(reference)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Error().Err(err).Str("path", fullPath).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// GetFullPath resolves a reference to a filesystem path, refusing references
// that would escape the storage root.
func (ls *LocalStorage) GetFullPath(reference string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(reference, "\\", "/"))
	if clean == "/" || strings.Contains(reference, "..") {
		return "", fmt.Errorf("invalid file reference: %q", reference)
	}
	return filepath.Join(ls.basePath, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
