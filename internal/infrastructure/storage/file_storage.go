// Package storage keeps receipt images on the local filesystem for the embedded store.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/billed/internal/application/port"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

// LocalFileStorage implements port.FileStorage under a base directory
type LocalFileStorage struct {
	baseDir       string
	publicBaseURL string
	logger        *zap.Logger
}

// NewLocalFileStorage creates a LocalFileStorage. publicBaseURL prefixes the
// URLs handed out for stored receipts; when empty, file:// URLs are used.
func NewLocalFileStorage(baseDir, publicBaseURL string, logger *zap.Logger) *LocalFileStorage {
	return &LocalFileStorage{
		baseDir:       baseDir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}
}

// Save writes content to the relative path, creating parent directories
func (s *LocalFileStorage) Save(ctx context.Context, relPath string, content []byte) error {
	fullPath := s.GetFullPath(relPath)
	if err := s.ValidatePath(fullPath); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		s.logger.Error("Failed to create receipt directory", zap.String("path", fullPath), zap.Error(err))
		return fmt.Errorf("failed to create directories: %w", err)
	}
	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write receipt", zap.String("path", fullPath), zap.Error(err))
		return fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("Receipt saved", zap.String("path", fullPath), zap.Int("size", len(content)))
	return nil
}

// Read returns the content stored at the relative path
func (s *LocalFileStorage) Read(ctx context.Context, relPath string) ([]byte, error) {
	fullPath := s.GetFullPath(relPath)
	if err := s.ValidatePath(fullPath); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return content, nil
}

// Exists reports whether a file exists at the relative path
func (s *LocalFileStorage) Exists(ctx context.Context, relPath string) bool {
	_, err := os.Stat(s.GetFullPath(relPath))
	return err == nil
}

// Delete removes the file at the relative path. Missing files are not an error.
func (s *LocalFileStorage) Delete(ctx context.Context, relPath string) error {
	fullPath := s.GetFullPath(relPath)
	if err := s.ValidatePath(fullPath); err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		s.logger.Error("Failed to delete receipt", zap.String("path", fullPath), zap.Error(err))
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// GetFullPath converts a relative path to a path under the base directory
func (s *LocalFileStorage) GetFullPath(relativePath string) string {
	return filepath.Join(s.baseDir, relativePath)
}

// ValidatePath rejects paths resolving outside the base directory
func (s *LocalFileStorage) ValidatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return fmt.Errorf("path escapes base directory: %s", fullPath)
	}
	return nil
}

// ReceiptPath builds a unique relative path for an owner's receipt:
// <owner>/<uuid>-<name><ext>, with owner and name reduced to safe characters
func (s *LocalFileStorage) ReceiptPath(owner, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	base := SanitizeName(strings.TrimSuffix(fileName, filepath.Ext(fileName)))
	if base == "" {
		base = "receipt"
	}
	folder := SanitizeName(strings.ReplaceAll(owner, "@", "_at_"))
	if folder == "" {
		folder = "unknown"
	}
	return path.Join(folder, fmt.Sprintf("%s-%s%s", uuid.NewString(), base, ext))
}

// PublicURL returns the URL under which a stored receipt is served
func (s *LocalFileStorage) PublicURL(relPath string) string {
	if s.publicBaseURL == "" {
		abs, err := filepath.Abs(s.GetFullPath(relPath))
		if err != nil {
			abs = s.GetFullPath(relPath)
		}
		return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
	}
	return s.publicBaseURL + "/" + strings.TrimLeft(relPath, "/")
}

// SanitizeName keeps only alphanumerics, hyphens and underscores
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	return unsafeChars.ReplaceAllString(name, "")
}

var _ port.FileStorage = (*LocalFileStorage)(nil)
