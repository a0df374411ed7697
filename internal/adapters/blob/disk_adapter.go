package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mindreel/backend/internal/domain/providers"
	"github.com/mindreel/backend/pkg/config"
)

// DiskAdapter implements the BlobStore interface on the local filesystem.
// Objects live under the configured root directory; URLs are served either
// from a configured public base URL or as file paths.
type DiskAdapter struct {
	rootDir string
	baseURL string
}

// NewDiskAdapter creates a disk blob store rooted at cfg.RootDir
func NewDiskAdapter(cfg *config.BlobConfig) (providers.BlobStore, error) {
	if err := os.MkdirAll(cfg.RootDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob root: %w", err)
	}
	return &DiskAdapter{
		rootDir: cfg.RootDir,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
	}, nil
}

// Upload copies a local file under objectName and returns the object name
func (a *DiskAdapter) Upload(ctx context.Context, localPath, objectName string) (string, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	target := filepath.Join(a.rootDir, filepath.FromSlash(objectName))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create object directory: %w", err)
	}

	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create object file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}

	return objectName, nil
}

// URLFor returns an access URL for a stored object. The ttl is ignored for
// disk objects; it exists for object-store implementations with presigning.
func (a *DiskAdapter) URLFor(ctx context.Context, objectName string, ttl time.Duration) (string, error) {
	target := filepath.Join(a.rootDir, filepath.FromSlash(objectName))
	if _, err := os.Stat(target); err != nil {
		return "", fmt.Errorf("object not found: %s", objectName)
	}

	if a.baseURL != "" {
		return a.baseURL + "/" + objectName, nil
	}
	return target, nil
}
