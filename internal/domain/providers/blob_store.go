package providers

import (
	"context"
	"time"
)

// BlobStore provides durable file persistence and URL issuance.
type BlobStore interface {
	// Upload persists a local file under objectName and returns the stored
	// object name.
	Upload(ctx context.Context, localPath, objectName string) (string, error)

	// URLFor returns an access URL for a stored object, valid for ttl.
	URLFor(ctx context.Context, objectName string, ttl time.Duration) (string, error)
}
