// Package storage provides publishing of finished results logs. The
// Publisher interface acts as a port; the local adapter copies logs into
// the experiment directory and the S3 adapter uploads them to a bucket so
// shard results from different machines can be collected in one place.
package storage

import (
	"context"
	"errors"
)

// ErrS3NotConfigured is returned when S3 operations are attempted
// without proper configuration.
var ErrS3NotConfigured = errors.New("storage: S3 is not configured")

// Publisher makes a completed results log available at a durable
// destination and returns the destination's location.
type Publisher interface {
	// Publish copies the file at path to the destination under the given
	// key and returns the resulting location (path or URL).
	Publish(ctx context.Context, key, path string) (string, error)
}
