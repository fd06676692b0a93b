package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Compile-time check that LocalPublisher implements Publisher.
var _ Publisher = (*LocalPublisher)(nil)

// LocalPublisher copies results logs into a destination directory on the
// local filesystem. It is the default when no S3 configuration is given.
type LocalPublisher struct {
	dir string
}

// NewLocalPublisher creates a publisher targeting the given directory,
// creating it if it does not exist.
func NewLocalPublisher(dir string) (*LocalPublisher, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create publish directory: %w", err)
	}
	return &LocalPublisher{dir: dir}, nil
}

// Publish copies the file at path to {dir}/{key} and returns the copy's
// location. Publishing a file onto itself is a no-op.
func (p *LocalPublisher) Publish(ctx context.Context, key, path string) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	dst := filepath.Join(p.dir, key)
	if abs, err := filepath.Abs(path); err == nil {
		if absDst, err := filepath.Abs(dst); err == nil && abs == absDst {
			return dst, nil
		}
	}

	src, err := os.Open(path) // #nosec G304 - path is produced by this process
	if err != nil {
		return "", fmt.Errorf("open results log: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst) // #nosec G304
	if err != nil {
		return "", fmt.Errorf("create published log: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("copy results log: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close published log: %w", err)
	}
	return dst, nil
}
