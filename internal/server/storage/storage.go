// Package storage keeps the bytes of uploaded papers. Rows in the papers
// table only reference them by storage key.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileStore stores objects by key.
type FileStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// URL returns a link the browser can download the object from.
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// NewStorageKey returns a unique key for an upload named filename, keeping
// its extension: papers/YYYY/M/D/<uuid>.ext
func NewStorageKey(filename string) string {
	d := time.Now()
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("papers/%d/%d/%d/%v%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}
