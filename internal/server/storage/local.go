package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/abswdsmn/conference-organiser/internal/filex"
)

// LocalPrefix is the URL path the web layer serves local uploads under.
const LocalPrefix = "/uploads/"

// LocalStore writes objects below a directory on disk.
type LocalStore struct {
	root string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	root, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &LocalStore{root: root}, nil
}

func (l *LocalStore) Root() string {
	return l.root
}

func (l *LocalStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	p, err := filex.SafeJoin(l.root, key)
	if err != nil {
		return err
	}
	if _, err := filex.EnsureDir(filepath.Dir(p)); err != nil {
		return err
	}

	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("create %s: %w", key, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(p)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if size >= 0 && n != size {
		_ = os.Remove(p)
		return fmt.Errorf("write %s: got %d bytes, want %d", key, n, size)
	}
	return nil
}

func (l *LocalStore) URL(ctx context.Context, key string) (string, error) {
	if _, err := filex.SafeJoin(l.root, key); err != nil {
		return "", err
	}
	return LocalPrefix + (&url.URL{Path: key}).EscapedPath(), nil
}

func (l *LocalStore) Delete(ctx context.Context, key string) error {
	p, err := filex.SafeJoin(l.root, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Open returns the file stored under key.
func (l *LocalStore) Open(key string) (*os.File, error) {
	p, err := filex.SafeJoin(l.root, key)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}
