package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// LocalStorage keeps payloads under the private media root. Paths are
// slash separated and relative to that root.
type LocalStorage struct {
	fs       afero.Fs
	mediaURL string
}

func NewLocalStorage(root, mediaURL string) (*LocalStorage, error) {
	err := os.MkdirAll(root, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create media root: %w", err)
	}
	return NewLocalStorageFs(afero.NewBasePathFs(afero.NewOsFs(), root), mediaURL), nil
}

// NewLocalStorageFs wraps an existing filesystem, e.g. afero.NewMemMapFs in tests
func NewLocalStorageFs(fsys afero.Fs, mediaURL string) *LocalStorage {
	return &LocalStorage{fs: fsys, mediaURL: strings.TrimSuffix(mediaURL, "/")}
}

// Fs exposes the backing filesystem to the media handler
func (s *LocalStorage) Fs() afero.Fs {
	return s.fs
}

func (s *LocalStorage) Save(p string, file io.Reader) error {
	p, err := clean(p)
	if err != nil {
		return err
	}

	err = s.fs.MkdirAll(path.Dir(p), 0755)
	if err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	out, err := s.fs.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	_, err = io.Copy(out, file)
	closeErr := out.Close()
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return closeErr
}

func (s *LocalStorage) Delete(p string) error {
	p, err := clean(p)
	if err != nil {
		return err
	}

	err = s.fs.Remove(p)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStorage) Exists(p string) (bool, error) {
	p, err := clean(p)
	if err != nil {
		return false, err
	}
	return afero.Exists(s.fs, p)
}

func (s *LocalStorage) URL(p string) string {
	return s.mediaURL + "/" + strings.TrimPrefix(p, "/")
}

var ErrInvalidPath = errors.New("invalid storage path")

// clean rejects paths escaping the root
func clean(p string) (string, error) {
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", ErrInvalidPath
		}
	}
	c := path.Clean("/" + p)
	if c == "/" {
		return "", ErrInvalidPath
	}
	return strings.TrimPrefix(c, "/"), nil
}
