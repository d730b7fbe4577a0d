package blob

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage stores blobs on the local filesystem. Intended for
// development and single-instance deployments.
type LocalStorage struct {
	baseDir string
	baseURL string
}

// LocalConfig contains configuration for local blob storage.
type LocalConfig struct {
	BaseDir string `env:"BLOB_LOCAL_DIR" envDefault:"./data/blobs"`
	BaseURL string `env:"BLOB_LOCAL_BASE_URL" envDefault:"/blobs"`
}

// NewLocalStorage creates a filesystem-backed storage rooted at cfg.BaseDir.
// The directory is created if it does not exist.
func NewLocalStorage(cfg LocalConfig) (*LocalStorage, error) {
	if cfg.BaseDir == "" {
		return nil, ErrInvalidConfig
	}
	abs, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errors.Join(ErrFailedToWriteBlob, err)
	}

	return &LocalStorage{
		baseDir: abs,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
	}, nil
}

// resolve maps a storage path to an absolute filesystem path, rejecting
// anything that escapes the base directory.
func (ls *LocalStorage) resolve(path string) (string, error) {
	clean := CleanPath(path)
	if clean == "" {
		return "", ErrInvalidPath
	}
	abs := filepath.Join(ls.baseDir, filepath.FromSlash(clean))
	if !strings.HasPrefix(abs, ls.baseDir+string(os.PathSeparator)) {
		return "", ErrInvalidPath
	}
	return abs, nil
}

func (ls *LocalStorage) Put(ctx context.Context, path string, data []byte, contentType string) (*Object, error) {
	abs, err := ls.resolve(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, errors.Join(ErrFailedToWriteBlob, err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return nil, errors.Join(ErrFailedToWriteBlob, err)
	}

	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	clean := CleanPath(path)
	return &Object{
		Path:        clean,
		Size:        int64(len(data)),
		ContentType: contentType,
		URL:         ls.URL(clean),
	}, nil
}

func (ls *LocalStorage) Get(ctx context.Context, path string) ([]byte, error) {
	abs, err := ls.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(ErrFailedToReadBlob, err)
	}
	return data, nil
}

func (ls *LocalStorage) Delete(ctx context.Context, path string) error {
	abs, err := ls.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return errors.Join(ErrFailedToDeleteBlob, err)
	}
	return nil
}

func (ls *LocalStorage) Exists(ctx context.Context, path string) bool {
	abs, err := ls.resolve(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && !info.IsDir()
}

func (ls *LocalStorage) URL(path string) string {
	clean := CleanPath(path)
	if clean == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s", ls.baseURL, clean)
}
