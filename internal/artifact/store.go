// Package artifact stores generated export payloads on an abstract file
// system. The backing scheme (file://, mem://, s3://) comes from
// configuration, so tests run against mem:// with no further changes.
package artifact

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/viant/afs"
	"github.com/viant/afs/url"

	"github.com/fittrack/privacy-rights-api/internal/system/config"
)

// Store persists export artifacts by URL reference.
type Store interface {
	// Put writes the payload and returns the artifact URL.
	Put(ctx context.Context, requestID, extension string, data []byte) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
	Delete(ctx context.Context, ref string) error
	Exists(ctx context.Context, ref string) (bool, error)
}

type store struct {
	fs      afs.Service
	baseURL string
}

// NewStore creates an artifact store rooted at the configured base URL.
func NewStore() Store {
	return &store{
		fs:      afs.New(),
		baseURL: config.Get().Artifact.BaseURL,
	}
}

// NewStoreWithBase creates an artifact store rooted at the given URL.
func NewStoreWithBase(baseURL string) Store {
	return &store{
		fs:      afs.New(),
		baseURL: baseURL,
	}
}

func (s *store) Put(ctx context.Context, requestID, extension string, data []byte) (string, error) {
	ref := url.Join(s.baseURL, fmt.Sprintf("%s.%s", requestID, extension))
	if err := s.fs.Upload(ctx, ref, os.FileMode(0o600), bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to upload artifact %s: %w", ref, err)
	}
	return ref, nil
}

func (s *store) Get(ctx context.Context, ref string) ([]byte, error) {
	data, err := s.fs.DownloadWithURL(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to download artifact %s: %w", ref, err)
	}
	return data, nil
}

func (s *store) Delete(ctx context.Context, ref string) error {
	if err := s.fs.Delete(ctx, ref); err != nil {
		return fmt.Errorf("failed to delete artifact %s: %w", ref, err)
	}
	return nil
}

func (s *store) Exists(ctx context.Context, ref string) (bool, error) {
	ok, err := s.fs.Exists(ctx, ref)
	if err != nil {
		return false, fmt.Errorf("failed to check artifact %s: %w", ref, err)
	}
	return ok, nil
}
