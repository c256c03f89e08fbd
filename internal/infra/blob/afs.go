package blob

import (
	"bytes"
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/totegamma/dms/internal/domain"
)

// Store keeps blobs under a base URL on any afs backend (file://, mem://, ...).
type Store struct {
	baseURL string
	fs      afs.Service
}

func NewStore(baseURL string) *Store {
	return &Store{
		baseURL: baseURL,
		fs:      afs.New(),
	}
}

// Ref is the handle a blob named name is stored under.
func (s *Store) Ref(name string) string {
	return url.Join(s.baseURL, name)
}

func (s *Store) Store(ctx context.Context, name string, data []byte) (string, error) {
	ref := s.Ref(name)
	err := s.fs.Upload(ctx, ref, file.DefaultFileOsMode, bytes.NewReader(data))
	if err != nil {
		return "", errors.Wrapf(err, "failed to store blob %s", ref)
	}
	return ref, nil
}

func (s *Store) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	exists, err := s.fs.Exists(ctx, ref)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to check blob %s", ref)
	}
	if !exists {
		return nil, domain.ErrBlobNotFound
	}

	data, err := s.fs.DownloadWithURL(ctx, ref)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read blob %s", ref)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes the blob and reports whether it existed.
func (s *Store) Delete(ctx context.Context, ref string) (bool, error) {
	exists, err := s.fs.Exists(ctx, ref)
	if err != nil {
		return false, errors.Wrapf(err, "failed to check blob %s", ref)
	}
	if !exists {
		return false, nil
	}
	if err := s.fs.Delete(ctx, ref); err != nil {
		return false, errors.Wrapf(err, "failed to delete blob %s", ref)
	}
	return true, nil
}
