package loader

import (
	"context"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// A Source reads files of a dataset by their path relative to the dataset root.
type Source interface {
	Read(ctx context.Context, name string) ([]byte, error)
}

// FileSource reads a dataset from a file system.
type FileSource struct {
	fs   afero.Fs
	root string
}

// NewFileSource returns a source reading below root on fs.
func NewFileSource(fs afero.Fs, root string) *FileSource {
	return &FileSource{fs: fs, root: root}
}

// Read returns the contents of root/name.
func (s *FileSource) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return afero.ReadFile(s.fs, path.Join(s.root, name))
}

// HTTPSource reads a dataset served over HTTP.
type HTTPSource struct {
	client  *http.Client
	root    string
	retries uint64
}

// NewHTTPSource returns a source for the dataset at root. Requests failing with a network
// error or a 5xx status are retried up to retries times with exponential backoff.
func NewHTTPSource(client *http.Client, root string, retries uint64) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{client: client, root: strings.TrimSuffix(root, "/"), retries: retries}
}

// Read fetches root/name.
func (s *HTTPSource) Read(ctx context.Context, name string) ([]byte, error) {
	url := s.root + "/" + strings.TrimPrefix(name, "/")
	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		//nolint:errcheck
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			err := errors.Errorf("failed %s: %s", url, resp.Status)
			if resp.StatusCode >= 500 {
				return err
			}
			return backoff.Permanent(err)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxElapsedTime = 0
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, s.retries), ctx)); err != nil {
		return nil, err
	}
	return body, nil
}
