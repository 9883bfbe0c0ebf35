package downloader

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"

	"github.com/imgsqueeze/model"
	"github.com/imgsqueeze/web/dataurl"
)

// Service describes downloader interface.
type Service interface {
	Download(ctx context.Context, url string) (*model.File, error)
}

type impl struct {
	client  *http.Client
	maxSize int64
}

// New returns downloader implementation. Bodies larger than maxSize are rejected.
func New(client *http.Client, maxSize int64) Service {
	if client == nil {
		client = http.DefaultClient
	}
	return &impl{client: client, maxSize: maxSize}
}

// Download fetches image by url and returns it as file named after the url path.
func (s *impl) Download(ctx context.Context, rawURL string) (*model.File, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing url %s: %w", rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	res, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error downloading %s, status code is: %d", rawURL, res.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(res.Body, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading body for: %s failed with error: %w", rawURL, err)
	}
	if int64(len(b)) > s.maxSize {
		return nil, fmt.Errorf("body of %s exceeds %d bytes", rawURL, s.maxSize)
	}

	mimeType, err := dataurl.Sniff(b)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", rawURL, err)
	}
	if declared, _, err := mime.ParseMediaType(res.Header.Get("Content-Type")); err == nil && dataurl.IsImage(declared) {
		mimeType = declared
	}

	return &model.File{Name: fileName(u), MIME: mimeType, Data: b}, nil
}

func fileName(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return "image"
	}
	return name
}
