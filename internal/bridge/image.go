// ABOUTME: Downloads compound depictions for transports that upload media
// ABOUTME: Enforces a timeout, an image content type, and a size cap

package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"
)

// DefaultMaxImageBytes caps downloaded depictions.
const DefaultMaxImageBytes = 2 << 20

// ErrNotImage is returned when the server answers with a non-image body.
var ErrNotImage = errors.New("response is not an image")

// Image is a downloaded depiction.
type Image struct {
	Data        []byte
	ContentType string
	Name        string
}

// ImageFetcher downloads images over HTTP.
type ImageFetcher struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
}

// NewImageFetcher creates a fetcher. Zero timeout means 10s.
func NewImageFetcher(timeout time.Duration) *ImageFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ImageFetcher{
		client:   &http.Client{},
		timeout:  timeout,
		maxBytes: DefaultMaxImageBytes,
	}
}

// Fetch downloads url.
func (f *ImageFetcher) Fetch(ctx context.Context, url string) (Image, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Image{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("fetching image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Image{}, fmt.Errorf("fetching image: unexpected status %d", resp.StatusCode)
	}

	contentType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(contentType, "image/") {
		return Image{}, fmt.Errorf("%w: %q", ErrNotImage, resp.Header.Get("Content-Type"))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("reading image: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return Image{}, fmt.Errorf("image exceeds %d bytes", f.maxBytes)
	}

	return Image{Data: data, ContentType: contentType, Name: imageName(url, contentType)}, nil
}

// imageName derives a file name such as "2244.png" from a depiction URL
// like .../cid/2244/PNG.
func imageName(url, contentType string) string {
	ext := "png"
	if _, sub, ok := strings.Cut(contentType, "/"); ok && sub != "" {
		ext = sub
	}

	trimmed := strings.TrimRight(url, "/")
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	dir, last := path.Split(trimmed)
	base := strings.TrimSuffix(last, path.Ext(last))
	if strings.EqualFold(last, ext) || strings.EqualFold(last, "png") {
		base = path.Base(strings.TrimRight(dir, "/"))
	}
	if base == "" || base == "." || base == "/" {
		base = "image"
	}
	return base + "." + ext
}
