package imaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

const (
	defaultMaxImageBytes = 5 << 20
	defaultImageTimeout  = 30 * time.Second
	userAgent            = "Mozilla/5.0 (compatible; Newsroom/1.0)"
)

var (
	// ErrImageTooLarge is returned when the declared or streamed size exceeds the cap.
	ErrImageTooLarge = errors.New("image exceeds size limit")
	// ErrUnsupportedType is returned for content types outside the allowed set.
	ErrUnsupportedType = errors.New("unsupported image type")
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Image is a downloaded image payload.
type Image struct {
	Data        []byte
	ContentType string
}

// Downloader fetches images under size, type and time constraints.
type Downloader struct {
	client   *http.Client
	maxBytes int64
	timeout  time.Duration
}

// NewDownloader wires an HTTP client; zero limits select 5MB and 30s.
func NewDownloader(client *http.Client, maxBytes int64, timeout time.Duration) *Downloader {
	if client == nil {
		client = &http.Client{}
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxImageBytes
	}
	if timeout <= 0 {
		timeout = defaultImageTimeout
	}
	return &Downloader{client: client, maxBytes: maxBytes, timeout: timeout}
}

// Download returns the image bytes and their normalized content type.
func (d *Downloader) Download(ctx context.Context, imageURL string) (Image, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return Image{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := d.client.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("request image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Image{}, fmt.Errorf("image returned %s", resp.Status)
	}
	if resp.ContentLength > d.maxBytes {
		return Image{}, fmt.Errorf("%w: declared %d bytes", ErrImageTooLarge, resp.ContentLength)
	}

	declared := normalizeType(resp.Header.Get("Content-Type"))
	if declared != "" && !isGeneric(declared) {
		if _, ok := allowedTypes[declared]; !ok {
			return Image{}, fmt.Errorf("%w: %s", ErrUnsupportedType, declared)
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > d.maxBytes {
		return Image{}, fmt.Errorf("%w: streamed more than %d bytes", ErrImageTooLarge, d.maxBytes)
	}

	contentType := declared
	if contentType == "" || isGeneric(contentType) {
		contentType = normalizeType(mimetype.Detect(data).String())
		if _, ok := allowedTypes[contentType]; !ok {
			return Image{}, fmt.Errorf("%w: sniffed %s", ErrUnsupportedType, contentType)
		}
	}

	return Image{Data: data, ContentType: contentType}, nil
}

// ExtensionFor maps an allowed content type to its file extension.
func ExtensionFor(contentType string) string {
	if ext, ok := allowedTypes[normalizeType(contentType)]; ok {
		return ext
	}
	return ".bin"
}

func normalizeType(value string) string {
	if value == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		mediaType = strings.TrimSpace(strings.SplitN(value, ";", 2)[0])
	}
	return strings.ToLower(mediaType)
}

func isGeneric(contentType string) bool {
	return contentType == "application/octet-stream" || contentType == "binary/octet-stream"
}
