package imaging

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"Newsroom/internal/ports"
)

// Uploader stores image payloads under collision-resistant keys.
type Uploader struct {
	store  ports.ObjectStore
	prefix string
	now    func() time.Time
}

// NewUploader wires an object store; prefix is prepended to every key.
func NewUploader(store ports.ObjectStore, prefix string) *Uploader {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Uploader{store: store, prefix: prefix, now: time.Now}
}

// Upload writes the image and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, img Image) (string, error) {
	if u == nil || u.store == nil {
		return "", errors.New("object store is not configured")
	}

	key := u.Key(img.ContentType)
	publicURL, err := u.store.Put(ctx, key, img.Data, img.ContentType)
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return publicURL, nil
}

// Key builds timestamp + random suffix + extension-from-content-type.
func (u *Uploader) Key(contentType string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return u.prefix + strconv.FormatInt(u.now().UnixMilli(), 10) + "-" + suffix + ExtensionFor(contentType)
}
