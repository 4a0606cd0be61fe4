package s3infra

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/campus-auth/internal/pkg/id"
)

const avatarURLTTL = time.Hour

// AvatarStore keeps profile pictures as S3 objects. Profiles store the s3:// reference;
// readers receive a presigned URL.
type AvatarStore struct {
	store *Store
}

func NewAvatarStore(store *Store) *AvatarStore {
	return &AvatarStore{store: store}
}

func (a *AvatarStore) Save(ctx context.Context, owner, filename string, data []byte) (string, error) {
	contentType := detectContentType(filename, data)
	key := fmt.Sprintf("avatars/%s/%s%s", owner, id.New(), extensionFor(contentType))
	return a.store.Upload(ctx, key, bytes.NewReader(data), contentType)
}

func (a *AvatarStore) URL(ctx context.Context, ref string) (string, error) {
	key, ok := a.store.keyFromRef(ref)
	if !ok {
		return ref, nil
	}
	return a.store.PresignedURL(ctx, key, avatarURLTTL)
}

// Remove deletes a previously saved avatar. Unknown references are ignored.
func (a *AvatarStore) Remove(ctx context.Context, ref string) error {
	key, ok := a.store.keyFromRef(ref)
	if !ok {
		return nil
	}
	return a.store.Delete(ctx, key)
}

func detectContentType(filename string, data []byte) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	default:
		return http.DetectContentType(data)
	}
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
