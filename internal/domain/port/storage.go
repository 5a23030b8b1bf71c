package port

import "context"

// MediaStorage mirrors post media from object storage into the local media
// root. Fullsize variants live under the full/ prefix, matching the on-disk
// layout the resolver expects.
type MediaStorage interface {
	FetchMedia(ctx context.Context, objectKey string, destPath string) error
}
