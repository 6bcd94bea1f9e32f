package thumbnail

import (
	"context"

	"github.com/mahirjain10/s3-thumbnailer/internal/types"
)

type ObjectGetter interface {
	GetObject(ctx context.Context, bucket string, key string) (*types.StoredObject, error)
}

type ObjectPutter interface {
	PutObject(ctx context.Context, bucket string, key string, body []byte, contentType string) error
}

// ObjectStore is the handle Fetcher and Publisher work against.
type ObjectStore interface {
	ObjectGetter
	ObjectPutter
}
