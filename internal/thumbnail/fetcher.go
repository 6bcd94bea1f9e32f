package thumbnail

import (
	"context"
	"errors"

	"github.com/mahirjain10/s3-thumbnailer/internal/types"
)

type Fetcher struct {
	store ObjectGetter
}

func NewFetcher(store ObjectGetter) *Fetcher {
	return &Fetcher{store: store}
}

// Fetch reads the whole source object. It never retries.
func (f *Fetcher) Fetch(ctx context.Context, loc types.Location) (*types.ImageAsset, error) {
	if loc.Bucket == "" || loc.Key == "" {
		return nil, &types.StoreError{Op: "get", Bucket: loc.Bucket, Key: loc.Key, Err: errors.New("bucket and key must be set")}
	}

	obj, err := f.store.GetObject(ctx, loc.Bucket, loc.Key)
	if err != nil {
		return nil, err
	}
	return &types.ImageAsset{Data: obj.Body, ContentType: obj.ContentType}, nil
}
