package thumbnail

import (
	"context"

	"github.com/mahirjain10/s3-thumbnailer/internal/types"
)

type Publisher struct {
	store ObjectPutter
}

func NewPublisher(store ObjectPutter) *Publisher {
	return &Publisher{store: store}
}

// Publish stores the rendition at loc. An existing object there is overwritten.
func (p *Publisher) Publish(ctx context.Context, asset *types.ImageAsset, loc types.Location, contentType string) error {
	return p.store.PutObject(ctx, loc.Bucket, loc.Key, asset.Data, contentType)
}
