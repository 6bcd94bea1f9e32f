// Package thumbnail turns one object-created notification into one fixed-width
// rendition in the sibling "-resized" bucket.
package thumbnail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mahirjain10/s3-thumbnailer/internal/logger"
	"github.com/mahirjain10/s3-thumbnailer/internal/transformation"
	"github.com/mahirjain10/s3-thumbnailer/internal/types"
)

// Thumbnailer holds only immutable dependencies, so one value can serve
// concurrent invocations.
type Thumbnailer struct {
	fetcher     *Fetcher
	publisher   *Publisher
	targetWidth int
	log         *slog.Logger
}

func New(l *slog.Logger, store ObjectStore, targetWidth int) (*Thumbnailer, error) {
	if targetWidth <= 0 {
		return nil, fmt.Errorf("%w: got %d", transformation.ErrInvalidTargetWidth, targetWidth)
	}

	return &Thumbnailer{
		fetcher:     NewFetcher(store),
		publisher:   NewPublisher(store),
		targetWidth: targetWidth,
		log:         l.With(logger.ComponentKey, "thumbnailer"),
	}, nil
}

// Handle processes the first record of event. Any failure is returned so the
// caller's retry or dead-letter policy can act on it.
func (t *Thumbnailer) Handle(ctx context.Context, event types.S3Event) error {
	src, ignored, err := SourceFromEvent(event)
	if err != nil {
		t.log.Error("rejected event", "records", len(event.Records), logger.ErrorKey, err)
		return err
	}
	if ignored > 0 {
		t.log.Warn("event carries more than one record, only the first is processed", "ignored_records", ignored)
	}

	_, err = t.Process(ctx, src)
	return err
}

// Process runs fetch, resize and publish for a decoded source location and
// returns where the rendition was written.
func (t *Thumbnailer) Process(ctx context.Context, src types.Location) (types.Location, error) {
	dst := DestinationFor(src)
	log := t.log.With("invocation_id", uuid.NewString(), "bucket", src.Bucket, "key", src.Key)
	log.Info("received object", "destination", dst.String())

	if err := t.run(ctx, src, dst, log); err != nil {
		err = fmt.Errorf("processing %s: %w", src, err)
		log.Error("failed to create thumbnail", logger.ErrorKey, err)
		return types.Location{}, err
	}

	log.Info("successfully resized object", "destination", dst.String())
	return dst, nil
}

func (t *Thumbnailer) run(ctx context.Context, src types.Location, dst types.Location, log *slog.Logger) error {
	original, err := t.fetcher.Fetch(ctx, src)
	if err != nil {
		return err
	}

	resized, err := transformation.Resize(original, t.targetWidth)
	if err != nil {
		return err
	}
	log.Debug("resized", "format", resized.Format, "width", resized.Width, "height", resized.Height)

	return t.publisher.Publish(ctx, resized, dst, original.ContentType)
}
