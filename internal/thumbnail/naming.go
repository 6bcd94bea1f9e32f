package thumbnail

import (
	"fmt"
	"net/url"

	"github.com/mahirjain10/s3-thumbnailer/internal/types"
)

const (
	DestinationBucketSuffix = "-resized"
	DestinationKeyPrefix    = "resized-"
)

// DestinationFor derives where the rendition of src goes. src.Key must already be decoded.
func DestinationFor(src types.Location) types.Location {
	return types.Location{
		Bucket: src.Bucket + DestinationBucketSuffix,
		Key:    DestinationKeyPrefix + src.Key,
	}
}

// DecodeKey undoes the form encoding S3 applies to keys in notifications,
// where a space may arrive as "+" or "%20".
func DecodeKey(raw string) (string, error) {
	key, err := url.QueryUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("%w: undecodable key %q: %v", types.ErrInvalidEvent, raw, err)
	}
	return key, nil
}

// SourceFromEvent returns the source of the first record and how many records
// were left unprocessed.
func SourceFromEvent(event types.S3Event) (types.Location, int, error) {
	if len(event.Records) == 0 {
		return types.Location{}, 0, fmt.Errorf("%w: no records", types.ErrInvalidEvent)
	}

	record := event.Records[0]
	if record.S3.Bucket.Name == "" {
		return types.Location{}, 0, fmt.Errorf("%w: missing bucket name", types.ErrInvalidEvent)
	}

	key, err := DecodeKey(record.S3.Object.Key)
	if err != nil {
		return types.Location{}, 0, err
	}
	if key == "" {
		return types.Location{}, 0, fmt.Errorf("%w: missing object key", types.ErrInvalidEvent)
	}

	return types.Location{Bucket: record.S3.Bucket.Name, Key: key}, len(event.Records) - 1, nil
}
