package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/mahirjain10/s3-thumbnailer/internal/logger"
	"github.com/mahirjain10/s3-thumbnailer/internal/transformation"
	"github.com/mahirjain10/s3-thumbnailer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(y % 256), B: 50, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func eventFor(bucket, rawKey string) types.S3Event {
	return types.S3Event{Records: []types.S3EventRecord{{
		EventName: "ObjectCreated:Put",
		S3: types.S3EventEntity{
			Bucket: types.S3EventBucket{Name: bucket},
			Object: types.S3EventObject{Key: rawKey},
		},
	}}}
}

func newTestThumbnailer(t *testing.T, store ObjectStore) *Thumbnailer {
	t.Helper()
	sut, err := New(logger.NewDummy(), store, transformation.DefaultTargetWidth)
	require.NoError(t, err)
	return sut
}

func TestHandleDecodesKeyAndDerivesDestination(t *testing.T) {
	store := newMemStore()
	store.add("photos", "a b.jpg", pngBytes(t, 400, 300), "image/png")
	sut := newTestThumbnailer(t, store)

	require.NoError(t, sut.Handle(context.Background(), eventFor("photos", "a%20b.jpg")))

	require.Len(t, store.gets, 1)
	assert.Equal(t, storedCall{Bucket: "photos", Key: "a b.jpg"}, store.gets[0])
	require.Len(t, store.puts, 1)
	assert.Equal(t, storedCall{Bucket: "photos-resized", Key: "resized-a b.jpg", ContentType: "image/png"}, store.puts[0])
}

func TestHandleWritesRenditionWithTargetDimensions(t *testing.T) {
	store := newMemStore()
	store.add("photos", "cat.png", pngBytes(t, 400, 300), "image/png")
	sut := newTestThumbnailer(t, store)

	require.NoError(t, sut.Handle(context.Background(), eventFor("photos", "cat.png")))

	obj, ok := store.object("photos-resized", "resized-cat.png")
	require.True(t, ok, "rendition should be stored")

	cfg, format, err := image.DecodeConfig(bytes.NewReader(obj.Body))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 75, cfg.Height)
}

func TestHandlePassesSourceContentTypeThrough(t *testing.T) {
	store := newMemStore()
	// The bytes are png, the metadata says otherwise. The metadata wins.
	store.add("photos", "odd.bin", pngBytes(t, 200, 200), "application/octet-stream")
	sut := newTestThumbnailer(t, store)

	require.NoError(t, sut.Handle(context.Background(), eventFor("photos", "odd.bin")))
	assert.Equal(t, "application/octet-stream", store.puts[0].ContentType)
}

func TestHandleIsIdempotent(t *testing.T) {
	store := newMemStore()
	store.add("photos", "dog.png", pngBytes(t, 640, 480), "image/png")
	sut := newTestThumbnailer(t, store)
	event := eventFor("photos", "dog.png")

	require.NoError(t, sut.Handle(context.Background(), event))
	first, _ := store.object("photos-resized", "resized-dog.png")

	require.NoError(t, sut.Handle(context.Background(), event))
	second, _ := store.object("photos-resized", "resized-dog.png")

	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, first.ContentType, second.ContentType)
	assert.Len(t, store.puts, 2, "the second run overwrites the first")
}

func TestHandleDecodesPlusAsSpace(t *testing.T) {
	tests := []struct {
		rawKey string
		key    string
	}{
		{"a+b.jpg", "a b.jpg"},
		{"a%2Bb.jpg", "a+b.jpg"},
		{"caf%C3%A9.png", "café.png"},
		{"folder/sub+dir/x.png", "folder/sub dir/x.png"},
	}

	for _, tt := range tests {
		t.Run(tt.rawKey, func(t *testing.T) {
			store := newMemStore()
			store.add("photos", tt.key, pngBytes(t, 120, 60), "image/png")
			sut := newTestThumbnailer(t, store)

			require.NoError(t, sut.Handle(context.Background(), eventFor("photos", tt.rawKey)))
			assert.Equal(t, tt.key, store.gets[0].Key)
			assert.Equal(t, DestinationKeyPrefix+tt.key, store.puts[0].Key)
		})
	}
}

func TestHandleMissingObjectDoesNotPublish(t *testing.T) {
	store := newMemStore()
	sut := newTestThumbnailer(t, store)

	err := sut.Handle(context.Background(), eventFor("photos", "missing.jpg"))

	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Contains(t, err.Error(), "s3://photos/missing.jpg")
	assert.Empty(t, store.puts)
}

func TestHandleUndecodableObjectDoesNotPublish(t *testing.T) {
	store := newMemStore()
	store.add("photos", "notes.txt", []byte("plain text"), "text/plain")
	sut := newTestThumbnailer(t, store)

	err := sut.Handle(context.Background(), eventFor("photos", "notes.txt"))

	var decodeErr *types.DecodeError
	assert.ErrorAs(t, err, &decodeErr)
	assert.Empty(t, store.puts)
}

func TestHandlePublishFailureIsReturned(t *testing.T) {
	store := newMemStore()
	store.add("photos", "cat.png", pngBytes(t, 400, 300), "image/png")
	store.putErr = errors.New("AccessDenied")
	sut := newTestThumbnailer(t, store)

	err := sut.Handle(context.Background(), eventFor("photos", "cat.png"))

	var storeErr *types.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "put", storeErr.Op)
	assert.Equal(t, "photos-resized", storeErr.Bucket)
	assert.NotErrorIs(t, err, types.ErrNotFound)
}

func TestHandleRejectsInvalidEvents(t *testing.T) {
	tests := []struct {
		name  string
		event types.S3Event
	}{
		{"no records", types.S3Event{}},
		{"no bucket", eventFor("", "a.jpg")},
		{"no key", eventFor("photos", "")},
		{"bad escape", eventFor("photos", "a%zz.jpg")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			err := newTestThumbnailer(t, store).Handle(context.Background(), tt.event)

			assert.ErrorIs(t, err, types.ErrInvalidEvent)
			assert.Empty(t, store.gets)
			assert.Empty(t, store.puts)
		})
	}
}

func TestHandleOnlyProcessesFirstRecord(t *testing.T) {
	store := newMemStore()
	store.add("photos", "first.png", pngBytes(t, 200, 100), "image/png")
	store.add("photos", "second.png", pngBytes(t, 200, 100), "image/png")
	sut := newTestThumbnailer(t, store)

	event := eventFor("photos", "first.png")
	event.Records = append(event.Records, eventFor("photos", "second.png").Records...)

	require.NoError(t, sut.Handle(context.Background(), event))
	require.Len(t, store.gets, 1)
	assert.Equal(t, "first.png", store.gets[0].Key)
}

func TestHandleConcurrentInvocations(t *testing.T) {
	store := newMemStore()
	const n = 16
	for i := 0; i < n; i++ {
		store.add("photos", fmt.Sprintf("img-%d.png", i), pngBytes(t, 100+i*10, 80), "image/png")
	}
	sut := newTestThumbnailer(t, store)

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = sut.Handle(context.Background(), eventFor("photos", fmt.Sprintf("img-%d.png", i)))
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		obj, ok := store.object("photos-resized", fmt.Sprintf("resized-img-%d.png", i))
		require.True(t, ok)

		cfg, _, err := image.DecodeConfig(bytes.NewReader(obj.Body))
		require.NoError(t, err)
		assert.Equal(t, 100, cfg.Width)
		assert.Equal(t, int(80*(100.0/float64(100+i*10))), cfg.Height)
	}
}

func TestProcessReturnsDestination(t *testing.T) {
	store := newMemStore()
	store.add("uploads", "x.png", pngBytes(t, 300, 300), "image/png")
	sut, err := New(logger.NewDummy(), store, 50)
	require.NoError(t, err)

	dst, err := sut.Process(context.Background(), types.Location{Bucket: "uploads", Key: "x.png"})
	require.NoError(t, err)
	assert.Equal(t, types.Location{Bucket: "uploads-resized", Key: "resized-x.png"}, dst)

	obj, _ := store.object(dst.Bucket, dst.Key)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(obj.Body))
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestNewRejectsNonPositiveWidth(t *testing.T) {
	_, err := New(logger.NewDummy(), newMemStore(), 0)
	assert.ErrorIs(t, err, transformation.ErrInvalidTargetWidth)
}
