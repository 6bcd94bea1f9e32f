package thumbnail

import (
	"context"
	"errors"
	"sync"

	"github.com/mahirjain10/s3-thumbnailer/internal/types"
)

type storedCall struct {
	Bucket      string
	Key         string
	ContentType string
}

// memStore is an in-memory object store that records every call.
type memStore struct {
	mu      sync.Mutex
	objects map[string]*types.StoredObject
	gets    []storedCall
	puts    []storedCall
	putErr  error
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string]*types.StoredObject)}
}

func objectID(bucket, key string) string {
	return bucket + "/" + key
}

func (m *memStore) add(bucket, key string, body []byte, contentType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectID(bucket, key)] = &types.StoredObject{Body: body, ContentType: contentType}
}

func (m *memStore) object(bucket, key string) (*types.StoredObject, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[objectID(bucket, key)]
	return obj, ok
}

func (m *memStore) GetObject(_ context.Context, bucket string, key string) (*types.StoredObject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets = append(m.gets, storedCall{Bucket: bucket, Key: key})

	obj, ok := m.objects[objectID(bucket, key)]
	if !ok {
		return nil, &types.StoreError{Op: "get", Bucket: bucket, Key: key, NotFound: true, Err: errors.New("NoSuchKey")}
	}
	body := append([]byte(nil), obj.Body...)
	return &types.StoredObject{Body: body, ContentType: obj.ContentType}, nil
}

func (m *memStore) PutObject(_ context.Context, bucket string, key string, body []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts = append(m.puts, storedCall{Bucket: bucket, Key: key, ContentType: contentType})

	if m.putErr != nil {
		return &types.StoreError{Op: "put", Bucket: bucket, Key: key, Err: m.putErr}
	}
	m.objects[objectID(bucket, key)] = &types.StoredObject{Body: append([]byte(nil), body...), ContentType: contentType}
	return nil
}
