package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"
)

type memObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// MemoryStore is an in-process Store for local runs and tests.
// FailOn, when set, lets callers inject an error for a given operation and key.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memObject
	FailOn  func(op, object string) error
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memObject)}
}

func memKey(bucket, object string) string {
	return bucket + "/" + object
}

func (s *MemoryStore) fail(op, object string) error {
	if s.FailOn == nil {
		return nil
	}
	return s.FailOn(op, object)
}

// PutObject stores the reader's bytes.
func (s *MemoryStore) PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts PutOptions) error {
	if err := s.fail("put", object); err != nil {
		return err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[memKey(bucket, object)] = memObject{data: data, contentType: opts.ContentType, modified: time.Now()}
	return nil
}

// GetObject returns a reader over a copy of the stored bytes.
func (s *MemoryStore) GetObject(ctx context.Context, bucket, object string) (io.ReadCloser, ObjectInfo, error) {
	if err := s.fail("get", object); err != nil {
		return nil, ObjectInfo{}, err
	}
	s.mu.RLock()
	obj, ok := s.objects[memKey(bucket, object)]
	s.mu.RUnlock()
	if !ok {
		return nil, ObjectInfo{}, ErrObjectNotFound
	}
	data := append([]byte(nil), obj.data...)
	return io.NopCloser(bytes.NewReader(data)), obj.info(object), nil
}

// StatObject returns object metadata.
func (s *MemoryStore) StatObject(ctx context.Context, bucket, object string) (ObjectInfo, error) {
	if err := s.fail("stat", object); err != nil {
		return ObjectInfo{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[memKey(bucket, object)]
	if !ok {
		return ObjectInfo{}, ErrObjectNotFound
	}
	return obj.info(object), nil
}

// CopyObject duplicates an object under a new key.
func (s *MemoryStore) CopyObject(ctx context.Context, dest CopyDest, src CopySource) error {
	if err := s.fail("copy", src.Object); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[memKey(src.Bucket, src.Object)]
	if !ok {
		return ErrObjectNotFound
	}
	obj.data = append([]byte(nil), obj.data...)
	obj.modified = time.Now()
	s.objects[memKey(dest.Bucket, dest.Object)] = obj
	return nil
}

// RemoveObject deletes an object; removing a missing key is not an error.
func (s *MemoryStore) RemoveObject(ctx context.Context, bucket, object string) error {
	if err := s.fail("remove", object); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, memKey(bucket, object))
	return nil
}

// Has reports whether an object exists.
func (s *MemoryStore) Has(bucket, object string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[memKey(bucket, object)]
	return ok
}

func (o memObject) info(name string) ObjectInfo {
	return ObjectInfo{
		ObjectName:   name,
		Size:         int64(len(o.data)),
		ContentType:  o.contentType,
		LastModified: o.modified,
	}
}
