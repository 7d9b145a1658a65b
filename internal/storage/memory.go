package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryStore はメモリ上にオブジェクトを保持するObjectStoreの実装。
// ローカル開発（STORAGE_DRIVER=memory）とテストで使用する。
type MemoryStore struct {
	mu            sync.Mutex
	publicURLBase string
	objects       map[string][]byte
	contentTypes  map[string]string
}

// NewMemoryStore はMemoryStoreを生成する。
func NewMemoryStore(publicURLBase string) *MemoryStore {
	return &MemoryStore{
		publicURLBase: publicURLBase,
		objects:       make(map[string][]byte),
		contentTypes:  make(map[string]string),
	}
}

func memoryKey(bucket, name string) string {
	return bucket + "/" + name
}

// Upload はオブジェクトをメモリに保存する。
func (s *MemoryStore) Upload(ctx context.Context, bucket, name string, body io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read object body: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[memoryKey(bucket, name)] = data
	s.contentTypes[memoryKey(bucket, name)] = contentType
	return nil
}

// PublicURL はオブジェクトの公開URLを返す。
func (s *MemoryStore) PublicURL(bucket, name string) string {
	return publicURL(s.publicURLBase, bucket, name)
}

// Remove はオブジェクトを削除する。
func (s *MemoryStore) Remove(ctx context.Context, bucket, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, memoryKey(bucket, name))
	delete(s.contentTypes, memoryKey(bucket, name))
	return nil
}

// Object は保存済みオブジェクトの内容を返す。
func (s *MemoryStore) Object(bucket, name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[memoryKey(bucket, name)]
	if !ok {
		return nil, false
	}
	return bytes.Clone(data), true
}

// Len は保存済みオブジェクト数を返す。
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// compile-time interface check
var _ ObjectStore = (*MemoryStore)(nil)
