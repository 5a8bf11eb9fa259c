package tokenstore

import (
	"context"
	"sync"
)

// MemoryStore はプロセス内メモリに値を保持するStore実装。
// プロセス再起動で値は失われる。
type MemoryStore struct {
	mu    sync.RWMutex
	value string
	set   bool
}

// NewMemoryStore はMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save は値を保存する。
func (s *MemoryStore) Save(_ context.Context, value string) error {
	if value == "" {
		return ErrEmptyValue
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
	s.set = true
	return nil
}

// Read は保存された値を返す。
func (s *MemoryStore) Read(_ context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.set, nil
}

// Clear は値を削除する。
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = ""
	s.set = false
	return nil
}

var _ Store = (*MemoryStore)(nil)
