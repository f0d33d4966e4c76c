package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrBlobNotFound is returned by Get when no blob has been written under a name.
var ErrBlobNotFound = errors.New("blob not found")

// Blob stores named, opaque documents. Put replaces the whole document in a
// single write; readers never observe a partially written value.
type Blob interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, contents []byte) error
}

// MemoryBlob keeps blobs in process memory.
type MemoryBlob struct {
	mu    sync.Mutex
	blobs map[string][]byte
	puts  int
}

func NewMemoryBlob() *MemoryBlob {
	return &MemoryBlob{blobs: map[string][]byte{}}
}

func (m *MemoryBlob) Get(ctx context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	contents, ok := m.blobs[name]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return append([]byte(nil), contents...), nil
}

func (m *MemoryBlob) Put(ctx context.Context, name string, contents []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs[name] = append([]byte(nil), contents...)
	m.puts++
	return nil
}

// Puts reports how many writes have been made.
func (m *MemoryBlob) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}
