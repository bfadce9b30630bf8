package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/audioreport/storage"
)

// memFile holds a stored object's data and metadata.
type memFile struct {
	data        []byte
	contentType string
	modTime     time.Time
}

// MemStorage is a storage.Storage backed by a map.
type MemStorage struct {
	mu        sync.RWMutex
	files     map[string]*memFile
	uploadErr error
	uploads   int
}

var _ storage.Storage = (*MemStorage)(nil)

// NewMemStorage creates an empty in-memory store.
func NewMemStorage() *MemStorage {
	return &MemStorage{files: make(map[string]*memFile)}
}

// FailUploads makes every later Upload return err. Nil restores uploads.
func (m *MemStorage) FailUploads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadErr = err
}

// Uploads returns the number of successful uploads.
func (m *MemStorage) Uploads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uploads
}

// Get returns the stored bytes and content type at path.
func (m *MemStorage) Get(path string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[path]
	if !ok {
		return nil, "", false
	}
	return bytes.Clone(f.data), f.contentType, true
}

func (m *MemStorage) Upload(_ context.Context, path string, reader io.Reader, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read upload data: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return m.uploadErr
	}
	m.files[path] = &memFile{data: data, contentType: contentType, modTime: time.Now()}
	m.uploads++
	return nil
}

func (m *MemStorage) Download(_ context.Context, path string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, path)
	}
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

func (m *MemStorage) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	return nil
}

func (m *MemStorage) Exists(_ context.Context, path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[path]
	return ok, nil
}

func (m *MemStorage) URL(_ context.Context, path string) (string, error) {
	return "mem://" + path, nil
}

func (m *MemStorage) List(_ context.Context, prefix string) ([]storage.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []storage.FileInfo
	for p, f := range m.files {
		if strings.HasPrefix(p, prefix) {
			result = append(result, storage.FileInfo{
				Path:         p,
				Size:         int64(len(f.data)),
				LastModified: f.modTime,
				ContentType:  f.contentType,
			})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}
