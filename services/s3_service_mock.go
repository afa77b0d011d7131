package services

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MockFileStore is an in-memory FileStore for tests
type MockFileStore struct {
	files        map[string][]byte
	contentTypes map[string]string
	mu           sync.RWMutex

	// FailPut makes every Put return an error.
	FailPut bool
}

// NewMockFileStore creates an empty mock store
func NewMockFileStore() *MockFileStore {
	return &MockFileStore{
		files:        make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

// Put keeps the content in memory
func (m *MockFileStore) Put(_ context.Context, key string, body io.Reader, contentType string) error {
	if m.FailPut {
		return fmt.Errorf("mock storage unavailable")
	}
	content, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	m.mu.Lock()
	m.files[key] = content
	m.contentTypes[key] = contentType
	m.mu.Unlock()
	return nil
}

// PresignedURL returns a fake URL for stored keys
func (m *MockFileStore) PresignedURL(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	m.mu.RLock()
	_, exists := m.files[key]
	m.mu.RUnlock()
	if !exists {
		return "", fmt.Errorf("file not found in mock storage: %s", key)
	}
	return fmt.Sprintf("https://test-bucket.s3.eu-south-1.amazonaws.com/%s?mock=true", key), nil
}

// Delete forgets a key
func (m *MockFileStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.files, key)
	delete(m.contentTypes, key)
	m.mu.Unlock()
	return nil
}

// Files returns a copy of the stored files
func (m *MockFileStore) Files() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make(map[string][]byte, len(m.files))
	for k, v := range m.files {
		files[k] = v
	}
	return files
}

// ContentType returns the content type recorded for key
func (m *MockFileStore) ContentType(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.contentTypes[key]
}

// Exists reports whether key is stored
func (m *MockFileStore) Exists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[key]
	return ok
}
