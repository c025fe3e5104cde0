package objectstore

import (
	"context"
	"strings"
	"sync"

	"Newsroom/internal/ports"
)

// Memory keeps uploads in process. Used when no bucket is configured.
type Memory struct {
	mu      sync.Mutex
	baseURL string
	objects map[string][]byte
}

var _ ports.ObjectStore = (*Memory)(nil)

// NewMemory returns an empty store whose URLs start with baseURL.
func NewMemory(baseURL string) *Memory {
	return &Memory{baseURL: strings.TrimRight(baseURL, "/"), objects: make(map[string][]byte)}
}

// Put records data and returns its URL.
func (m *Memory) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	return m.baseURL + "/" + key, nil
}

// Object returns the stored bytes for key.
func (m *Memory) Object(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	return data, ok
}
