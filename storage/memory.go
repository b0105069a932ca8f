package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
)

type object struct {
	data        []byte
	contentType string
}

// Memory keeps objects in process. Used for local development and tests.
type Memory struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]object
}

func NewMemory(baseURL string) *Memory {
	return &Memory{
		BaseURL: strings.TrimRight(baseURL, "/"),
		objects: map[string]object{},
	}
}

func (m *Memory) Put(ctx context.Context, key, contentType string, body io.Reader, _ int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return fmt.Errorf("failed to read body, %w", err)
	}

	m.mu.Lock()
	m.objects[key] = object{data: buf.Bytes(), contentType: contentType}
	m.mu.Unlock()

	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()

	return nil
}

func (m *Memory) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := 0
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			delete(m.objects, k)
			deleted++
		}
	}

	return deleted, nil
}

func (m *Memory) URL(key string) string {
	return m.BaseURL + "/" + key
}

// Get returns the stored bytes and content type of key
func (m *Memory) Get(key string) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.objects[key]
	if !ok {
		return nil, "", ErrNotFound
	}

	return o.data, o.contentType, nil
}

// Keys lists every stored key in order
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return keys
}
