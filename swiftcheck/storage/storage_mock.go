package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MockStore is a simple in-memory ObjectStore implementation for tests.
type MockStore struct {
	mu      sync.RWMutex
	objects map[string]map[string]*ObjectStat

	// StatCalls counts StatObject invocations, keyed by container/object.
	StatCalls map[string]int
	// ListErr, when set, is returned by every ListObjects call.
	ListErr error
}

// NewMockStore constructs an empty MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		objects:   make(map[string]map[string]*ObjectStat),
		StatCalls: make(map[string]int),
	}
}

// AddObject registers stat metadata for an object. A nil stat makes
// StatObject report an empty record for that object.
func (m *MockStore) AddObject(container, object string, stat *ObjectStat) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.objects[container] == nil {
		m.objects[container] = make(map[string]*ObjectStat)
	}
	m.objects[container][object] = stat
}

// StatObject returns the registered metadata for an object.
func (m *MockStore) StatObject(ctx context.Context, container, object string) (*ObjectStat, error) {
	m.mu.Lock()
	m.StatCalls[container+"/"+object]++
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	objs, ok := m.objects[container]
	if !ok {
		return nil, fmt.Errorf("mock store: container not found: %s", container)
	}
	stat, ok := objs[object]
	if !ok {
		return nil, fmt.Errorf("mock store: object not found: %s/%s", container, object)
	}
	if stat == nil {
		return nil, nil
	}
	copied := *stat
	return &copied, nil
}

// ListObjects returns the sorted names of registered objects under prefix.
func (m *MockStore) ListObjects(ctx context.Context, container, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ListErr != nil {
		return nil, m.ListErr
	}

	var names []string
	for name := range m.objects[container] {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
