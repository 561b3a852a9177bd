package search

import "sync"

// Models is the process-wide registry of initialized handles. A type is
// present only if it was configured and its setup succeeded. Handles are
// swapped whole, so readers observe either the old or the new handle.
type Models struct {
	mu      sync.RWMutex
	handles map[SearchType]Handle
}

func NewModels() *Models {
	return &Models{handles: make(map[SearchType]Handle)}
}

func (m *Models) Get(t SearchType) (Handle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handles[t]
	return h, ok && h != nil
}

func (m *Models) Set(t SearchType, h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h == nil {
		delete(m.handles, t)
		return
	}
	m.handles[t] = h
}

// SetAll installs every handle in one step.
func (m *Models) SetAll(handles map[SearchType]Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for t, h := range handles {
		if h == nil {
			delete(m.handles, t)
			continue
		}
		m.handles[t] = h
	}
}

// Initialized lists the types that currently hold a handle, in priority order.
func (m *Models) Initialized() []SearchType {
	m.mu.RLock()
	defer m.mu.RUnlock()
	types := make([]SearchType, 0, len(m.handles))
	for _, t := range Priority {
		if _, ok := m.handles[t]; ok {
			types = append(types, t)
		}
	}
	return types
}
