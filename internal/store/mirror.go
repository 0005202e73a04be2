package store

import "sync"

// Mirror wraps a FactStore with fire-and-forget writes. The in-memory tables
// of the pipeline remain authoritative; a call may return before its mirror
// write lands, and write errors are dropped. Wait exists so tests can flush.
type Mirror struct {
	store FactStore
	wg    sync.WaitGroup
}

// NewMirror creates a Mirror over the given store. A nil store yields a
// Mirror whose operations are no-ops.
func NewMirror(s FactStore) *Mirror {
	return &Mirror{store: s}
}

// Put asynchronously writes key=value to the underlying store.
func (m *Mirror) Put(key string, value any) {
	if m == nil || m.store == nil {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		_ = m.store.Set(key, value)
	}()
}

// Delete asynchronously removes key from the underlying store.
func (m *Mirror) Delete(key string) {
	m.Put(key, nil)
}

// Wait blocks until all writes issued so far have finished.
func (m *Mirror) Wait() {
	if m == nil {
		return
	}
	m.wg.Wait()
}
