// Package storetest provides an in-memory store.Store for tests.
package storetest

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/fieldradar/fieldradar/internal/meta"
	"github.com/fieldradar/fieldradar/internal/store"
)

// Memory is an in-memory store.Store. The zero value is not usable; call
// NewMemory.
type Memory struct {
	mu      sync.RWMutex
	records map[store.RecordID]store.Record
	meta    map[store.RecordID]map[string][]meta.Value
	labels  map[string]map[string]string

	// Err, if set, is returned by every read
	Err error

	// ValueReads counts MetaValue and MetaValues calls
	ValueReads atomic.Int64
}

// NewMemory creates an empty store
func NewMemory() *Memory {
	return &Memory{
		records: make(map[store.RecordID]store.Record),
		meta:    make(map[store.RecordID]map[string][]meta.Value),
		labels:  make(map[string]map[string]string),
	}
}

// AddRecord adds or replaces a record
func (m *Memory) AddRecord(r store.Record) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.ID] = r
	return m
}

// AddMeta appends a stored value for key on record id
func (m *Memory) AddMeta(id store.RecordID, key string, v meta.Value) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.meta[id] == nil {
		m.meta[id] = make(map[string][]meta.Value)
	}
	m.meta[id][key] = append(m.meta[id][key], v)
	return m
}

// SetLabel sets a field label for a content type
func (m *Memory) SetLabel(contentType, name, label string) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.labels[contentType] == nil {
		m.labels[contentType] = make(map[string]string)
	}
	m.labels[contentType][name] = label
	return m
}

// RemoveRecord deletes a record but keeps its metadata rows
func (m *Memory) RemoveRecord(id store.RecordID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
}

// ContentTypes implements store.Store
func (m *Memory) ContentTypes(ctx context.Context) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	types := make([]string, 0)
	for _, r := range m.records {
		if !seen[r.Type] {
			seen[r.Type] = true
			types = append(types, r.Type)
		}
	}
	sort.Strings(types)
	return types, nil
}

// MetaKeys implements store.Store
func (m *Memory) MetaKeys(ctx context.Context, contentType string) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	keys := make([]string, 0)
	for id, values := range m.meta {
		r, ok := m.records[id]
		if !ok || r.Type != contentType {
			continue
		}
		for k := range values {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// CandidateIDs implements store.Store
func (m *Memory) CandidateIDs(ctx context.Context, contentType, key string) ([]store.RecordID, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]store.RecordID, 0)
	for id, values := range m.meta {
		r, ok := m.records[id]
		if !ok || r.Type != contentType {
			continue
		}
		if _, ok := values[key]; ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// MetaValue implements store.Store
func (m *Memory) MetaValue(ctx context.Context, id store.RecordID, key string) (meta.Value, error) {
	m.ValueReads.Add(1)
	if m.Err != nil {
		return meta.Null(), m.Err
	}
	if err := ctx.Err(); err != nil {
		return meta.Null(), err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	values := m.meta[id][key]
	if len(values) == 0 {
		return meta.Text(""), nil
	}
	return values[0], nil
}

// MetaValues implements store.Store
func (m *Memory) MetaValues(ctx context.Context, ids []store.RecordID, key string) (map[store.RecordID]meta.Value, error) {
	m.ValueReads.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[store.RecordID]meta.Value, len(ids))
	for _, id := range ids {
		if values := m.meta[id][key]; len(values) > 0 {
			out[id] = values[0]
		}
	}
	return out, nil
}

// Records implements store.Store
func (m *Memory) Records(ctx context.Context, contentType string, ids []store.RecordID) ([]store.Record, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]store.Record, 0, len(ids))
	for _, id := range ids {
		r, ok := m.records[id]
		if !ok || r.Type != contentType {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// FieldLabels implements store.Store
func (m *Memory) FieldLabels(ctx context.Context, contentType string) (map[string]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(m.labels[contentType]))
	for k, v := range m.labels[contentType] {
		out[k] = v
	}
	return out, nil
}

var _ store.Store = (*Memory)(nil)
