package kv

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
)

// Inmem is an in-memory Bucket with the same field-path update semantics as
// the MySQL implementation. Used by tests.
type Inmem struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func NewInmem() *Inmem {
	return &Inmem{docs: map[string][]byte{}}
}

func (m *Inmem) Get(ctx context.Context, key string, dest any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.docs[key]
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(raw, dest)
}

func (m *Inmem) Put(ctx context.Context, key string, doc any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[key]; ok {
		return ErrExists
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	m.docs[key] = raw
	return nil
}

func (m *Inmem) Update(ctx context.Context, key string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.docs[key]
	if !ok {
		return ErrNotFound
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}

	// Same ordering as the MySQL statement: removes first, then sets.
	paths := make([]string, 0, len(fields))
	for p := range fields {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		if _, ok := fields[p].(trimValue); ok {
			removePath(doc, strings.Split(p, "."))
		}
	}
	for _, p := range paths {
		switch v := fields[p].(type) {
		case trimValue:
		case appendValue:
			norm, err := normalize(v.v)
			if err != nil {
				return err
			}
			appendPath(doc, strings.Split(p, "."), norm)
		default:
			norm, err := normalize(v)
			if err != nil {
				return err
			}
			setPath(doc, strings.Split(p, "."), norm)
		}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	m.docs[key] = raw
	return nil
}

func (m *Inmem) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.docs, key)
	return nil
}

// Len reports the number of stored documents.
func (m *Inmem) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.docs)
}

// normalize round-trips a value through JSON so stored documents look the same
// as they would coming back from the database.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func removePath(doc map[string]any, segs []string) {
	for len(segs) > 1 {
		next, ok := doc[segs[0]].(map[string]any)
		if !ok {
			return
		}
		doc, segs = next, segs[1:]
	}
	delete(doc, segs[0])
}

func setPath(doc map[string]any, segs []string, v any) {
	for len(segs) > 1 {
		next, ok := doc[segs[0]].(map[string]any)
		if !ok {
			next = map[string]any{}
			doc[segs[0]] = next
		}
		doc, segs = next, segs[1:]
	}
	doc[segs[0]] = v
}

func appendPath(doc map[string]any, segs []string, v any) {
	for len(segs) > 1 {
		next, ok := doc[segs[0]].(map[string]any)
		if !ok {
			next = map[string]any{}
			doc[segs[0]] = next
		}
		doc, segs = next, segs[1:]
	}
	list, _ := doc[segs[0]].([]any)
	doc[segs[0]] = append(list, v)
}
