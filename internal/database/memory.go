package database

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process DocumentStore for tests and local runs. It can
// reject filtered, ordered queries the way Firestore does before a
// composite index exists, and can be told to fail individual operations.
type Memory struct {
	mu           sync.RWMutex
	collections  map[string]map[string]map[string]any
	requireIndex bool
	failures     map[string]error
}

// Operation names accepted by FailWith.
const (
	OpFind   = "find"
	OpGet    = "get"
	OpCreate = "create"
	OpSet    = "set"
	OpMerge  = "merge"
)

func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]map[string]map[string]any),
		failures:    make(map[string]error),
	}
}

// RequireCompositeIndex makes Find return ErrIndexUnready for any query that
// combines equality filters with an order-by.
func (m *Memory) RequireCompositeIndex(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requireIndex = on
}

// FailWith makes every call to op return err. A nil err clears the failure.
func (m *Memory) FailWith(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

func (m *Memory) Find(ctx context.Context, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failures[OpFind]; err != nil {
		return nil, err
	}
	if m.requireIndex && len(q.Filters) > 0 && q.OrderBy != "" {
		return nil, fmt.Errorf("%w: collection %s ordered by %s", ErrIndexUnready, q.Collection, q.OrderBy)
	}

	var docs []Document
	for id, fields := range m.collections[q.Collection] {
		if !matchesAll(fields, q.Filters) {
			continue
		}
		// Firestore leaves out documents that lack the order-by field.
		if _, ok := fields[q.OrderBy]; q.OrderBy != "" && !ok {
			continue
		}
		docs = append(docs, Document{ID: id, Fields: copyFields(fields)})
	}

	sort.Slice(docs, func(i, j int) bool {
		c := 0
		if q.OrderBy != "" {
			c = compareValues(docs[i].Fields[q.OrderBy], docs[j].Fields[q.OrderBy])
		}
		if c == 0 {
			c = compareValues(docs[i].ID, docs[j].ID)
		}
		if q.Descending {
			return c > 0
		}
		return c < 0
	})

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

func (m *Memory) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failures[OpGet]; err != nil {
		return nil, err
	}
	fields, ok := m.collections[collection][id]
	if !ok {
		return nil, nil
	}
	return &Document{ID: id, Fields: copyFields(fields)}, nil
}

func (m *Memory) NewID(string) string {
	return uuid.NewString()
}

func (m *Memory) Create(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failures[OpCreate]; err != nil {
		return err
	}
	coll := m.collection(collection)
	if _, ok := coll[id]; ok {
		return fmt.Errorf("create %s/%s: %w", collection, id, ErrAlreadyExists)
	}
	coll[id] = copyFields(fields)
	return nil
}

func (m *Memory) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failures[OpSet]; err != nil {
		return err
	}
	m.collection(collection)[id] = copyFields(fields)
	return nil
}

func (m *Memory) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failures[OpMerge]; err != nil {
		return err
	}
	coll := m.collection(collection)
	existing, ok := coll[id]
	if !ok {
		existing = make(map[string]any, len(fields))
		coll[id] = existing
	}
	for k, v := range fields {
		existing[k] = v
	}
	return nil
}

func (m *Memory) collection(name string) map[string]map[string]any {
	coll, ok := m.collections[name]
	if !ok {
		coll = make(map[string]map[string]any)
		m.collections[name] = coll
	}
	return coll
}

func matchesAll(fields map[string]any, filters []Filter) bool {
	for _, f := range filters {
		v, ok := fields[f.Field]
		if !ok || !reflect.DeepEqual(v, f.Value) {
			return false
		}
	}
	return true
}

func copyFields(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// compareValues orders the value types the services store: times, strings
// and numbers. Values of different kinds compare by kind name.
func compareValues(a, b any) int {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case int64:
		if bv, ok := b.(int64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	}
	ak, bk := fmt.Sprintf("%T", a), fmt.Sprintf("%T", b)
	switch {
	case ak < bk:
		return -1
	case ak > bk:
		return 1
	}
	return 0
}
