package store

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process DocumentStore used by tests. Writes are
// serialized by a single mutex, so AtomicBatch is trivially atomic.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
	inserted    map[string]map[string]int // insertion order per collection
	seq         int

	// FailNextWrites makes the next N mutating calls return a
	// TransientError, for exercising retry paths.
	FailNextWrites int

	// FailNextReads does the same for reads.
	FailNextReads int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]map[string]any),
		inserted:    make(map[string]map[string]int),
	}
}

func (s *MemoryStore) GetDocument(ctx context.Context, collection, id string) (Document, error) {
	if err := s.failReadIfRequested(); err != nil {
		return Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.collections[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: id, Data: cloneFields(data)}, nil
}

func (s *MemoryStore) QueryDocuments(ctx context.Context, collection string, filters []Filter, orderBy string) ([]Document, error) {
	if err := s.failReadIfRequested(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []Document
	for id, data := range s.collections[collection] {
		match := true
		for _, f := range filters {
			ok, err := matchFilter(data[f.Field], f)
			if err != nil {
				return nil, err
			}
			if !ok {
				match = false
				break
			}
		}
		if match {
			docs = append(docs, Document{ID: id, Data: cloneFields(data)})
		}
	}

	order := s.inserted[collection]
	sort.SliceStable(docs, func(i, j int) bool {
		if orderBy != "" {
			a, aok := docs[i].Data[orderBy]
			b, bok := docs[j].Data[orderBy]
			if aok && bok {
				if c := compareValues(a, b); c != 0 {
					return c < 0
				}
			} else if aok != bok {
				return !aok
			}
		}
		return order[docs[i].ID] < order[docs[j].ID]
	})
	return docs, nil
}

func (s *MemoryStore) SetDocument(ctx context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failIfRequested(); err != nil {
		return err
	}
	s.setLocked(collection, id, fields)
	return nil
}

func (s *MemoryStore) UpdateDocument(ctx context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failIfRequested(); err != nil {
		return err
	}
	return s.updateLocked(collection, id, fields)
}

func (s *MemoryStore) AtomicBatch(ctx context.Context, ops []WriteOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failIfRequested(); err != nil {
		return err
	}

	// Validate partial updates up front so the batch stays all-or-nothing.
	for _, op := range ops {
		if op.Replace {
			continue
		}
		if _, ok := s.collections[op.Collection][op.ID]; !ok {
			return fmt.Errorf("batch update %s/%s: %w", op.Collection, op.ID, ErrNotFound)
		}
	}
	for _, op := range ops {
		if op.Replace {
			s.setLocked(op.Collection, op.ID, op.Fields)
			continue
		}
		_ = s.updateLocked(op.Collection, op.ID, op.Fields)
	}
	return nil
}

func (s *MemoryStore) failReadIfRequested() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNextReads > 0 {
		s.FailNextReads--
		return &TransientError{Err: fmt.Errorf("injected read failure")}
	}
	return nil
}

func (s *MemoryStore) failIfRequested() error {
	if s.FailNextWrites > 0 {
		s.FailNextWrites--
		return &TransientError{Err: fmt.Errorf("injected write failure")}
	}
	return nil
}

func (s *MemoryStore) setLocked(collection, id string, fields map[string]any) {
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]map[string]any)
		s.inserted[collection] = make(map[string]int)
	}
	data := cloneFields(fields)
	data["_id"] = id
	s.collections[collection][id] = data
	if _, ok := s.inserted[collection][id]; !ok {
		s.seq++
		s.inserted[collection][id] = s.seq
	}
}

func (s *MemoryStore) updateLocked(collection, id string, fields map[string]any) error {
	data, ok := s.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range fields {
		data[k] = v
	}
	return nil
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func matchFilter(have any, f Filter) (bool, error) {
	switch f.Op {
	case "==":
		return equalValues(have, f.Value), nil
	case "in":
		values := reflect.ValueOf(f.Value)
		if values.Kind() != reflect.Slice {
			return false, fmt.Errorf("in filter on %q needs a slice value", f.Field)
		}
		for i := 0; i < values.Len(); i++ {
			if equalValues(have, values.Index(i).Interface()) {
				return true, nil
			}
		}
		return false, nil
	case ">", ">=", "<", "<=":
		if have == nil {
			return false, nil
		}
		c := compareValues(have, f.Value)
		switch f.Op {
		case ">":
			return c > 0, nil
		case ">=":
			return c >= 0, nil
		case "<":
			return c < 0, nil
		default:
			return c <= 0, nil
		}
	default:
		return false, fmt.Errorf("unsupported filter operator %q", f.Op)
	}
}

func equalValues(a, b any) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
	}
	return reflect.DeepEqual(a, b)
}

func compareValues(a, b any) int {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	if at, aok := a.(time.Time); aok {
		if bt, bok := b.(time.Time); bok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
	}
	as := fmt.Sprintf("%v", a)
	bs := fmt.Sprintf("%v", b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
