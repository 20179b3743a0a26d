package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// TransientError wraps an I/O failure that the caller may retry.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient store error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a retryable store failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// Filter is a single field predicate. Supported operators: "==", "in",
// ">", ">=", "<", "<=".
type Filter struct {
	Field string
	Op    string
	Value any
}

// Eq is shorthand for an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: "==", Value: value}
}

// In is shorthand for a membership filter.
func In(field string, values []string) Filter {
	return Filter{Field: field, Op: "in", Value: values}
}

// Document is one stored document. Data always carries the "_id" field
// as well; ID is a convenience copy.
type Document struct {
	ID   string
	Data map[string]any
}

// WriteOp is one entry of an atomic batch. Replace=true writes the full
// document; otherwise Fields is merged into the existing document, which
// must exist.
type WriteOp struct {
	Collection string
	ID         string
	Fields     map[string]any
	Replace    bool
}

// DocumentStore is the persistence collaborator consumed by the queue
// engine and the call session state machine. AtomicBatch applies all of
// its writes or none of them.
type DocumentStore interface {
	GetDocument(ctx context.Context, collection, id string) (Document, error)
	QueryDocuments(ctx context.Context, collection string, filters []Filter, orderBy string) ([]Document, error)
	SetDocument(ctx context.Context, collection, id string, fields map[string]any) error
	UpdateDocument(ctx context.Context, collection, id string, fields map[string]any) error
	AtomicBatch(ctx context.Context, ops []WriteOp) error
}

// Decode unmarshals a document into a bson-tagged struct.
func Decode(doc Document, out any) error {
	raw, err := bson.Marshal(bson.M(doc.Data))
	if err != nil {
		return fmt.Errorf("encode document %s: %w", doc.ID, err)
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	return nil
}

// Fields flattens a bson-tagged struct into the field map used by writes.
func Fields(v any) (map[string]any, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return m, nil
}
