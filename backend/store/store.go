package store

import (
	"context"
	"encoding/json"
	"errors"
)

// Collections used by the marketplace.
const (
	CollectionCourses         = "courses"
	CollectionUsers           = "users"
	CollectionSettings        = "settings"
	CollectionStatistics      = "statistics"
	CollectionNotifications   = "notifications"
	CollectionReportedReviews = "reportedReviews"
)

var ErrNotFound = errors.New("document not found")

// Document is the JSON-shaped body of a stored record. Numbers are float64
// once a document has been through a store.
type Document map[string]interface{}

// Snapshot is a document together with its id.
type Snapshot struct {
	ID   string
	Data Document
}

// Decode unmarshals the snapshot into v. The document id is exposed to v
// under the "id" key.
func (s Snapshot) Decode(v interface{}) error {
	body := make(Document, len(s.Data)+1)
	for k, val := range s.Data {
		body[k] = val
	}
	body["id"] = s.ID
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// Filter is an equality match on a (dotted) field path.
type Filter struct {
	Field string
	Value interface{}
}

type Query struct {
	Filters    []Filter
	OrderBy    string
	Descending bool
	// Limit <= 0 means no limit.
	Limit int
}

// DocumentStore is the persistence collaborator. Field paths in Update use
// dots to address nested maps ("stats.ratingCounts.5"); values may be
// Increment or ArrayUnion sentinels.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (Snapshot, error)
	List(ctx context.Context, collection string, q Query) ([]Snapshot, error)
	Create(ctx context.Context, collection string, data interface{}) (string, error)
	Set(ctx context.Context, collection, id string, data interface{}, merge bool) error
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, collection, id string) error
}

// Increment atomically adds By to a numeric field; a missing field counts as zero.
type Increment struct {
	By float64
}

// ArrayUnion appends the values missing from an array field.
type ArrayUnion struct {
	Values []interface{}
}

func Inc(by float64) Increment { return Increment{By: by} }

func Union(values ...interface{}) ArrayUnion { return ArrayUnion{Values: values} }

// ToDocument converts a struct or map into its stored JSON shape.
func ToDocument(v interface{}) (Document, error) {
	if d, ok := v.(Document); ok {
		v = map[string]interface{}(d)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	doc := Document{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	delete(doc, "id")
	return doc, nil
}
