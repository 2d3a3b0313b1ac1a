// Package storetest provides document store doubles for service tests.
package storetest

import (
	"context"
	"errors"
	"time"

	"github.com/philosofium/coursemarket/backend/store"
)

var ErrUnreachable = errors.New("backend unreachable")

// FailingStore wraps a store and fails the operations switched on.
type FailingStore struct {
	store.DocumentStore
	FailReads  bool
	FailWrites bool
}

func NewFailingStore(inner store.DocumentStore) *FailingStore {
	return &FailingStore{DocumentStore: inner}
}

func (f *FailingStore) Get(ctx context.Context, collection, id string) (store.Snapshot, error) {
	if f.FailReads {
		return store.Snapshot{}, ErrUnreachable
	}
	return f.DocumentStore.Get(ctx, collection, id)
}

func (f *FailingStore) List(ctx context.Context, collection string, q store.Query) ([]store.Snapshot, error) {
	if f.FailReads {
		return nil, ErrUnreachable
	}
	return f.DocumentStore.List(ctx, collection, q)
}

func (f *FailingStore) Create(ctx context.Context, collection string, data interface{}) (string, error) {
	if f.FailWrites {
		return "", ErrUnreachable
	}
	return f.DocumentStore.Create(ctx, collection, data)
}

func (f *FailingStore) Set(ctx context.Context, collection, id string, data interface{}, merge bool) error {
	if f.FailWrites {
		return ErrUnreachable
	}
	return f.DocumentStore.Set(ctx, collection, id, data, merge)
}

func (f *FailingStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	if f.FailWrites {
		return ErrUnreachable
	}
	return f.DocumentStore.Update(ctx, collection, id, fields)
}

func (f *FailingStore) Delete(ctx context.Context, collection, id string) error {
	if f.FailWrites {
		return ErrUnreachable
	}
	return f.DocumentStore.Delete(ctx, collection, id)
}

// StepClock returns a clock that advances by one second per call.
func StepClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}
