// Package gcsstore is the production store.Store, backed by a Google Cloud
// Storage bucket (SPEC_FULL.md §4.9).
package gcsstore

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"cloud.google.com/go/storage"
	pkgerrors "github.com/pkg/errors"
)

// Store writes each key as an object name under bucket.
type Store struct {
	client *storage.Client
	bucket string
}

func New(client *storage.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

func (s *Store) Put(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return pkgerrors.Wrapf(err, "marshal value for key %q", key)
	}

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return pkgerrors.Wrapf(err, "write object %q", key)
	}
	if err := w.Close(); err != nil {
		return pkgerrors.Wrapf(err, "finalize object %q", key)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string, out any) (bool, error) {
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, pkgerrors.Wrapf(err, "open object %q", key)
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return false, pkgerrors.Wrapf(err, "read object %q", key)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return false, pkgerrors.Wrapf(err, "unmarshal object %q", key)
	}
	return true, nil
}
