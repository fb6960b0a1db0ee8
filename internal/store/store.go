// Package store defines the key-value result-store contract (spec.md §6)
// shared by the in-memory and Google Cloud Storage-backed implementations.
package store

import "context"

// Store persists JSON-encodable values under string keys. Get reports
// absence via its bool return rather than an error — only a genuine I/O or
// decode failure is an error.
type Store interface {
	Put(ctx context.Context, key string, v any) error
	Get(ctx context.Context, key string, out any) (bool, error)
}

// SpansKey and MetadataKey build the keys the driver stores/fetches under
// for a given commit SHA (spec.md §4.7/§6: "<sha>/spans", "<sha>/metadata").
func SpansKey(sha string) string    { return sha + "/spans" }
func MetadataKey(sha string) string { return sha + "/metadata" }
