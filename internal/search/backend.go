package search

import (
	"context"
)

// Backend executes retrieval requests against an index store.
type Backend interface {
	// Name identifies the backend in logs and errors.
	Name() string

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// IndexExists reports whether the named index is present.
	IndexExists(ctx context.Context, index string) (bool, error)

	// Search returns hits ordered by descending score.
	Search(ctx context.Context, req Request) ([]Hit, error)

	// Close releases the backend connection.
	Close() error
}
