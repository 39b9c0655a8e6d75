package search

import (
	"context"
	"sort"

	"github.com/ricesearch/rice-eval/internal/pkg/errors"
	"github.com/ricesearch/rice-eval/internal/pkg/logger"
)

// Adapter wraps a Backend with request validation, top-k enforcement and
// hit tracing. One adapter owns one backend connection.
type Adapter struct {
	backend   Backend
	log       *logger.Logger
	connected bool
}

// NewAdapter creates an adapter over backend.
func NewAdapter(backend Backend, log *logger.Logger) *Adapter {
	return &Adapter{
		backend: backend,
		log:     log,
	}
}

// Backend returns the wrapped backend name.
func (a *Adapter) Backend() string {
	return a.backend.Name()
}

// Connected reports whether a Connect call has succeeded.
func (a *Adapter) Connected() bool {
	return a.connected
}

// Search validates req, runs it, and returns at most req.TopK hits in
// descending score order.
func (a *Adapter) Search(ctx context.Context, req Request) ([]Hit, error) {
	if req.Mode == ModeVector && req.ScoreOffset == 0 {
		req.ScoreOffset = DefaultScoreOffset
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	hits, err := a.backend.Search(ctx, req)
	if err != nil {
		if errors.CodeOf(err) == "" {
			err = errors.BackendError("search failed", err)
		}
		return nil, err
	}

	// Stable so equal scores keep backend order.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > req.TopK {
		hits = hits[:req.TopK]
	}

	a.log.Debug("Search completed",
		"backend", a.backend.Name(),
		"index", req.Index,
		"mode", req.Mode.String(),
		"analyzer", req.Analyzer.Name,
		"vector_field", req.VectorField,
		"hits", len(hits),
	)
	for i, h := range hits {
		a.log.Debug("Hit",
			"rank", i+1,
			"id", h.ID,
			"score", h.Score,
			"annotation", h.Annotation,
			"title", h.Title,
		)
	}

	return hits, nil
}

// Close closes the backend connection.
func (a *Adapter) Close() error {
	a.connected = false
	return a.backend.Close()
}
