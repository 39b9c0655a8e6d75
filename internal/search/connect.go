package search

import (
	"context"
	"fmt"
	"time"

	"github.com/ricesearch/rice-eval/internal/pkg/errors"
)

// ConnectStatus is the outcome of a connection attempt.
type ConnectStatus string

const (
	StatusConnected ConnectStatus = "connected"
	StatusFailed    ConnectStatus = "failed"
)

// ConnectResult reports whether the backend can serve the index.
type ConnectResult struct {
	Status  ConnectStatus `json:"status"`
	Backend string        `json:"backend"`
	Index   string        `json:"index,omitempty"`
	Latency int64         `json:"latency_ms"`
	Message string        `json:"message,omitempty"`

	// Err is set when Status is StatusFailed.
	Err error `json:"-"`
}

// Connected reports whether the attempt succeeded.
func (r ConnectResult) Connected() bool {
	return r.Status == StatusConnected
}

// Connect checks that the backend is reachable and, when index is not
// empty, that the index exists. It never panics or exits; the caller
// decides what to do with a failed result.
func (a *Adapter) Connect(ctx context.Context, index string) ConnectResult {
	start := time.Now()
	result := ConnectResult{
		Backend: a.backend.Name(),
		Index:   index,
	}

	fail := func(err error) ConnectResult {
		result.Status = StatusFailed
		result.Latency = time.Since(start).Milliseconds()
		result.Err = err
		result.Message = err.Error()
		a.log.Debug("Backend connection failed", "backend", result.Backend, "error", err)
		return result
	}

	if err := a.backend.Ping(ctx); err != nil {
		if !errors.IsBackendUnavailable(err) {
			err = errors.BackendUnavailableError(a.backend.Name(), err)
		}
		return fail(err)
	}

	if index != "" {
		exists, err := a.backend.IndexExists(ctx, index)
		if err != nil {
			return fail(err)
		}
		if !exists {
			return fail(errors.NotFoundError(fmt.Sprintf("index %q", index)))
		}
	}

	result.Status = StatusConnected
	result.Latency = time.Since(start).Milliseconds()
	a.connected = true
	a.log.Debug("Backend connected", "backend", result.Backend, "index", index, "latency_ms", result.Latency)
	return result
}
