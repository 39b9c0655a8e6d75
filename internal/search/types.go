// Package search runs top-k retrieval against an index through a pluggable backend.
package search

import (
	"fmt"

	"github.com/ricesearch/rice-eval/internal/analysis"
	"github.com/ricesearch/rice-eval/internal/pkg/errors"
	"github.com/ricesearch/rice-eval/internal/pkg/security"
)

// Mode selects how a request is scored.
type Mode int

const (
	// ModeLexical scores documents by term matching on the content field.
	ModeLexical Mode = iota

	// ModeVector keeps lexically matching documents and scores them by
	// cosine similarity to the query vector plus a constant offset.
	ModeVector
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeLexical:
		return "lexical"
	case ModeVector:
		return "vector"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// DefaultScoreOffset keeps cosine-based scores non-negative.
const DefaultScoreOffset = 2.0

// Request defines a single retrieval.
type Request struct {
	Mode Mode

	// Index is the collection or table to search.
	Index string

	// Text is the query text. In vector mode it drives the base match.
	Text string

	// Analyzer applies to the content match.
	Analyzer analysis.Analyzer

	// VectorField is the per-document vector compared in vector mode.
	VectorField string

	// Vector is the query vector for vector mode.
	Vector []float32

	// ScoreOffset is added to cosine similarity in vector mode.
	ScoreOffset float64

	// TopK is the maximum number of hits.
	TopK int
}

// Validate checks the request is complete for its mode.
func (r Request) Validate() error {
	if err := security.ValidateIndexName(r.Index); err != nil {
		return errors.ValidationError(err.Error())
	}
	if err := security.ValidateTopK(r.TopK); err != nil {
		return errors.ValidationError(err.Error())
	}
	if r.Analyzer.Name == "" {
		return errors.ValidationError("analyzer is required")
	}

	switch r.Mode {
	case ModeLexical:
	case ModeVector:
		if r.VectorField == "" {
			return errors.ValidationError("vector field is required in vector mode")
		}
		if len(r.Vector) == 0 {
			return errors.ValidationError("query vector is required in vector mode")
		}
	default:
		return errors.ValidationError(fmt.Sprintf("unknown search mode %s", r.Mode))
	}

	return nil
}

// Hit is a single ranked document.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`

	// Annotation is the relevance annotation stored with the document,
	// empty when the document has none.
	Annotation string `json:"annotation"`
	Title      string `json:"title"`
}
