// Package query turns a topic and query type into retrieval input.
package query

import (
	"context"
	"fmt"

	"github.com/ricesearch/rice-eval/internal/ml"
	"github.com/ricesearch/rice-eval/internal/pkg/errors"
	"github.com/ricesearch/rice-eval/internal/pkg/logger"
	"github.com/ricesearch/rice-eval/internal/pkg/security"
	"github.com/ricesearch/rice-eval/internal/topics"
)

// EncoderSource resolves embedding service names to encoders.
type EncoderSource interface {
	Get(service string) (ml.Encoder, error)
}

// Formulator selects query text and, for vector strategies, encodes it.
type Formulator struct {
	encoders EncoderSource
	log      *logger.Logger
}

// NewFormulator creates a formulator. encoders may be nil when only lexical
// strategies are used.
func NewFormulator(encoders EncoderSource, log *logger.Logger) *Formulator {
	return &Formulator{
		encoders: encoders,
		log:      log,
	}
}

// Formulate returns the topic field selected by qt, verbatim.
func (f *Formulator) Formulate(topic topics.Topic, qt topics.QueryType) (string, error) {
	text, err := topic.Text(qt)
	if err != nil {
		return "", err
	}

	f.log.Debug("Formulated query", "topic_id", topic.ID, "query_type", string(qt), "text", security.SanitizeForLog(text))
	return text, nil
}

// FormulateVector returns the query text together with its mean-pooled
// embedding from the named service.
func (f *Formulator) FormulateVector(ctx context.Context, topic topics.Topic, qt topics.QueryType, service string) (string, []float32, error) {
	text, err := f.Formulate(topic, qt)
	if err != nil {
		return "", nil, err
	}

	if _, err := ml.VectorField(service); err != nil {
		return "", nil, err
	}

	if f.encoders == nil {
		return "", nil, errors.EmbeddingError("no embedding services configured", nil)
	}

	enc, err := f.encoders.Get(service)
	if err != nil {
		return "", nil, err
	}

	vecs, err := enc.Encode(ctx, []string{text}, ml.PoolingMean)
	if err != nil {
		return "", nil, err
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return "", nil, errors.EmbeddingError(
			fmt.Sprintf("%s returned %d vectors for one query", service, len(vecs)), nil)
	}

	return text, vecs[0], nil
}
