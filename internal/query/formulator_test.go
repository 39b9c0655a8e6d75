package query

import (
	"context"
	"fmt"
	"testing"

	"github.com/ricesearch/rice-eval/internal/ml"
	"github.com/ricesearch/rice-eval/internal/pkg/errors"
	"github.com/ricesearch/rice-eval/internal/pkg/logger"
	"github.com/ricesearch/rice-eval/internal/topics"
)

type stubEncoder struct {
	texts   []string
	pooling ml.Pooling
	vecs    [][]float32
	err     error
}

func (s *stubEncoder) Encode(ctx context.Context, texts []string, pooling ml.Pooling) ([][]float32, error) {
	s.texts = texts
	s.pooling = pooling
	return s.vecs, s.err
}

var topic408 = topics.Topic{
	ID:          "408",
	Title:       "flu season",
	Description: "Find information on the flu season.",
	Narrative:   "Relevant documents discuss the severity of the flu season.",
}

func TestFormulate(t *testing.T) {
	f := NewFormulator(nil, logger.Discard())

	tests := []struct {
		qt   topics.QueryType
		want string
	}{
		{topics.QueryTitle, "flu season"},
		{topics.QueryDescription, "Find information on the flu season."},
		{topics.QueryNarrative, "Relevant documents discuss the severity of the flu season."},
	}

	for _, tt := range tests {
		got, err := f.Formulate(topic408, tt.qt)
		if err != nil {
			t.Fatalf("Formulate(%s) error = %v", tt.qt, err)
		}
		if got != tt.want {
			t.Errorf("Formulate(%s) = %q, want %q", tt.qt, got, tt.want)
		}
	}

	if _, err := f.Formulate(topic408, topics.QueryType("summary")); !errors.IsValidation(err) {
		t.Errorf("Formulate(summary) error = %v, want validation error", err)
	}
}

func TestFormulateVector(t *testing.T) {
	enc := &stubEncoder{vecs: [][]float32{{0.1, 0.2, 0.3}}}
	reg := ml.NewRegistry()
	reg.Register(ml.ServiceSBERT, enc)

	f := NewFormulator(reg, logger.Discard())

	text, vec, err := f.FormulateVector(context.Background(), topic408, topics.QueryTitle, ml.ServiceSBERT)
	if err != nil {
		t.Fatalf("FormulateVector() error = %v", err)
	}
	if text != "flu season" {
		t.Errorf("text = %q, want %q", text, "flu season")
	}
	if len(vec) != 3 {
		t.Errorf("len(vec) = %d, want 3", len(vec))
	}
	if len(enc.texts) != 1 || enc.texts[0] != "flu season" {
		t.Errorf("encoded texts = %v, want [flu season]", enc.texts)
	}
	if enc.pooling != ml.PoolingMean {
		t.Errorf("pooling = %s, want mean", enc.pooling)
	}
}

func TestFormulateVector_Errors(t *testing.T) {
	reg := ml.NewRegistry()
	reg.Register(ml.ServiceFastText, &stubEncoder{err: errors.EmbeddingError("down", fmt.Errorf("refused"))})
	reg.Register(ml.ServiceSBERT, &stubEncoder{})

	f := NewFormulator(reg, logger.Discard())
	ctx := context.Background()

	if _, _, err := f.FormulateVector(ctx, topic408, topics.QueryTitle, "glove"); !errors.IsValidation(err) {
		t.Errorf("unknown service error = %v, want validation error", err)
	}
	if _, _, err := f.FormulateVector(ctx, topic408, topics.QueryTitle, ml.ServiceFastText); errors.CodeOf(err) != errors.CodeEmbeddingError {
		t.Errorf("encoder failure code = %s, want %s", errors.CodeOf(err), errors.CodeEmbeddingError)
	}
	if _, _, err := f.FormulateVector(ctx, topic408, topics.QueryTitle, ml.ServiceSBERT); err == nil {
		t.Error("empty encoder result should fail")
	}

	noEncoders := NewFormulator(nil, logger.Discard())
	if _, _, err := noEncoders.FormulateVector(ctx, topic408, topics.QueryTitle, ml.ServiceSBERT); err == nil {
		t.Error("FormulateVector() without encoders should fail")
	}
}
