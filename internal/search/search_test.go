package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/ricesearch/rice-eval/internal/analysis"
	"github.com/ricesearch/rice-eval/internal/pkg/errors"
	"github.com/ricesearch/rice-eval/internal/pkg/logger"
)

type fakeBackend struct {
	pingErr  error
	exists   bool
	hits     []Hit
	err      error
	requests []Request
	closed   bool
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeBackend) IndexExists(ctx context.Context, index string) (bool, error) {
	return f.exists, nil
}

func (f *fakeBackend) Search(ctx context.Context, req Request) ([]Hit, error) {
	f.requests = append(f.requests, req)
	return f.hits, f.err
}

func (f *fakeBackend) Close() error {
	f.closed = true
	return nil
}

func lexical(topK int) Request {
	return Request{
		Mode:     ModeLexical,
		Index:    "wapo",
		Text:     "hurricane damage",
		Analyzer: analysis.Standard(),
		TopK:     topK,
	}
}

func TestRequest_Validate(t *testing.T) {
	vector := lexical(20)
	vector.Mode = ModeVector
	vector.VectorField = "sbert_vector"
	vector.Vector = []float32{0.1}

	noVector := vector
	noVector.Vector = nil

	noIndex := lexical(20)
	noIndex.Index = ""

	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"lexical", lexical(20), false},
		{"vector", vector, false},
		{"vector without query vector", noVector, true},
		{"missing index", noIndex, true},
		{"zero top_k", lexical(0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.IsValidation(err) {
				t.Errorf("Validate() code = %s, want VALIDATION_ERROR", errors.CodeOf(err))
			}
		})
	}
}

func TestAdapter_SearchTruncatesAndSorts(t *testing.T) {
	var hits []Hit
	for i := 0; i < 30; i++ {
		hits = append(hits, Hit{ID: fmt.Sprintf("d%d", i), Score: float64(i)})
	}
	backend := &fakeBackend{hits: hits}
	a := NewAdapter(backend, logger.Discard())

	got, err := a.Search(context.Background(), lexical(20))
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(got) != 20 {
		t.Fatalf("len(hits) = %d, want 20", len(got))
	}
	if got[0].ID != "d29" {
		t.Errorf("first hit = %s, want d29", got[0].ID)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Score < got[i].Score {
			t.Errorf("hits not in descending order at %d", i)
		}
	}
}

func TestAdapter_SearchFewerThanTopK(t *testing.T) {
	backend := &fakeBackend{hits: []Hit{{ID: "a", Score: 1}}}
	a := NewAdapter(backend, logger.Discard())

	got, err := a.Search(context.Background(), lexical(20))
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("len(hits) = %d, want 1", len(got))
	}
}

func TestAdapter_SearchDefaultsOffset(t *testing.T) {
	backend := &fakeBackend{}
	a := NewAdapter(backend, logger.Discard())

	req := lexical(20)
	req.Mode = ModeVector
	req.VectorField = "ft_vector"
	req.Vector = []float32{1, 0}

	if _, err := a.Search(context.Background(), req); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got := backend.requests[0].ScoreOffset; got != DefaultScoreOffset {
		t.Errorf("ScoreOffset = %v, want %v", got, DefaultScoreOffset)
	}
}

func TestAdapter_SearchWrapsBackendErrors(t *testing.T) {
	backend := &fakeBackend{err: fmt.Errorf("boom")}
	a := NewAdapter(backend, logger.Discard())

	_, err := a.Search(context.Background(), lexical(20))
	if errors.CodeOf(err) != errors.CodeBackendError {
		t.Errorf("error code = %s, want %s", errors.CodeOf(err), errors.CodeBackendError)
	}
}

func TestAdapter_SearchRejectsInvalid(t *testing.T) {
	backend := &fakeBackend{}
	a := NewAdapter(backend, logger.Discard())

	if _, err := a.Search(context.Background(), lexical(0)); err == nil {
		t.Error("Search() should reject top_k 0")
	}
	if len(backend.requests) != 0 {
		t.Error("invalid request reached the backend")
	}
}

func TestAdapter_Connect(t *testing.T) {
	tests := []struct {
		name      string
		backend   *fakeBackend
		want      ConnectStatus
		wantCode  string
		connected bool
	}{
		{"ok", &fakeBackend{exists: true}, StatusConnected, "", true},
		{"unreachable", &fakeBackend{pingErr: fmt.Errorf("dial tcp: refused")}, StatusFailed, errors.CodeBackendUnavailable, false},
		{"missing index", &fakeBackend{exists: false}, StatusFailed, errors.CodeNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAdapter(tt.backend, logger.Discard())
			res := a.Connect(context.Background(), "wapo")

			if res.Status != tt.want {
				t.Errorf("Status = %s, want %s", res.Status, tt.want)
			}
			if res.Connected() != tt.connected || a.Connected() != tt.connected {
				t.Errorf("Connected() = %v, want %v", res.Connected(), tt.connected)
			}
			if tt.wantCode != "" && errors.CodeOf(res.Err) != tt.wantCode {
				t.Errorf("error code = %s, want %s", errors.CodeOf(res.Err), tt.wantCode)
			}
			if res.Backend != "fake" {
				t.Errorf("Backend = %s, want fake", res.Backend)
			}
		})
	}
}

func TestAdapter_Close(t *testing.T) {
	backend := &fakeBackend{exists: true}
	a := NewAdapter(backend, logger.Discard())
	a.Connect(context.Background(), "")

	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !backend.closed || a.Connected() {
		t.Error("Close() did not close the backend")
	}
}

func TestMode_String(t *testing.T) {
	if ModeLexical.String() != "lexical" || ModeVector.String() != "vector" {
		t.Error("unexpected mode names")
	}
}
