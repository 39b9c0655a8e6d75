package ml

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/ricesearch/rice-eval/internal/pkg/errors"
	"github.com/ricesearch/rice-eval/internal/pkg/logger"
)

// OpenAIConfig configures an OpenAI-compatible embeddings client.
type OpenAIConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	Timeout   time.Duration
	RateLimit float64
}

// OpenAIEncoder calls an OpenAI-compatible /embeddings endpoint.
// Such endpoints pool server-side, so only mean pooling is accepted.
type OpenAIEncoder struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
	log     *logger.Logger
}

// NewOpenAIEncoder creates an OpenAI-compatible encoder.
func NewOpenAIEncoder(cfg OpenAIConfig, log *logger.Logger) (*OpenAIEncoder, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.ValidationError("embedding model is required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.ValidationError("embedding base URL is required")
	}

	openaiCfg := openai.DefaultConfig(cfg.APIKey)
	openaiCfg.BaseURL = cfg.BaseURL
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	openaiCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIEncoder{
		client:  openai.NewClientWithConfig(openaiCfg),
		model:   cfg.Model,
		limiter: newLimiter(cfg.RateLimit),
		log:     log,
	}, nil
}

// Encode requests embeddings for texts.
func (e *OpenAIEncoder) Encode(ctx context.Context, texts []string, pooling Pooling) ([][]float32, error) {
	if pooling != PoolingMean {
		return nil, errors.ValidationError(fmt.Sprintf("pooling %q is not supported by the openai provider", pooling))
	}
	if len(texts) == 0 {
		return nil, nil
	}

	if err := waitLimiter(ctx, e.limiter); err != nil {
		return nil, err
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, errors.EmbeddingError("embedding request failed", err).
			WithDetail("model", e.model)
	}
	if len(resp.Data) != len(texts) {
		return nil, errors.EmbeddingError(
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Data)), nil)
	}

	out := make([][]float32, len(texts))
	for _, row := range resp.Data {
		if row.Index < 0 || row.Index >= len(out) {
			return nil, errors.EmbeddingError(fmt.Sprintf("embedding index %d out of range", row.Index), nil)
		}
		vec := make([]float32, len(row.Embedding))
		for j, v := range row.Embedding {
			vec[j] = float32(v)
		}
		out[row.Index] = vec
	}

	e.log.Debug("Encoded texts", "model", e.model, "count", len(texts))
	return out, nil
}
