package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ricesearch/rice-eval/internal/pkg/errors"
	"github.com/ricesearch/rice-eval/internal/pkg/logger"
)

// HTTPConfig configures an encoder service client.
type HTTPConfig struct {
	// BaseURL is the encoder service base URL.
	BaseURL string

	// Service is sent as the embedding type.
	Service string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit caps requests per second. Zero means no limit.
	RateLimit float64
}

// HTTPEncoder calls an encoder service over HTTP.
type HTTPEncoder struct {
	baseURL    string
	service    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logger.Logger
}

type encodeRequest struct {
	EmbeddingType string   `json:"embedding_type"`
	Texts         []string `json:"texts"`
	Pooling       Pooling  `json:"pooling"`
}

type encodeResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewHTTPEncoder creates an encoder service client.
func NewHTTPEncoder(cfg HTTPConfig, log *logger.Logger) *HTTPEncoder {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &HTTPEncoder{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		service:    cfg.Service,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    newLimiter(cfg.RateLimit),
		log:        log,
	}
}

// Encode posts texts to {base}/encode.
func (e *HTTPEncoder) Encode(ctx context.Context, texts []string, pooling Pooling) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if err := waitLimiter(ctx, e.limiter); err != nil {
		return nil, err
	}

	data, err := json.Marshal(encodeRequest{
		EmbeddingType: e.service,
		Texts:         texts,
		Pooling:       pooling,
	})
	if err != nil {
		return nil, errors.EmbeddingError("failed to marshal encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/encode", bytes.NewReader(data))
	if err != nil {
		return nil, errors.EmbeddingError("failed to create encode request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, errors.EmbeddingError(fmt.Sprintf("%s encoder request failed", e.service), err).
			WithDetail("url", e.baseURL)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.EmbeddingError("failed to read encode response", err)
	}

	if resp.StatusCode >= 400 {
		return nil, errors.EmbeddingError(
			fmt.Sprintf("%s encoder returned HTTP %d", e.service, resp.StatusCode),
			fmt.Errorf("%s", strings.TrimSpace(string(body))),
		).WithDetail("status", strconv.Itoa(resp.StatusCode))
	}

	var out encodeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, errors.EmbeddingError("failed to unmarshal encode response", err)
	}

	if len(out.Embeddings) != len(texts) {
		return nil, errors.EmbeddingError(
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(out.Embeddings)), nil)
	}

	e.log.Debug("Encoded texts",
		"service", e.service,
		"count", len(texts),
		"dim", len(out.Embeddings[0]),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return out.Embeddings, nil
}
