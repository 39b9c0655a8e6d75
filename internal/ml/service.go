// Package ml provides clients for the query embedding services.
package ml

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ricesearch/rice-eval/internal/config"
	"github.com/ricesearch/rice-eval/internal/pkg/errors"
	"github.com/ricesearch/rice-eval/internal/pkg/logger"
)

// Embedding service names.
const (
	ServiceFastText = "fasttext"
	ServiceSBERT    = "sbert"
)

// Pooling selects how token vectors are combined into a text vector.
type Pooling string

// PoolingMean averages token vectors.
const PoolingMean Pooling = "mean"

// Encoder turns texts into dense vectors.
type Encoder interface {
	// Encode returns one vector per input text, in input order.
	Encode(ctx context.Context, texts []string, pooling Pooling) ([][]float32, error)
}

// Services returns the known embedding service names.
func Services() []string {
	return []string{ServiceFastText, ServiceSBERT}
}

// VectorField returns the per-document vector field populated by the named service.
func VectorField(service string) (string, error) {
	switch service {
	case ServiceFastText:
		return "ft_vector", nil
	case ServiceSBERT:
		return "sbert_vector", nil
	default:
		return "", errors.ValidationError(fmt.Sprintf("unknown vector name %q (must be fasttext or sbert)", service))
	}
}

// Registry maps service names to encoders.
type Registry struct {
	encoders map[string]Encoder
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{encoders: make(map[string]Encoder)}
}

// Register binds an encoder to a service name.
func (r *Registry) Register(service string, enc Encoder) {
	r.encoders[service] = enc
}

// Get returns the encoder for a service name.
func (r *Registry) Get(service string) (Encoder, error) {
	enc, ok := r.encoders[service]
	if !ok {
		return nil, errors.NotFoundError(fmt.Sprintf("embedding service %q", service))
	}
	return enc, nil
}

// Names returns the registered service names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.encoders))
	for name := range r.encoders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds a registry with an encoder for every known service, using the
// configured provider. Clients are created lazily on the wire; nothing is
// contacted here.
func New(cfg config.EmbeddingConfig, timeout time.Duration, log *logger.Logger) (*Registry, error) {
	reg := NewRegistry()

	switch cfg.Provider {
	case "http":
		urls := map[string]string{
			ServiceFastText: cfg.FastTextURL,
			ServiceSBERT:    cfg.SBERTURL,
		}
		for _, service := range Services() {
			reg.Register(service, NewHTTPEncoder(HTTPConfig{
				BaseURL:   urls[service],
				Service:   service,
				Timeout:   timeout,
				RateLimit: cfg.RateLimit,
			}, log))
		}
	case "openai":
		models := map[string]string{
			ServiceFastText: cfg.FastTextModel,
			ServiceSBERT:    cfg.SBERTModel,
		}
		for _, service := range Services() {
			enc, err := NewOpenAIEncoder(OpenAIConfig{
				BaseURL:   cfg.BaseURL,
				APIKey:    cfg.APIKey,
				Model:     models[service],
				Timeout:   timeout,
				RateLimit: cfg.RateLimit,
			}, log)
			if err != nil {
				return nil, err
			}
			reg.Register(service, enc)
		}
	default:
		return nil, errors.ValidationError(fmt.Sprintf("unknown embedding provider %q", cfg.Provider))
	}

	log.Debug("Embedding services configured", "provider", cfg.Provider, "services", reg.Names())
	return reg, nil
}
