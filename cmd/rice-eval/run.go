package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/ricesearch/rice-eval/internal/config"
	"github.com/ricesearch/rice-eval/internal/evaluation"
	"github.com/ricesearch/rice-eval/internal/ml"
	"github.com/ricesearch/rice-eval/internal/pkg/errors"
	"github.com/ricesearch/rice-eval/internal/pkg/logger"
	"github.com/ricesearch/rice-eval/internal/pkg/security"
	"github.com/ricesearch/rice-eval/internal/postgres"
	"github.com/ricesearch/rice-eval/internal/qdrant"
	"github.com/ricesearch/rice-eval/internal/query"
	"github.com/ricesearch/rice-eval/internal/search"
	"github.com/ricesearch/rice-eval/internal/topics"
)

func run(ctx context.Context, opts *options, out io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format).WithIndex(opts.indexName)

	set, err := topics.LoadFile(cfg.TopicsPath)
	if err != nil {
		return err
	}
	topicID := strconv.Itoa(opts.topicID)
	if _, err := set.Get(topicID); err != nil {
		return err
	}
	log.Debug("Topics loaded", "path", cfg.TopicsPath, "count", set.Len(), "ids", set.IDs())
	log.Debug("Configuration",
		"backend", cfg.Backend,
		"embedding_provider", cfg.Embedding.Provider,
		"embedding_api_key", security.MaskSecret(cfg.Embedding.APIKey),
		"qdrant_api_key", security.MaskSecret(cfg.Qdrant.APIKey),
		"top_k", cfg.Eval.TopK,
		"cutoff", cfg.Eval.Cutoff,
	)

	backend, err := newBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	adapter := search.NewAdapter(backend, log)
	defer func() {
		if err := adapter.Close(); err != nil {
			log.Warn("Error closing backend", "backend", adapter.Backend(), "error", err)
		}
	}()

	res := adapter.Connect(ctx, opts.indexName)
	if err := connectPolicy(cfg, res); err != nil {
		return err
	}
	if !res.Connected() {
		log.Warn("Backend connection failed, continuing",
			"backend", adapter.Backend(),
			"error", res.Message,
			"latency_ms", res.Latency,
		)
	}
	log.Debug("Backend ready", "backend", adapter.Backend(), "connected", adapter.Connected())

	encoders, err := ml.New(cfg.Embedding, cfg.EmbeddingTimeout(), log)
	if err != nil {
		return err
	}

	evaluator := evaluation.NewEvaluator(
		set,
		query.NewFormulator(encoders, log),
		adapter,
		evaluation.Options{
			Cutoff:          cfg.Eval.Cutoff,
			TopK:            cfg.Eval.TopK,
			ScoreOffset:     cfg.Eval.ScoreOffset,
			CustomRegconfig: cfg.Postgres.CustomRegconfig,
		},
		log,
	)

	if opts.makeTable {
		return runTable(ctx, evaluator, opts, topicID, out)
	}
	return runSingle(ctx, evaluator, opts, topicID, out, log, cfg.IsDevelopment())
}

func runTable(ctx context.Context, e *evaluation.Evaluator, opts *options, topicID string, out io.Writer) error {
	table, err := e.BuildTable(ctx, opts.indexName, topicID)
	if err != nil {
		return err
	}

	if opts.format.String() == "json" {
		err = table.WriteJSON(out)
	} else {
		err = table.Render(out)
	}
	if err != nil {
		return errors.InternalError("writing table", err)
	}
	return nil
}

func runSingle(ctx context.Context, e *evaluation.Evaluator, opts *options, topicID string, out io.Writer, log *logger.Logger, debug bool) error {
	qt, err := topics.ParseQueryType(opts.queryType.String())
	if err != nil {
		return err
	}

	strategy, err := evaluation.StrategyFor(opts.custom, opts.vectorName.String())
	if err != nil {
		return err
	}
	if opts.custom && strategy.VectorService() != "" {
		log.Debug("Custom analyzer ignored in vector mode", "vector_name", opts.vectorName.String())
	}

	res, err := e.EvaluateDetail(ctx, opts.indexName, topicID, qt, strategy)
	if err != nil {
		return err
	}
	if debug {
		log.Debug("Topic scored", "topic", topicID, "strategy", string(strategy), "ndcg", res.NDCG, "hits", len(res.Hits))
	}

	if opts.format.String() == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(res)
	} else {
		_, err = fmt.Fprintln(out, evaluation.FormatScore(res.Score()))
	}
	if err != nil {
		return errors.InternalError("writing result", err)
	}
	return nil
}

// loadConfig loads the config file and environment, then applies flag overrides.
func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, errors.ValidationError(err.Error())
	}

	if opts.topicsPath != "" {
		cfg.TopicsPath = opts.topicsPath
	}
	if v := opts.backend.String(); v != "" {
		cfg.Backend = v
	}
	if v := opts.logLevel.String(); v != "" {
		cfg.Log.Level = v
	}
	if opts.qdrantURL != "" {
		host, port, err := parseQdrantURL(opts.qdrantURL)
		if err != nil {
			return nil, errors.ValidationError(fmt.Sprintf("invalid Qdrant URL: %v", err))
		}
		cfg.Qdrant.Host = host
		cfg.Qdrant.Port = port
	}
	if opts.topKSet {
		cfg.Eval.TopK = opts.topK
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.ValidationError(err.Error())
	}
	return cfg, nil
}

func newBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (search.Backend, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		return postgres.New(ctx, postgresConfig(cfg), log)
	default:
		return qdrant.NewClient(qdrant.ClientConfig{
			Host:    cfg.Qdrant.Host,
			Port:    cfg.Qdrant.Port,
			APIKey:  cfg.Qdrant.APIKey,
			UseTLS:  cfg.Qdrant.UseTLS,
			Timeout: cfg.QdrantTimeout(),
		}, log)
	}
}

func postgresConfig(cfg *config.Config) postgres.Config {
	return postgres.Config{
		DSN:     cfg.Postgres.DSN,
		Schema:  cfg.Postgres.Schema,
		Timeout: cfg.PostgresTimeout(),
	}
}

// connectPolicy decides whether a run continues after Connect. A missing
// index fails under either policy; degrade only tolerates an unreachable
// backend.
func connectPolicy(cfg *config.Config, res search.ConnectResult) error {
	if res.Connected() {
		return nil
	}
	if cfg.FailFast() || errors.IsNotFound(res.Err) {
		return res.Err
	}
	return nil
}

// parseQdrantURL extracts host and gRPC port from a Qdrant URL.
// A URL without a port, or with the REST port 6333, maps to gRPC 6334.
func parseQdrantURL(rawURL string) (string, int, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", 0, err
	}

	h := u.Hostname()
	if h == "" {
		h = "localhost"
	}

	portStr := u.Port()
	if portStr == "" {
		return h, qdrant.DefaultPort, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port: %s", portStr)
	}

	// gRPC port = HTTP port + 1
	if port == 6333 {
		port++
	}
	return h, port, nil
}
