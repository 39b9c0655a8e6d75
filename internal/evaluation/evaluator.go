package evaluation

import (
	"context"

	"github.com/ricesearch/rice-eval/internal/analysis"
	"github.com/ricesearch/rice-eval/internal/ml"
	"github.com/ricesearch/rice-eval/internal/pkg/logger"
	"github.com/ricesearch/rice-eval/internal/query"
	"github.com/ricesearch/rice-eval/internal/search"
	"github.com/ricesearch/rice-eval/internal/topics"
)

// Searcher runs retrieval requests. *search.Adapter implements it.
type Searcher interface {
	Search(ctx context.Context, req search.Request) ([]search.Hit, error)
}

// Options tune the evaluation.
type Options struct {
	// Cutoff is the NDCG rank cutoff.
	Cutoff int

	// TopK is the number of hits requested per query.
	TopK int

	// ScoreOffset is added to cosine similarity by vector strategies.
	ScoreOffset float64

	// CustomRegconfig names the Postgres configuration of the custom analyzer.
	CustomRegconfig string

	// RelevantThreshold is the minimum label counted as relevant by the
	// binary diagnostics.
	RelevantThreshold int
}

// DefaultOptions returns the standard NDCG@20 settings.
func DefaultOptions() Options {
	return Options{
		Cutoff:            20,
		TopK:              20,
		ScoreOffset:       search.DefaultScoreOffset,
		CustomRegconfig:   "rice_eval_custom",
		RelevantThreshold: 1,
	}
}

// Evaluator orchestrates search evaluation.
type Evaluator struct {
	topics     *topics.Set
	formulator *query.Formulator
	searcher   Searcher
	opts       Options
	log        *logger.Logger
}

// NewEvaluator creates a new evaluator.
func NewEvaluator(set *topics.Set, formulator *query.Formulator, searcher Searcher, opts Options, log *logger.Logger) *Evaluator {
	def := DefaultOptions()
	if opts.Cutoff <= 0 {
		opts.Cutoff = def.Cutoff
	}
	if opts.TopK <= 0 {
		opts.TopK = def.TopK
	}
	if opts.ScoreOffset == 0 {
		opts.ScoreOffset = def.ScoreOffset
	}
	if opts.CustomRegconfig == "" {
		opts.CustomRegconfig = def.CustomRegconfig
	}
	if opts.RelevantThreshold <= 0 {
		opts.RelevantThreshold = def.RelevantThreshold
	}

	return &Evaluator{
		topics:     set,
		formulator: formulator,
		searcher:   searcher,
		opts:       opts,
		log:        log,
	}
}

// Evaluate returns NDCG at the cutoff, rounded to 5 decimals, for one
// topic, query type and strategy against index.
func (e *Evaluator) Evaluate(ctx context.Context, index, topicID string, qt topics.QueryType, strategy Strategy) (float64, error) {
	res, err := e.EvaluateDetail(ctx, index, topicID, qt, strategy)
	if err != nil {
		return 0, err
	}
	return res.Score(), nil
}

// EvaluateDetail runs one evaluation and returns the hits, labels and
// unrounded metrics.
func (e *Evaluator) EvaluateDetail(ctx context.Context, index, topicID string, qt topics.QueryType, strategy Strategy) (*Result, error) {
	log := e.log.WithTopic(topicID).WithStrategy(string(strategy), string(qt))

	if _, err := ParseStrategy(string(strategy)); err != nil {
		return nil, err
	}

	topic, err := e.topics.Get(topicID)
	if err != nil {
		return nil, err
	}

	req, err := e.buildRequest(ctx, index, topic, qt, strategy)
	if err != nil {
		return nil, err
	}

	hits, err := e.searcher.Search(ctx, req)
	if err != nil {
		log.WithError(err).Debug("Retrieval failed")
		return nil, err
	}

	labels := LabelHits(hits, topic.ID)
	th := e.opts.RelevantThreshold

	res := &Result{
		Index:     index,
		TopicID:   topic.ID,
		QueryType: qt,
		Strategy:  strategy,
		Query:     req.Text,
		Hits:      hits,
		Labels:    labels,
		NDCG:      NDCG(labels, e.opts.Cutoff),
		Precision: Precision(labels, e.opts.Cutoff, th),
		Recall:    Recall(labels, e.opts.Cutoff, th),
		MRR:       MRR(labels, th),
		AP:        AveragePrecision(labels, th),
	}

	log.Debug("Evaluated query",
		"query", req.Text,
		"hits", len(hits),
		"labels", labels,
		"ndcg", res.NDCG,
		"mrr", res.MRR,
		"ap", res.AP,
	)

	return res, nil
}

// buildRequest resolves the strategy into a retrieval request.
func (e *Evaluator) buildRequest(ctx context.Context, index string, topic topics.Topic, qt topics.QueryType, strategy Strategy) (search.Request, error) {
	req := search.Request{
		Mode:     search.ModeLexical,
		Index:    index,
		Analyzer: analysis.Standard(),
		TopK:     e.opts.TopK,
	}

	service := strategy.VectorService()
	if service == "" {
		text, err := e.formulator.Formulate(topic, qt)
		if err != nil {
			return search.Request{}, err
		}
		req.Text = text
		if strategy.Custom() {
			req.Analyzer = analysis.Custom(e.opts.CustomRegconfig)
		}
		return req, nil
	}

	field, err := ml.VectorField(service)
	if err != nil {
		return search.Request{}, err
	}

	text, vec, err := e.formulator.FormulateVector(ctx, topic, qt, service)
	if err != nil {
		return search.Request{}, err
	}

	req.Mode = search.ModeVector
	req.Text = text
	req.VectorField = field
	req.Vector = vec
	req.ScoreOffset = e.opts.ScoreOffset
	return req, nil
}
