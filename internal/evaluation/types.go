package evaluation

import (
	"github.com/ricesearch/rice-eval/internal/search"
	"github.com/ricesearch/rice-eval/internal/topics"
)

// Result contains the outcome of one (topic, query type, strategy) evaluation.
type Result struct {
	Index     string           `json:"index"`
	TopicID   string           `json:"topic_id"`
	QueryType topics.QueryType `json:"query_type"`
	Strategy  Strategy         `json:"strategy"`
	Query     string           `json:"query"`

	Hits   []search.Hit `json:"hits"`
	Labels []int        `json:"labels"`

	// NDCG is the unrounded NDCG at the configured cutoff.
	NDCG float64 `json:"ndcg"`

	// Diagnostics over the same labels; never shown in the table.
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	MRR       float64 `json:"mrr"`
	AP        float64 `json:"ap"`
}

// Score returns the NDCG rounded to 5 decimals.
func (r *Result) Score() float64 {
	return Round5(r.NDCG)
}
