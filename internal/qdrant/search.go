package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/ricesearch/rice-eval/internal/search"
)

// Search runs a lexical or vector request against the collection named by req.Index.
func (c *Client) Search(ctx context.Context, req search.Request) ([]search.Hit, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, errClosed()
	}

	queryPoints, ok := buildQuery(req)
	if !ok {
		// No indexable terms: nothing can match.
		return []search.Hit{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	points, err := c.client.Query(ctx, queryPoints)
	if err != nil {
		return nil, classify(req.Mode.String()+" search", err)
	}

	return scoredPointsToHits(points), nil
}

// buildQuery translates a request into a Qdrant query. It reports false
// when the query text produces no terms.
func buildQuery(req search.Request) (*qdrant.QueryPoints, bool) {
	switch req.Mode {
	case search.ModeVector:
		return buildVectorQuery(req), true
	default:
		return buildLexicalQuery(req)
	}
}

// buildLexicalQuery analyzes the query text with the request analyzer and
// scores it against the content sparse vector. The collection applies the
// IDF modifier, so the dot product of query term counts and document term
// weights ranks like BM25.
func buildLexicalQuery(req search.Request) (*qdrant.QueryPoints, bool) {
	vec := req.Analyzer.Sparse(req.Text)
	if vec.Empty() {
		return nil, false
	}

	return &qdrant.QueryPoints{
		CollectionName: req.Index,
		Query:          qdrant.NewQuerySparse(vec.Indices, vec.Values),
		Using:          qdrant.PtrOf(SparseVector),
		Limit:          qdrant.PtrOf(uint64(req.TopK)),
		WithPayload:    qdrant.NewWithPayloadInclude(resultPayload...),
	}, true
}

// buildVectorQuery keeps documents whose content contains any query term,
// ranks them by cosine similarity on the requested dense vector, and
// rescores with $score + offset.
func buildVectorQuery(req search.Request) *qdrant.QueryPoints {
	limit := qdrant.PtrOf(uint64(req.TopK))

	prefetch := &qdrant.PrefetchQuery{
		Query: qdrant.NewQueryDense(req.Vector),
		Using: qdrant.PtrOf(req.VectorField),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatchTextAny(FieldContent, req.Text),
			},
		},
		Limit: limit,
	}

	formula := &qdrant.Formula{
		Expression: qdrant.NewExpressionSum(&qdrant.SumExpression{
			Sum: []*qdrant.Expression{
				qdrant.NewExpressionVariable("$score"),
				qdrant.NewExpressionConstant(float32(req.ScoreOffset)),
			},
		}),
	}

	return &qdrant.QueryPoints{
		CollectionName: req.Index,
		Prefetch:       []*qdrant.PrefetchQuery{prefetch},
		Query:          qdrant.NewQueryFormula(formula),
		Limit:          limit,
		WithPayload:    qdrant.NewWithPayloadInclude(resultPayload...),
	}
}

// scoredPointsToHits converts Qdrant scored points to hits.
func scoredPointsToHits(points []*qdrant.ScoredPoint) []search.Hit {
	hits := make([]search.Hit, 0, len(points))

	for _, p := range points {
		hits = append(hits, scoredPointToHit(p))
	}

	return hits
}

// scoredPointToHit converts a single scored point. The document id comes
// from the doc_id payload field when present, else from the point id.
func scoredPointToHit(p *qdrant.ScoredPoint) search.Hit {
	id := getStringValue(p.Payload, FieldDocID)
	if id == "" && p.Id != nil {
		switch v := p.Id.PointIdOptions.(type) {
		case *qdrant.PointId_Uuid:
			id = v.Uuid
		case *qdrant.PointId_Num:
			id = fmt.Sprintf("%d", v.Num)
		}
	}

	return search.Hit{
		ID:         id,
		Score:      float64(p.Score),
		Annotation: getStringValue(p.Payload, FieldAnnotation),
		Title:      getStringValue(p.Payload, FieldTitle),
	}
}

func getStringValue(payload map[string]*qdrant.Value, key string) string {
	if v, ok := payload[key]; ok {
		if sv, ok := v.Kind.(*qdrant.Value_StringValue); ok {
			return sv.StringValue
		}
	}
	return ""
}
