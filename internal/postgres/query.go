package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/ricesearch/rice-eval/internal/pkg/errors"
	"github.com/ricesearch/rice-eval/internal/search"
)

// anyTermQuery parses the query text with the analyzer's configuration and
// turns the conjunction plainto_tsquery builds into a disjunction, so a row
// matches when it contains any query term.
const anyTermQuery = `replace(plainto_tsquery(@regconfig::regconfig, @q)::text, ' & ', ' | ')::tsquery`

// buildLexicalSQL ranks matching rows with ts_rank_cd. The query text is
// parsed with the analyzer's text search configuration; the stored tsv was
// built with 'simple'.
func buildLexicalSQL(table, q string, req search.Request) (string, pgx.NamedArgs, error) {
	sql := fmt.Sprintf(`
		WITH q AS (
			SELECT %s AS tsq
		)
		SELECT
			d.doc_id,
			coalesce(d.title, ''),
			coalesce(d.annotation, ''),
			ts_rank_cd(d.tsv, q.tsq)::float8 AS score
		FROM q, %s d
		WHERE q.tsq IS NOT NULL
		  AND d.tsv @@ q.tsq
		ORDER BY score DESC, d.doc_id ASC
		LIMIT @limit
	`, anyTermQuery, table)

	return sql, pgx.NamedArgs{
		"regconfig": regconfig(req),
		"q":         q,
		"limit":     req.TopK,
	}, nil
}

// buildVectorSQL keeps rows whose tsv contains any query term and scores
// them by cosine similarity plus the request offset.
func buildVectorSQL(table, q string, req search.Request) (string, pgx.NamedArgs, error) {
	field, err := quoteIdent(req.VectorField)
	if err != nil {
		return "", nil, errors.ValidationError(fmt.Sprintf("invalid vector field: %v", err))
	}

	sql := fmt.Sprintf(`
		WITH q AS (
			SELECT %[3]s AS tsq
		)
		SELECT
			d.doc_id,
			coalesce(d.title, ''),
			coalesce(d.annotation, ''),
			(1 - (d.%[2]s <=> @vec::vector) + @offset)::float8 AS score
		FROM q, %[1]s d
		WHERE q.tsq IS NOT NULL
		  AND d.tsv @@ q.tsq
		  AND d.%[2]s IS NOT NULL
		ORDER BY score DESC, d.doc_id ASC
		LIMIT @limit
	`, table, field, anyTermQuery)

	return sql, pgx.NamedArgs{
		"regconfig": regconfig(req),
		"q":         q,
		"vec":       pgvector.NewVector(req.Vector),
		"offset":    req.ScoreOffset,
		"limit":     req.TopK,
	}, nil
}

func regconfig(req search.Request) string {
	if req.Analyzer.Regconfig == "" {
		return "simple"
	}
	return req.Analyzer.Regconfig
}
