// Package postgres implements the retrieval backend on Postgres full-text
// search and pgvector.
//
// Each index is a table with columns doc_id, title, annotation, content,
// tsv (to_tsvector('simple', content)), ft_vector and sbert_vector.
package postgres

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ricesearch/rice-eval/internal/pkg/errors"
	"github.com/ricesearch/rice-eval/internal/pkg/logger"
	"github.com/ricesearch/rice-eval/internal/search"
)

// BackendName identifies this backend in logs and errors.
const BackendName = "postgres"

// Config holds Postgres backend settings.
type Config struct {
	DSN     string
	Schema  string
	Timeout time.Duration
}

// Backend is a read-only retrieval backend over Postgres tables.
type Backend struct {
	pool    *pgxpool.Pool
	schema  string
	timeout time.Duration
	log     *logger.Logger
}

// New creates a connection pool. Connections are opened on first use.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*Backend, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.ValidationError("postgres dsn is required")
	}
	if strings.TrimSpace(cfg.Schema) == "" {
		cfg.Schema = "public"
	}
	if _, err := quoteIdent(cfg.Schema); err != nil {
		return nil, errors.ValidationError(fmt.Sprintf("invalid schema: %v", err))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, errors.BackendUnavailableError(BackendName, fmt.Errorf("failed to create pool: %w", err))
	}

	return &Backend{
		pool:    pool,
		schema:  cfg.Schema,
		timeout: cfg.Timeout,
		log:     log,
	}, nil
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return BackendName
}

// Ping verifies the database is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	if b.pool == nil {
		return errors.BackendUnavailableError(BackendName, fmt.Errorf("pool is closed"))
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if err := b.pool.Ping(ctx); err != nil {
		return errors.BackendUnavailableError(BackendName, err)
	}
	return nil
}

// IndexExists reports whether the index table exists in the schema.
func (b *Backend) IndexExists(ctx context.Context, index string) (bool, error) {
	if b.pool == nil {
		return false, errors.BackendUnavailableError(BackendName, fmt.Errorf("pool is closed"))
	}

	table, err := b.table(index)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	var exists bool
	if err := b.pool.QueryRow(ctx, `SELECT to_regclass(@table) IS NOT NULL`,
		pgx.NamedArgs{"table": table}).Scan(&exists); err != nil {
		return false, classify("index exists", err)
	}
	return exists, nil
}

// Search runs a lexical or vector request against the table named by req.Index.
func (b *Backend) Search(ctx context.Context, req search.Request) ([]search.Hit, error) {
	if b.pool == nil {
		return nil, errors.BackendUnavailableError(BackendName, fmt.Errorf("pool is closed"))
	}

	q := strings.Join(strings.Fields(req.Text), " ")
	if q == "" {
		return []search.Hit{}, nil
	}

	table, err := b.table(req.Index)
	if err != nil {
		return nil, err
	}

	var sql string
	var args pgx.NamedArgs
	switch req.Mode {
	case search.ModeVector:
		sql, args, err = buildVectorSQL(table, q, req)
	default:
		sql, args, err = buildLexicalSQL(table, q, req)
	}
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	rows, err := b.pool.Query(ctx, sql, args)
	if err != nil {
		return nil, classify(req.Mode.String()+" search", err)
	}
	defer rows.Close()

	hits := []search.Hit{}
	for rows.Next() {
		var h search.Hit
		if err := rows.Scan(&h.ID, &h.Title, &h.Annotation, &h.Score); err != nil {
			return nil, classify("scan hit", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(req.Mode.String()+" search", err)
	}

	return hits, nil
}

// Close closes the pool.
func (b *Backend) Close() error {
	if b.pool != nil {
		b.pool.Close()
		b.pool = nil
	}
	return nil
}

// table returns the quoted schema-qualified table name for an index.
func (b *Backend) table(index string) (string, error) {
	qs, err := quoteIdent(b.schema)
	if err != nil {
		return "", errors.ValidationError(fmt.Sprintf("invalid schema: %v", err))
	}
	qt, err := quoteIdent(index)
	if err != nil {
		return "", errors.ValidationError(fmt.Sprintf("invalid index name: %v", err))
	}
	return qs + "." + qt, nil
}

// quoteIdent quotes a plain identifier, rejecting anything that is not
// [A-Za-z0-9_].
func quoteIdent(ident string) (string, error) {
	ident = strings.TrimSpace(ident)
	if ident == "" {
		return "", fmt.Errorf("empty identifier")
	}
	for _, r := range ident {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			continue
		}
		return "", fmt.Errorf("invalid identifier %q", ident)
	}
	return `"` + ident + `"`, nil
}

// classify maps driver failures onto the application error codes.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42P01", "3F000":
			return errors.Wrap(errors.CodeNotFound, op+": relation not found", err)
		case "42704":
			return errors.Wrap(errors.CodeValidation, op+": unknown text search configuration", err)
		}
		return errors.BackendError(op+" failed", err)
	}

	var connErr *pgconn.ConnectError
	if stderrors.As(err, &connErr) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.BackendUnavailableError(BackendName, fmt.Errorf("%s: %w", op, err))
	}

	return errors.BackendError(op+" failed", err)
}
