package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CopyConn is the part of *pgconn.PgConn used to export query results.
type CopyConn interface {
	CopyTo(ctx context.Context, w io.Writer, sql string) (pgconn.CommandTag, error)
}

// PoolConfig holds pgxpool settings for PostgresSource.
type PoolConfig struct {
	MaxConns        int
	MaxConnLifetime time.Duration
}

// PostgresSource reads a query result as CSV text through
// COPY (query) TO STDOUT. Sessions default to read-only transactions and
// each COPY runs inside an explicit READ ONLY transaction, so a query such
// as INSERT ... RETURNING fails instead of writing.
type PostgresSource struct {
	query    string
	maxBytes int64

	acquire func(ctx context.Context) (CopyConn, func(), error)
	close   func()
}

// NewPostgresSource connects a pool to databaseURL and verifies it.
func NewPostgresSource(ctx context.Context, databaseURL, query string, maxBytes int64, pc PoolConfig) (*PostgresSource, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("postgres source: query is required")
	}

	poolConfig, err := readOnlyPoolConfig(databaseURL, pc)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres source: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres source: ping: %w", err)
	}

	src := newPostgresSource(query, maxBytes, func(ctx context.Context) (CopyConn, func(), error) {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return nil, nil, err
		}
		tx, err := conn.BeginTx(ctx, readOnlyTx)
		if err != nil {
			conn.Release()
			return nil, nil, err
		}
		release := func() {
			// Nothing to commit.
			_ = tx.Rollback(context.WithoutCancel(ctx))
			conn.Release()
		}
		return tx.Conn().PgConn(), release, nil
	})
	src.close = pool.Close
	return src, nil
}

var readOnlyTx = pgx.TxOptions{AccessMode: pgx.ReadOnly}

// readOnlyPoolConfig parses databaseURL, applies pc and makes every session
// default to read-only transactions.
func readOnlyPoolConfig(databaseURL string, pc PoolConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres source: parse database URL: %w", err)
	}
	if pc.MaxConns > 0 {
		poolConfig.MaxConns = int32(pc.MaxConns)
	}
	if pc.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = pc.MaxConnLifetime
	}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["default_transaction_read_only"] = "on"
	return poolConfig, nil
}

func newPostgresSource(query string, maxBytes int64, acquire func(ctx context.Context) (CopyConn, func(), error)) *PostgresSource {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &PostgresSource{query: query, maxBytes: maxBytes, acquire: acquire}
}

// String names the source without the connection string.
func (s *PostgresSource) String() string {
	q := strings.Join(strings.Fields(s.query), " ")
	if len(q) > 60 {
		q = q[:57] + "..."
	}
	return "postgres: " + q
}

// Fetch runs the query and returns its rows as CSV with a header line.
func (s *PostgresSource) Fetch(ctx context.Context) (Payload, error) {
	conn, release, err := s.acquire(ctx)
	if err != nil {
		return Payload{}, &FetchError{Kind: KindDatabase, Source: s.String(), Err: err}
	}
	defer release()

	w := &limitWriter{max: s.maxBytes}
	if _, err := conn.CopyTo(ctx, w, CopyStatement(s.query)); err != nil {
		if errors.Is(err, ErrTooLarge) {
			return Payload{}, &FetchError{
				Kind:   KindTooLarge,
				Source: s.String(),
				Detail: fmt.Sprintf("limit %d bytes", s.maxBytes),
				Err:    ErrTooLarge,
			}
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return Payload{}, &FetchError{Kind: KindTimeout, Source: s.String(), Err: err}
		}
		return Payload{}, &FetchError{Kind: KindDatabase, Source: s.String(), Err: err}
	}

	return Payload{
		Text:        cleanText(w.buf.Bytes()),
		ContentType: "text/csv; charset=utf-8",
		Bytes:       int64(w.buf.Len()),
		FetchedAt:   time.Now(),
	}, nil
}

// Close releases the connection pool.
func (s *PostgresSource) Close() {
	if s.close != nil {
		s.close()
	}
}

// CopyStatement wraps a SELECT in a COPY that emits CSV with a header line.
func CopyStatement(query string) string {
	q := strings.TrimSpace(query)
	q = strings.TrimSpace(strings.TrimSuffix(q, ";"))
	return "COPY (" + q + ") TO STDOUT WITH (FORMAT csv, HEADER true)"
}
