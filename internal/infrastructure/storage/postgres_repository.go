package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"tvnotifier/internal/ports"
)

// PostgresRepository reads tracked identifiers and subscribers from Postgres.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.TrackerRepository = (*PostgresRepository)(nil)

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListShowIDs returns all tracked show identifiers in insertion order.
func (r *PostgresRepository) ListShowIDs(ctx context.Context) ([]int, error) {
	return r.listIDs(ctx, "shows")
}

// ListMovieIDs returns all tracked movie identifiers in insertion order.
func (r *PostgresRepository) ListMovieIDs(ctx context.Context) ([]int, error) {
	return r.listIDs(ctx, "movies")
}

func (r *PostgresRepository) listIDs(ctx context.Context, table string) ([]int, error) {
	query, args, err := idsQuery(table).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", table, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s id: %w", table, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return ids, nil
}

// ListSubscribers returns every user email eligible to receive the digest.
func (r *PostgresRepository) ListSubscribers(ctx context.Context) ([]string, error) {
	query, args, err := subscribersQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("build subscribers query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query subscribers: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan email: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return emails, nil
}

// idsQuery orders by id so the fetch fan-out has a stable submission order.
func idsQuery(table string) sq.SelectBuilder {
	return builder.Select("id").From(table).OrderBy("id")
}

func subscribersQuery() sq.SelectBuilder {
	return builder.Select("email").From("users").Where(sq.NotEq{"email": nil}).OrderBy("email")
}
