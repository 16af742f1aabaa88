package export

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sjsage522/catalogworker/internal/catalog"
	"sjsage522/catalogworker/pkg/errors"
)

// PostgresSink mirrors the catalog into the memory_catalog table
type PostgresSink struct {
	DB *pgxpool.Pool
}

// NewPostgresSink connects to the database at url
func NewPostgresSink(ctx context.Context, url string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, errors.NewStorage("postgres", "failed to connect", err)
	}
	return &PostgresSink{DB: pool}, nil
}

// Name implements Sink
func (s *PostgresSink) Name() string {
	return "postgres"
}

// Close releases the connection pool
func (s *PostgresSink) Close() {
	s.DB.Close()
}

// pruneSQL removes rows whose id left the catalog since an earlier run
const pruneSQL = "DELETE FROM " + tableName + " WHERE id <> ALL($1)"

// Write implements Sink. The upserts and the prune run in one transaction so
// the table always mirrors exactly one catalog document.
func (s *PostgresSink) Write(ctx context.Context, doc *catalog.Document) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return errors.NewStorage(s.Name(), "failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, createTableSQL(true)); err != nil {
		return errors.NewStorage(s.Name(), "failed to create table", err)
	}

	query := upsertSQL()
	ids := make([]string, 0, len(doc.Data))
	batch := &pgx.Batch{}
	for _, r := range doc.Data {
		batch.Queue(query, rowValues(r)...)
		ids = append(ids, r.ID)
	}
	batch.Queue(pruneSQL, ids)

	results := tx.SendBatch(ctx, batch)
	for _, r := range doc.Data {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return errors.NewStorage(s.Name(), "failed to upsert "+r.ID, err)
		}
	}
	if _, err := results.Exec(); err != nil {
		results.Close()
		return errors.NewStorage(s.Name(), "failed to prune stale rows", err)
	}
	if err := results.Close(); err != nil {
		return errors.NewStorage(s.Name(), "failed to finish batch", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.NewStorage(s.Name(), "failed to commit", err)
	}
	return nil
}

// upsertSQL inserts a row or updates every column of an existing id
func upsertSQL() string {
	names := columnNames()
	placeholders := make([]string, len(names))
	updates := make([]string, 0, len(names)-1)
	for i, name := range names {
		placeholders[i] = "$" + strconv.Itoa(i+1)
		if i > 0 {
			updates = append(updates, name+" = EXCLUDED."+name)
		}
	}
	return "INSERT INTO " + tableName + " (" + strings.Join(names, ", ") + ") VALUES (" +
		strings.Join(placeholders, ", ") + ") ON CONFLICT (id) DO UPDATE SET " + strings.Join(updates, ", ")
}
