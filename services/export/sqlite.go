package export

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"

	"sjsage522/catalogworker/internal/catalog"
	"sjsage522/catalogworker/pkg/errors"
)

// SQLiteSink replaces the memory_catalog table of a SQLite database with the catalog
type SQLiteSink struct {
	Path string
}

// NewSQLiteSink creates a new SQLite sink
func NewSQLiteSink(path string) *SQLiteSink {
	return &SQLiteSink{Path: path}
}

// Name implements Sink
func (s *SQLiteSink) Name() string {
	return "sqlite"
}

// Write implements Sink
func (s *SQLiteSink) Write(ctx context.Context, doc *catalog.Document) error {
	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return errors.NewStorage(s.Name(), "failed to open "+s.Path, err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorage(s.Name(), "failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, createTableSQL(false)); err != nil {
		return errors.NewStorage(s.Name(), "failed to create table", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+tableName); err != nil {
		return errors.NewStorage(s.Name(), "failed to clear table", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",")
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+tableName+" ("+strings.Join(columnNames(), ",")+") VALUES ("+placeholders+")")
	if err != nil {
		return errors.NewStorage(s.Name(), "failed to prepare insert", err)
	}
	defer stmt.Close()

	for _, r := range doc.Data {
		if _, err := stmt.ExecContext(ctx, rowValues(r)...); err != nil {
			return errors.NewStorage(s.Name(), "failed to insert "+r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStorage(s.Name(), "failed to commit", err)
	}
	return nil
}
