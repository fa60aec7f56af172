// Package store is the SQLite-backed document store behind the backend
// gateway: one collection per category, schemaless JSON documents keyed by
// an opaque id.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ziadkadry99/folio/internal/apperr"
	"github.com/ziadkadry99/folio/internal/content"
	"github.com/ziadkadry99/folio/internal/db"
)

// Store provides CRUD operations over category collections.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// orderClause is the query order for a category: talks follow their manual
// order field, everything else is newest date first.
func orderClause(cat content.Category) string {
	if cat == content.Talks {
		return `ORDER BY json_extract(fields, '$.order') IS NULL, json_extract(fields, '$.order') ASC, seq ASC`
	}
	return `ORDER BY json_extract(fields, '$.date') IS NULL, json_extract(fields, '$.date') DESC, seq ASC`
}

// ListAll returns every record of a category in query order.
func (s *Store) ListAll(ctx context.Context, cat content.Category) ([]content.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, fields FROM records WHERE category = ? `+orderClause(cat), string(cat))
	if err != nil {
		return nil, apperr.E(apperr.BackendUnavailable, "store.list", fmt.Errorf("querying %s: %w", cat, err))
	}
	defer rows.Close()

	var records []content.Record
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, apperr.E(apperr.BackendUnavailable, "store.list", fmt.Errorf("scanning record: %w", err))
		}
		fields, err := content.DecodeFields([]byte(raw))
		if err != nil {
			return nil, apperr.E(apperr.BackendUnavailable, "store.list", fmt.Errorf("record %s: %w", id, err))
		}
		records = append(records, content.Record{ID: id, Category: cat, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.E(apperr.BackendUnavailable, "store.list", err)
	}
	return records, nil
}

// Get returns one record, or a NotFound error.
func (s *Store) Get(ctx context.Context, cat content.Category, id string) (*content.Record, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT fields FROM records WHERE category = ? AND id = ?`, string(cat), id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Errorf(apperr.NotFound, "store.get", "%s/%s not found", cat, id)
	}
	if err != nil {
		return nil, apperr.E(apperr.BackendUnavailable, "store.get", fmt.Errorf("getting %s/%s: %w", cat, id, err))
	}
	fields, err := content.DecodeFields([]byte(raw))
	if err != nil {
		return nil, apperr.E(apperr.BackendUnavailable, "store.get", err)
	}
	return &content.Record{ID: id, Category: cat, Fields: fields}, nil
}

// Create stores a new document and returns its generated id.
func (s *Store) Create(ctx context.Context, cat content.Category, fields content.Fields) (string, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return "", apperr.E(apperr.ValidationFailure, "store.create", fmt.Errorf("encoding fields: %w", err))
	}
	id := uuid.New().String()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO records (id, category, fields) VALUES (?, ?, ?)`, id, string(cat), string(data),
	); err != nil {
		return "", apperr.E(apperr.BackendUnavailable, "store.create", fmt.Errorf("inserting record: %w", err))
	}
	return id, nil
}

// Update merges fields into an existing document. Keys not present in
// fields are left untouched; a nil value removes the key.
func (s *Store) Update(ctx context.Context, cat content.Category, id string, fields content.Fields) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.E(apperr.BackendUnavailable, "store.update", fmt.Errorf("starting transaction: %w", err))
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT fields FROM records WHERE category = ? AND id = ?`, string(cat), id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Errorf(apperr.NotFound, "store.update", "%s/%s not found", cat, id)
	}
	if err != nil {
		return apperr.E(apperr.BackendUnavailable, "store.update", fmt.Errorf("reading %s/%s: %w", cat, id, err))
	}

	current, err := content.DecodeFields([]byte(raw))
	if err != nil {
		return apperr.E(apperr.BackendUnavailable, "store.update", err)
	}
	for k, v := range fields {
		if v == nil {
			delete(current, k)
			continue
		}
		current[k] = v
	}
	data, err := json.Marshal(current)
	if err != nil {
		return apperr.E(apperr.ValidationFailure, "store.update", fmt.Errorf("encoding fields: %w", err))
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE records SET fields = ? WHERE category = ? AND id = ?`, string(data), string(cat), id,
	); err != nil {
		return apperr.E(apperr.BackendUnavailable, "store.update", fmt.Errorf("writing %s/%s: %w", cat, id, err))
	}
	if err := tx.Commit(); err != nil {
		return apperr.E(apperr.BackendUnavailable, "store.update", fmt.Errorf("committing: %w", err))
	}
	return nil
}

// Delete removes a document. Deleting a missing id is not an error.
func (s *Store) Delete(ctx context.Context, cat content.Category, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE category = ? AND id = ?`, string(cat), id,
	); err != nil {
		return apperr.E(apperr.BackendUnavailable, "store.delete", fmt.Errorf("deleting %s/%s: %w", cat, id, err))
	}
	return nil
}
