// Package documents provides the PostgreSQL-backed repository for document
// metadata rows. Document contents live in the object store, keyed by ID.
package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ebelanger/pastecove/internal/common"
	"github.com/ebelanger/pastecove/internal/dbx"
	"github.com/ebelanger/pastecove/internal/server/models"
)

// PostgresRepository implements document storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (id, paste_id, type, name, size)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, doc.ID, doc.PasteID, doc.Type, doc.Name, doc.Size)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Update rewrites the mutable columns of a document row. The ID and owning
// paste never change.
func (r *PostgresRepository) Update(ctx context.Context, doc *models.Document) error {
	query := `
		UPDATE documents SET type = $2, name = $3, size = $4
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, doc.ID, doc.Type, doc.Name, doc.Size)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, pasteID, id int64) (*models.Document, error) {
	query := `
		SELECT id, paste_id, type, name, size
		FROM documents WHERE paste_id = $1 AND id = $2
	`
	var d models.Document
	err := r.db.QueryRowContext(ctx, query, pasteID, id).Scan(&d.ID, &d.PasteID, &d.Type, &d.Name, &d.Size)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &d, nil
}

func (r *PostgresRepository) ListByPaste(ctx context.Context, pasteID int64) ([]*models.Document, error) {
	query := `
		SELECT id, paste_id, type, name, size
		FROM documents WHERE paste_id = $1 ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, pasteID)
	if err != nil {
		return nil, fmt.Errorf("failed to select documents: %w", err)
	}
	defer rows.Close()

	var result []*models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.PasteID, &d.Type, &d.Name, &d.Size); err != nil {
			return nil, err
		}
		result = append(result, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
