// Package tokens provides the PostgreSQL-backed repository for paste bearer
// tokens. Token rows are removed by cascade when their paste is deleted.
package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ebelanger/pastecove/internal/common"
	"github.com/ebelanger/pastecove/internal/dbx"
	"github.com/ebelanger/pastecove/internal/server/models"
)

// PostgresRepository implements token storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, token *models.PasteToken) error {
	query := `INSERT INTO paste_tokens (paste_id, token) VALUES ($1, $2)`

	_, err := r.db.ExecContext(ctx, query, token.PasteID, token.Token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByPaste(ctx context.Context, pasteID int64) (*models.PasteToken, error) {
	query := `SELECT paste_id, token FROM paste_tokens WHERE paste_id = $1`

	var t models.PasteToken
	err := r.db.QueryRowContext(ctx, query, pasteID).Scan(&t.PasteID, &t.Token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &t, nil
}
