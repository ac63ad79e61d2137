// Package pastes provides the PostgreSQL-backed repository for paste
// metadata rows.
package pastes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ebelanger/pastecove/internal/common"
	"github.com/ebelanger/pastecove/internal/dbx"
	"github.com/ebelanger/pastecove/internal/server/models"
)

// PostgresRepository implements paste storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, paste *models.Paste) error {
	query := `
		INSERT INTO pastes (id, name, creation, edited, expiry, views, max_views)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		paste.ID, paste.Name, paste.Creation, paste.Edited, paste.Expiry, paste.Views, paste.MaxViews)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Paste, error) {
	query := `
		SELECT id, name, creation, edited, expiry, views, max_views
		FROM pastes WHERE id = $1
	`
	var p models.Paste
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Creation, &p.Edited, &p.Expiry, &p.Views, &p.MaxViews)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &p, nil
}

// AddView relies on the database to serialize the increment; concurrent
// fetches never lose an update.
func (r *PostgresRepository) AddView(ctx context.Context, id int64) (int64, error) {
	query := `UPDATE pastes SET views = views + 1 WHERE id = $1 RETURNING views`

	var views int64
	err := r.db.QueryRowContext(ctx, query, id).Scan(&views)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, common.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return views, nil
}

// UpdateEdited applies only while the row's edited column still holds prev,
// making the metadata commit of a patch single-writer per paste.
func (r *PostgresRepository) UpdateEdited(ctx context.Context, id int64, prev *time.Time, next time.Time) error {
	query := `
		UPDATE pastes SET edited = $2
		WHERE id = $1 AND edited IS NOT DISTINCT FROM $3
	`
	res, err := r.db.ExecContext(ctx, query, id, next, prev)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrEditConflict
	}
	return nil
}

func (r *PostgresRepository) UpdateName(ctx context.Context, id int64, name *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE pastes SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SelectExpired(ctx context.Context, now time.Time) ([]*models.Paste, error) {
	query := `
		SELECT id, name, creation, edited, expiry, views, max_views
		FROM pastes
		WHERE expiry <= $1 OR (max_views IS NOT NULL AND views >= max_views)
	`
	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to select expired pastes: %w", err)
	}
	defer rows.Close()

	var result []*models.Paste
	for rows.Next() {
		var p models.Paste
		if err := rows.Scan(&p.ID, &p.Name, &p.Creation, &p.Edited, &p.Expiry, &p.Views, &p.MaxViews); err != nil {
			return nil, err
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pastes WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}
