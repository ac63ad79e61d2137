package pastes

import (
	"context"
	"time"

	"github.com/ebelanger/pastecove/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, paste *models.Paste) error
	Get(ctx context.Context, id int64) (*models.Paste, error)

	// AddView atomically increments the view counter and returns the new
	// value. Returns common.ErrNotFound when the paste row is gone.
	AddView(ctx context.Context, id int64) (int64, error)

	// UpdateEdited is the optimistic check-and-set guarding concurrent
	// patches: the update only applies while the row's edited column still
	// holds prev. Returns common.ErrEditConflict otherwise.
	UpdateEdited(ctx context.Context, id int64, prev *time.Time, next time.Time) error

	// UpdateName sets the display name; nil clears it.
	UpdateName(ctx context.Context, id int64, name *string) error

	// SelectExpired returns pastes whose expiry has passed at now or whose
	// view counter has reached their cap.
	SelectExpired(ctx context.Context, now time.Time) ([]*models.Paste, error)

	// Delete removes the paste row; token and document rows follow by
	// cascade. Reports whether a row was actually deleted.
	Delete(ctx context.Context, id int64) (bool, error)
}
