package tokens

import (
	"context"

	"github.com/ebelanger/pastecove/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, token *models.PasteToken) error

	// GetByPaste returns the token row bound to a paste, or
	// common.ErrNotFound.
	GetByPaste(ctx context.Context, pasteID int64) (*models.PasteToken, error)
}
