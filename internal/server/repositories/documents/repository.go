package documents

import (
	"context"

	"github.com/ebelanger/pastecove/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, doc *models.Document) error
	Update(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, pasteID, id int64) (*models.Document, error)
	ListByPaste(ctx context.Context, pasteID int64) ([]*models.Document, error)
	Delete(ctx context.Context, id int64) error
}
