package repomanager

import (
	"context"
	"database/sql"

	"github.com/ebelanger/pastecove/internal/dbx"
	"github.com/ebelanger/pastecove/internal/server/repositories/documents"
	"github.com/ebelanger/pastecove/internal/server/repositories/pastes"
	"github.com/ebelanger/pastecove/internal/server/repositories/tokens"
)

// RepositoryManager vends repository implementations bound to a DBTX, so the
// same repository code runs against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Pastes(db dbx.DBTX) pastes.Repository
	Documents(db dbx.DBTX) documents.Repository
	Tokens(db dbx.DBTX) tokens.Repository
}
