package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/bowwow/internal/dbx"
	"github.com/dmitrijs2005/bowwow/internal/server/repositories/locations"
	"github.com/dmitrijs2005/bowwow/internal/server/repositories/receipts"
	"github.com/dmitrijs2005/bowwow/internal/server/repositories/signals"
	"github.com/dmitrijs2005/bowwow/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// path works on a pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Locations(db dbx.DBTX) locations.Repository
	Signals(db dbx.DBTX) signals.Repository
	Receipts(db dbx.DBTX) receipts.Repository
}
