package services

import (
	"context"
	"database/sql"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/dmitrijs2005/bowwow/internal/geo"
	"github.com/dmitrijs2005/bowwow/internal/server/models"
	"github.com/dmitrijs2005/bowwow/internal/server/repositories/repomanager"
)

// UserDirectory is a read-through cache over the users table. Entries live
// for ttl so settings changes are picked up without a restart.
type UserDirectory struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	// Do not embed; keeps the cache API out of the directory surface.
	c *cache.Cache
}

func NewUserDirectory(db *sql.DB, m repomanager.RepositoryManager, ttl time.Duration) *UserDirectory {
	return &UserDirectory{
		db:          db,
		repomanager: m,
		c:           cache.New(ttl, 2*ttl),
	}
}

// Lookup returns a copy of the user, or common.ErrorNotFound.
func (d *UserDirectory) Lookup(ctx context.Context, userID string) (*models.User, error) {
	if obj, ok := d.c.Get(userID); ok {
		u := obj.(models.User)
		return &u, nil
	}
	return d.load(ctx, userID)
}

// IsOffline always reads the store and refreshes the cached entry, so a
// user who goes offline cannot send on a stale flag.
func (d *UserDirectory) IsOffline(ctx context.Context, userID string) (bool, error) {
	u, err := d.load(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.IsOffline, nil
}

// DistanceUnit returns the user's preference, miles when unset.
func (d *UserDirectory) DistanceUnit(ctx context.Context, userID string) (geo.Unit, error) {
	u, err := d.Lookup(ctx, userID)
	if err != nil {
		return "", err
	}
	return unitOf(u), nil
}

func (d *UserDirectory) load(ctx context.Context, userID string) (*models.User, error) {
	u, err := d.repomanager.Users(d.db).Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	d.c.Set(userID, *u, cache.DefaultExpiration)

	cp := *u
	return &cp, nil
}

func unitOf(u *models.User) geo.Unit {
	if u.DistanceUnit == geo.Kilometer {
		return geo.Kilometer
	}
	return geo.Mile
}
