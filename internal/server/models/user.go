// Package models defines server-side data models persisted in the database.
package models

import (
	"time"

	"github.com/dmitrijs2005/bowwow/internal/geo"
)

// User is owned by the registration service; this server only reads it.
type User struct {
	ID           string    `db:"id"`
	DeviceToken  string    `db:"device_token"`
	IsOffline    bool      `db:"is_offline"`
	DistanceUnit geo.Unit  `db:"distance_unit"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
