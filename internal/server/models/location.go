package models

import "time"

// LocationRecord is the single live location of a user. Precise coordinates
// are stored only as ciphertext; the grid columns hold coordinates snapped
// to a coarse grid and are used to prefilter proximity queries.
type LocationRecord struct {
	ID                 string    `db:"id"`
	UserID             string    `db:"user_id"`
	EncryptedLatitude  string    `db:"encrypted_latitude"`
	EncryptedLongitude string    `db:"encrypted_longitude"`
	GridLatitude       float64   `db:"grid_latitude"`
	GridLongitude      float64   `db:"grid_longitude"`
	CreatedAt          time.Time `db:"created_at"`
	ExpiresAt          time.Time `db:"expires_at"`
}

// Expired reports whether the record is logically deleted at now.
func (r *LocationRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

// NearbyUser is one row of a proximity query result.
type NearbyUser struct {
	UserID    string    `json:"user_id"`
	Distance  float64   `json:"distance"`
	Direction string    `json:"direction"`
	LastSeen  time.Time `json:"last_seen"`
}
