package models

import (
	"time"

	"github.com/dmitrijs2005/bowwow/internal/geo"
)

// SignalStatus is the lifecycle state of a signal: pending -> active -> expired.
type SignalStatus string

const (
	SignalPending SignalStatus = "pending"
	SignalActive  SignalStatus = "active"
	SignalExpired SignalStatus = "expired"
)

// Signal is a proximity ping sent by a user.
type Signal struct {
	ID          string       `db:"id" json:"id"`
	SenderID    string       `db:"sender_id" json:"sender_id"`
	Latitude    float64      `db:"origin_latitude" json:"latitude"`
	Longitude   float64      `db:"origin_longitude" json:"longitude"`
	MaxDistance float64      `db:"max_distance" json:"max_distance"`
	Unit        geo.Unit     `db:"distance_unit" json:"unit"`
	Status      SignalStatus `db:"status" json:"status"`
	SentAt      time.Time    `db:"sent_at" json:"sent_at"`
	ExpiresAt   time.Time    `db:"expires_at" json:"expires_at"`
}

// Origin returns the signal origin as a geo.Point.
func (s *Signal) Origin() geo.Point {
	return geo.Point{Latitude: s.Latitude, Longitude: s.Longitude}
}

// SignalReceipt records that a receiver has been reached by a signal.
type SignalReceipt struct {
	ID          string     `db:"id" json:"id"`
	SignalID    string     `db:"signal_id" json:"signal_id"`
	ReceiverID  string     `db:"receiver_id" json:"receiver_id"`
	Distance    float64    `db:"distance" json:"distance"`
	Direction   string     `db:"direction" json:"direction"`
	Responded   bool       `db:"responded" json:"responded"`
	ReceivedAt  time.Time  `db:"received_at" json:"received_at"`
	RespondedAt *time.Time `db:"responded_at" json:"responded_at,omitempty"`
}

// ReceivedSignal is a receipt joined with the signal it belongs to.
type ReceivedSignal struct {
	SignalID   string
	SenderID   string
	Distance   float64
	Direction  string
	Unit       geo.Unit
	Responded  bool
	ReceivedAt time.Time
}
