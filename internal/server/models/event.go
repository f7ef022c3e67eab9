package models

import (
	"time"

	"github.com/dmitrijs2005/bowwow/internal/geo"
)

// LocationUpdate is emitted whenever a user's live location is replaced.
type LocationUpdate struct {
	UserID    string
	Location  geo.Point
	Timestamp time.Time
}

// SignalNotification is handed to the push notifier for each new receipt.
// Distance is expressed in Unit.
type SignalNotification struct {
	SignalID   string
	SenderID   string
	ReceiverID string
	Distance   float64
	Unit       geo.Unit
	Direction  string
}
