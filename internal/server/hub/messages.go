package hub

import "time"

// Inbound message types.
const (
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypePing        = "ping"
)

// Outbound message types.
const (
	TypeSubscriptionConfirmed = "subscription_confirmed"
	TypeLocationUpdate        = "location_update"
	TypePong                  = "pong"
	TypeError                 = "error"
)

// Error texts sent back to clients.
const (
	MsgInvalidFormat       = "Invalid message format"
	MsgMissingSubscription = "Missing required subscription parameters"
	MsgInvalidLocation     = "Invalid subscription location"
	MsgSubscribed          = "Subscribed to location updates"
)

// Inbound is a client message. Subscription fields are pointers so that
// absent and zero values can be told apart.
type Inbound struct {
	Type      string   `json:"type"`
	UserID    *string  `json:"userID,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Radius    *float64 `json:"radius,omitempty"`
}

// Outbound is a server message.
type Outbound struct {
	Type      string    `json:"type"`
	UserID    string    `json:"userID,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	Distance  *float64  `json:"distance,omitempty"`
	Direction string    `json:"direction,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func reply(typ, msg string, now time.Time) Outbound {
	return Outbound{Type: typ, Message: msg, Timestamp: now}
}
