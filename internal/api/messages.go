package api

import "time"

type SendSignalRequest struct {
	UserID    string  `json:"user_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	// MaxDistance defaults to the maximum reach when omitted.
	MaxDistance *float64 `json:"max_distance,omitempty"`
}

type SendSignalResponse struct {
	SignalID string `json:"signal_id"`
}

type RespondToSignalRequest struct {
	SignalID    string   `json:"signal_id"`
	UserID      string   `json:"user_id"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	MaxDistance *float64 `json:"max_distance,omitempty"`
}

type RespondToSignalResponse struct {
	SignalID string `json:"signal_id"`
}

type UpdateLocationRequest struct {
	UserID    string  `json:"user_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type UpdateLocationResponse struct{}

type NearbyUsersRequest struct {
	UserID      string   `json:"user_id"`
	MaxDistance *float64 `json:"max_distance,omitempty"`
}

type NearbyUser struct {
	UserID    string    `json:"user_id"`
	Distance  float64   `json:"distance"`
	Direction string    `json:"direction"`
	LastSeen  time.Time `json:"last_seen"`
}

type NearbyUsersResponse struct {
	Users []NearbyUser `json:"users"`
}

type ReceivedSignalsRequest struct {
	UserID string `json:"user_id"`
}

type ReceivedSignal struct {
	SignalID   string    `json:"signal_id"`
	SenderID   string    `json:"sender_id"`
	Distance   float64   `json:"distance"`
	Direction  string    `json:"direction"`
	Unit       string    `json:"unit"`
	Responded  bool      `json:"responded"`
	ReceivedAt time.Time `json:"received_at"`
}

type ReceivedSignalsResponse struct {
	Signals []ReceivedSignal `json:"signals"`
}

type GetSignalRequest struct {
	SignalID string `json:"signal_id"`
}

type Signal struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	MaxDistance float64   `json:"max_distance"`
	Unit        string    `json:"unit"`
	Status      string    `json:"status"`
	SentAt      time.Time `json:"sent_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type CancelSignalRequest struct {
	SignalID string `json:"signal_id"`
}

type CancelSignalResponse struct{}

type PingRequest struct{}

type PingResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

type GetStatsRequest struct{}

type StatsResponse struct {
	TotalUsers    int64     `json:"total_users"`
	ActiveUsers   int64     `json:"active_users"`
	TotalSignals  int64     `json:"total_signals"`
	ActiveSignals int64     `json:"active_signals"`
	Subscriptions int       `json:"subscriptions"`
	Timestamp     time.Time `json:"timestamp"`
}

// ActivityRequest selects a look-back range: 1h, 6h, 24h, 7d or 30d.
// Empty means 24h.
type ActivityRequest struct {
	Range string `json:"range,omitempty"`
}

type SignalActivityResponse struct {
	Range      string           `json:"range"`
	ByHour     map[int]int64    `json:"signals_by_hour"`
	ByDistance map[string]int64 `json:"signals_by_distance"`
	Total      int64            `json:"total_signals"`
	Timestamp  time.Time        `json:"timestamp"`
}

type UserActivityResponse struct {
	Range          string    `json:"range"`
	ActiveUsers    int64     `json:"active_users"`
	Senders        int64     `json:"signal_senders"`
	Receivers      int64     `json:"signal_receivers"`
	EngagementRate float64   `json:"engagement_rate"`
	Timestamp      time.Time `json:"timestamp"`
}
