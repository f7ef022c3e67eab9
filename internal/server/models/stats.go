package models

import "time"

// SystemStats is a point-in-time summary of the whole system. ActiveUsers
// counts users with a location update inside the last day.
type SystemStats struct {
	TotalUsers    int64
	ActiveUsers   int64
	TotalSignals  int64
	ActiveSignals int64
	Subscriptions int
	Timestamp     time.Time
}

// SignalActivity breaks down signals sent inside Range. ByHour is keyed by
// UTC hour of day, ByDistance by a max distance range label such as "3-5".
type SignalActivity struct {
	Range      string
	ByHour     map[int]int64
	ByDistance map[string]int64
	Total      int64
	Timestamp  time.Time
}

// UserActivity summarizes who took part inside Range. EngagementRate is the
// percentage of ActiveUsers that sent or received a signal.
type UserActivity struct {
	Range          string
	ActiveUsers    int64
	Senders        int64
	Receivers      int64
	EngagementRate float64
	Timestamp      time.Time
}
