package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocationRecord_Expired(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	r := &LocationRecord{CreatedAt: now, ExpiresAt: now.Add(24 * time.Hour)}

	assert.False(t, r.Expired(now))
	assert.False(t, r.Expired(now.Add(24*time.Hour-time.Nanosecond)))
	assert.True(t, r.Expired(now.Add(24*time.Hour)))
	assert.True(t, r.Expired(now.Add(24*time.Hour+time.Nanosecond)))
}

func TestSignal_Origin(t *testing.T) {
	s := &Signal{Latitude: 37.7749, Longitude: -122.4194}
	p := s.Origin()
	assert.Equal(t, 37.7749, p.Latitude)
	assert.Equal(t, -122.4194, p.Longitude)
}
