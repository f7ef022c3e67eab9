// Package hub keeps the registry of live proximity subscriptions and fans
// location updates out to the subscribers whose radius covers them.
//
// The hub knows nothing about transports. A connection registers a Sink,
// which must not block; the WebSocket layer implements it with a buffered
// queue drained by a writer goroutine.
package hub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dmitrijs2005/bowwow/internal/clock"
	"github.com/dmitrijs2005/bowwow/internal/geo"
	"github.com/dmitrijs2005/bowwow/internal/logging"
	"github.com/dmitrijs2005/bowwow/internal/server/metrics"
	"github.com/dmitrijs2005/bowwow/internal/server/models"
)

// Sink receives messages for one connection. Send reports false when the
// message was dropped.
type Sink interface {
	Send(msg Outbound) bool
}

type subscription struct {
	connID string
	userID string
	origin geo.Point
	radius float64
	sink   Sink
}

// Hub is safe for concurrent use.
type Hub struct {
	unit   geo.Unit
	clock  clock.Clock
	logger logging.Logger

	mu   sync.RWMutex
	subs map[string]subscription
}

// New creates a hub whose radii and reported distances are in unit.
func New(unit geo.Unit, c clock.Clock, logger logging.Logger) *Hub {
	if c == nil {
		c = clock.Real{}
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Hub{
		unit:   unit,
		clock:  c,
		logger: logger.With("module", "hub"),
		subs:   make(map[string]subscription),
	}
}

// Subscribe inserts or replaces the subscription of connID.
func (h *Hub) Subscribe(connID, userID string, origin geo.Point, radius float64, sink Sink) error {
	if err := origin.Validate(); err != nil {
		return err
	}

	h.mu.Lock()
	h.subs[connID] = subscription{connID: connID, userID: userID, origin: origin, radius: radius, sink: sink}
	n := len(h.subs)
	h.mu.Unlock()

	metrics.HubSubscriptions.Set(float64(n))
	return nil
}

// Unsubscribe removes connID. Unknown IDs are ignored.
func (h *Hub) Unsubscribe(connID string) {
	h.mu.Lock()
	delete(h.subs, connID)
	n := len(h.subs)
	h.mu.Unlock()

	metrics.HubSubscriptions.Set(float64(n))
}

// Broadcast delivers update to every other user's subscription within
// range and returns the number of messages accepted by sinks.
func (h *Hub) Broadcast(update models.LocationUpdate) int {
	h.mu.RLock()
	targets := make([]subscription, 0, len(h.subs))
	for _, s := range h.subs {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, s := range targets {
		if s.userID == update.UserID {
			continue
		}
		d := geo.Distance(s.origin, update.Location, h.unit)
		if d > s.radius {
			continue
		}

		lat, lng := update.Location.Latitude, update.Location.Longitude
		msg := Outbound{
			Type:      TypeLocationUpdate,
			UserID:    update.UserID,
			Latitude:  &lat,
			Longitude: &lng,
			Distance:  &d,
			Direction: string(geo.Bearing(s.origin, update.Location)),
			Timestamp: update.Timestamp,
		}
		if s.sink.Send(msg) {
			delivered++
			metrics.HubDeliveries.WithLabelValues("ok").Inc()
			continue
		}
		metrics.HubDeliveries.WithLabelValues("dropped").Inc()
		h.logger.Warn(context.Background(), "location update dropped", "conn_id", s.connID, "user_id", s.userID)
	}
	return delivered
}

// Handle interprets one raw client message from connID and answers on sink.
func (h *Hub) Handle(connID string, sink Sink, data []byte) {
	now := h.clock.Now()

	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		sink.Send(reply(TypeError, MsgInvalidFormat, now))
		return
	}

	switch in.Type {
	case TypeSubscribe:
		if in.UserID == nil || in.Latitude == nil || in.Longitude == nil || in.Radius == nil {
			sink.Send(reply(TypeError, MsgMissingSubscription, now))
			return
		}
		origin := geo.Point{Latitude: *in.Latitude, Longitude: *in.Longitude}
		if err := h.Subscribe(connID, *in.UserID, origin, *in.Radius, sink); err != nil {
			sink.Send(reply(TypeError, MsgInvalidLocation, now))
			return
		}
		h.logger.Info(context.Background(), "subscribed", "conn_id", connID, "user_id", *in.UserID, "radius", *in.Radius, "unit", h.unit)
		sink.Send(reply(TypeSubscriptionConfirmed, MsgSubscribed, now))
	case TypeUnsubscribe:
		h.Unsubscribe(connID)
	case TypePing:
		sink.Send(reply(TypePong, "pong", now))
	default:
		sink.Send(reply(TypeError, MsgInvalidFormat, now))
	}
}

// Count returns the number of live subscriptions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Unit returns the distance unit of radii and reported distances.
func (h *Hub) Unit() geo.Unit { return h.unit }
