package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrijs2005/bowwow/internal/server/hub"
)

// Subscription is the area a Watcher asks to follow.
type Subscription struct {
	UserID    string
	Latitude  float64
	Longitude float64
	Radius    float64
}

// Watcher follows the live proximity feed of a server.
type Watcher struct {
	url    string
	dialer *websocket.Dialer
	header http.Header
}

func NewWatcher(url string) *Watcher {
	return &Watcher{
		url:    url,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		header: http.Header{},
	}
}

// Watch subscribes and hands every server message to fn until ctx is done,
// fn returns an error or the connection drops. An error message from the
// server ends the watch with ErrSubscriptionRejected. Cancellation of ctx is
// not reported as an error.
func (w *Watcher) Watch(ctx context.Context, sub Subscription, fn func(hub.Outbound) error) error {
	conn, _, err := w.dialer.DialContext(ctx, w.url, w.header)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer conn.Close()

	in := hub.Inbound{
		Type:      hub.TypeSubscribe,
		UserID:    &sub.UserID,
		Latitude:  &sub.Latitude,
		Longitude: &sub.Longitude,
		Radius:    &sub.Radius,
	}
	if err := conn.WriteJSON(in); err != nil {
		return err
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		var msg hub.Outbound
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		if msg.Type == hub.TypeError {
			return fmt.Errorf("%w: %s", ErrSubscriptionRejected, msg.Message)
		}
		if err := fn(msg); err != nil {
			if errors.Is(err, ErrStopWatching) {
				return nil
			}
			return err
		}
	}
}
