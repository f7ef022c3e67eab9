// Package push delivers signal notifications to the push gateway. The
// gateway owns device tokens and the provider protocol; this package only
// decides whether to notify and what the alert says.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/bowwow/internal/geo"
	"github.com/dmitrijs2005/bowwow/internal/logging"
	"github.com/dmitrijs2005/bowwow/internal/server/models"
)

const (
	signalPath = "/push/signal"
	alertTitle = "BowWow Signal!"
)

// UserLookup resolves receivers.
type UserLookup interface {
	Lookup(ctx context.Context, userID string) (*models.User, error)
}

// Payload is the body posted to the gateway.
type Payload struct {
	ReceiverID  string  `json:"receiverID"`
	SenderID    string  `json:"senderID"`
	SignalID    string  `json:"signalID"`
	DeviceToken string  `json:"deviceToken,omitempty"`
	Distance    float64 `json:"distance"`
	Unit        string  `json:"unit"`
	Direction   string  `json:"direction"`
	Title       string  `json:"title"`
	Body        string  `json:"body"`
}

// FormatDistance renders d for an alert: feet or meters below 0.1, one
// decimal otherwise.
func FormatDistance(d float64, u geo.Unit) string {
	if u == geo.Kilometer {
		if d < 0.1 {
			return fmt.Sprintf("%d m", int(d*1000))
		}
		return fmt.Sprintf("%.1f km", d)
	}
	if d < 0.1 {
		return fmt.Sprintf("%d ft", int(d*5280))
	}
	return fmt.Sprintf("%.1f mi", d)
}

// BuildPayload converts n into the receiver's unit and renders the alert.
func BuildPayload(n models.SignalNotification, receiver *models.User) Payload {
	unit := receiver.DistanceUnit
	if unit != geo.Kilometer {
		unit = geo.Mile
	}
	from := n.Unit
	if from == "" {
		from = geo.Mile
	}
	d := geo.Convert(n.Distance, from, unit)

	return Payload{
		ReceiverID:  n.ReceiverID,
		SenderID:    n.SenderID,
		SignalID:    n.SignalID,
		DeviceToken: receiver.DeviceToken,
		Distance:    d,
		Unit:        string(unit),
		Direction:   n.Direction,
		Title:       alertTitle,
		Body:        FormatDistance(d, unit) + " " + n.Direction,
	}
}

// HTTPNotifier posts payloads to <endpoint>/push/signal. Offline receivers
// are skipped.
type HTTPNotifier struct {
	endpoint string
	client   *http.Client
	users    UserLookup
	logger   logging.Logger
}

// NewHTTPNotifier builds a notifier. A nil client means http.DefaultClient;
// request deadlines come from the Notify context.
func NewHTTPNotifier(endpoint string, client *http.Client, users UserLookup, logger logging.Logger) *HTTPNotifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPNotifier{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   client,
		users:    users,
		logger:   logger.With("module", "push"),
	}
}

func (p *HTTPNotifier) Notify(ctx context.Context, n models.SignalNotification) error {
	receiver, err := p.users.Lookup(ctx, n.ReceiverID)
	if err != nil {
		return fmt.Errorf("lookup receiver: %w", err)
	}
	if receiver.IsOffline {
		p.logger.Info(ctx, "receiver offline, push skipped", "receiver_id", n.ReceiverID, "signal_id", n.SignalID)
		return nil
	}

	body, err := json.Marshal(BuildPayload(n, receiver))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+signalPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("push gateway: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("push gateway: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// LogNotifier only logs what would have been sent. It is used when no
// gateway is configured.
type LogNotifier struct {
	users  UserLookup
	logger logging.Logger
}

func NewLogNotifier(users UserLookup, logger logging.Logger) *LogNotifier {
	return &LogNotifier{users: users, logger: logger.With("module", "push")}
}

func (p *LogNotifier) Notify(ctx context.Context, n models.SignalNotification) error {
	receiver, err := p.users.Lookup(ctx, n.ReceiverID)
	if err != nil {
		return fmt.Errorf("lookup receiver: %w", err)
	}
	if receiver.IsOffline {
		p.logger.Info(ctx, "receiver offline, push skipped", "receiver_id", n.ReceiverID, "signal_id", n.SignalID)
		return nil
	}

	pl := BuildPayload(n, receiver)
	p.logger.Info(ctx, "push notification", "receiver_id", pl.ReceiverID, "signal_id", pl.SignalID, "title", pl.Title, "body", pl.Body)
	return nil
}
