// Package metrics holds the Prometheus collectors of the server. They are
// registered with the default registry and exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bowwow"

// Signal kinds used as the "kind" label of SignalsAccepted.
const (
	KindSend    = "send"
	KindRespond = "respond"
)

var (
	SignalsAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signals_accepted_total",
		Help:      "Signals accepted for propagation.",
	}, []string{"kind"})

	SignalsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signals_rejected_total",
		Help:      "Signal requests rejected, by reason.",
	}, []string{"reason"})

	PropagationRuns = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "propagation_runs_active",
		Help:      "Propagation runs currently in flight.",
	})

	RingsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "propagation_rings_processed_total",
		Help:      "Rings whose receipts were persisted.",
	})

	RingErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "propagation_ring_errors_total",
		Help:      "Rings whose proximity query failed.",
	})

	ReceiptsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signal_receipts_created_total",
		Help:      "Signal receipts created.",
	})

	PushFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "push_failures_total",
		Help:      "Push notifications that could not be delivered.",
	})

	LocationUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "location_updates_total",
		Help:      "Location records written.",
	})

	DecryptFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "location_decrypt_failures_total",
		Help:      "Location records skipped because they failed to decrypt.",
	})

	LocationsPurged = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "locations_purged_total",
		Help:      "Expired location records deleted.",
	})

	HubSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "hub_subscriptions",
		Help:      "Live proximity subscriptions.",
	})

	HubDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "hub_deliveries_total",
		Help:      "Hub messages handed to connections, by result.",
	}, []string{"result"})

	ArchiveWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "archive_writes_total",
		Help:      "Expired signal archive writes, by result.",
	}, []string{"result"})
)
