// Package metrics defines and registers all custom Prometheus metrics for the
// population management API. It is the single source of truth for metric
// names, labels, and help strings. All metrics register with the default
// registry at init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "population"

// PlacesCreatedTotal counts newly created places.
// Label:
//   - cascaded: "true" when the create carried a parent reference
var PlacesCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "places_created_total",
		Help:      "Total number of places created, by whether a parent cascade ran.",
	},
	[]string{"cascaded"},
)

// CascadeUpdatesTotal counts parent-aggregate updates.
// Label:
//   - trigger: "create" or "update"
var CascadeUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cascade_updates_total",
		Help:      "Total number of parent total cascades, by triggering operation.",
	},
	[]string{"trigger"},
)

// AuthFailuresTotal counts rejected requests at the auth gate.
// Label:
//   - reason: "no_token", "invalid_token", or "user_not_found"
var AuthFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Total number of requests rejected by the authentication middleware.",
	},
	[]string{"reason"},
)

// AuditEventsTotal counts audit entries successfully persisted.
// Label:
//   - action: the audit action name (e.g. "place_created")
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of audit trail entries persisted, by action.",
	},
	[]string{"action"},
)

// AuditQueueDepth tracks the number of audit entries waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit entries pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
