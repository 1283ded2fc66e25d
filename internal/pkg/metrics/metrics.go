/*
Package metrics defines the Prometheus instruments exported by the
collaboration server. Registration uses promauto against the default
registry; the router exposes them at /metrics via promhttp.
*/
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "slidesync"

var (
	// ActiveProjects tracks the number of projects currently held in the
	// session registry.
	ActiveProjects = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_projects",
		Help:      "Number of projects currently held in the session registry",
	})

	// ConnectedClients tracks the number of WebSocket connections bound to a room.
	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "connected_clients",
		Help:      "Number of WebSocket connections currently bound to a project room",
	})

	// EventsTotal counts inbound client events by event type.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Total inbound collaboration events processed, by event type",
	}, []string{"type"})

	// ConflictsTotal counts rejected mutations by resource class.
	ConflictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "conflicts_total",
		Help:      "Total mutations rejected by the conflict detector, by resource type",
	}, []string{"resource"})

	// DroppedSendsTotal counts outbound frames dropped because a peer's send
	// queue was full or gone. Fire-and-forget fanout never retries.
	DroppedSendsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dropped_sends_total",
		Help:      "Total outbound frames dropped due to a full or closed peer queue",
	})

	// SweptProjectsTotal counts projects removed by the idle sweep.
	SweptProjectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "swept_projects_total",
		Help:      "Total idle empty projects removed by the periodic sweep",
	})
)
