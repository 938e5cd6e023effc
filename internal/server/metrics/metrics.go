// Package metrics holds the server's counters and the admin HTTP surface that
// exposes them.
package metrics

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	kitprom "github.com/go-kit/kit/metrics/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "postbox"

// Label names and values.
const (
	LabelVerb   = "verb"
	LabelResult = "result"

	ResultOK     = "ok"
	ResultError  = "error"
	ResultFailed = "failed"
)

type Metrics struct {
	// Datagrams counts datagrams read from the socket.
	Datagrams metrics.Counter
	// Commands counts handled commands by verb and result.
	Commands metrics.Counter
	// Notifications counts NEW_MAIL pushes by result.
	Notifications metrics.Counter
	// OnlineUsers is the size of the presence table.
	OnlineUsers metrics.Gauge
}

// NewDiscard returns metrics that record nothing.
func NewDiscard() *Metrics {
	return &Metrics{
		Datagrams:     discard.NewCounter(),
		Commands:      discard.NewCounter(),
		Notifications: discard.NewCounter(),
		OnlineUsers:   discard.NewGauge(),
	}
}

// NewPrometheus creates the collectors and registers them with reg.
func NewPrometheus(reg prom.Registerer) (*Metrics, error) {
	datagrams := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "datagrams_received_total",
		Help:      "Number of datagrams received",
	}, nil)
	commands := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "commands_total",
		Help:      "Number of commands handled",
	}, []string{LabelVerb, LabelResult})
	notifications := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Number of NEW_MAIL notifications attempted",
	}, []string{LabelResult})
	online := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "online_users",
		Help:      "Number of logged-in users",
	}, nil)

	for _, c := range []prom.Collector{datagrams, commands, notifications, online} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return &Metrics{
		Datagrams:     kitprom.NewCounter(datagrams),
		Commands:      kitprom.NewCounter(commands),
		Notifications: kitprom.NewCounter(notifications),
		OnlineUsers:   kitprom.NewGauge(online),
	}, nil
}
