// Package observability exposes the chat core's Prometheus collectors.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ParticipantsJoined  prometheus.Counter
	ParticipantsPresent prometheus.Gauge
	ParticipantsReaped  prometheus.Counter
	MessagesPosted      prometheus.Counter
	// ReapNoticeFailures counts evictions whose departure message could
	// not be written. That gap is accepted, not retried, so the counter
	// is the only trace of it.
	ReapNoticeFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ParticipantsJoined: factory.NewCounter(prometheus.CounterOpts{
			Name: "batepapo_participants_joined_total",
			Help: "Participants successfully registered.",
		}),
		ParticipantsPresent: factory.NewGauge(prometheus.GaugeOpts{
			Name: "batepapo_participants_present",
			Help: "Participants present at the last reaper snapshot.",
		}),
		ParticipantsReaped: factory.NewCounter(prometheus.CounterOpts{
			Name: "batepapo_participants_reaped_total",
			Help: "Participants evicted for missing the liveness window.",
		}),
		MessagesPosted: factory.NewCounter(prometheus.CounterOpts{
			Name: "batepapo_messages_posted_total",
			Help: "Client-authored messages appended to the log.",
		}),
		ReapNoticeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "batepapo_reap_notice_failures_total",
			Help: "Evictions left without a departure message.",
		}),
	}
}
