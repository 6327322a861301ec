package workers

import (
	"batepapo/domain"
	"batepapo/observability"
	"batepapo/repositories"
	"context"
	"log/slog"
	"time"
)

// PresenceReaper evicts participants whose heartbeat is older than the
// liveness timeout and records a departure notice for each eviction.
// Interval and timeout are independent knobs; the interval only bounds
// eviction latency.
type PresenceReaper struct {
	log          *slog.Logger
	participants repositories.IParticipantRepository
	messages     repositories.IMessageRepository
	metrics      *observability.Metrics
	interval     time.Duration
	timeout      time.Duration
}

func NewPresenceReaper(
	log *slog.Logger,
	participants repositories.IParticipantRepository,
	messages repositories.IMessageRepository,
	metrics *observability.Metrics,
	interval, timeout time.Duration,
) *PresenceReaper {
	return &PresenceReaper{
		log:          log,
		participants: participants,
		messages:     messages,
		metrics:      metrics,
		interval:     interval,
		timeout:      timeout,
	}
}

// Run ticks until ctx is done. Each tick is an independent pass; a
// failed pass is logged and the next tick starts clean.
func (w *PresenceReaper) Run(ctx context.Context) error {
	w.log.Info("Starting presence reaper", "interval", w.interval, "timeout", w.timeout)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.reap(time.Now())
		}
	}
}

// reap is one pass over a registry snapshot. The snapshot only selects
// candidates; the actual removal re-reads the heartbeat inside its
// transaction and deletes only if still stale. A concurrent heartbeat
// or a duplicate pass therefore loses the race cleanly: no second
// departure notice, no eviction of a refreshed participant.
func (w *PresenceReaper) reap(now time.Time) {
	snapshot, err := w.participants.List()
	if err != nil {
		w.log.Error("Failed to snapshot participants", "err", err)
		return
	}

	cutoff := now.Add(-w.timeout)
	present := len(snapshot)
	for _, participant := range snapshot {
		if !participant.Stale(now, w.timeout) {
			continue
		}
		removed, err := w.participants.RemoveStale(participant.Name, cutoff)
		if err != nil {
			w.log.Error("Failed to evict participant", "name", participant.Name, "err", err)
			continue
		}
		if !removed {
			// heartbeat or another pass won, nothing to record
			continue
		}
		present--
		w.metrics.ParticipantsReaped.Inc()
		w.log.Info("Evicted stale participant", "name", participant.Name)

		if _, err := w.messages.Append(domain.LeftStatus(participant.Name), now); err != nil {
			// The participant is already gone, so this cannot be
			// re-detected next tick. Accepted gap: eviction without a
			// departure notice.
			w.metrics.ReapNoticeFailures.Inc()
			w.log.Warn("Evicted without departure notice", "name", participant.Name, "err", err)
		}
	}
	w.metrics.ParticipantsPresent.Set(float64(present))
}
