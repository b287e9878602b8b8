package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/madadental/clinic-api/internal/repository"
)

// OutboxWorker drains pending outbox events into a Redis channel so
// dashboard clients can invalidate their cached views.
type OutboxWorker struct {
	repo         repository.OutboxRepository
	redis        *redis.Client
	channel      string
	batchSize    int
	pollInterval time.Duration
}

func NewOutboxWorker(repo repository.OutboxRepository, client *redis.Client, channel string, batchSize int, pollInterval time.Duration) *OutboxWorker {
	return &OutboxWorker{
		repo:         repo,
		redis:        client,
		channel:      channel,
		batchSize:    batchSize,
		pollInterval: pollInterval,
	}
}

// Run polls until the context is canceled.
func (w *OutboxWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	log.Info().Str("channel", w.channel).Dur("poll_interval", w.pollInterval).Msg("outbox worker started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("outbox worker stopped")
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *OutboxWorker) drain(ctx context.Context) {
	events, err := w.repo.GetPending(ctx, w.batchSize)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch pending outbox events")
		return
	}

	for _, event := range events {
		envelope, err := json.Marshal(map[string]interface{}{
			"type":    event.EventType,
			"payload": event.Payload,
		})
		if err != nil {
			log.Error().Err(err).Stringer("event_id", event.ID).Msg("failed to encode outbox envelope")
			continue
		}
		if err := w.redis.Publish(ctx, w.channel, envelope).Err(); err != nil {
			log.Error().Err(err).Stringer("event_id", event.ID).Str("event_type", event.EventType).Msg("failed to publish outbox event")
			if err := w.repo.MarkFailed(ctx, event.ID); err != nil {
				log.Error().Err(err).Stringer("event_id", event.ID).Msg("failed to mark outbox event failed")
			}
			continue
		}
		if err := w.repo.MarkProcessed(ctx, event.ID); err != nil {
			log.Error().Err(err).Stringer("event_id", event.ID).Msg("failed to mark outbox event processed")
		}
	}
}
