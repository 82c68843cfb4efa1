package worker

// reply_worker.go
// Processes outbound replies from QueueReply: confirmation messages, help
// texts and quota notices going back to the sender. Calls to the channel
// gateway run through the circuit breaker so a downed provider fast-fails.

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ReplyJobPayload is the job envelope sent to QueueReply.
type ReplyJobPayload struct {
	ChannelID string `json:"channel_id"`
	To        string `json:"to"`
	Body      string `json:"body"`
}

// ReplyWorker delivers chat replies through the channel gateway.
type ReplyWorker struct {
	channel *infra.ChannelClient
	breaker *infra.CircuitBreaker
	rdb     *redis.Client
}

func NewReplyWorker(channel *infra.ChannelClient, breaker *infra.CircuitBreaker, rdb *redis.Client) *ReplyWorker {
	return &ReplyWorker{channel: channel, breaker: breaker, rdb: rdb}
}

// Process sends a single reply with retries; undeliverable replies land in
// the DLQ. Reply delivery is best-effort by design: the document (if any)
// already exists whatever happens here.
func (w *ReplyWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReplyJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("reply_worker: invalid payload")
		return
	}
	if payload.To == "" || payload.Body == "" {
		log.Warn().Msg("reply_worker: empty recipient or body, skipping")
		return
	}

	sendErr := withRetry(ctx, 3, func(attempt int) error {
		err := w.breaker.Execute(func() error {
			return w.channel.SendMessage(ctx, infra.ChannelMessage{
				ChannelID: payload.ChannelID,
				To:        payload.To,
				Body:      payload.Body,
			})
		})
		if err != nil && !errors.Is(err, infra.ErrCircuitOpen) {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("to", payload.To).
				Msg("reply_worker: send attempt failed, retrying")
		}
		return err
	})
	if sendErr != nil {
		log.Error().Err(sendErr).Str("to", payload.To).Msg("reply_worker: reply undeliverable")
		SendToDLQ(ctx, w.rdb, QueueReply, "reply", raw, sendErr.Error(), 3)
		return
	}
	log.Info().Str("to", payload.To).Str("channel_id", payload.ChannelID).Msg("reply_worker: reply sent")
}
