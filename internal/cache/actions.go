// Package cache publishes session action records to a Redis queue for the
// history/audit pipeline. Publishing is fire-and-forget: a missing or failing
// Redis never blocks game flow.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ActionQueueKey is the Redis list consumed by the audit pipeline.
const ActionQueueKey = "tablero:session_actions"

const publishTimeout = 2 * time.Second

// ActionRecord is one audited orchestrator mutation.
type ActionRecord struct {
	SessionCode string                 `json:"sessionCode"`
	Seat        string                 `json:"seat,omitempty"`
	Action      string                 `json:"action"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	Timestamp   int64                  `json:"timestamp"`
}

// Publisher pushes action records to Redis. A nil Publisher drops records.
type Publisher struct {
	rdb *redis.Client
	log *logrus.Logger
}

// NewPublisher connects a Redis client from a URL ("redis://...").
func NewPublisher(redisURL string, log *logrus.Logger) (*Publisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Publisher{rdb: redis.NewClient(opts), log: log}, nil
}

// Publish queues one record asynchronously.
func (p *Publisher) Publish(rec ActionRecord) {
	if p == nil || p.rdb == nil {
		return
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().UnixMilli()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		body, err := json.Marshal(rec)
		if err != nil {
			p.log.WithError(err).Warn("marshal action record")
			return
		}
		if err := p.rdb.RPush(ctx, ActionQueueKey, body).Err(); err != nil {
			p.log.WithError(err).WithField("session", rec.SessionCode).
				Warn("publish action record")
		}
	}()
}

// Close releases the Redis client.
func (p *Publisher) Close() error {
	if p == nil || p.rdb == nil {
		return nil
	}
	return p.rdb.Close()
}
