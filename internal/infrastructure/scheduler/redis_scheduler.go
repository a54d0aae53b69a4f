// Package scheduler delivers deferred lifecycle actions from a redis sorted
// set. Jobs are scored by their run-at timestamp; a polling loop claims due
// members with ZREM so exactly one process dispatches each job, and a failed
// dispatch is re-enqueued, giving at-least-once delivery at or after the
// deadline. The handlers it calls are idempotent, so crash-restart
// re-delivery is safe.
package scheduler

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/soulpin/soulpin-backend/internal/domain"
)

const (
	jobsKey      = "soulpin:deferred_actions"
	retryBackoff = 30 * time.Second
)

// Handler receives due actions.
type Handler interface {
	HandleDeferredAction(ctx context.Context, action domain.DeferredAction) error
}

type job struct {
	ID           string            `json:"id"`
	Kind         domain.ActionKind `json:"kind"`
	TargetUserID string            `json:"target_user_id"`
}

type RedisScheduler struct {
	client       *redis.Client
	handler      Handler
	logger       *slog.Logger
	pollInterval time.Duration
}

func NewRedisScheduler(client *redis.Client, pollInterval time.Duration, logger *slog.Logger) *RedisScheduler {
	return &RedisScheduler{
		client:       client,
		logger:       logger,
		pollInterval: pollInterval,
	}
}

// Bind sets the dispatch target. The handler schedules actions through this
// scheduler, so it is attached after both sides are constructed. Must be
// called before Run.
func (s *RedisScheduler) Bind(handler Handler) {
	s.handler = handler
}

// Schedule enqueues an action for delivery at or after runAt. Each call gets
// its own job id, so identical actions scheduled twice are both kept.
func (s *RedisScheduler) Schedule(ctx context.Context, runAt time.Time, action domain.DeferredAction) error {
	payload, err := json.Marshal(job{
		ID:           uuid.New().String(),
		Kind:         action.Kind,
		TargetUserID: action.TargetUserID,
	})
	if err != nil {
		return err
	}
	return s.client.ZAdd(ctx, jobsKey, redis.Z{
		Score:  float64(runAt.Unix()),
		Member: string(payload),
	}).Err()
}

// Run polls for due jobs until the context is canceled.
func (s *RedisScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.dispatchDue(ctx)
		}
	}
}

func (s *RedisScheduler) dispatchDue(ctx context.Context) {
	now := time.Now()
	members, err := s.client.ZRangeByScore(ctx, jobsKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: formatScore(now),
	}).Result()
	if err != nil {
		s.logger.Error("poll deferred actions", "error", err)
		return
	}

	for _, member := range members {
		// ZREM claims the job; zero removals means another poller took it.
		removed, err := s.client.ZRem(ctx, jobsKey, member).Result()
		if err != nil {
			s.logger.Error("claim deferred action", "error", err)
			continue
		}
		if removed == 0 {
			continue
		}

		var j job
		if err := json.Unmarshal([]byte(member), &j); err != nil {
			s.logger.Error("decode deferred action, dropping", "member", member, "error", err)
			continue
		}

		action := domain.DeferredAction{Kind: j.Kind, TargetUserID: j.TargetUserID}
		if err := s.handler.HandleDeferredAction(ctx, action); err != nil {
			s.logger.Error("deferred action failed, re-enqueueing",
				"kind", j.Kind, "target_user_id", j.TargetUserID, "error", err)
			if err := s.client.ZAdd(ctx, jobsKey, redis.Z{
				Score:  float64(now.Add(retryBackoff).Unix()),
				Member: member,
			}).Err(); err != nil {
				s.logger.Error("re-enqueue deferred action", "error", err)
			}
			continue
		}
		s.logger.Info("deferred action delivered", "kind", j.Kind, "target_user_id", j.TargetUserID)
	}
}

func formatScore(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}
