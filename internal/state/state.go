package state

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RunState is the optional resume checkpoint: the set of product ids already
// written during the current run. An interrupted run picks up where it left
// off instead of refetching thousands of products; a completed run clears the
// set, so every fresh run starts empty and the snapshot stays a full rebuild.
type RunState interface {
	Completed(ctx context.Context) (map[int]struct{}, error)
	MarkCompleted(ctx context.Context, id int) error
	Clear(ctx context.Context) error
}

type redisRunState struct {
	redisClient *redis.Client
	key         string
}

func NewRedisRunState(redisClient *redis.Client, keyPrefix string) RunState {
	return &redisRunState{
		redisClient: redisClient,
		key:         keyPrefix + "completed",
	}
}

func (s *redisRunState) Completed(ctx context.Context) (map[int]struct{}, error) {
	members, err := s.redisClient.SMembers(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read run state: %w", err)
	}

	ids := make(map[int]struct{}, len(members))
	for _, m := range members {
		id, err := strconv.Atoi(m)
		if err != nil {
			return nil, fmt.Errorf("corrupt run state entry %q: %w", m, err)
		}
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (s *redisRunState) MarkCompleted(ctx context.Context, id int) error {
	if err := s.redisClient.SAdd(ctx, s.key, strconv.Itoa(id)).Err(); err != nil {
		return fmt.Errorf("failed to checkpoint product %d: %w", id, err)
	}
	return nil
}

func (s *redisRunState) Clear(ctx context.Context) error {
	if err := s.redisClient.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear run state: %w", err)
	}
	return nil
}
