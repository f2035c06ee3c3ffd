package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"quizgenius/internal/profile"
)

const keyPrefix = "gauntlet:leaderboard"

type Entry struct {
	UserID string `json:"userId"`
	Score  int64  `json:"score"`
	Rank   int64  `json:"rank"`
}

// RedisLeaderboard keeps each user's best gauntlet score in sorted sets, one
// overall and one per topic.
type RedisLeaderboard struct {
	client redis.Cmdable
}

func NewRedisLeaderboard(client redis.Cmdable) *RedisLeaderboard {
	return &RedisLeaderboard{client: client}
}

// RecordGauntlet raises the user's best score; lower scores leave it as is.
func (l *RedisLeaderboard) RecordGauntlet(ctx context.Context, userID string, score profile.GauntletScore) error {
	member := redis.Z{Score: float64(score.Score), Member: userID}
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAddArgs(ctx, Key(""), redis.ZAddArgs{GT: true, Members: []redis.Z{member}})
		if topic := topicSlug(score.Topic); topic != "" {
			pipe.ZAddArgs(ctx, Key(score.Topic), redis.ZAddArgs{GT: true, Members: []redis.Z{member}})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update gauntlet leaderboard: %w", err)
	}
	return nil
}

// Top returns the highest scores for topic, or overall when topic is empty.
func (l *RedisLeaderboard) Top(ctx context.Context, topic string, limit int64) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	results, err := l.client.ZRevRangeWithScores(ctx, Key(topic), 0, limit-1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(results))
	for i, result := range results {
		member, ok := result.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			UserID: member,
			Score:  int64(result.Score),
			Rank:   int64(i) + 1,
		})
	}
	return entries, nil
}

// Rank returns the user's 1-indexed position, or 0 when they have no score.
func (l *RedisLeaderboard) Rank(ctx context.Context, topic, userID string) (int64, error) {
	rank, err := l.client.ZRevRank(ctx, Key(topic), userID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rank + 1, nil
}

// Key is the sorted set holding scores for topic ("" for overall).
func Key(topic string) string {
	slug := topicSlug(topic)
	if slug == "" {
		return keyPrefix
	}
	return keyPrefix + ":" + slug
}

func topicSlug(topic string) string {
	return strings.Join(strings.Fields(strings.ToLower(topic)), "-")
}
