package cache

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"gsjt/internal/model"
)

// RatingBoard ranks completed candidates by total score in a ZSET
type RatingBoard interface {
	Record(ctx context.Context, candidateID string, total int) error
	Remove(ctx context.Context, candidateID string) error
	Top(ctx context.Context, limit int) ([]model.BoardEntry, error)
	// Rank is 1-indexed; 0 means the candidate is not on the board
	Rank(ctx context.Context, candidateID string) (int64, error)
}

type ratingBoard struct {
	client *redis.Client
}

// NewRatingBoard creates a Redis-backed rating board
func NewRatingBoard(client *redis.Client) RatingBoard {
	return &ratingBoard{client: client}
}

func (c *ratingBoard) key() string {
	return "gsjt:results:board"
}

func (c *ratingBoard) Record(ctx context.Context, candidateID string, total int) error {
	err := c.client.ZAdd(ctx, c.key(), redis.Z{
		Score:  float64(total),
		Member: candidateID,
	}).Err()
	return errors.Wrap(err, "record board score")
}

func (c *ratingBoard) Remove(ctx context.Context, candidateID string) error {
	return errors.Wrap(c.client.ZRem(ctx, c.key(), candidateID).Err(), "remove board entry")
}

func (c *ratingBoard) Top(ctx context.Context, limit int) ([]model.BoardEntry, error) {
	if limit <= 0 {
		return []model.BoardEntry{}, nil
	}
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "read board")
	}

	entries := make([]model.BoardEntry, len(results))
	for i, z := range results {
		member, _ := z.Member.(string)
		entries[i] = model.BoardEntry{
			CandidateID: member,
			Total:       int(z.Score),
			Rank:        i + 1,
		}
	}
	return entries, nil
}

func (c *ratingBoard) Rank(ctx context.Context, candidateID string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, c.key(), candidateID).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "read board rank")
	}
	return rank + 1, nil
}
