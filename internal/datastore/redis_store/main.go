package redis_store

import (
	"context"
	"strconv"
	"time"

	"bskmt/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

func dbKeyLeaderboardEntries() string {
	return "leaderboard:entries"
}

func dbKeyLeaderboardRank() string {
	return "leaderboard:rank"
}

func dbKeyLeaderboardPoints() string {
	return "leaderboard:points"
}

func dbKeyLeaderboardTotal() string {
	return "leaderboard:total"
}

func dbKeyLeaderboardRebuiltAt() string {
	return "leaderboard:rebuilt_at"
}

// SaveLeaderboardSnapshot replaces the whole derived projection in one
// pipeline: the ranked entries blob plus per-member rank and points hashes
// for O(1) position lookups.
func SaveLeaderboardSnapshot(ctx context.Context, cmd redis.UniversalClient, entries []*models.LeaderboardEntry, rebuiltAt time.Time) error {
	b, err := msgpack.Marshal(entries)
	if err != nil {
		return err
	}

	ranks := make(map[string]string, len(entries))
	points := make(map[string]string, len(entries))
	for _, e := range entries {
		ranks[e.MemberID] = strconv.Itoa(e.Rank)
		points[e.MemberID] = strconv.Itoa(e.Points)
	}

	pipe := cmd.TxPipeline()
	pipe.Set(ctx, dbKeyLeaderboardEntries(), b, 0)
	pipe.Del(ctx, dbKeyLeaderboardRank(), dbKeyLeaderboardPoints())
	if len(ranks) > 0 {
		pipe.HSet(ctx, dbKeyLeaderboardRank(), ranks)
		pipe.HSet(ctx, dbKeyLeaderboardPoints(), points)
	}
	pipe.Set(ctx, dbKeyLeaderboardTotal(), len(entries), 0)
	pipe.Set(ctx, dbKeyLeaderboardRebuiltAt(), rebuiltAt.Format(time.RFC3339), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func GetLeaderboardEntries(ctx context.Context, cmd redis.Cmdable) ([]*models.LeaderboardEntry, error) {
	b, err := cmd.Get(ctx, dbKeyLeaderboardEntries()).Bytes()
	if err != nil {
		return nil, err
	}

	var entries []*models.LeaderboardEntry
	err = msgpack.Unmarshal(b, &entries)
	return entries, err
}

func GetLeaderboardTotal(ctx context.Context, cmd redis.Cmdable) (int, error) {
	v, err := cmd.Get(ctx, dbKeyLeaderboardTotal()).Result()
	if err != nil {
		return 0, err
	}

	return strconv.Atoi(v)
}

func GetLeaderboardRebuiltAt(ctx context.Context, cmd redis.Cmdable) (time.Time, error) {
	v, err := cmd.Get(ctx, dbKeyLeaderboardRebuiltAt()).Result()
	if err != nil {
		return time.Time{}, err
	}

	return time.Parse(time.RFC3339, v)
}

// GetMemberRank returns the member's 1-based rank and points from the last
// snapshot; redis.Nil when the member is not ranked yet.
func GetMemberRank(ctx context.Context, cmd redis.Cmdable, memberID string) (rank int, points int, err error) {
	v, err := cmd.HGet(ctx, dbKeyLeaderboardRank(), memberID).Result()
	if err != nil {
		return 0, 0, err
	}

	rank, err = strconv.Atoi(v)
	if err != nil {
		return 0, 0, err
	}

	p, err := cmd.HGet(ctx, dbKeyLeaderboardPoints(), memberID).Result()
	if err != nil {
		return 0, 0, err
	}

	points, err = strconv.Atoi(p)
	return rank, points, err
}
