package services

import (
	"context"
	"errors"
	"time"

	"bskmt/internal/datastore"
	"bskmt/internal/datastore/redis_store"
	"bskmt/internal/models"
	"bskmt/internal/pkg"
	"bskmt/internal/pkg/caching"

	"github.com/go-redsync/redsync/v4"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceLeaderboard struct {
	container          *do.Injector
	redisDB            redis.UniversalClient
	redisDBCache       redis.UniversalClient
	rs                 *redsync.Redsync
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
}

func NewServiceLeaderboard(container *do.Injector) (*ServiceLeaderboard, error) {
	dbRedis, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
	if err != nil {
		return nil, err
	}

	dbRedisCache, err := do.InvokeNamed[redis.UniversalClient](container, "redis-cache")
	if err != nil {
		return nil, err
	}

	rs, err := do.Invoke[*redsync.Redsync](container)
	if err != nil {
		return nil, err
	}

	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](container, "db-readonly")
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	readonlyCache, err := do.Invoke[caching.ReadOnlyCache](container)
	if err != nil {
		return nil, err
	}

	return &ServiceLeaderboard{container, dbRedis, dbRedisCache, rs, postgresDB, readonlyPostgresDB, cache, readonlyCache}, nil
}

// Rebuild replays the ledger totals and swaps in a fresh snapshot. Ties on
// points rank the longer-standing tier first, then the lexicographic member
// id, so reruns over identical data produce identical rankings.
func (service *ServiceLeaderboard) Rebuild(ctx context.Context) (int, error) {
	mutex := service.rs.NewMutex(LockKeyLeaderboardRebuild())
	if err := mutex.TryLock(); err != nil {
		return 0, errorx.Wrap(ErrLeaderboardLock, errorx.Invalid)
	}
	// nolint:errcheck
	defer mutex.Unlock()

	rows, err := datastore.GetLedgerTotals(ctx, service.readonlyPostgresDB)
	if err != nil {
		return 0, err
	}
	// the query pre-orders; ranking authority stays in one place
	models.SortLeaderboardRows(rows)

	entries := make([]*models.LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, &models.LeaderboardEntry{
			MemberID:  row.MemberID,
			Name:      row.FirstName + " " + row.LastName,
			Points:    row.TotalPoints,
			Rank:      i + 1,
			Tier:      row.Tier,
			TierSince: row.TierSince,
		})
	}

	if err := redis_store.SaveLeaderboardSnapshot(ctx, service.redisDB, entries, time.Now()); err != nil {
		return 0, err
	}

	// nolint:errcheck
	caching.DeleteKeys(ctx, service.redisDBCache, "leaderboard:page:*")
	// nolint:errcheck
	caching.DeleteKeys(ctx, service.redisDBCache, "leaderboard:me:*")

	return len(entries), nil
}

// GetLeaderboard returns one page of the current snapshot. A missing
// snapshot triggers an inline rebuild once.
func (service *ServiceLeaderboard) GetLeaderboard(ctx context.Context, limit, offset int, memberID string) (*models.LeaderboardResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = LEADERBOARD_DEFAULT_LIMIT
	}
	if offset < 0 {
		offset = 0
	}

	callback := func() (*models.LeaderboardResponse, error) {
		entries, err := service.snapshotEntries(ctx)
		if err != nil {
			return nil, err
		}

		rebuiltAt, err := redis_store.GetLeaderboardRebuiltAt(ctx, service.redisDB)
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}

		total := len(entries)
		page := []*models.LeaderboardEntry{}
		if offset < total {
			end := offset + limit
			if end > total {
				end = total
			}
			page = entries[offset:end]
		}

		return &models.LeaderboardResponse{
			Entries:   page,
			Total:     total,
			RebuiltAt: rebuiltAt,
		}, nil
	}

	response, err := caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyLeaderboardPage(limit, offset), CACHE_TTL_15_SECONDS, callback)
	if err != nil {
		return nil, err
	}

	if memberID != "" {
		me, err := service.PositionOf(ctx, memberID)
		if err == nil {
			response.Me = me
		}
	}

	return response, nil
}

// PositionOf reports a member's rank, points and percentile in the current
// snapshot. Unranked members get rank 0 and percentile 0.
func (service *ServiceLeaderboard) PositionOf(ctx context.Context, memberID string) (*models.MemberRanking, error) {
	callback := func() (*models.MemberRanking, error) {
		if _, err := service.snapshotEntries(ctx); err != nil {
			return nil, err
		}

		total, err := redis_store.GetLeaderboardTotal(ctx, service.redisDB)
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}

		rank, points, err := redis_store.GetMemberRank(ctx, service.redisDB, memberID)
		if errors.Is(err, redis.Nil) {
			return &models.MemberRanking{MemberID: memberID, TotalMembers: total}, nil
		}
		if err != nil {
			return nil, err
		}

		return &models.MemberRanking{
			MemberID:     memberID,
			Rank:         rank,
			TotalMembers: total,
			Points:       points,
			Percentile:   pkg.Percentile(rank, total),
		}, nil
	}

	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyMemberRanking(memberID), CACHE_TTL_15_SECONDS, callback)
}

func (service *ServiceLeaderboard) snapshotEntries(ctx context.Context) ([]*models.LeaderboardEntry, error) {
	entries, err := redis_store.GetLeaderboardEntries(ctx, service.redisDB)
	if err == nil {
		return entries, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, err
	}

	if _, err := service.Rebuild(ctx); err != nil {
		return nil, err
	}

	return redis_store.GetLeaderboardEntries(ctx, service.redisDB)
}
