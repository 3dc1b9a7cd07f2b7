package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bskmt/internal/datastore"
	"bskmt/internal/interfaces"
	"bskmt/internal/models"
	"bskmt/internal/pkg/caching"

	"github.com/go-redsync/redsync/v4"
	"github.com/google/uuid"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceReward struct {
	container          *do.Injector
	redisDB            redis.UniversalClient
	rs                 *redsync.Redsync
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
	notifier           interfaces.Notifier
	serviceMember      *ServiceMember
}

func NewServiceReward(container *do.Injector) (*ServiceReward, error) {
	dbRedis, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
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

	notifier, err := do.Invoke[interfaces.Notifier](container)
	if err != nil {
		return nil, err
	}

	serviceMember, err := do.Invoke[*ServiceMember](container)
	if err != nil {
		return nil, err
	}

	return &ServiceReward{container, dbRedis, rs, postgresDB, readonlyPostgresDB, cache, readonlyCache, notifier, serviceMember}, nil
}

// ListAvailable returns the catalog as one tier sees it: active, inside the
// validity window, in stock and not gated above the tier.
func (service *ServiceReward) ListAvailable(ctx context.Context, tier models.Tier) ([]models.Reward, error) {
	callback := func() ([]models.Reward, error) {
		rewards, err := datastore.GetActiveRewards(ctx, service.readonlyPostgresDB, time.Now())
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		visible := make([]models.Reward, 0, len(rewards))
		for _, reward := range rewards {
			if reward.MinimumTier != nil && !tier.AtLeast(*reward.MinimumTier) {
				continue
			}
			visible = append(visible, reward)
		}
		return visible, nil
	}

	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyRewardCatalog(string(tier)), CACHE_TTL_1_MIN, callback)
}

func (service *ServiceReward) GetReward(ctx context.Context, rewardID int64) (*models.Reward, error) {
	reward, err := datastore.GetReward(ctx, service.postgresDB, rewardID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errorx.Wrap(ErrNotFound, errorx.NotExist)
	}
	return reward, err
}

// Redeem exchanges points for a reward. Stock decrement, ledger debit,
// redemption row and catalog counters commit in one transaction; the locks
// serialize racing redemptions per reward and per member.
func (service *ServiceReward) Redeem(ctx context.Context, memberID string, rewardID int64) (*models.Redemption, error) {
	member, err := service.serviceMember.FindMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	rewardMutex := service.rs.NewMutex(LockKeyReward(rewardID))
	if err := rewardMutex.Lock(); err != nil {
		return nil, errorx.Wrap(ErrRewardLock, errorx.Invalid)
	}
	// nolint:errcheck
	defer rewardMutex.Unlock()

	ledgerMutex := service.rs.NewMutex(LockKeyMemberLedger(memberID))
	if err := ledgerMutex.Lock(); err != nil {
		return nil, errorx.Wrap(ErrMemberLedgerLock, errorx.Invalid)
	}
	// nolint:errcheck
	defer ledgerMutex.Unlock()

	reward, err := service.GetReward(ctx, rewardID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !reward.RedeemableAt(now) {
		if reward.Stock != nil && *reward.Stock == 0 {
			return nil, errorx.Wrap(ErrOutOfStock, errorx.Invalid)
		}
		return nil, errorx.Wrap(ErrNotFound, errorx.NotExist)
	}
	if reward.MinimumTier != nil && !member.Tier.AtLeast(*reward.MinimumTier) {
		return nil, errorx.Wrap(ErrRequirementsNotMet, errorx.Invalid)
	}
	if member.PointsBalance < reward.CostPoints {
		return nil, errorx.Wrap(ErrInsufficientPoints, errorx.Invalid)
	}

	redemption := &models.Redemption{
		ID:          uuid.NewString(),
		MemberID:    memberID,
		RewardID:    rewardID,
		PointsSpent: reward.CostPoints,
		State:       models.RedemptionPending,
		CreatedAt:   now,
	}

	err = service.postgresDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if !reward.Unlimited() {
			ok, err := datastore.DecrementStock(ctx, tx, rewardID)
			if err != nil {
				return err
			}
			if !ok {
				return errorx.Wrap(ErrOutOfStock, errorx.Invalid)
			}
		}

		txn := &models.PointsTransaction{
			ID:       uuid.NewString(),
			MemberID: memberID,
			Kind:     models.TransactionRedeem,
			Amount:   -reward.CostPoints,
			Reason:   REASON_REWARD_REDEEMED,
			Metadata: map[string]any{
				models.MetaRewardID:     rewardID,
				models.MetaRedemptionID: redemption.ID,
			},
			CreatedAt: now,
		}
		if _, err := datastore.AppendTransaction(ctx, tx, txn); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errorx.Wrap(ErrInsufficientPoints, errorx.Invalid)
			}
			return err
		}

		if err := datastore.InsertRedemption(ctx, tx, redemption); err != nil {
			return err
		}

		return datastore.AddRedemptionCounters(ctx, tx, rewardID, 1, 0)
	})
	if err != nil {
		return nil, err
	}

	service.clearCatalogCache(ctx)
	service.serviceMember.ClearMemberCache(ctx, memberID)
	return redemption, nil
}

// allowed transitions of the redemption lifecycle; both live states may be
// cancelled.
var redemptionTransitions = map[models.RedemptionState]map[models.RedemptionState]bool{
	models.RedemptionPending: {
		models.RedemptionProcessing: true,
		models.RedemptionCancelled:  true,
	},
	models.RedemptionProcessing: {
		models.RedemptionCompleted: true,
		models.RedemptionCancelled: true,
	},
}

// Advance moves a redemption along its lifecycle. Cancellation restocks the
// reward and refunds the points through a compensating Bonus row; repeating a
// cancellation is a no-op.
func (service *ServiceReward) Advance(ctx context.Context, redemptionID string, to models.RedemptionState, actorID, reason string) (*models.Redemption, error) {
	if !to.Valid() || to == models.RedemptionPending {
		return nil, errorx.Wrap(ErrInvalidTransition, errorx.Validation)
	}

	redemption, err := datastore.GetRedemption(ctx, service.postgresDB, redemptionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errorx.Wrap(ErrNotFound, errorx.NotExist)
	}
	if err != nil {
		return nil, err
	}

	// repeated transitions fail too, a second cancel must not refund twice
	if !redemptionTransitions[redemption.State][to] {
		return nil, errorx.Wrap(ErrInvalidTransition, errorx.Invalid)
	}

	rewardMutex := service.rs.NewMutex(LockKeyReward(redemption.RewardID))
	if err := rewardMutex.Lock(); err != nil {
		return nil, errorx.Wrap(ErrRewardLock, errorx.Invalid)
	}
	// nolint:errcheck
	defer rewardMutex.Unlock()

	ledgerMutex := service.rs.NewMutex(LockKeyMemberLedger(redemption.MemberID))
	if err := ledgerMutex.Lock(); err != nil {
		return nil, errorx.Wrap(ErrMemberLedgerLock, errorx.Invalid)
	}
	// nolint:errcheck
	defer ledgerMutex.Unlock()

	from := redemption.State
	err = service.postgresDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		moved, err := datastore.MoveRedemptionState(ctx, tx, redemptionID, from, to, actorID, reason)
		if err != nil {
			return err
		}
		if !moved {
			// someone else advanced it first
			return errorx.Wrap(ErrConcurrencyConflict, errorx.Invalid)
		}

		switch to {
		case models.RedemptionCompleted:
			return datastore.AddRedemptionCounters(ctx, tx, redemption.RewardID, -1, 1)
		case models.RedemptionCancelled:
			reward, err := datastore.GetReward(ctx, tx, redemption.RewardID)
			if err != nil {
				return err
			}
			if !reward.Unlimited() {
				if err := datastore.RestockOne(ctx, tx, redemption.RewardID); err != nil {
					return err
				}
			}

			refund := &models.PointsTransaction{
				ID:       uuid.NewString(),
				MemberID: redemption.MemberID,
				Kind:     models.TransactionBonus,
				Amount:   redemption.PointsSpent,
				Reason:   REASON_REDEMPTION_REFUND,
				Metadata: map[string]any{
					models.MetaRewardID:     redemption.RewardID,
					models.MetaRedemptionID: redemption.ID,
					models.MetaActorID:      actorID,
				},
				CreatedAt: time.Now(),
			}
			if _, err := datastore.AppendTransaction(ctx, tx, refund); err != nil {
				return err
			}

			return datastore.AddRedemptionCounters(ctx, tx, redemption.RewardID, -1, 0)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	service.clearCatalogCache(ctx)
	service.serviceMember.ClearMemberCache(ctx, redemption.MemberID)

	updated, err := datastore.GetRedemption(ctx, service.postgresDB, redemptionID)
	if err != nil {
		return nil, err
	}

	service.notifier.Notify(ctx, redemption.MemberID, NOTIFY_REDEMPTION_CHANGED, map[string]any{
		"redemption_id": redemptionID,
		"state":         string(to),
	})

	return updated, nil
}

// CancelOwn is the member-facing cancellation; it only touches the member's
// own redemption.
func (service *ServiceReward) CancelOwn(ctx context.Context, memberID, redemptionID string) (*models.Redemption, error) {
	redemption, err := datastore.GetRedemption(ctx, service.postgresDB, redemptionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errorx.Wrap(ErrNotFound, errorx.NotExist)
	}
	if err != nil {
		return nil, err
	}
	if redemption.MemberID != memberID {
		return nil, errorx.Wrap(ErrNotFound, errorx.NotExist)
	}

	return service.Advance(ctx, redemptionID, models.RedemptionCancelled, memberID, "cancelled by member")
}

func (service *ServiceReward) RedemptionHistory(ctx context.Context, memberID string, limit, offset int) ([]*models.Redemption, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return datastore.GetRedemptionsByMember(ctx, service.readonlyPostgresDB, memberID, limit, offset)
}

func (service *ServiceReward) CreateReward(ctx context.Context, reward *models.Reward) error {
	if reward.CostPoints <= 0 {
		return errorx.Wrap(errors.New("cost must be positive"), errorx.Validation)
	}
	if reward.MinimumTier != nil && !reward.MinimumTier.Valid() {
		return errorx.Wrap(errors.New("invalid minimum tier"), errorx.Validation)
	}
	if reward.Stock != nil && *reward.Stock < 0 {
		return errorx.Wrap(errors.New("stock must not be negative"), errorx.Validation)
	}
	if reward.Stock != nil && reward.InitialStock == nil {
		initial := *reward.Stock
		reward.InitialStock = &initial
	}

	if err := datastore.InsertReward(ctx, service.postgresDB, reward); err != nil {
		return err
	}

	service.clearCatalogCache(ctx)
	return nil
}

func (service *ServiceReward) EditReward(ctx context.Context, reward *models.Reward) (*models.Reward, error) {
	mutex := service.rs.NewMutex(LockKeyReward(reward.ID))
	if err := mutex.Lock(); err != nil {
		return nil, errorx.Wrap(ErrRewardLock, errorx.Invalid)
	}
	// nolint:errcheck
	defer mutex.Unlock()

	updated, err := datastore.UpdateReward(ctx, service.postgresDB, reward)
	if err != nil {
		return nil, err
	}

	service.clearCatalogCache(ctx)
	return updated, nil
}

func (service *ServiceReward) clearCatalogCache(ctx context.Context) {
	for _, tier := range []models.Tier{models.TierFriend, models.TierRider, models.TierPro, models.TierLegend, models.TierMaster, models.TierLeader} {
		// nolint:errcheck
		service.cache.Delete(ctx, DBKeyRewardCatalog(string(tier)))
	}
}
