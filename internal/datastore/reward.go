package datastore

import (
	"context"
	"time"

	"bskmt/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableReward(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Reward)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Reward)(nil)).Index("index_reward_active_category").IfNotExists().Column("active", "category").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func GetReward(ctx context.Context, db bun.IDB, rewardID int64) (*models.Reward, error) {
	var reward models.Reward
	err := db.NewSelect().Model(&reward).Where("id = ?", rewardID).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &reward, nil
}

// GetActiveRewards lists catalog entries inside their validity window with
// stock remaining. Tier and balance gates are applied by the caller, which
// knows the member.
func GetActiveRewards(ctx context.Context, db *bun.DB, now time.Time) ([]models.Reward, error) {
	var rewards []models.Reward
	err := db.NewSelect().Model(&rewards).
		Where("active = ?", true).
		Where("valid_from <= ?", now).
		Where("valid_until IS NULL OR valid_until >= ?", now).
		Where("stock IS NULL OR stock > 0").
		OrderExpr("cost_points ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return rewards, nil
}

func InsertReward(ctx context.Context, db *bun.DB, reward *models.Reward) error {
	_, err := db.NewInsert().Model(reward).Exec(ctx)
	return err
}

func UpdateReward(ctx context.Context, db *bun.DB, reward *models.Reward) (*models.Reward, error) {
	reward.UpdatedAt = time.Now()
	_, err := db.NewUpdate().Model(reward).WherePK().Exec(ctx)
	if err != nil {
		return nil, err
	}

	return reward, nil
}

// DecrementStock takes one unit only while stock remains; with N concurrent
// redeemers and one unit left, exactly one caller sees true. Unlimited
// rewards are the caller's no-op.
func DecrementStock(ctx context.Context, db bun.IDB, rewardID int64) (bool, error) {
	res, err := db.NewUpdate().
		Model((*models.Reward)(nil)).
		Set("stock = stock - 1").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", rewardID).
		Where("stock > 0").
		Exec(ctx)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}

// RestockOne reverses a decrement on cancellation; no-op for unlimited
// rewards (stock IS NULL).
func RestockOne(ctx context.Context, db bun.IDB, rewardID int64) error {
	_, err := db.NewUpdate().
		Model((*models.Reward)(nil)).
		Set("stock = stock + 1").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", rewardID).
		Where("stock IS NOT NULL").
		Exec(ctx)
	return err
}

func AddRedemptionCounters(ctx context.Context, db bun.IDB, rewardID int64, pendingDelta, completedDelta int) error {
	_, err := db.NewUpdate().
		Model((*models.Reward)(nil)).
		Set("pending_redemptions = pending_redemptions + ?", pendingDelta).
		Set("completed_redemptions = completed_redemptions + ?", completedDelta).
		Where("id = ?", rewardID).
		Exec(ctx)
	return err
}
