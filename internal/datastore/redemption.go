package datastore

import (
	"context"
	"time"

	"bskmt/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableRedemption(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Redemption)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Redemption)(nil)).Index("index_redemption_member_id").IfNotExists().Column("member_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Redemption)(nil)).Index("index_redemption_state").IfNotExists().Column("state").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertRedemption(ctx context.Context, db bun.IDB, redemption *models.Redemption) error {
	_, err := db.NewInsert().Model(redemption).Exec(ctx)
	return err
}

func GetRedemption(ctx context.Context, db bun.IDB, redemptionID string) (*models.Redemption, error) {
	var redemption models.Redemption
	err := db.NewSelect().Model(&redemption).Where("id = ?", redemptionID).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &redemption, nil
}

func GetRedemptionsByMember(ctx context.Context, db *bun.DB, memberID string, limit, offset int) ([]*models.Redemption, error) {
	var redemptions []*models.Redemption
	err := db.NewSelect().Model(&redemptions).
		Where("member_id = ?", memberID).
		OrderExpr("created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return redemptions, nil
}

// MoveRedemptionState flips the state only when the row is still in the
// expected source state. A second identical call matches zero rows, which is
// what makes cancellation idempotent: the caller observes false and no
// second refund is written.
func MoveRedemptionState(ctx context.Context, db bun.IDB, redemptionID string, from, to models.RedemptionState, actorID, reason string) (bool, error) {
	now := time.Now()
	q := db.NewUpdate().
		Model((*models.Redemption)(nil)).
		Set("state = ?", to).
		Set("processed_by = ?", actorID).
		Where("id = ?", redemptionID).
		Where("state = ?", from)

	switch to {
	case models.RedemptionCompleted:
		q = q.Set("completed_at = ?", now)
	case models.RedemptionCancelled:
		q = q.Set("cancelled_at = ?", now).Set("cancellation_reason = ?", reason)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}
