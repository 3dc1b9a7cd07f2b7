package datastore

import (
	"context"
	"time"

	"bskmt/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableMember(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Member)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Member)(nil)).Index("index_member_tier").IfNotExists().Column("tier").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Member)(nil)).Index("index_member_leader_until").IfNotExists().Column("leader_until").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func GetMember(ctx context.Context, db *bun.DB, memberID string) (*models.Member, error) {
	var member models.Member
	err := db.NewSelect().Model(&member).Where("id = ?", memberID).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &member, nil
}

func InsertMember(ctx context.Context, db *bun.DB, member *models.Member) error {
	_, err := db.NewInsert().Model(member).Exec(ctx)
	return err
}

// ChangeMemberTier moves a member between tiers, stamping tier_since and the
// mandate expiry in one statement. The previous-tier guard keeps concurrent
// transitions from applying twice.
func ChangeMemberTier(ctx context.Context, db bun.IDB, memberID string, from, to models.Tier, leaderUntil *time.Time) (bool, error) {
	res, err := db.NewUpdate().
		Model((*models.Member)(nil)).
		Set("tier = ?", to).
		Set("tier_since = ?", time.Now()).
		Set("leader_until = ?", leaderUntil).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", memberID).
		Where("tier = ?", from).
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

func SetMemberVolunteer(ctx context.Context, db bun.IDB, memberID string, volunteer bool) error {
	_, err := db.NewUpdate().
		Model((*models.Member)(nil)).
		Set("volunteer = ?", volunteer).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", memberID).
		Exec(ctx)
	return err
}

func SetMemberLeaderCooldown(ctx context.Context, db bun.IDB, memberID string, till *time.Time) error {
	_, err := db.NewUpdate().
		Model((*models.Member)(nil)).
		Set("leader_cooldown_till = ?", till).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", memberID).
		Exec(ctx)
	return err
}

func CountMembersByTier(ctx context.Context, db *bun.DB, tier models.Tier) (int, error) {
	return db.NewSelect().Model((*models.Member)(nil)).Where("tier = ?", tier).Count(ctx)
}

// GetExpiredLeaders lists Leaders whose mandate lapsed before now; consumed
// by the mandate sweep.
func GetExpiredLeaders(ctx context.Context, db *bun.DB, now time.Time) ([]*models.Member, error) {
	var members []*models.Member
	err := db.NewSelect().Model(&members).
		Where("tier = ?", models.TierLeader).
		Where("leader_until IS NOT NULL").
		Where("leader_until < ?", now).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return members, nil
}

// GetElapsedCooldowns lists members whose re-application cool-down has
// passed; the sweep clears the marker.
func GetElapsedCooldowns(ctx context.Context, db *bun.DB, now time.Time) ([]*models.Member, error) {
	var members []*models.Member
	err := db.NewSelect().Model(&members).
		Where("leader_cooldown_till IS NOT NULL").
		Where("leader_cooldown_till < ?", now).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return members, nil
}

func InsertMembershipEvent(ctx context.Context, db bun.IDB, event *models.MembershipEvent) error {
	_, err := db.NewInsert().Model(event).Exec(ctx)
	return err
}

func CreateTableMembershipEvent(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.MembershipEvent)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.MembershipEvent)(nil)).Index("index_membership_event_member_id").IfNotExists().Column("member_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func GetMembershipEvents(ctx context.Context, db *bun.DB, memberID string, limit int) ([]*models.MembershipEvent, error) {
	var events []*models.MembershipEvent
	err := db.NewSelect().Model(&events).
		Where("member_id = ?", memberID).
		OrderExpr("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return events, nil
}
