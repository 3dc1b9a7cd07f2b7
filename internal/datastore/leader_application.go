package datastore

import (
	"context"
	"time"

	"bskmt/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableLeaderApplication(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.LeaderApplication)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.LeaderApplication)(nil)).Index("index_leader_application_member_id").IfNotExists().Column("member_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.LeaderApplication)(nil)).Index("index_leader_application_status").IfNotExists().Column("status").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertLeaderApplication(ctx context.Context, db bun.IDB, application *models.LeaderApplication) error {
	_, err := db.NewInsert().Model(application).Exec(ctx)
	return err
}

func GetLeaderApplication(ctx context.Context, db bun.IDB, applicationID string) (*models.LeaderApplication, error) {
	var application models.LeaderApplication
	err := db.NewSelect().Model(&application).Where("id = ?", applicationID).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &application, nil
}

func GetPendingApplicationByMember(ctx context.Context, db *bun.DB, memberID string) (*models.LeaderApplication, error) {
	var application models.LeaderApplication
	err := db.NewSelect().Model(&application).
		Where("member_id = ?", memberID).
		Where("status = ?", models.ApplicationPending).
		OrderExpr("submitted_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &application, nil
}

func UpdateLeaderApplication(ctx context.Context, db bun.IDB, application *models.LeaderApplication) (*models.LeaderApplication, error) {
	_, err := db.NewUpdate().Model(application).WherePK().Exec(ctx)
	if err != nil {
		return nil, err
	}

	return application, nil
}

// DecideLeaderApplication closes a Pending application; the status guard
// keeps a concurrent ratification and rejection from both landing.
func DecideLeaderApplication(ctx context.Context, db bun.IDB, applicationID string, to models.ApplicationStatus, reason string) (bool, error) {
	res, err := db.NewUpdate().
		Model((*models.LeaderApplication)(nil)).
		Set("status = ?", to).
		Set("rejection_reason = ?", reason).
		Set("decided_at = ?", time.Now()).
		Where("id = ?", applicationID).
		Where("status = ?", models.ApplicationPending).
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
