package datastore

import (
	"context"
	"database/sql"
	"time"

	"bskmt/internal/models"

	"github.com/uptrace/bun"
)

func CreateTablePointsTransaction(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.PointsTransaction)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.PointsTransaction)(nil)).Index("index_points_transaction_member_id").IfNotExists().Column("member_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.PointsTransaction)(nil)).Index("index_points_transaction_member_created").IfNotExists().Column("member_id", "created_at").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.PointsTransaction)(nil)).Index("index_points_transaction_kind").IfNotExists().Column("kind").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

// AppendTransaction writes one ledger row and moves the member's cached
// balance in the same statement set. The guard `points_balance + amount >= 0`
// is what keeps balances non-negative under concurrency; callers run inside
// a transaction so a failed guard leaves nothing behind. Returns the balance
// after the write, or sql.ErrNoRows when the guard rejected the debit.
func AppendTransaction(ctx context.Context, db bun.IDB, txn *models.PointsTransaction) (int, error) {
	var balance int
	_, err := db.NewUpdate().
		Model((*models.Member)(nil)).
		Set("points_balance = points_balance + ?", txn.Amount).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", txn.MemberID).
		Where("points_balance + ? >= 0", txn.Amount).
		Returning("points_balance").
		Exec(ctx, &balance)
	if err != nil {
		return 0, err
	}

	_, err = db.NewInsert().Model(txn).Exec(ctx)
	if err != nil {
		return 0, err
	}

	return balance, nil
}

// RecordTransaction is the standalone form of AppendTransaction for writers
// that are not already inside a larger transaction.
func RecordTransaction(ctx context.Context, db *bun.DB, txn *models.PointsTransaction) (int, error) {
	var balance int
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		balance, err = AppendTransaction(ctx, tx, txn)
		return err
	})
	return balance, err
}

func SumPoints(ctx context.Context, db *bun.DB, memberID string) (int, error) {
	var total models.TotalPoints
	err := db.NewSelect().
		ColumnExpr("COALESCE(SUM(amount), 0) as total_points").
		ColumnExpr("member_id").
		TableExpr("points_transaction").
		Where("member_id = ?", memberID).
		GroupExpr("member_id").
		Scan(ctx, &total)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return total.TotalPoints, nil
}

func SumPointsFromTime(ctx context.Context, db *bun.DB, memberID string, from time.Time) (int, error) {
	var total models.TotalPoints
	err := db.NewSelect().
		ColumnExpr("COALESCE(SUM(amount), 0) as total_points").
		ColumnExpr("member_id").
		TableExpr("points_transaction").
		Where("member_id = ?", memberID).
		Where("created_at >= ?", from).
		GroupExpr("member_id").
		Scan(ctx, &total)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return total.TotalPoints, nil
}

// SumEarnedFromTime sums only credits; the rolling-year requirement counts
// points obtained, not the net after redemptions.
func SumEarnedFromTime(ctx context.Context, db *bun.DB, memberID string, from time.Time) (int, error) {
	var total models.TotalPoints
	err := db.NewSelect().
		ColumnExpr("COALESCE(SUM(amount), 0) as total_points").
		ColumnExpr("member_id").
		TableExpr("points_transaction").
		Where("member_id = ?", memberID).
		Where("created_at >= ?", from).
		Where("kind IN (?)", bun.In([]models.TransactionKind{models.TransactionEarn, models.TransactionBonus})).
		GroupExpr("member_id").
		Scan(ctx, &total)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return total.TotalPoints, nil
}

// GetLedgerTotals aggregates every member's ledger sum, ordered for the
// leaderboard rebuild.
func GetLedgerTotals(ctx context.Context, db *bun.DB) ([]*models.LeaderboardRow, error) {
	var rows []*models.LeaderboardRow
	err := db.NewSelect().
		ColumnExpr("m.id as member_id").
		ColumnExpr("m.first_name").
		ColumnExpr("m.last_name").
		ColumnExpr("m.tier").
		ColumnExpr("m.tier_since").
		ColumnExpr("COALESCE(SUM(t.amount), 0) as total_points").
		TableExpr("member as m").
		Join("LEFT JOIN points_transaction as t ON t.member_id = m.id").
		GroupExpr("m.id, m.first_name, m.last_name, m.tier, m.tier_since").
		OrderExpr("total_points DESC, m.tier_since ASC, m.id ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// GetTransactionsPage returns one keyset page, newest first.
func GetTransactionsPage(ctx context.Context, db *bun.DB, memberID string, cursor models.HistoryCursor, limit int) ([]*models.PointsTransaction, error) {
	q := db.NewSelect().
		Model((*models.PointsTransaction)(nil)).
		Where("member_id = ?", memberID).
		OrderExpr("created_at DESC, id DESC").
		Limit(limit)

	if !cursor.IsZero() {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var txns []*models.PointsTransaction
	err := q.Scan(ctx, &txns)
	if err != nil {
		return nil, err
	}

	return txns, nil
}

// FindTransactionByEvent locates an attendance award so it is granted at
// most once per (member, event).
func FindTransactionByEvent(ctx context.Context, db *bun.DB, memberID, eventID string, kind models.TransactionKind) (*models.PointsTransaction, error) {
	var txn models.PointsTransaction
	err := db.NewSelect().Model(&txn).
		Where("member_id = ?", memberID).
		Where("kind = ?", kind).
		Where("metadata->>? = ?", models.MetaEventID, eventID).
		OrderExpr("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &txn, nil
}
