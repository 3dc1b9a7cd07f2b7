package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bskmt/internal/datastore"
	"bskmt/internal/models"
	"bskmt/internal/pkg"
	"bskmt/internal/pkg/caching"

	"github.com/go-redsync/redsync/v4"
	"github.com/google/uuid"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServicePoints struct {
	container          *do.Injector
	redisDB            redis.UniversalClient
	rs                 *redsync.Redsync
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
}

func NewServicePoints(container *do.Injector) (*ServicePoints, error) {
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

	return &ServicePoints{container, dbRedis, rs, postgresDB, readonlyPostgresDB, cache, readonlyCache}, nil
}

// ValidateAmount enforces the sign convention: Earn and Bonus carry
// non-negative amounts, Redeem and Penalty non-positive ones.
func ValidateAmount(kind models.TransactionKind, amount int) error {
	if !kind.Valid() {
		return errorx.Wrap(ErrInvalidAmount, errorx.Validation)
	}
	if kind.Credits() && amount < 0 {
		return errorx.Wrap(ErrInvalidAmount, errorx.Validation)
	}
	if !kind.Credits() && amount > 0 {
		return errorx.Wrap(ErrInvalidAmount, errorx.Validation)
	}
	return nil
}

// Record appends one ledger row under the member's ledger lock. The balance
// guard inside the transaction rejects any write that would take the balance
// negative.
func (service *ServicePoints) Record(ctx context.Context, memberID string, kind models.TransactionKind, amount int, reason string, metadata map[string]any) (*models.PointsTransaction, error) {
	if err := ValidateAmount(kind, amount); err != nil {
		return nil, err
	}

	mutex := service.rs.NewMutex(LockKeyMemberLedger(memberID))
	if err := mutex.Lock(); err != nil {
		return nil, errorx.Wrap(ErrMemberLedgerLock, errorx.Invalid)
	}
	// nolint:errcheck
	defer mutex.Unlock()

	txn := &models.PointsTransaction{
		ID:        uuid.NewString(),
		MemberID:  memberID,
		Kind:      kind,
		Amount:    amount,
		Reason:    reason,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}

	_, err := datastore.RecordTransaction(ctx, service.postgresDB, txn)
	if errors.Is(err, sql.ErrNoRows) {
		// the guard rejects both a failed balance check and an unknown id
		_, memberErr := datastore.GetMember(ctx, service.postgresDB, memberID)
		return nil, guardRejection(!errors.Is(memberErr, sql.ErrNoRows))
	}
	if err != nil {
		return nil, err
	}

	service.clearBalanceCache(ctx, memberID)
	return txn, nil
}

// guardRejection maps a zero-row balance update to the right business error:
// unknown ids are NotFound, known ids failed the non-negative guard.
func guardRejection(memberKnown bool) error {
	if !memberKnown {
		return errorx.Wrap(ErrNotFound, errorx.NotExist)
	}
	return errorx.Wrap(ErrInsufficientBalance, errorx.Invalid)
}

func (service *ServicePoints) BalanceOf(ctx context.Context, memberID string) (int, error) {
	callback := func() (int, error) {
		member, err := datastore.GetMember(ctx, service.postgresDB, memberID)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, errorx.Wrap(ErrNotFound, errorx.NotExist)
		}
		if err != nil {
			return 0, err
		}
		return member.PointsBalance, nil
	}

	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyMemberBalance(memberID), CACHE_TTL_15_SECONDS, callback)
}

// LifetimePoints is the sum of all credits ever earned; redemptions and
// penalties do not reduce it.
func (service *ServicePoints) LifetimePoints(ctx context.Context, memberID string) (int, error) {
	return datastore.SumEarnedFromTime(ctx, service.readonlyPostgresDB, memberID, time.Time{})
}

func (service *ServicePoints) LastYearPoints(ctx context.Context, memberID string) (int, error) {
	return datastore.SumEarnedFromTime(ctx, service.readonlyPostgresDB, memberID, pkg.RollingYearStart(time.Now()))
}

func (service *ServicePoints) History(ctx context.Context, memberID string, cursor models.HistoryCursor, limit int) (*models.HistoryPage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	txns, err := datastore.GetTransactionsPage(ctx, service.readonlyPostgresDB, memberID, cursor, limit)
	if err != nil {
		return nil, err
	}

	page := &models.HistoryPage{Transactions: txns}
	if len(txns) == limit {
		last := txns[len(txns)-1]
		page.Next = &models.HistoryCursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}

	return page, nil
}

// AwardEventAttendance credits attendance points at most once per
// (member, event). A repeated call returns the original row.
func (service *ServicePoints) AwardEventAttendance(ctx context.Context, memberID, eventID string, amount int, actorID string) (*models.PointsTransaction, error) {
	if amount < 0 {
		return nil, errorx.Wrap(ErrInvalidAmount, errorx.Validation)
	}

	existing, err := datastore.FindTransactionByEvent(ctx, service.postgresDB, memberID, eventID, models.TransactionEarn)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	return service.Record(ctx, memberID, models.TransactionEarn, amount, REASON_EVENT_ATTENDANCE, map[string]any{
		models.MetaEventID: eventID,
		models.MetaActorID: actorID,
	})
}

// RevokeEventAttendance appends the compensating penalty for a withdrawn
// attendance. The original earn row stays in the ledger.
func (service *ServicePoints) RevokeEventAttendance(ctx context.Context, memberID, eventID string, actorID string) (*models.PointsTransaction, error) {
	awarded, err := datastore.FindTransactionByEvent(ctx, service.postgresDB, memberID, eventID, models.TransactionEarn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errorx.Wrap(ErrNotFound, errorx.NotExist)
	}
	if err != nil {
		return nil, err
	}

	revoked, err := datastore.FindTransactionByEvent(ctx, service.postgresDB, memberID, eventID, models.TransactionPenalty)
	if err == nil {
		return revoked, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	return service.Record(ctx, memberID, models.TransactionPenalty, -awarded.Amount, REASON_ATTENDANCE_REVOKED, map[string]any{
		models.MetaEventID: eventID,
		models.MetaActorID: actorID,
	})
}

// GrantPoints is the admin adjustment path: bonuses and penalties only.
func (service *ServicePoints) GrantPoints(ctx context.Context, memberID string, kind models.TransactionKind, amount int, reason, actorID string) (*models.PointsTransaction, error) {
	if kind != models.TransactionBonus && kind != models.TransactionPenalty {
		return nil, errorx.Wrap(ErrInvalidAmount, errorx.Validation)
	}
	if reason == "" {
		return nil, errorx.Wrap(errors.New("a reason is required"), errorx.Validation)
	}

	return service.Record(ctx, memberID, kind, amount, reason, map[string]any{
		models.MetaActorID: actorID,
	})
}

// Reconcile replays the ledger and rewrites the denormalized balance when
// they diverge. Returns the replayed sum.
func (service *ServicePoints) Reconcile(ctx context.Context, memberID string) (int, error) {
	mutex := service.rs.NewMutex(LockKeyMemberLedger(memberID))
	if err := mutex.Lock(); err != nil {
		return 0, errorx.Wrap(ErrMemberLedgerLock, errorx.Invalid)
	}
	// nolint:errcheck
	defer mutex.Unlock()

	total, err := datastore.SumPoints(ctx, service.postgresDB, memberID)
	if err != nil {
		return 0, err
	}

	_, err = service.postgresDB.NewUpdate().
		Model((*models.Member)(nil)).
		Set("points_balance = ?", total).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", memberID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	service.clearBalanceCache(ctx, memberID)
	return total, nil
}

func (service *ServicePoints) clearBalanceCache(ctx context.Context, memberID string) {
	// nolint:errcheck
	service.cache.Delete(ctx, DBKeyMemberBalance(memberID))
	// nolint:errcheck
	service.cache.Delete(ctx, DBKeyMember(memberID))
	// nolint:errcheck
	service.cache.Delete(ctx, DBKeyMemberFacts(memberID))
}
