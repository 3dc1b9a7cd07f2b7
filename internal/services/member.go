package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bskmt/internal/datastore"
	"bskmt/internal/interfaces"
	"bskmt/internal/models"
	"bskmt/internal/pkg"
	"bskmt/internal/pkg/caching"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceMember struct {
	container          *do.Injector
	redisDB            redis.UniversalClient
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
	eventStats         interfaces.EventStats
	volunteerStats     interfaces.VolunteerStats
}

func NewServiceMember(container *do.Injector) (*ServiceMember, error) {
	dbRedis, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
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

	eventStats, err := do.Invoke[interfaces.EventStats](container)
	if err != nil {
		return nil, err
	}

	volunteerStats, err := do.Invoke[interfaces.VolunteerStats](container)
	if err != nil {
		return nil, err
	}

	return &ServiceMember{container, dbRedis, postgresDB, readonlyPostgresDB, cache, readonlyCache, eventStats, volunteerStats}, nil
}

func (service *ServiceMember) FindMemberByID(ctx context.Context, memberID string) (*models.Member, error) {
	callback := func() (*models.Member, error) {
		member, err := datastore.GetMember(ctx, service.postgresDB, memberID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errorx.Wrap(ErrNotFound, errorx.NotExist)
		}
		return member, err
	}

	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyMember(memberID), CACHE_TTL_1_MIN, callback)
}

func (service *ServiceMember) CreateMember(ctx context.Context, member *models.Member) error {
	if member.Tier == "" {
		member.Tier = models.TierFriend
	}
	if !member.Tier.Valid() {
		return errorx.Wrap(errors.New("invalid tier"), errorx.Validation)
	}
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now()
	}
	if member.TierSince.IsZero() {
		member.TierSince = member.JoinedAt
	}

	return datastore.InsertMember(ctx, service.postgresDB, member)
}

// ToggleVolunteer flips the volunteer modifier. The member's tier does not
// change; only requirement evaluation reads the flag.
func (service *ServiceMember) ToggleVolunteer(ctx context.Context, memberID string, volunteer bool, actorID string) (*models.Member, error) {
	member, err := service.FindMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	if member.Volunteer == volunteer {
		return member, nil
	}

	err = service.postgresDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := datastore.SetMemberVolunteer(ctx, tx, memberID, volunteer); err != nil {
			return err
		}
		return datastore.InsertMembershipEvent(ctx, tx, &models.MembershipEvent{
			MemberID: memberID,
			Type:     models.MembershipEventVolunteerToggle,
			FromTier: member.Tier,
			ToTier:   member.Tier,
			ActorID:  actorID,
			Metadata: map[string]any{"volunteer": volunteer},
		})
	})
	if err != nil {
		return nil, err
	}

	service.ClearMemberCache(ctx, memberID)
	return datastore.GetMember(ctx, service.postgresDB, memberID)
}

// MemberFacts flattens the member row, the ledger aggregates and the
// collaborator summaries into the snapshot requirement evaluation consumes.
func (service *ServiceMember) MemberFacts(ctx context.Context, memberID string) (*models.MemberFacts, error) {
	callback := func() (*models.MemberFacts, error) {
		member, err := service.FindMemberByID(ctx, memberID)
		if err != nil {
			return nil, err
		}

		now := time.Now()

		lifetime, err := datastore.SumEarnedFromTime(ctx, service.readonlyPostgresDB, memberID, time.Time{})
		if err != nil {
			return nil, err
		}

		lastYear, err := datastore.SumEarnedFromTime(ctx, service.readonlyPostgresDB, memberID, pkg.RollingYearStart(now))
		if err != nil {
			return nil, err
		}

		attended, err := service.eventStats.ConfirmedEventCount(ctx, memberID)
		if err != nil {
			return nil, err
		}

		eligible, err := service.eventStats.EligibleEventCount(ctx, memberID)
		if err != nil {
			return nil, err
		}

		breakdown, err := service.eventStats.EventTypeBreakdown(ctx, memberID)
		if err != nil {
			return nil, err
		}

		hours, err := service.volunteerStats.VolunteerHours(ctx, memberID)
		if err != nil {
			return nil, err
		}

		return &models.MemberFacts{
			MemberID:          member.ID,
			Tier:              member.Tier,
			TierSince:         member.TierSince,
			JoinedAt:          member.JoinedAt,
			PointsBalance:     member.PointsBalance,
			LifetimePoints:    lifetime,
			LastYearPoints:    lastYear,
			EventsAttended:    attended,
			EligibleEvents:    eligible,
			EventBreakdown:    breakdown,
			Volunteering:      *hours,
			Volunteer:         member.Volunteer,
			DisciplinaryFlags: member.DisciplinaryFlags,
			Now:               now,
		}, nil
	}

	return caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyMemberFacts(memberID), CACHE_TTL_1_MIN, callback)
}

func (service *ServiceMember) MembershipHistory(ctx context.Context, memberID string, limit int) ([]*models.MembershipEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return datastore.GetMembershipEvents(ctx, service.readonlyPostgresDB, memberID, limit)
}

func (service *ServiceMember) ClearMemberCache(ctx context.Context, memberID string) {
	// nolint:errcheck
	service.cache.Delete(ctx, DBKeyMember(memberID))
	// nolint:errcheck
	service.cache.Delete(ctx, DBKeyMemberFacts(memberID))
	// nolint:errcheck
	service.cache.Delete(ctx, DBKeyMemberBalance(memberID))
}
