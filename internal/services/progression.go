package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bskmt/internal/datastore"
	"bskmt/internal/interfaces"
	"bskmt/internal/models"

	"github.com/go-redsync/redsync/v4"
	"github.com/google/uuid"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceProgression struct {
	container           *do.Injector
	rs                  *redsync.Redsync
	postgresDB          *bun.DB
	serviceConfig       *ServiceConfig
	serviceMember       *ServiceMember
	serviceRequirements *ServiceRequirements
	committee           interfaces.EvaluationCommittee
	notifier            interfaces.Notifier
}

func NewServiceProgression(container *do.Injector) (*ServiceProgression, error) {
	rs, err := do.Invoke[*redsync.Redsync](container)
	if err != nil {
		return nil, err
	}

	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	serviceConfig, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	serviceMember, err := do.Invoke[*ServiceMember](container)
	if err != nil {
		return nil, err
	}

	serviceRequirements, err := do.Invoke[*ServiceRequirements](container)
	if err != nil {
		return nil, err
	}

	committee, err := do.Invoke[interfaces.EvaluationCommittee](container)
	if err != nil {
		return nil, err
	}

	notifier, err := do.Invoke[interfaces.Notifier](container)
	if err != nil {
		return nil, err
	}

	return &ServiceProgression{container, rs, postgresDB, serviceConfig, serviceMember, serviceRequirements, committee, notifier}, nil
}

// RequestUpgrade promotes a member to the next tier when every requirement
// holds. Leader is never reachable this way; it runs through the application
// workflow.
func (service *ServiceProgression) RequestUpgrade(ctx context.Context, memberID string) (*models.RequirementReport, error) {
	member, err := service.serviceMember.FindMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	target := member.Tier.Next()
	if target == "" || target == models.TierLeader {
		return nil, errorx.Wrap(ErrRequirementsNotMet, errorx.Invalid)
	}

	report, err := service.serviceRequirements.EvaluateMember(ctx, memberID, target)
	if err != nil {
		return nil, err
	}
	if !report.AllSatisfied() {
		return report, errorx.Wrap(ErrRequirementsNotMet, errorx.Invalid)
	}

	err = service.changeTier(ctx, member, target, models.MembershipEventUpgrade, memberID, "", nil, nil)
	if err != nil {
		return report, err
	}

	return report, nil
}

// AdminOverrideTier moves a member to any tier, up or down, with a mandatory
// reason. Requirements are not checked; the audit row records the actor.
func (service *ServiceProgression) AdminOverrideTier(ctx context.Context, memberID string, to models.Tier, actorID, reason string) error {
	if !to.Valid() {
		return errorx.Wrap(errors.New("invalid tier"), errorx.Validation)
	}
	if reason == "" {
		return errorx.Wrap(errors.New("a reason is required"), errorx.Validation)
	}

	member, err := service.serviceMember.FindMemberByID(ctx, memberID)
	if err != nil {
		return err
	}
	if member.Tier == to {
		return nil
	}

	var leaderUntil *time.Time
	if to == models.TierLeader {
		until, err := service.mandateEnd(ctx, time.Now())
		if err != nil {
			return err
		}
		leaderUntil = &until
	}

	return service.changeTier(ctx, member, to, models.MembershipEventAdminOverride, actorID, reason, leaderUntil, nil)
}

// changeTier is the single write path for tier transitions. The conditional
// update keeps racing transitions from double-applying.
func (service *ServiceProgression) changeTier(ctx context.Context, member *models.Member, to models.Tier, eventType, actorID, reason string, leaderUntil *time.Time, metadata map[string]any) error {
	err := service.postgresDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		changed, err := datastore.ChangeMemberTier(ctx, tx, member.ID, member.Tier, to, leaderUntil)
		if err != nil {
			return err
		}
		if !changed {
			return errorx.Wrap(ErrConcurrencyConflict, errorx.Invalid)
		}

		return datastore.InsertMembershipEvent(ctx, tx, &models.MembershipEvent{
			MemberID: member.ID,
			Type:     eventType,
			FromTier: member.Tier,
			ToTier:   to,
			ActorID:  actorID,
			Reason:   reason,
			Metadata: metadata,
		})
	})
	if err != nil {
		return err
	}

	service.serviceMember.ClearMemberCache(ctx, member.ID)
	service.notifier.Notify(ctx, member.ID, NOTIFY_TIER_CHANGED, map[string]any{
		"from": string(member.Tier),
		"to":   string(to),
	})
	return nil
}

// ApplyForLeader opens a Leader application for a Master in good standing.
// One pending application per member; the cool-down after a rejection or an
// expired mandate blocks re-application.
func (service *ServiceProgression) ApplyForLeader(ctx context.Context, memberID, leadershipPlan string) (*models.LeaderApplication, error) {
	mutex := service.rs.NewMutex(LockKeyLeaderApplication(memberID))
	if err := mutex.Lock(); err != nil {
		return nil, errorx.Wrap(ErrApplicationLock, errorx.Invalid)
	}
	// nolint:errcheck
	defer mutex.Unlock()

	member, err := service.serviceMember.FindMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if member.LeaderCooldownTill != nil && now.Before(*member.LeaderCooldownTill) {
		return nil, errorx.Wrap(ErrCooldownActive, errorx.Invalid)
	}

	if _, err := datastore.GetPendingApplicationByMember(ctx, service.postgresDB, memberID); err == nil {
		return nil, errorx.Wrap(errors.New("an application is already pending"), errorx.Invalid)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if err := service.requireVacancy(ctx); err != nil {
		return nil, err
	}

	report, err := service.serviceRequirements.EvaluateMember(ctx, memberID, models.TierLeader)
	if err != nil {
		return nil, err
	}
	if !report.AllSatisfied() {
		return nil, errorx.Wrap(ErrRequirementsNotMet, errorx.Invalid)
	}

	application := &models.LeaderApplication{
		ID:             uuid.NewString(),
		MemberID:       memberID,
		Status:         models.ApplicationPending,
		LeadershipPlan: leadershipPlan,
		SubmittedAt:    now,
	}

	err = service.postgresDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := datastore.InsertLeaderApplication(ctx, tx, application); err != nil {
			return err
		}
		return datastore.InsertMembershipEvent(ctx, tx, &models.MembershipEvent{
			MemberID: memberID,
			Type:     models.MembershipEventLeaderApplied,
			FromTier: member.Tier,
			ToTier:   models.TierLeader,
			ActorID:  memberID,
			Metadata: map[string]any{"application_id": application.ID},
		})
	})
	if err != nil {
		return nil, err
	}

	return application, nil
}

// Endorse records one endorsement from an active Leader or Master. A member
// endorses a given application at most once.
func (service *ServiceProgression) Endorse(ctx context.Context, applicationID, endorserID string) (*models.LeaderApplication, error) {
	endorser, err := service.serviceMember.FindMemberByID(ctx, endorserID)
	if err != nil {
		return nil, err
	}
	if endorser.Tier != models.TierLeader && endorser.Tier != models.TierMaster {
		return nil, errorx.Wrap(errors.New("only Leaders and Masters endorse"), errorx.Invalid)
	}

	application, err := service.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	mutex := service.rs.NewMutex(LockKeyLeaderApplication(application.MemberID))
	if err := mutex.Lock(); err != nil {
		return nil, errorx.Wrap(ErrApplicationLock, errorx.Invalid)
	}
	// nolint:errcheck
	defer mutex.Unlock()

	application, err = service.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if application.Status != models.ApplicationPending {
		return nil, errorx.Wrap(ErrInvalidTransition, errorx.Invalid)
	}
	if application.MemberID == endorserID {
		return nil, errorx.Wrap(errors.New("self-endorsement is not allowed"), errorx.Invalid)
	}
	if application.HasEndorser(endorserID) {
		return application, nil
	}

	application.Endorsements = append(application.Endorsements, models.Endorsement{
		EndorserID: endorserID,
		Role:       endorser.Tier,
		EndorsedAt: time.Now(),
	})

	return datastore.UpdateLeaderApplication(ctx, service.postgresDB, application)
}

// SubmitForEvaluation hands a fully endorsed application to the committee
// and stores the outcome. A rejection by the committee closes the
// application and starts the cool-down.
func (service *ServiceProgression) SubmitForEvaluation(ctx context.Context, applicationID string) (*models.LeaderApplication, error) {
	application, err := service.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	mutex := service.rs.NewMutex(LockKeyLeaderApplication(application.MemberID))
	if err := mutex.Lock(); err != nil {
		return nil, errorx.Wrap(ErrApplicationLock, errorx.Invalid)
	}
	// nolint:errcheck
	defer mutex.Unlock()

	application, err = service.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if application.Status != models.ApplicationPending {
		return nil, errorx.Wrap(ErrInvalidTransition, errorx.Invalid)
	}
	if application.EvaluationDone {
		return application, nil
	}

	quota, err := service.endorsementQuota(ctx)
	if err != nil {
		return nil, err
	}
	if !application.QuotaMet(quota) {
		return nil, errorx.Wrap(ErrRequirementsNotMet, errorx.Invalid)
	}

	outcome, err := service.committee.SubmitForEvaluation(ctx, applicationID)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	application.EvaluationDone = true
	application.EvaluationNotes = outcome.Notes
	if _, err := datastore.UpdateLeaderApplication(ctx, service.postgresDB, application); err != nil {
		return nil, err
	}

	if !outcome.Approved {
		return service.reject(ctx, application, "committee", outcome.Notes)
	}

	return application, nil
}

// Ratify is the final assembly decision: the applicant becomes a Leader with
// a fresh mandate. Requires a completed evaluation and a seat still open.
func (service *ServiceProgression) Ratify(ctx context.Context, applicationID, actorID string) (*models.LeaderApplication, error) {
	application, err := service.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	mutex := service.rs.NewMutex(LockKeyLeaderApplication(application.MemberID))
	if err := mutex.Lock(); err != nil {
		return nil, errorx.Wrap(ErrApplicationLock, errorx.Invalid)
	}
	// nolint:errcheck
	defer mutex.Unlock()

	application, err = service.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if application.Status != models.ApplicationPending || !application.EvaluationDone {
		return nil, errorx.Wrap(ErrInvalidTransition, errorx.Invalid)
	}

	quota, err := service.endorsementQuota(ctx)
	if err != nil {
		return nil, err
	}
	if !application.QuotaMet(quota) {
		return nil, errorx.Wrap(ErrRequirementsNotMet, errorx.Invalid)
	}

	if err := service.requireVacancy(ctx); err != nil {
		return nil, err
	}

	member, err := service.serviceMember.FindMemberByID(ctx, application.MemberID)
	if err != nil {
		return nil, err
	}

	until, err := service.mandateEnd(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	decided, err := datastore.DecideLeaderApplication(ctx, service.postgresDB, applicationID, models.ApplicationApproved, "")
	if err != nil {
		return nil, err
	}
	if !decided {
		return nil, errorx.Wrap(ErrConcurrencyConflict, errorx.Invalid)
	}

	err = service.changeTier(ctx, member, models.TierLeader, models.MembershipEventLeaderOutcome, actorID, "application ratified", &until, map[string]any{
		"application_id": applicationID,
	})
	if err != nil {
		return nil, err
	}

	service.notifier.Notify(ctx, application.MemberID, NOTIFY_APPLICATION_RESULT, map[string]any{
		"application_id": applicationID,
		"approved":       true,
	})

	return service.getApplication(ctx, applicationID)
}

// Reject closes a pending application and starts the re-application
// cool-down.
func (service *ServiceProgression) Reject(ctx context.Context, applicationID, actorID, reason string) (*models.LeaderApplication, error) {
	application, err := service.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	mutex := service.rs.NewMutex(LockKeyLeaderApplication(application.MemberID))
	if err := mutex.Lock(); err != nil {
		return nil, errorx.Wrap(ErrApplicationLock, errorx.Invalid)
	}
	// nolint:errcheck
	defer mutex.Unlock()

	application, err = service.getApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if application.Status != models.ApplicationPending {
		return nil, errorx.Wrap(ErrInvalidTransition, errorx.Invalid)
	}

	return service.reject(ctx, application, actorID, reason)
}

func (service *ServiceProgression) reject(ctx context.Context, application *models.LeaderApplication, actorID, reason string) (*models.LeaderApplication, error) {
	cooldownDays, err := service.serviceConfig.GetIntConfig(ctx, CONFIG_LEADER_COOLDOWN_DAYS, LEADER_COOLDOWN_DAYS_DEFAULT)
	if err != nil {
		cooldownDays = LEADER_COOLDOWN_DAYS_DEFAULT
	}
	cooldownTill := time.Now().AddDate(0, 0, cooldownDays)

	err = service.postgresDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		decided, err := datastore.DecideLeaderApplication(ctx, tx, application.ID, models.ApplicationRejected, reason)
		if err != nil {
			return err
		}
		if !decided {
			return errorx.Wrap(ErrConcurrencyConflict, errorx.Invalid)
		}

		if err := datastore.SetMemberLeaderCooldown(ctx, tx, application.MemberID, &cooldownTill); err != nil {
			return err
		}

		return datastore.InsertMembershipEvent(ctx, tx, &models.MembershipEvent{
			MemberID: application.MemberID,
			Type:     models.MembershipEventLeaderOutcome,
			ActorID:  actorID,
			Reason:   reason,
			Metadata: map[string]any{"application_id": application.ID, "approved": false},
		})
	})
	if err != nil {
		return nil, err
	}

	service.serviceMember.ClearMemberCache(ctx, application.MemberID)
	service.notifier.Notify(ctx, application.MemberID, NOTIFY_APPLICATION_RESULT, map[string]any{
		"application_id": application.ID,
		"approved":       false,
		"reason":         reason,
	})

	return service.getApplication(ctx, application.ID)
}

// RenewMandate extends a sitting Leader's mandate by one full term from its
// current end.
func (service *ServiceProgression) RenewMandate(ctx context.Context, memberID, actorID string) (*models.Member, error) {
	member, err := service.serviceMember.FindMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member.Tier != models.TierLeader || member.LeaderUntil == nil {
		return nil, errorx.Wrap(ErrInvalidTransition, errorx.Invalid)
	}

	until, err := service.mandateEnd(ctx, *member.LeaderUntil)
	if err != nil {
		return nil, err
	}

	err = service.postgresDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model((*models.Member)(nil)).
			Set("leader_until = ?", until).
			Set("updated_at = ?", time.Now()).
			Where("id = ?", memberID).
			Where("tier = ?", models.TierLeader).
			Exec(ctx)
		if err != nil {
			return err
		}

		return datastore.InsertMembershipEvent(ctx, tx, &models.MembershipEvent{
			MemberID: memberID,
			Type:     models.MembershipEventMandateRenewed,
			FromTier: models.TierLeader,
			ToTier:   models.TierLeader,
			ActorID:  actorID,
			Metadata: map[string]any{"leader_until": until},
		})
	})
	if err != nil {
		return nil, err
	}

	service.serviceMember.ClearMemberCache(ctx, memberID)
	return datastore.GetMember(ctx, service.postgresDB, memberID)
}

// SweepMandates demotes Leaders whose mandate has lapsed back to Master and
// starts their re-application cool-down. Driven by the scheduler, never by
// reads.
func (service *ServiceProgression) SweepMandates(ctx context.Context) (int, error) {
	now := time.Now()
	expired, err := datastore.GetExpiredLeaders(ctx, service.postgresDB, now)
	if err != nil {
		return 0, err
	}

	cooldownDays, err := service.serviceConfig.GetIntConfig(ctx, CONFIG_LEADER_COOLDOWN_DAYS, LEADER_COOLDOWN_DAYS_DEFAULT)
	if err != nil {
		cooldownDays = LEADER_COOLDOWN_DAYS_DEFAULT
	}

	demoted := 0
	for _, member := range expired {
		cooldownTill := now.AddDate(0, 0, cooldownDays)
		err := service.postgresDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			changed, err := datastore.ChangeMemberTier(ctx, tx, member.ID, models.TierLeader, models.TierMaster, nil)
			if err != nil {
				return err
			}
			if !changed {
				return nil
			}

			if err := datastore.SetMemberLeaderCooldown(ctx, tx, member.ID, &cooldownTill); err != nil {
				return err
			}

			demoted++
			return datastore.InsertMembershipEvent(ctx, tx, &models.MembershipEvent{
				MemberID: member.ID,
				Type:     models.MembershipEventMandateExpired,
				FromTier: models.TierLeader,
				ToTier:   models.TierMaster,
			})
		})
		if err != nil {
			return demoted, err
		}

		service.serviceMember.ClearMemberCache(ctx, member.ID)
		service.notifier.Notify(ctx, member.ID, NOTIFY_MANDATE_EXPIRED, map[string]any{
			"expired_at": member.LeaderUntil,
		})
	}

	return demoted, nil
}

// SweepCooldowns clears elapsed re-application cool-downs.
func (service *ServiceProgression) SweepCooldowns(ctx context.Context) (int, error) {
	elapsed, err := datastore.GetElapsedCooldowns(ctx, service.postgresDB, time.Now())
	if err != nil {
		return 0, err
	}

	cleared := 0
	for _, member := range elapsed {
		if err := datastore.SetMemberLeaderCooldown(ctx, service.postgresDB, member.ID, nil); err != nil {
			return cleared, err
		}
		service.serviceMember.ClearMemberCache(ctx, member.ID)
		cleared++
	}

	return cleared, nil
}

func (service *ServiceProgression) GetApplication(ctx context.Context, applicationID string) (*models.LeaderApplication, error) {
	return service.getApplication(ctx, applicationID)
}

func (service *ServiceProgression) getApplication(ctx context.Context, applicationID string) (*models.LeaderApplication, error) {
	application, err := datastore.GetLeaderApplication(ctx, service.postgresDB, applicationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errorx.Wrap(ErrNotFound, errorx.NotExist)
	}
	return application, err
}

func (service *ServiceProgression) requireVacancy(ctx context.Context) error {
	maxSeats, err := service.serviceConfig.GetIntConfig(ctx, CONFIG_LEADER_MAX_SEATS, LEADER_MAX_SEATS_DEFAULT)
	if err != nil {
		maxSeats = LEADER_MAX_SEATS_DEFAULT
	}

	seated, err := datastore.CountMembersByTier(ctx, service.postgresDB, models.TierLeader)
	if err != nil {
		return err
	}
	if seated >= maxSeats {
		return errorx.Wrap(ErrNoVacancy, errorx.Invalid)
	}
	return nil
}

func (service *ServiceProgression) endorsementQuota(ctx context.Context) (models.EndorsementQuota, error) {
	rules, err := service.serviceRequirements.RequirementsFor(ctx, models.TierLeader)
	if err != nil {
		return models.EndorsementQuota{}, err
	}
	return rules.Special.EndorsementsRequired, nil
}

func (service *ServiceProgression) mandateEnd(ctx context.Context, from time.Time) (time.Time, error) {
	months, err := service.serviceConfig.GetIntConfig(ctx, CONFIG_LEADER_MANDATE_MONTHS, LEADER_MANDATE_MONTHS_DEFAULT)
	if err != nil {
		months = LEADER_MANDATE_MONTHS_DEFAULT
	}
	return from.AddDate(0, months, 0), nil
}
