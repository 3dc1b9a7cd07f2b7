package services

import (
	"errors"
	"fmt"
	"time"
)

// Business-rule failures returned to callers as typed results.
var (
	ErrInvalidAmount       = errors.New("amount has the wrong sign for its kind")
	ErrInsufficientBalance = errors.New("balance would go negative")
	ErrInsufficientPoints  = errors.New("not enough points for this reward")
	ErrOutOfStock          = errors.New("reward is out of stock")
	ErrInvalidTransition   = errors.New("illegal redemption state transition")
	ErrRequirementsNotMet  = errors.New("tier requirements not met")
	ErrNotFound            = errors.New("not found")
	ErrConcurrencyConflict = errors.New("concurrent update, retry the operation")
	ErrCooldownActive      = errors.New("re-application cool-down still active")
	ErrNoVacancy           = errors.New("no leader vacancy available")
	ErrMemberLedgerLock    = errors.New("member ledger locked")
	ErrRewardLock          = errors.New("reward locked")
	ErrApplicationLock     = errors.New("leader application locked")
	ErrLeaderboardLock     = errors.New("leaderboard rebuild locked")
)

const (
	CONFIG_UPGRADE_EVENT_PERCENTAGE = "UPGRADE_EVENT_PERCENTAGE"
	CONFIG_UPGRADE_MINIMUM_DAYS     = "UPGRADE_MINIMUM_DAYS"
	CONFIG_LAST_YEAR_POINTS         = "LAST_YEAR_POINTS_REQUIRED"
	CONFIG_LEADER_ENDORSE_LEADERS   = "LEADER_ENDORSE_LEADERS"
	CONFIG_LEADER_ENDORSE_MASTERS   = "LEADER_ENDORSE_MASTERS"
	CONFIG_LEADER_COOLDOWN_DAYS     = "LEADER_COOLDOWN_DAYS"
	CONFIG_LEADER_MANDATE_MONTHS    = "LEADER_MANDATE_MONTHS"
	CONFIG_LEADER_MAX_SEATS         = "LEADER_MAX_SEATS"
	CONFIG_CRONJOB_TIME_LEADERBOARD = "CRONJOB_TIME_LEADERBOARD"
	CONFIG_CRONJOB_TIME_MANDATES    = "CRONJOB_TIME_MANDATES"
	CONFIG_ADMIN_RATE_LIMIT         = "ADMIN_RATE_LIMIT_PER_MINUTE"

	LEADERBOARD_DEFAULT_LIMIT        = 20
	UPGRADE_EVENT_PERCENTAGE_DEFAULT = 50
	UPGRADE_MINIMUM_DAYS_DEFAULT     = 365
	LAST_YEAR_POINTS_DEFAULT         = 1000
	LEADER_ENDORSE_LEADERS_DEFAULT   = 3
	LEADER_ENDORSE_MASTERS_DEFAULT   = 5
	LEADER_COOLDOWN_DAYS_DEFAULT     = 90
	LEADER_MANDATE_MONTHS_DEFAULT    = 12
	LEADER_MAX_SEATS_DEFAULT         = 7
	ADMIN_RATE_LIMIT_DEFAULT         = 120

	REASON_EVENT_ATTENDANCE   = "event attendance"
	REASON_ATTENDANCE_REVOKED = "event attendance revoked"
	REASON_REWARD_REDEEMED    = "reward redeemed"
	REASON_REDEMPTION_REFUND  = "redemption cancelled, points refunded"

	NOTIFY_TIER_CHANGED       = "tier_changed"
	NOTIFY_REDEMPTION_CHANGED = "redemption_state_changed"
	NOTIFY_APPLICATION_RESULT = "leader_application_result"
	NOTIFY_MANDATE_EXPIRED    = "leader_mandate_expired"

	CACHE_TTL_15_SECONDS = 15 * time.Second
	CACHE_TTL_1_MIN      = 1 * time.Minute
	CACHE_TTL_5_MINS     = 5 * time.Minute
)

func LockKeyMemberLedger(memberID string) string {
	return fmt.Sprintf("lock:member-ledger:%s", memberID)
}

func LockKeyReward(rewardID int64) string {
	return fmt.Sprintf("lock:reward:%d", rewardID)
}

func LockKeyLeaderApplication(memberID string) string {
	return fmt.Sprintf("lock:leader-application:%s", memberID)
}

func LockKeyLeaderboardRebuild() string {
	return "lock:leaderboard-rebuild"
}

func LimitKeyAdmin(actorID string) string {
	return fmt.Sprintf("limit:admin:%s", actorID)
}

func DBKeyConfig(key string) string {
	return fmt.Sprintf("config:%s", key)
}

func DBKeyMember(memberID string) string {
	return fmt.Sprintf("member:%s", memberID)
}

func DBKeyMemberBalance(memberID string) string {
	return fmt.Sprintf("member:balance:%s", memberID)
}

func DBKeyMemberFacts(memberID string) string {
	return fmt.Sprintf("member:facts:%s", memberID)
}

func DBKeyRewardCatalog(tier string) string {
	return fmt.Sprintf("rewards:catalog:%s", tier)
}

func DBKeyLeaderboardPage(limit, offset int) string {
	return fmt.Sprintf("leaderboard:page:%d:%d", limit, offset)
}

func DBKeyMemberRanking(memberID string) string {
	return fmt.Sprintf("leaderboard:me:%s", memberID)
}
