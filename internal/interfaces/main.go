package interfaces

import (
	"context"

	"bskmt/internal/models"

	"github.com/go-redis/redis_rate/v10"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) error
}

// EventStats is the event subsystem boundary. Counts cover confirmed
// attendance only.
type EventStats interface {
	ConfirmedEventCount(ctx context.Context, memberID string) (int, error)
	// EligibleEventCount is the number of official events the member could
	// have attended since joining; the percentage-based requirements divide
	// by it.
	EligibleEventCount(ctx context.Context, memberID string) (int, error)
	EventTypeBreakdown(ctx context.Context, memberID string) (map[string]int, error)
}

// VolunteerStats is the volunteering subsystem boundary.
type VolunteerStats interface {
	VolunteerHours(ctx context.Context, memberID string) (*models.VolunteerHours, error)
}

type EvaluationOutcome struct {
	Approved bool   `json:"approved"`
	Notes    string `json:"notes"`
}

// EvaluationCommittee wraps the committee review, public interview and
// consultative vote behind a single boolean outcome.
type EvaluationCommittee interface {
	SubmitForEvaluation(ctx context.Context, applicationID string) (*EvaluationOutcome, error)
}

// Notifier is fire-and-forget; delivery failures must never roll back the
// operation that triggered them.
type Notifier interface {
	Notify(ctx context.Context, memberID string, eventType string, payload map[string]any)
}
