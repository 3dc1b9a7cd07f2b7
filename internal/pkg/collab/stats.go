package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"bskmt/internal/models"

	"github.com/gojek/heimdall/v7/httpclient"
)

// EventStatsHTTP reads attendance summaries from the event subsystem.
type EventStatsHTTP struct {
	client  *httpclient.Client
	baseURL string
}

func NewEventStatsHTTP(baseURL string) *EventStatsHTTP {
	return &EventStatsHTTP{newHTTPClient(), baseURL}
}

type eventSummary struct {
	Confirmed int            `json:"confirmed"`
	Eligible  int            `json:"eligible"`
	ByType    map[string]int `json:"by_type"`
}

func (s *EventStatsHTTP) summary(ctx context.Context, memberID string) (*eventSummary, error) {
	resp, err := s.client.Get(fmt.Sprintf("%s/members/%s/attendance", s.baseURL, memberID), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("event stats: unexpected status %d", resp.StatusCode)
	}

	var v eventSummary
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, err
	}

	return &v, nil
}

func (s *EventStatsHTTP) ConfirmedEventCount(ctx context.Context, memberID string) (int, error) {
	v, err := s.summary(ctx, memberID)
	if err != nil {
		return 0, err
	}
	return v.Confirmed, nil
}

func (s *EventStatsHTTP) EligibleEventCount(ctx context.Context, memberID string) (int, error) {
	v, err := s.summary(ctx, memberID)
	if err != nil {
		return 0, err
	}
	return v.Eligible, nil
}

func (s *EventStatsHTTP) EventTypeBreakdown(ctx context.Context, memberID string) (map[string]int, error) {
	v, err := s.summary(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return v.ByType, nil
}

// VolunteerStatsHTTP reads volunteering summaries.
type VolunteerStatsHTTP struct {
	client  *httpclient.Client
	baseURL string
}

func NewVolunteerStatsHTTP(baseURL string) *VolunteerStatsHTTP {
	return &VolunteerStatsHTTP{newHTTPClient(), baseURL}
}

func (s *VolunteerStatsHTTP) VolunteerHours(ctx context.Context, memberID string) (*models.VolunteerHours, error) {
	resp, err := s.client.Get(fmt.Sprintf("%s/members/%s/hours", s.baseURL, memberID), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("volunteer stats: unexpected status %d", resp.StatusCode)
	}

	var v models.VolunteerHours
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, err
	}

	return &v, nil
}
