package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"bskmt/internal/interfaces"

	"github.com/gojek/heimdall/v7/httpclient"
)

// CommitteeHTTP submits a Leader application for committee review and
// returns the recorded outcome.
type CommitteeHTTP struct {
	client  *httpclient.Client
	baseURL string
}

func NewCommitteeHTTP(baseURL string) *CommitteeHTTP {
	return &CommitteeHTTP{newHTTPClient(), baseURL}
}

func (c *CommitteeHTTP) SubmitForEvaluation(ctx context.Context, applicationID string) (*interfaces.EvaluationOutcome, error) {
	body, err := json.Marshal(map[string]string{"application_id": applicationID})
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")

	resp, err := c.client.Post(fmt.Sprintf("%s/evaluations", c.baseURL), bytes.NewReader(body), headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("committee: unexpected status %d", resp.StatusCode)
	}

	var outcome interfaces.EvaluationOutcome
	if err := json.NewDecoder(resp.Body).Decode(&outcome); err != nil {
		return nil, err
	}

	return &outcome, nil
}
