package collab

import (
	"time"

	"github.com/gojek/heimdall/v7"
	"github.com/gojek/heimdall/v7/httpclient"
)

// Collaborator subsystems (events, volunteering, committee, notifications)
// are reached over plain HTTP with a shared retrying client.

const (
	requestTimeout = 10 * time.Second
	retryCount     = 3
)

func newHTTPClient() *httpclient.Client {
	backoff := heimdall.NewConstantBackoff(500*time.Millisecond, 100*time.Millisecond)
	return httpclient.NewClient(
		httpclient.WithHTTPTimeout(requestTimeout),
		httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
		httpclient.WithRetryCount(retryCount),
	)
}
