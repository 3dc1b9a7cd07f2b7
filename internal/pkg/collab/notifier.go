package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gojek/heimdall/v7/httpclient"
)

type NotifierHTTP struct {
	client  *httpclient.Client
	baseURL string
}

func NewNotifierHTTP(baseURL string) *NotifierHTTP {
	return &NotifierHTTP{newHTTPClient(), baseURL}
}

type notifyRequest struct {
	MemberID  string         `json:"member_id"`
	EventType string         `json:"event_type"`
	Payload   map[string]any `json:"payload,omitempty"`
	SentAt    time.Time      `json:"sent_at"`
}

// Notify posts to the notification subsystem in the background. Errors are
// logged and dropped.
func (n *NotifierHTTP) Notify(ctx context.Context, memberID string, eventType string, payload map[string]any) {
	if n.baseURL == "" {
		return
	}

	go func() {
		body, err := json.Marshal(notifyRequest{
			MemberID:  memberID,
			EventType: eventType,
			Payload:   payload,
			SentAt:    time.Now(),
		})
		if err != nil {
			log.Println("notify marshal:", err)
			return
		}

		headers := http.Header{}
		headers.Set("Content-Type", "application/json")

		resp, err := n.client.Post(fmt.Sprintf("%s/notify", n.baseURL), bytes.NewReader(body), headers)
		if err != nil {
			log.Println("notify", eventType, memberID, err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusBadRequest {
			log.Println("notify", eventType, memberID, "status", resp.StatusCode)
		}
	}()
}
