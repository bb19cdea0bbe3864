// Package push delivers mobile push notifications over the Firebase
// Cloud Messaging HTTP v1 API. It is the transport behind the
// relation-event emitter; a failed push never affects the graph
// mutation that triggered it.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const sendTimeout = 10 * time.Second

// FCMConfig identifies the Firebase project and credential.
type FCMConfig struct {
	ServerKey string
	ProjectID string
}

// PushMessage is one notification addressed to a single device token.
type PushMessage struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// FCMClient talks to the FCM v1 send endpoint.
type FCMClient struct {
	config FCMConfig
	client *http.Client
}

// NewFCMClient creates an FCM client.
func NewFCMClient(config FCMConfig) *FCMClient {
	return &FCMClient{
		config: config,
		client: &http.Client{Timeout: sendTimeout},
	}
}

type fcmRequest struct {
	Message fcmMessage `json:"message"`
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Notification *fcmNotification  `json:"notification,omitempty"`
	Data         map[string]string `json:"data,omitempty"`
	Android      *fcmAndroid       `json:"android,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmAndroid struct {
	Priority string `json:"priority,omitempty"`
}

// Send delivers msg to its device token.
func (c *FCMClient) Send(ctx context.Context, msg *PushMessage) error {
	payload := fcmRequest{
		Message: fcmMessage{
			Token:        msg.Token,
			Notification: &fcmNotification{Title: msg.Title, Body: msg.Body},
			Data:         msg.Data,
			Android:      &fcmAndroid{Priority: "high"},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal FCM request: %w", err)
	}

	url := fmt.Sprintf("https://fcm.googleapis.com/v1/projects/%s/messages:send", c.config.ProjectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build FCM request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.ServerKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send FCM request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("FCM returned status %d", resp.StatusCode)
	}
	return nil
}
