// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package notify sends best-effort Slack notifications for conditions an
// operator should know about but that must never fail the batch, such as a
// Docker Hub login failure.
package notify

import (
	"log"

	"github.com/slack-go/slack"
)

// Sink posts messages to a configured Slack webhook. A zero-value Sink
// (empty webhookURL) is a valid no-op sink.
type Sink struct {
	webhookURL string
}

// New builds a Sink for webhookURL. An empty URL is accepted and makes
// every Notify call a no-op, matching the root config's "absent means
// disabled" contract.
func New(webhookURL string) *Sink {
	return &Sink{webhookURL: webhookURL}
}

// Notify posts message to the configured webhook. Failure to deliver the
// notification is logged and swallowed: notifications are never allowed to
// fail the caller's own operation.
func (s *Sink) Notify(message string) {
	if s.webhookURL == "" {
		return
	}

	msg := &slack.WebhookMessage{Text: message}
	if err := slack.PostWebhook(s.webhookURL, msg); err != nil {
		log.Printf("notify: failed to post Slack message: %v", err)
	}
}
