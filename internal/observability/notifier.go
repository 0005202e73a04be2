package observability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// NotificationKind classifies an outbound notification.
type NotificationKind string

const (
	NotifyReminder NotificationKind = "reminder"
	NotifyExpired  NotificationKind = "expired"
	NotifyInfo     NotificationKind = "info"
)

// Notification is one message about the approval queue destined for a human.
// Chat delivery itself is an external collaborator; this package only ships
// a webhook implementation as the default transport.
type Notification struct {
	Kind      NotificationKind `json:"kind"`
	ChatID    int64            `json:"chat_id"`
	RequestID string           `json:"request_id,omitempty"`
	Message   string           `json:"message"`
	Time      time.Time        `json:"time"`
}

// Notifier sends notifications to an external channel.
type Notifier interface {
	Notify(notifications []Notification) error
}

// NopNotifier discards all notifications. Used when no webhook is configured.
type NopNotifier struct{}

// Notify implements Notifier and always succeeds.
func (NopNotifier) Notify([]Notification) error { return nil }

// webhookNotifier posts notifications to a Slack-compatible webhook.
type webhookNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewWebhookNotifier creates a Notifier that posts to the given webhook URL.
func NewWebhookNotifier(webhookURL string) Notifier {
	return &webhookNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{},
	}
}

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Notify sends the given notifications to the configured webhook.
// It returns nil without making a request if the slice is empty.
func (w *webhookNotifier) Notify(notifications []Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	msg := w.buildMessage(notifications)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling webhook message: %w", err)
	}

	resp, err := w.client.Post(w.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("posting to webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

func (w *webhookNotifier) buildMessage(notifications []Notification) slackMessage {
	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: "autopilot approvals"},
		},
	}

	for i, n := range notifications {
		if i > 0 {
			blocks = append(blocks, slackBlock{Type: "divider"})
		}
		emoji := kindEmoji(n.Kind)
		text := fmt.Sprintf("%s *[%s]* %s\n_%s_",
			emoji,
			strings.ToUpper(string(n.Kind)),
			n.Message,
			n.Time.Format("2006-01-02 15:04 UTC"),
		)
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: text},
		})
	}

	return slackMessage{Blocks: blocks}
}

func kindEmoji(kind NotificationKind) string {
	switch kind {
	case NotifyExpired:
		return "\U0001f534"
	case NotifyReminder:
		return "\U0001f7e1"
	case NotifyInfo:
		return "\U0001f535"
	default:
		return "❓"
	}
}
