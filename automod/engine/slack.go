package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kickguard/bouncer/util"
)

// Posts removal decisions to a moderator channel.
type SlackNotifier struct {
	SlackWebhookURL string
	// defaults to util.RobustHTTPClient()
	Client *http.Client
}

var _ Notifier = (*SlackNotifier)(nil)

func (n *SlackNotifier) SendDecision(ctx context.Context, m Member, d Decision) error {
	if !d.IsKick() {
		return nil
	}
	return n.sendSlackMsg(ctx, slackBody("⚠️ Bouncer Member Removed ⚠️\n", m, d))
}

type SlackWebhookBody struct {
	Text string `json:"text"`
}

// Sends a simple slack message to a channel via "incoming webhook".
//
// The slack incoming webhook must be already configured in the slack workplace.
func (n *SlackNotifier) sendSlackMsg(ctx context.Context, msg string) error {
	body, err := json.Marshal(SlackWebhookBody{Text: msg})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.SlackWebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	client := n.Client
	if client == nil {
		client = util.RobustHTTPClient()
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	if resp.StatusCode != 200 || buf.String() != "ok" {
		return fmt.Errorf("failed slack webhook POST request. status=%d", resp.StatusCode)
	}
	return nil
}

func slackBody(header string, m Member, d Decision) string {
	msg := header
	msg += fmt.Sprintf("`%s` / `%s` / guild `%s`\n", m.Username, m.UserID, m.GuildID)
	if !m.CreatedAt.IsZero() {
		msg += fmt.Sprintf("Account created: %s\n", m.CreatedAt.UTC().Format("2006-01-02"))
	}
	msg += fmt.Sprintf("Reason: `%s`\n", d.Reason)
	return msg
}
