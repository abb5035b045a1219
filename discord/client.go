package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/kickguard/bouncer/automod/engine"
	"github.com/kickguard/bouncer/util"

	"golang.org/x/time/rate"
)

const DefaultHost = "https://discord.com/api/v10"

type Client struct {
	// API base URL, including version path
	Host  string
	Token string
	// HTTP client to use for requests. Defaults to util.RobustHTTPClient()
	Client *http.Client
	// HTTP client for message sends, which must not be retried on server errors. Defaults to util.SendOnceHTTPClient()
	MessageClient *http.Client
	// optional client-side rate limit, applied to every request
	Limiter   *rate.Limiter
	UserAgent string
}

var _ engine.Gateway = (*Client)(nil)
var _ engine.ProfileFetcher = (*Client)(nil)

func NewClient(host, token string, rps int) *Client {
	if host == "" {
		host = DefaultHost
	}
	c := &Client{
		Host:      host,
		Token:     token,
		Client:        util.RobustHTTPClient(),
		MessageClient: util.SendOnceHTTPClient(),
		UserAgent:     "DiscordBot (https://github.com/kickguard/bouncer, 1.0)",
	}
	if rps > 0 {
		c.Limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return c
}

// Error response from the API.
type APIError struct {
	StatusCode int
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord API error: status=%d code=%d: %s", e.StatusCode, e.Code, e.Message)
}

func (c *Client) do(ctx context.Context, client *http.Client, method, path string, body any, headers map[string]string, out any) error {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return err
		}
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.Host+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.Token)
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		// error bodies are best-effort
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type dmChannel struct {
	ID string `json:"id"`
}

type user struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	GlobalName *string `json:"global_name"`
}

type guildMember struct {
	User *user   `json:"user"`
	Nick *string `json:"nick"`
}

// Opens (or re-uses) a DM channel with the member and posts 'text'. Fails if the member does not accept direct messages from server members.
func (c *Client) SendNotice(ctx context.Context, m engine.Member, text string) error {
	var ch dmChannel
	if err := c.do(ctx, c.Client, http.MethodPost, "/users/@me/channels", map[string]string{"recipient_id": m.UserID}, nil, &ch); err != nil {
		return fmt.Errorf("opening DM channel: %w", err)
	}
	if err := c.do(ctx, c.MessageClient, http.MethodPost, "/channels/"+url.PathEscape(ch.ID)+"/messages", map[string]string{"content": text}, nil, nil); err != nil {
		return fmt.Errorf("sending DM: %w", err)
	}
	return nil
}

// Kicks the member from the guild. The reason shows up in the guild audit log.
func (c *Client) RemoveMember(ctx context.Context, m engine.Member, reason string) error {
	path := fmt.Sprintf("/guilds/%s/members/%s", url.PathEscape(m.GuildID), url.PathEscape(m.UserID))
	headers := map[string]string{}
	if reason != "" {
		headers["X-Audit-Log-Reason"] = url.PathEscape(reason)
	}
	return c.do(ctx, c.Client, http.MethodDelete, path, nil, headers, nil)
}

func (c *Client) FetchMember(ctx context.Context, guildID, userID string) (*engine.Member, error) {
	path := fmt.Sprintf("/guilds/%s/members/%s", url.PathEscape(guildID), url.PathEscape(userID))
	var gm guildMember
	if err := c.do(ctx, c.Client, http.MethodGet, path, nil, nil, &gm); err != nil {
		return nil, err
	}
	if gm.User == nil {
		return nil, fmt.Errorf("guild member response missing user: %s", userID)
	}
	m := engine.Member{
		GuildID:  guildID,
		UserID:   gm.User.ID,
		Username: gm.User.Username,
	}
	if gm.User.GlobalName != nil {
		m.GlobalName = *gm.User.GlobalName
	}
	if gm.Nick != nil {
		m.Nickname = *gm.Nick
	}
	if created, err := SnowflakeTime(gm.User.ID); err == nil {
		m.CreatedAt = created
	}
	return &m, nil
}
