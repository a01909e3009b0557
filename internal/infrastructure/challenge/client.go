package challenge

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aq2208/gorder-checkout/internal/logging"
	"github.com/aq2208/gorder-checkout/internal/usecase"
)

// Client fetches an anti-abuse token from the challenge service. Every
// failure is reported as "no token"; submissions never wait on it for long.
type Client struct {
	endpoint string
	http     *http.Client
	timeout  time.Duration
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{endpoint: endpoint, http: &http.Client{}, timeout: timeout}
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (c *Client) Token(ctx context.Context) (string, bool) {
	if c.endpoint == "" {
		return "", false
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, nil)
	if err != nil {
		return "", false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		logging.FromCtx(ctx).Warn("challenge token request failed", "err", err)
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false
	}
	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Token == "" {
		return "", false
	}
	return body.Token, true
}

// Disabled never yields a token.
type Disabled struct{}

func (Disabled) Token(context.Context) (string, bool) { return "", false }

var (
	_ usecase.ChallengeProvider = (*Client)(nil)
	_ usecase.ChallengeProvider = Disabled{}
)
