package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/aq2208/gorder-checkout/internal/usecase"
)

// Client posts order intents to the lead/order intake endpoint as a
// urlencoded form. The endpoint answers {"ok": bool}.
type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(endpoint string) *Client {
	return &Client{endpoint: endpoint, http: &http.Client{}}
}

type intakeResponse struct {
	OK bool `json:"ok"`
}

// Submit relies on ctx for its deadline; the caller owns the timeout policy.
func (c *Client) Submit(ctx context.Context, form usecase.OrderForm) error {
	values := url.Values{}
	values.Set("name", form.Name)
	values.Set("phone", form.Phone)
	values.Set("email", form.Email)
	values.Set("city", form.City)
	values.Set("message", form.Message)
	if form.RecaptchaToken != "" {
		values.Set("recaptcha_token", form.RecaptchaToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return errors.Wrap(err, "create intake request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "post order intake")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("%w: status %s", usecase.ErrIntakeRejected, resp.Status)
	}
	var body intakeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: unreadable response: %v", usecase.ErrIntakeRejected, err)
	}
	if !body.OK {
		return fmt.Errorf("%w: ok=false", usecase.ErrIntakeRejected)
	}
	return nil
}

var _ usecase.OrderIntake = (*Client)(nil)
