// Package email sends transactional mail through the Postmark JSON API.
package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

const apiURL = "https://api.postmarkapp.com/email"

type Client struct {
	serverToken string
	fromEmail   string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func NewClient(serverToken, fromEmail string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set. When unconfigured,
// send attempts fail with an explanatory error and the caller decides whether
// that matters (reset mail does, welcome mail does not).
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type message struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	TextBody string `json:"TextBody"`
}

// SendResetCode emails a one-time password reset code.
func (c *Client) SendResetCode(toEmail, code string) error {
	body := fmt.Sprintf(
		"Your Rookery password reset code is:\n\n%s\n\nIt expires in 15 minutes. If you didn't request a reset, ignore this email.",
		code,
	)
	return c.send(toEmail, "Reset your Rookery password", body)
}

// SendWelcome emails a short confirmation after registration.
func (c *Client) SendWelcome(toEmail, parentName string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour chess club registration is confirmed. Sign in any time to manage attendance for upcoming club events.",
		parentName,
	)
	return c.send(toEmail, "Welcome to the club", body)
}

func (c *Client) send(toEmail, subject, textBody string) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	payload := message{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  subject,
		TextBody: textBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest("POST", apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
