package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dshills/folio/internal/auth"
	"github.com/dshills/folio/internal/portfolio"
)

// Subscribe adds email to the newsletter. An active subscription returns
// an error matching ErrConflict.
func (c *Client) Subscribe(ctx context.Context, email string) (portfolio.Subscription, error) {
	var sub portfolio.Subscription
	body := map[string]string{"email": email}
	if err := c.doJSON(ctx, http.MethodPost, "/newsletter/subscribe", nil, body, &sub); err != nil {
		return portfolio.Subscription{}, fmt.Errorf("subscribing: %w", err)
	}
	return sub, nil
}

// Unsubscribe deactivates the subscription of email.
func (c *Client) Unsubscribe(ctx context.Context, email string) error {
	if _, err := c.do(ctx, http.MethodPost, "/newsletter/unsubscribe", url.Values{"email": {email}}, nil); err != nil {
		return fmt.Errorf("unsubscribing: %w", err)
	}
	return nil
}

// SubscriberCount returns the number of active subscribers. Requires a session.
func (c *Client) SubscriberCount(ctx context.Context) (int, error) {
	var out struct {
		Active int `json:"active_subscribers"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/newsletter/subscribers/count", nil, nil, &out); err != nil {
		return 0, fmt.Errorf("counting subscribers: %w", err)
	}
	return out.Active, nil
}

// NewsletterIssue is one newsletter mailing.
type NewsletterIssue struct {
	Subject     string `json:"subject"`
	HTMLContent string `json:"html_content"`
	TextContent string `json:"text_content,omitempty"`
}

// SendReport summarizes a newsletter mailing.
type SendReport struct {
	Success          bool `json:"success"`
	SentCount        int  `json:"sent_count"`
	FailedCount      int  `json:"failed_count"`
	TotalSubscribers int  `json:"total_subscribers"`
}

// SendNewsletter mails issue to every active subscriber. Requires a session.
func (c *Client) SendNewsletter(ctx context.Context, issue NewsletterIssue) (SendReport, error) {
	var rep SendReport
	if err := c.doJSON(ctx, http.MethodPost, "/newsletter/send", nil, issue, &rep); err != nil {
		return SendReport{}, fmt.Errorf("sending newsletter: %w", err)
	}
	return rep, nil
}

// SubmitContact validates and sends a contact form message.
func (c *Client) SubmitContact(ctx context.Context, msg portfolio.ContactMessage) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid contact message: %w", err)
	}
	if _, err := c.do(ctx, http.MethodPost, "/contact", nil, msg); err != nil {
		return fmt.Errorf("sending contact message: %w", err)
	}
	return nil
}

// Login exchanges admin credentials for a session. The caller installs the
// session in its auth.Holder.
func (c *Client) Login(ctx context.Context, username, password string) (auth.Session, error) {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", nil, body, &out); err != nil {
		return auth.Session{}, fmt.Errorf("logging in: %w", err)
	}
	if out.AccessToken == "" {
		return auth.Session{}, fmt.Errorf("logging in: response carried no token")
	}
	return auth.Session{Token: out.AccessToken, Username: username, IssuedAt: time.Now().UTC()}, nil
}
