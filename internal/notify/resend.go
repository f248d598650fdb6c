package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v3"

	"github.com/azellar/backend/internal/common"
)

// ErrMissingAPIKey is returned by ResendSender when no API key was configured.
var ErrMissingAPIKey = errors.New("resend: api key is not configured")

// ResendConfig holds Resend provider settings.
type ResendConfig struct {
	APIKey string
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL    string
	HTTPClient *http.Client
}

// ResendSender implements common.EmailSender using the Resend API.
type ResendSender struct {
	client     *resend.Client
	configured bool
}

// NewResendSender creates a sender. An empty API key is accepted so the
// process can boot; every Send then fails with ErrMissingAPIKey.
func NewResendSender(cfg ResendConfig) (*ResendSender, error) {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	client := resend.NewCustomClient(httpClient, cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("resend: parse base url: %w", err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		client.BaseURL = u
	}
	return &ResendSender{client: client, configured: strings.TrimSpace(cfg.APIKey) != ""}, nil
}

// Send implements common.EmailSender.
func (s *ResendSender) Send(ctx context.Context, msg common.Email) error {
	if !s.configured {
		return ErrMissingAPIKey
	}
	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("resend: send email: %w", err)
	}
	return nil
}
