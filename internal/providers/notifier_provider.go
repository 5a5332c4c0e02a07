package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"infinite-experiment/kontrollburo/internal/config"
	"infinite-experiment/kontrollburo/internal/constants"
	"infinite-experiment/kontrollburo/internal/models/dtos"
)

// Notifier delivers removal warnings to subjects. Failures here are retried
// by the notification job on its next pass, never by the activity sync.
type Notifier interface {
	Send(ctx context.Context, cid int, title, message string) error
}

// NotifierProvider posts board messages through the external notification
// service.
type NotifierProvider struct {
	BaseURL string
	Client  *http.Client

	retryAttempts int
	retryDelay    time.Duration
}

var _ Notifier = (*NotifierProvider)(nil)

// NewNotifierProvider creates a notifier provider from configuration.
func NewNotifierProvider(cfg *config.Config) *NotifierProvider {
	return &NotifierProvider{
		BaseURL: cfg.NotifierBaseURL,
		Client: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    cfg.RetryDelay,
	}
}

// Send delivers one message to a subject.
func (p *NotifierProvider) Send(ctx context.Context, cid int, title, message string) error {
	payload := dtos.NotifyRequest{
		SubjectCID: cid,
		Title:      title,
		Message:    message,
	}

	return withRetry(ctx, "Notifier", p.retryAttempts, p.retryDelay, func() error {
		body := bytes.NewBuffer(nil)
		if err := json.NewEncoder(body).Encode(payload); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, "POST", p.BaseURL+"/messages", body)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := p.Client.Do(req)
		if err != nil {
			return &ProviderError{
				Code:    constants.ErrCodeNetworkError,
				Message: constants.GetErrorMessage(constants.ErrCodeNetworkError),
				Err:     err,
			}
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return &ProviderError{
				Code:    constants.ErrCodeUpstreamError,
				Message: constants.GetErrorMessage(constants.ErrCodeUpstreamError),
				Details: fmt.Sprintf("HTTP %d from notifier", resp.StatusCode),
			}
		}
		return nil
	})
}
