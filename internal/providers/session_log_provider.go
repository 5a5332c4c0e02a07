package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"infinite-experiment/kontrollburo/internal/activity"
	"infinite-experiment/kontrollburo/internal/config"
	"infinite-experiment/kontrollburo/internal/constants"
	"infinite-experiment/kontrollburo/internal/models/dtos"

	"golang.org/x/time/rate"
)

// SessionLogSource is the read contract against the external session log.
type SessionLogSource interface {
	GetAtcSessions(ctx context.Context, cid int, start time.Time) ([]activity.Session, error)
}

// SessionLogProvider fetches a subject's connection records from the VATSIM
// API. Every call, from every job in the run, funnels through the shared
// rate limiter; the API is a shared quota across the whole deployment.
type SessionLogProvider struct {
	BaseURL string
	Client  *http.Client

	limiter       *rate.Limiter
	retryAttempts int
	retryDelay    time.Duration
}

var _ SessionLogSource = (*SessionLogProvider)(nil)

// NewSessionLogProvider creates a session log provider from configuration.
func NewSessionLogProvider(cfg *config.Config) *SessionLogProvider {
	return &SessionLogProvider{
		BaseURL: cfg.SessionLogBaseURL,
		Client: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		limiter:       rate.NewLimiter(rate.Limit(cfg.SessionLogRate), cfg.SessionLogBurst),
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    cfg.RetryDelay,
	}
}

// GetAtcSessions returns the subject's connection records since start.
// Timestamp layouts the upstream has used over the years are all accepted; a
// record with an unparseable timestamp keeps its duration but loses its
// start time.
func (p *SessionLogProvider) GetAtcSessions(ctx context.Context, cid int, start time.Time) ([]activity.Session, error) {
	endpoint := fmt.Sprintf("%s/ratings/%d/atcsessions/?start=%s", p.BaseURL, cid, start.Format("2006-01-02"))

	var resp dtos.AtcSessionsResponse
	err := withRetry(ctx, "SessionLog", p.retryAttempts, p.retryDelay, func() error {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
		return p.doGET(ctx, endpoint, &resp)
	})
	if err != nil {
		return nil, err
	}

	sessions := make([]activity.Session, 0, len(resp.Results))
	for _, raw := range resp.Results {
		sessions = append(sessions, activity.Session{
			Callsign: raw.Callsign,
			Minutes:  parseMinutes(raw.MinutesOnCallsign),
			Start:    parseStart(raw.Start),
		})
	}
	return sessions, nil
}

func (p *SessionLogProvider) doGET(ctx context.Context, url string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: constants.GetErrorMessage(constants.ErrCodeNetworkError),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		code := constants.ErrCodeUpstreamError
		if resp.StatusCode == http.StatusTooManyRequests {
			code = constants.ErrCodeRateLimited
		}
		return &ProviderError{
			Code:    code,
			Message: constants.GetErrorMessage(code),
			Details: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, url),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &ProviderError{
			Code:    constants.ErrCodeMalformedPayload,
			Message: constants.GetErrorMessage(constants.ErrCodeMalformedPayload),
			Err:     err,
		}
	}
	return nil
}

// parseMinutes parses the upstream decimal-string duration. Missing or
// malformed durations count as zero rather than failing the batch.
func parseMinutes(s string) float64 {
	if s == "" {
		return 0
	}
	m, err := strconv.ParseFloat(s, 64)
	if err != nil || m < 0 {
		return 0
	}
	return m
}

var startLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseStart(s string) *time.Time {
	for _, layout := range startLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
