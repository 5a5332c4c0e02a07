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

// Registry is the contract against the authoritative endorsement registry.
// It is the source of truth for who holds what; this service only mirrors it
// into lifecycle records and, eventually, asks it to delete entries.
type Registry interface {
	GetTierOneEndorsements(ctx context.Context) ([]dtos.TierOneEndorsement, error)
	HasEndorsement(ctx context.Context, id int64) (bool, error)
	DeleteEndorsement(ctx context.Context, id int64) error
	GetRoster(ctx context.Context) ([]dtos.RosterEntry, error)
	HasRosterEntry(ctx context.Context, cid int) (bool, error)
	RemoveFromRoster(ctx context.Context, cid int) error
}

// RegistryProvider talks to the registry's HTTP API.
type RegistryProvider struct {
	BaseURL string
	APIKey  string
	Client  *http.Client

	retryAttempts int
	retryDelay    time.Duration
}

var _ Registry = (*RegistryProvider)(nil)

// NewRegistryProvider creates a registry provider from configuration.
func NewRegistryProvider(cfg *config.Config) *RegistryProvider {
	return &RegistryProvider{
		BaseURL: cfg.RegistryBaseURL,
		APIKey:  cfg.RegistryAPIKey,
		Client: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    cfg.RetryDelay,
	}
}

// GetTierOneEndorsements returns the current full holder list for
// reconciliation.
func (p *RegistryProvider) GetTierOneEndorsements(ctx context.Context) ([]dtos.TierOneEndorsement, error) {
	var entries []dtos.TierOneEndorsement
	err := withRetry(ctx, "Registry", p.retryAttempts, p.retryDelay, func() error {
		return p.do(ctx, "GET", "/tier-1", nil, &entries)
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// HasEndorsement reports whether the registry still carries the entry. Used
// by the finalize job to detect stale local records.
func (p *RegistryProvider) HasEndorsement(ctx context.Context, id int64) (bool, error) {
	var entry dtos.TierOneEndorsement
	err := withRetry(ctx, "Registry", p.retryAttempts, p.retryDelay, func() error {
		err := p.do(ctx, "GET", fmt.Sprintf("/tier-1/%d", id), nil, &entry)
		if ErrorCode(err) == constants.ErrCodeNotFound {
			// A definitive 404 is an answer, not a failure.
			return nil
		}
		return err
	})
	if err != nil {
		return false, err
	}
	return entry.ID == id, nil
}

// DeleteEndorsement is the removal executor's target call.
func (p *RegistryProvider) DeleteEndorsement(ctx context.Context, id int64) error {
	return withRetry(ctx, "Registry", p.retryAttempts, p.retryDelay, func() error {
		return p.do(ctx, "DELETE", fmt.Sprintf("/tier-1/%d", id), nil, nil)
	})
}

// GetRoster returns the current roster membership list.
func (p *RegistryProvider) GetRoster(ctx context.Context) ([]dtos.RosterEntry, error) {
	var entries []dtos.RosterEntry
	err := withRetry(ctx, "Registry", p.retryAttempts, p.retryDelay, func() error {
		return p.do(ctx, "GET", "/roster", nil, &entries)
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// HasRosterEntry reports whether the subject is still on the roster.
func (p *RegistryProvider) HasRosterEntry(ctx context.Context, cid int) (bool, error) {
	var entry dtos.RosterEntry
	err := withRetry(ctx, "Registry", p.retryAttempts, p.retryDelay, func() error {
		err := p.do(ctx, "GET", fmt.Sprintf("/roster/%d", cid), nil, &entry)
		if ErrorCode(err) == constants.ErrCodeNotFound {
			return nil
		}
		return err
	})
	if err != nil {
		return false, err
	}
	return entry.SubjectCID == cid, nil
}

// RemoveFromRoster removes a subject from the roster.
func (p *RegistryProvider) RemoveFromRoster(ctx context.Context, cid int) error {
	return withRetry(ctx, "Registry", p.retryAttempts, p.retryDelay, func() error {
		return p.do(ctx, "DELETE", fmt.Sprintf("/roster/%d", cid), nil, nil)
	})
}

func (p *RegistryProvider) do(ctx context.Context, method, endpoint string, body, result interface{}) error {
	var reqBody *bytes.Buffer = bytes.NewBuffer(nil)
	if body != nil {
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, p.BaseURL+endpoint, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Token "+p.APIKey)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: constants.GetErrorMessage(constants.ErrCodeNetworkError),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &ProviderError{
			Code:    constants.ErrCodeNotFound,
			Message: constants.GetErrorMessage(constants.ErrCodeNotFound),
			Details: fmt.Sprintf("%s %s", method, endpoint),
		}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &ProviderError{
			Code:    constants.ErrCodeInvalidAPIKey,
			Message: constants.GetErrorMessage(constants.ErrCodeInvalidAPIKey),
		}
	case resp.StatusCode >= 300:
		return &ProviderError{
			Code:    constants.ErrCodeUpstreamError,
			Message: constants.GetErrorMessage(constants.ErrCodeUpstreamError),
			Details: fmt.Sprintf("HTTP %d from %s %s", resp.StatusCode, method, endpoint),
		}
	}

	if result == nil {
		return nil
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
