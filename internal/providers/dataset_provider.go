package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"infinite-experiment/kontrollburo/internal/config"
	"infinite-experiment/kontrollburo/internal/constants"
	"infinite-experiment/kontrollburo/internal/models/dtos"
)

// DatasetSource fetches the per-FIR matching-policy overlay.
type DatasetSource interface {
	GetPolicyDataset(ctx context.Context, fir string) (*dtos.PolicyDataset, error)
}

// DatasetProvider reads the reference dataset that publishes topdown tables
// and center aliases per FIR. An empty base URL disables it; callers then run
// on the compiled-in defaults.
type DatasetProvider struct {
	BaseURL string
	Client  *http.Client

	retryAttempts int
	retryDelay    time.Duration
}

var _ DatasetSource = (*DatasetProvider)(nil)

// NewDatasetProvider creates a dataset provider from configuration. Returns
// nil when no dataset URL is configured.
func NewDatasetProvider(cfg *config.Config) *DatasetProvider {
	if cfg.DatasetBaseURL == "" {
		return nil
	}
	return &DatasetProvider{
		BaseURL: cfg.DatasetBaseURL,
		Client: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    cfg.RetryDelay,
	}
}

// GetPolicyDataset fetches the overlay tables for one FIR.
func (p *DatasetProvider) GetPolicyDataset(ctx context.Context, fir string) (*dtos.PolicyDataset, error) {
	var ds dtos.PolicyDataset
	err := withRetry(ctx, "Dataset", p.retryAttempts, p.retryDelay, func() error {
		req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/%s.json", p.BaseURL, fir), nil)
		if err != nil {
			return err
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

		if resp.StatusCode != http.StatusOK {
			return &ProviderError{
				Code:    constants.ErrCodeUpstreamError,
				Message: constants.GetErrorMessage(constants.ErrCodeUpstreamError),
				Details: fmt.Sprintf("HTTP %d for dataset %s", resp.StatusCode, fir),
			}
		}

		if err := json.NewDecoder(resp.Body).Decode(&ds); err != nil {
			return &ProviderError{
				Code:    constants.ErrCodeMalformedPayload,
				Message: constants.GetErrorMessage(constants.ErrCodeMalformedPayload),
				Err:     err,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ds, nil
}
