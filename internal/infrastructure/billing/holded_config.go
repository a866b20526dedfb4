package billing

import "errors"

// HoldedConfig holds configuration for the Holded invoicing API
type HoldedConfig struct {
	// APIKey is the account API key sent on every request
	APIKey string
	// BaseURL is the API base URL
	BaseURL string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// HoldedDefaultBaseURL is the production API endpoint
const HoldedDefaultBaseURL = "https://api.holded.com/api"

// ErrHoldedConfigMissingAPIKey indicates a missing API key
var ErrHoldedConfigMissingAPIKey = errors.New("holded: api key is required")

// NewHoldedConfig creates a new Holded configuration with defaults
func NewHoldedConfig(apiKey string) *HoldedConfig {
	return &HoldedConfig{
		APIKey:         apiKey,
		BaseURL:        HoldedDefaultBaseURL,
		TimeoutSeconds: 30,
	}
}

// Validate validates the Holded configuration
func (c *HoldedConfig) Validate() error {
	if c.APIKey == "" {
		return ErrHoldedConfigMissingAPIKey
	}
	if c.BaseURL == "" {
		c.BaseURL = HoldedDefaultBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
