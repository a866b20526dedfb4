package carrier

import "errors"

// SendcloudConfig holds configuration for the Sendcloud parcel API
type SendcloudConfig struct {
	// PublicKey is the API public key, used as the basic-auth username
	PublicKey string
	// SecretKey is the API secret key, used as the basic-auth password
	SecretKey string
	// BaseURL is the API base URL
	BaseURL string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// SendcloudDefaultBaseURL is the production API endpoint
const SendcloudDefaultBaseURL = "https://panel.sendcloud.sc/api/v2"

// Errors for Sendcloud configuration
var (
	ErrSendcloudConfigMissingPublicKey = errors.New("sendcloud: public key is required")
	ErrSendcloudConfigMissingSecretKey = errors.New("sendcloud: secret key is required")
)

// NewSendcloudConfig creates a new Sendcloud configuration with defaults
func NewSendcloudConfig(publicKey, secretKey string) *SendcloudConfig {
	return &SendcloudConfig{
		PublicKey:      publicKey,
		SecretKey:      secretKey,
		BaseURL:        SendcloudDefaultBaseURL,
		TimeoutSeconds: 30,
	}
}

// Validate validates the Sendcloud configuration
func (c *SendcloudConfig) Validate() error {
	if c.PublicKey == "" {
		return ErrSendcloudConfigMissingPublicKey
	}
	if c.SecretKey == "" {
		return ErrSendcloudConfigMissingSecretKey
	}
	if c.BaseURL == "" {
		c.BaseURL = SendcloudDefaultBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
