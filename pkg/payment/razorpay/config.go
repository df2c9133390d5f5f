package razorpay

// Config represents the configuration for the Razorpay client
type Config struct {
	// KeyID is the Razorpay API key id, used as the basic auth username
	KeyID string

	// KeySecret is the Razorpay API key secret. It authenticates API calls
	// and is the HMAC key for checkout signature verification.
	KeySecret string

	// BaseURL is the Razorpay API base URL
	BaseURL string
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.KeyID == "" {
		return ErrInvalidRequest
	}
	if c.KeySecret == "" {
		return ErrInvalidRequest
	}
	if c.BaseURL == "" {
		return ErrInvalidRequest
	}
	return nil
}
