package opensky

import (
	"fmt"
	"net/url"
	"time"

	"github.com/skycarbon/skycarbon/types"
)

// DefaultBaseURL is the public OpenSky REST endpoint.
const DefaultBaseURL = "https://opensky-network.org/api"

// Config configures the client.
type Config struct {
	// BaseURL is the API root; "/states/all" is appended.
	BaseURL string `yaml:"baseURL"`

	// Timeout bounds one HTTP attempt.
	Timeout time.Duration `yaml:"timeout"`

	// RateLimit is the sustained request rate (requests/second) per account.
	RateLimit float64 `yaml:"rateLimit"`

	// Burst is the limiter bucket size.
	Burst int `yaml:"burst"`

	// MaxRetries is the number of retries after the first attempt on 429/5xx.
	MaxRetries int `yaml:"maxRetries"`

	// BackoffBase and BackoffCap bound the delay between retries.
	BackoffBase time.Duration `yaml:"backoffBase"`
	BackoffCap  time.Duration `yaml:"backoffCap"`

	// Seed makes retry jitter deterministic when non-zero (tests).
	Seed int64 `yaml:"-"`
}

// DefaultConfig returns the client defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		Timeout:     15 * time.Second,
		RateLimit:   1,
		Burst:       4,
		MaxRetries:  3,
		BackoffBase: 500 * time.Millisecond,
		BackoffCap:  10 * time.Second,
	}
}

// SetDefaults fills zero fields from DefaultConfig.
func (c *Config) SetDefaults() {
	def := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = def.Timeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = def.RateLimit
	}
	if c.Burst == 0 {
		c.Burst = def.Burst
	}
	if c.BackoffBase == 0 {
		c.BackoffBase = def.BackoffBase
	}
	if c.BackoffCap == 0 {
		c.BackoffCap = def.BackoffCap
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: opensky baseURL %q is not an absolute URL", types.ErrInvalidConfig, c.BaseURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: opensky timeout must be >= 0", types.ErrInvalidConfig)
	}
	if c.RateLimit < 0 || c.Burst < 0 {
		return fmt.Errorf("%w: opensky rateLimit and burst must be >= 0", types.ErrInvalidConfig)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: opensky maxRetries must be >= 0", types.ErrInvalidConfig)
	}

	return nil
}
