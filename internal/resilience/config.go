package resilience

import (
	"time"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/config"
)

// FromBackendConfig builds the retry policy for language-model calls.
func FromBackendConfig(cfg config.BackendConfig) RetryConfig {
	rc := DefaultRetryConfig()
	if cfg.RetryAttempts > 0 {
		rc.MaxAttempts = cfg.RetryAttempts
	}
	if cfg.RetryBackoffMS > 0 {
		rc.InitialBackoff = time.Duration(cfg.RetryBackoffMS) * time.Millisecond
	}
	return rc
}

// FromCircuitConfig builds a breaker config, keeping defaults for zero values.
func FromCircuitConfig(failureThreshold int, resetTimeout time.Duration) CircuitBreakerConfig {
	cfg := DefaultCircuitBreakerConfig()
	if failureThreshold > 0 {
		cfg.FailureThreshold = failureThreshold
	}
	if resetTimeout > 0 {
		cfg.ResetTimeout = resetTimeout
	}
	return cfg
}
