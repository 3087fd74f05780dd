package resilience

import (
	"time"

	"github.com/sells-group/contentgrade/internal/config"
)

// FromModelConfig builds the retry policy for model calls.
func FromModelConfig(m config.ModelConfig) RetryConfig {
	cfg := DefaultRetryConfig()
	if m.MaxAttempts > 0 {
		cfg.MaxAttempts = m.MaxAttempts
	}
	if m.InitialBackoffMs > 0 {
		cfg.InitialBackoff = time.Duration(m.InitialBackoffMs) * time.Millisecond
	}
	if m.MaxBackoffMs > 0 {
		cfg.MaxBackoff = time.Duration(m.MaxBackoffMs) * time.Millisecond
	}
	return cfg
}

// FromCircuitConfig converts config values to a CircuitBreakerConfig.
func FromCircuitConfig(failureThreshold, resetTimeoutSecs int) CircuitBreakerConfig {
	cfg := DefaultCircuitBreakerConfig()
	if failureThreshold > 0 {
		cfg.FailureThreshold = failureThreshold
	}
	if resetTimeoutSecs > 0 {
		cfg.ResetTimeout = time.Duration(resetTimeoutSecs) * time.Second
	}
	return cfg
}
