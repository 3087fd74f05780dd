package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/contentgrade/internal/config"
)

func TestFromModelConfig(t *testing.T) {
	cfg := FromModelConfig(config.ModelConfig{MaxAttempts: 5, InitialBackoffMs: 100, MaxBackoffMs: 2000})
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.InitialBackoff)
	assert.Equal(t, 2*time.Second, cfg.MaxBackoff)

	def := FromModelConfig(config.ModelConfig{})
	assert.Equal(t, DefaultRetryConfig().MaxAttempts, def.MaxAttempts)
}

func TestFromCircuitConfig(t *testing.T) {
	cfg := FromCircuitConfig(3, 60)
	assert.Equal(t, 3, cfg.FailureThreshold)
	assert.Equal(t, time.Minute, cfg.ResetTimeout)

	def := FromCircuitConfig(0, 0)
	assert.Equal(t, DefaultCircuitBreakerConfig().FailureThreshold, def.FailureThreshold)
}
