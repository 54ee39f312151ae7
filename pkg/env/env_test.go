package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvStringOrDefault(t *testing.T) {
	assert.Equal(t, "fallback", GetEnvStringOrDefault("ENV_TEST_UNSET", "fallback"))

	t.Setenv("ENV_TEST_STRING", "value")
	assert.Equal(t, "value", GetEnvStringOrDefault("ENV_TEST_STRING", "fallback"))
}

func TestGetEnvIntOrDefault(t *testing.T) {
	assert.Equal(t, 5, GetEnvIntOrDefault("ENV_TEST_UNSET", 5))

	t.Setenv("ENV_TEST_INT", "42")
	assert.Equal(t, 42, GetEnvIntOrDefault("ENV_TEST_INT", 5))

	t.Setenv("ENV_TEST_INT", "not a number")
	assert.Equal(t, 5, GetEnvIntOrDefault("ENV_TEST_INT", 5))
}

func TestGetEnvDurationOrDefault(t *testing.T) {
	assert.Equal(t, time.Minute, GetEnvDurationOrDefault("ENV_TEST_UNSET", time.Minute))

	t.Setenv("ENV_TEST_DURATION", "30s")
	assert.Equal(t, 30*time.Second, GetEnvDurationOrDefault("ENV_TEST_DURATION", time.Minute))

	// Plain integers read as seconds.
	t.Setenv("ENV_TEST_DURATION", "90")
	assert.Equal(t, 90*time.Second, GetEnvDurationOrDefault("ENV_TEST_DURATION", time.Minute))
}

func TestGetEnvBoolOrDefault(t *testing.T) {
	assert.True(t, GetEnvBoolOrDefault("ENV_TEST_UNSET", true))

	t.Setenv("ENV_TEST_BOOL", "false")
	assert.False(t, GetEnvBoolOrDefault("ENV_TEST_BOOL", true))
}
