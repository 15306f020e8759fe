package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrNopReturnsNopForNil(t *testing.T) {
	logger := OrNop(nil)
	assert.NotNil(t, logger)
	// Must not panic.
	logger.Debug("debug %d", 1)
	logger.Error("error")
}

func TestOrNopPassesThroughNonNil(t *testing.T) {
	logger := NewComponentLogger("test")
	assert.Equal(t, logger, OrNop(logger))
}

func TestIsNilDetectsTypedNilPointer(t *testing.T) {
	var typed *componentLogger
	assert.True(t, IsNil(typed))
	assert.True(t, IsNil(nil))
	assert.False(t, IsNil(Nop()))
}

func TestSanitizeLogLine(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bearer token",
			in:   "Authorization: Bearer sk-abcdef123456",
			want: "Authorization: Bearer [REDACTED]",
		},
		{
			name: "api key assignment",
			in:   `api_key: "sk-verysecretvalue"`,
			want: `api_key: [REDACTED]`,
		},
		{
			name: "plain line untouched",
			in:   "tick skipped: lock held",
			want: "tick skipped: lock held",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, sanitizeLogLine(tt.in), tt.want)
		})
	}
}
