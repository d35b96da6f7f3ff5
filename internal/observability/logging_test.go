package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LogConfig
		wantErr bool
	}{
		{
			name: "default config",
			cfg:  DefaultLogConfig(),
		},
		{
			name: "console format",
			cfg:  LogConfig{Level: "debug", Format: "console", Output: "stderr"},
		},
		{
			name:    "invalid level",
			cfg:     LogConfig{Level: "loud", Format: "json"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
			logger.Info("test message", String("key", "value"))
		})
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()
	logger.Debug("discarded")
	logger.Info("discarded")
	logger.Warn("discarded")
	logger.Error("discarded")
	assert.NoError(t, logger.Sync())
	assert.Same(t, logger, logger.With(String("k", "v")))
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))

	ctx = ContextWithRequestID(ctx, "req-123")
	assert.Equal(t, "req-123", RequestIDFromContext(ctx))

	logger := NopLogger()
	assert.NotNil(t, logger.WithContext(ctx))
}
