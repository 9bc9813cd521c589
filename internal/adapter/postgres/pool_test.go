package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/regpulse-backend/internal/config"
)

func TestPoolConfig_AppliesSettings(t *testing.T) {
	t.Parallel()

	got, err := poolConfig(config.DatabaseConfig{
		DSN:              "postgres://u:p@localhost:5432/regpulse",
		MaxConns:         12,
		MinConns:         3,
		MaxConnLifetime:  time.Hour,
		MaxConnIdleTime:  time.Minute,
		StatementTimeout: 2500 * time.Millisecond,
		ApplicationName:  "regpulse-test",
	})
	require.NoError(t, err)

	assert.Equal(t, int32(12), got.MaxConns)
	assert.Equal(t, int32(3), got.MinConns)
	assert.Equal(t, time.Hour, got.MaxConnLifetime)
	assert.Equal(t, time.Minute, got.MaxConnIdleTime)
	assert.Equal(t, "regpulse-test", got.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, "2500", got.ConnConfig.RuntimeParams["statement_timeout"])
}

func TestPoolConfig_ZeroStatementTimeoutLeavesServerDefault(t *testing.T) {
	t.Parallel()

	got, err := poolConfig(config.DatabaseConfig{DSN: "postgres://u:p@localhost:5432/regpulse"})
	require.NoError(t, err)

	_, ok := got.ConnConfig.RuntimeParams["statement_timeout"]
	assert.False(t, ok)
}

func TestPoolConfig_BadDSN(t *testing.T) {
	t.Parallel()

	_, err := poolConfig(config.DatabaseConfig{DSN: "postgres://%zz"})
	assert.Error(t, err)
}
