package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfig(t *testing.T) {
	cfg := &ClientConfig{
		DSN:             "postgres://smef:secret@db:5432/smef?sslmode=disable",
		MaxConns:        12,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
	}
	pcfg, err := poolConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(12), pcfg.MaxConns)
	assert.Equal(t, int32(2), pcfg.MinConns)
	assert.Equal(t, time.Hour, pcfg.MaxConnLifetime)
	assert.Equal(t, "db", pcfg.ConnConfig.Host)
	assert.Equal(t, "smef", pcfg.ConnConfig.Database)
}

func TestPoolConfigRejectsBadDSN(t *testing.T) {
	_, err := poolConfig(&ClientConfig{DSN: "postgres://%zz"})
	assert.Error(t, err)
}

func TestNewClientRequiresDSN(t *testing.T) {
	_, err := NewClient(context.Background())
	assert.Error(t, err)
}
