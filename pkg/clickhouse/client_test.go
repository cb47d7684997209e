package clickhouse

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name   string
		cfg    ClientConfig
		scheme string
		query  map[string]string
	}{
		{
			name:   "native with timeouts",
			cfg:    ClientConfig{Host: "ch", Port: 9000, Database: "smef", User: "u", Password: "p@ss", DialTimeout: 5 * time.Second, MaxExecTime: time.Minute},
			scheme: "clickhouse",
			query:  map[string]string{"dial_timeout": "5s", "max_execution_time": "60"},
		},
		{
			name:   "http without options",
			cfg:    ClientConfig{Host: "ch", Port: 8123, Database: "default", User: "default", UseHTTP: true},
			scheme: "http",
			query:  map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(buildDSN(tt.cfg))
			require.NoError(t, err)
			assert.Equal(t, tt.scheme, u.Scheme)
			assert.Equal(t, "/"+tt.cfg.Database, u.Path)
			assert.Equal(t, tt.cfg.User, u.User.Username())
			pass, _ := u.User.Password()
			assert.Equal(t, tt.cfg.Password, pass)
			assert.Len(t, u.Query(), len(tt.query))
			for k, v := range tt.query {
				assert.Equal(t, v, u.Query().Get(k))
			}
		})
	}
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient()
	assert.Error(t, err)
}
