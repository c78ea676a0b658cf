package clients

import (
	"testing"

	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/config"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClients(t *testing.T) {
	cfg := &config.Config{}
	cfg.Payman.BaseURL = "https://payman.example.com"
	cfg.Payman.APISecret = "secret"
	cfg.ApplyDefaults()

	c, err := NewClients(cfg, logging.Discard())
	require.NoError(t, err)
	assert.NotNil(t, c.Payman)
}

func TestNewClients_RequiresBaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("PAYMAN_BASE_URL", "")
	cfg := &config.Config{}
	cfg.ApplyDefaults()

	_, err := NewClients(cfg, logging.Discard())
	assert.Error(t, err)
}
