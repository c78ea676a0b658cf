// Package clients builds the external collaborators from configuration.
package clients

import (
	"errors"
	"log/slog"

	"github.com/eshaffer321/rentlink-backend/internal/adapters/payman"
	"github.com/eshaffer321/rentlink-backend/internal/infrastructure/config"
)

type Clients struct {
	Payman *payman.Client
}

func NewClients(cfg *config.Config, logger *slog.Logger) (*Clients, error) {
	pc := cfg.PaymanClientConfig()
	if pc.BaseURL == "" {
		return nil, errors.New("payman base url is required (payman.base_url or API_BASE_URL)")
	}
	if pc.APISecret == "" && logger != nil {
		logger.Warn("payman api secret is empty; provider calls will be unauthenticated")
	}

	return &Clients{
		Payman: payman.NewClient(pc, logger),
	}, nil
}
