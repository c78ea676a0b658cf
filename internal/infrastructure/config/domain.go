package config

import (
	"github.com/eshaffer321/rentlink-backend/internal/adapters/payman"
	"github.com/eshaffer321/rentlink-backend/internal/domain/matcher"
	"github.com/eshaffer321/rentlink-backend/internal/domain/reminder"
	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
	"github.com/shopspring/decimal"
)

// MatcherConfig converts the matching section for the engine.
func (c *Config) MatcherConfig() matcher.Config {
	m := c.Matching
	return matcher.Config{
		AmountTolerance:    decimal.NewFromFloat(m.AmountTolerance),
		MinSimilarity:      m.MinSimilarity,
		StrongSimilarity:   m.StrongSimilarity,
		FallbackMinOverlap: m.FallbackMinOverlap,
		UnresolvedMarkers:  m.UnresolvedMarkers,
	}
}

// ReminderConfig converts the reminders section for the scheduler.
func (c *Config) ReminderConfig() (reminder.Config, error) {
	channels := make([]rental.Channel, len(c.Reminders.Channels))
	for i, ch := range c.Reminders.Channels {
		channels[i] = rental.Channel(ch)
	}
	set, err := rental.NewChannelSet(channels...)
	if err != nil {
		return reminder.Config{}, err
	}
	return reminder.Config{
		DaysBefore:   c.Reminders.DaysBefore,
		DaysAfter:    c.Reminders.DaysAfter,
		FollowUpDays: c.Reminders.FollowUpDays,
		Channels:     set,
	}, nil
}

// PaymanClientConfig converts the payman section for the provider client.
func (c *Config) PaymanClientConfig() payman.Config {
	pc := payman.DefaultConfig()
	pc.BaseURL = c.Payman.BaseURL
	pc.APISecret = c.GetAPIKey(c.Payman.APISecret, "PAYMAN_API_SECRET", "PAYMAN_API_KEY")
	pc.Timeout = payman.ClampTimeout(c.Payman.Timeout)
	pc.RetryMax = c.Payman.RetryMax
	pc.RateLimit = c.Payman.RateLimitRPS
	return pc
}
