package rental

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ReminderType distinguishes upcoming from late rent.
type ReminderType string

const (
	ReminderDueSoon ReminderType = "Due Soon"
	ReminderOverdue ReminderType = "Overdue"
)

// Valid reports whether t is a known reminder type.
func (t ReminderType) Valid() bool {
	return t == ReminderDueSoon || t == ReminderOverdue
}

// Channel is a delivery channel for reminders.
type Channel string

const (
	ChannelEmail Channel = "Email"
	ChannelSMS   Channel = "SMS"
)

var knownChannels = []Channel{ChannelEmail, ChannelSMS}

// ChannelSet is a sorted, duplicate-free set of channels.
// It marshals as a JSON array and also accepts the legacy "Email, SMS" string.
type ChannelSet []Channel

// NewChannelSet builds a normalised set, rejecting unknown channels.
func NewChannelSet(channels ...Channel) (ChannelSet, error) {
	set := make(ChannelSet, 0, len(channels))
	for _, c := range channels {
		known, ok := lookupChannel(string(c))
		if !ok {
			return nil, fmt.Errorf("unknown channel %q", c)
		}
		if !slices.Contains(set, known) {
			set = append(set, known)
		}
	}
	slices.Sort(set)
	return set, nil
}

// ParseChannels parses a delimited channel list such as "Email, SMS".
func ParseChannels(s string) (ChannelSet, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '|' || r == '/'
	})
	channels := make([]Channel, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			channels = append(channels, Channel(f))
		}
	}
	return NewChannelSet(channels...)
}

func lookupChannel(s string) (Channel, bool) {
	for _, c := range knownChannels {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, true
		}
	}
	return "", false
}

// Has reports whether c is in the set.
func (s ChannelSet) Has(c Channel) bool {
	return slices.Contains(s, c)
}

// String renders the set in the legacy delimited form.
func (s ChannelSet) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

// MarshalJSON encodes the set as an array, never null.
func (s ChannelSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Channel(s))
}

// UnmarshalJSON accepts either ["Email","SMS"] or "Email, SMS".
func (s *ChannelSet) UnmarshalJSON(data []byte) error {
	var legacy string
	if err := json.Unmarshal(data, &legacy); err == nil {
		set, err := ParseChannels(legacy)
		if err != nil {
			return err
		}
		*s = set
		return nil
	}

	var list []Channel
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("channels must be an array or a delimited string: %w", err)
	}
	set, err := NewChannelSet(list...)
	if err != nil {
		return err
	}
	*s = set
	return nil
}

// Reminder is a scheduled rent notification for one tenant and due date.
type Reminder struct {
	ID        string
	TenantID  string
	DueDate   time.Time
	Type      ReminderType
	Channels  ChannelSet
	LastSent  *time.Time
	CreatedAt time.Time
}
