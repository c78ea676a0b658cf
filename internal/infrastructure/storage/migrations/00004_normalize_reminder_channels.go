package migrations

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/eshaffer321/rentlink-backend/internal/domain/rental"
	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upNormalizeReminderChannels, downNormalizeReminderChannels)
}

// upNormalizeReminderChannels rewrites reminders imported from the legacy
// app, whose channel column holds a delimited string ("Email, SMS"), into
// the JSON array form the store reads. Rows already in array form are left alone.
func upNormalizeReminderChannels(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, channels FROM reminders
		WHERE channels NOT LIKE '[%'
	`)
	if err != nil {
		return err
	}

	updates := map[string]string{}
	for rows.Next() {
		var id, legacy string
		if err := rows.Scan(&id, &legacy); err != nil {
			_ = rows.Close()
			return err
		}
		set, err := rental.ParseChannels(legacy)
		if err != nil {
			_ = rows.Close()
			return fmt.Errorf("reminder %s: %w", id, err)
		}
		data, err := json.Marshal(set)
		if err != nil {
			_ = rows.Close()
			return err
		}
		updates[id] = string(data)
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for id, channels := range updates {
		if _, err := tx.ExecContext(ctx, `UPDATE reminders SET channels = ? WHERE id = ?`, channels, id); err != nil {
			return err
		}
	}
	return nil
}

// downNormalizeReminderChannels writes arrays back as delimited strings.
func downNormalizeReminderChannels(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, `SELECT id, channels FROM reminders WHERE channels LIKE '[%'`)
	if err != nil {
		return err
	}

	updates := map[string]string{}
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			_ = rows.Close()
			return err
		}
		var set rental.ChannelSet
		if err := json.Unmarshal([]byte(data), &set); err != nil {
			_ = rows.Close()
			return fmt.Errorf("reminder %s: %w", id, err)
		}
		updates[id] = strings.TrimSpace(set.String())
	}
	if err := rows.Close(); err != nil {
		return err
	}

	for id, channels := range updates {
		if _, err := tx.ExecContext(ctx, `UPDATE reminders SET channels = ? WHERE id = ?`, channels, id); err != nil {
			return err
		}
	}
	return nil
}
