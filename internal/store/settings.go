package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SetLeaderboardChannel records the guild's default leaderboard channel
func (s *Store) SetLeaderboardChannel(ctx context.Context, guildID string, channelID string) error {

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO guild_settings (guild_id, leaderboard_channel_id, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (guild_id)
		DO UPDATE SET
			leaderboard_channel_id = EXCLUDED.leaderboard_channel_id,
			updated_at = CURRENT_TIMESTAMP`,
		guildID, channelID)
	if err != nil {
		return fmt.Errorf("could not set leaderboard channel: %w", err)
	}
	return nil
}

// LeaderboardChannel returns the guild's configured leaderboard channel,
// or nil when none has been set
func (s *Store) LeaderboardChannel(ctx context.Context, guildID string) (*string, error) {

	var channelID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT leaderboard_channel_id FROM guild_settings WHERE guild_id = $1`,
		guildID).Scan(&channelID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not get leaderboard channel: %w", err)
	}
	if !channelID.Valid {
		return nil, nil
	}
	return &channelID.String, nil
}
