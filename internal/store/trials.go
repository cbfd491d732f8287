package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kartbot/internal/tracks"
)

const trialColumns = `id, trial_number, guild_id, track_name, category,
	gold_time_ms, silver_time_ms, bronze_time_ms,
	start_date, end_date, status, leaderboard_channel_id, leaderboard_message_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrial(row rowScanner) (*Trial, error) {

	var t Trial
	var gold, silver, bronze sql.NullInt64
	var channelID, messageID sql.NullString

	err := row.Scan(&t.ID, &t.TrialNumber, &t.GuildID, &t.TrackName, &t.Category,
		&gold, &silver, &bronze,
		&t.StartDate, &t.EndDate, &t.Status, &channelID, &messageID)
	if err != nil {
		return nil, err
	}

	if gold.Valid && silver.Valid && bronze.Valid {
		t.Thresholds = &Thresholds{
			GoldMillis:   int(gold.Int64),
			SilverMillis: int(silver.Int64),
			BronzeMillis: int(bronze.Int64),
		}
	}
	if channelID.Valid {
		t.LeaderboardChannelID = &channelID.String
	}
	if messageID.Valid {
		t.LeaderboardMessageID = &messageID.String
	}
	return &t, nil
}

func thresholdParams(th *Thresholds) (any, any, any) {
	if th == nil {
		return nil, nil, nil
	}
	return th.GoldMillis, th.SilverMillis, th.BronzeMillis
}

// CreateTrial allocates the next sequential trial number for the guild and
// inserts the row in one transaction. The passed trial is filled in
func (s *Store) CreateTrial(ctx context.Context, t *Trial) error {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	var number int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(trial_number), 0) + 1 FROM weekly_trials WHERE guild_id = $1`,
		t.GuildID).Scan(&number)
	if err != nil {
		return fmt.Errorf("could not allocate trial number: %w", err)
	}

	gold, silver, bronze := thresholdParams(t.Thresholds)
	err = tx.QueryRowContext(ctx, `
		INSERT INTO weekly_trials
			(trial_number, guild_id, track_name, category,
			 gold_time_ms, silver_time_ms, bronze_time_ms, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'active')
		RETURNING id, start_date`,
		number, t.GuildID, t.TrackName, t.Category,
		gold, silver, bronze, t.EndDate).Scan(&t.ID, &t.StartDate)
	if err != nil {
		return fmt.Errorf("could not insert trial: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit trial: %w", err)
	}
	t.TrialNumber = number
	t.Status = TrialActive
	return nil
}

// TrialByID returns the trial with the given id, or nil when absent
func (s *Store) TrialByID(ctx context.Context, id int64) (*Trial, error) {

	row := s.db.QueryRowContext(ctx,
		`SELECT `+trialColumns+` FROM weekly_trials WHERE id = $1`, id)
	t, err := scanTrial(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not get trial %d: %w", id, err)
	}
	return t, nil
}

// TrialByNumber returns the guild's trial with the given sequential number
func (s *Store) TrialByNumber(ctx context.Context, guildID string, number int) (*Trial, error) {

	row := s.db.QueryRowContext(ctx,
		`SELECT `+trialColumns+` FROM weekly_trials
		 WHERE guild_id = $1 AND trial_number = $2`, guildID, number)
	t, err := scanTrial(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not get trial #%d: %w", number, err)
	}
	return t, nil
}

// TrialByTrack returns the guild's most recent trial for a track in any
// status, or nil when the track never had one. Lets users view the final
// standings of ended and expired trials
func (s *Store) TrialByTrack(ctx context.Context, guildID string, track string) (*Trial, error) {

	row := s.db.QueryRowContext(ctx,
		`SELECT `+trialColumns+` FROM weekly_trials
		 WHERE guild_id = $1 AND track_name = $2
		 ORDER BY start_date DESC LIMIT 1`, guildID, track)
	t, err := scanTrial(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not get trial for %s: %w", track, err)
	}
	return t, nil
}

// TrialTracks lists the distinct tracks that have any trial in the
// guild, most recently started first
func (s *Store) TrialTracks(ctx context.Context, guildID string) ([]string, error) {

	rows, err := s.db.QueryContext(ctx,
		`SELECT track_name FROM weekly_trials
		 WHERE guild_id = $1
		 GROUP BY track_name
		 ORDER BY MAX(start_date) DESC`, guildID)
	if err != nil {
		return nil, fmt.Errorf("could not list trial tracks: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("could not scan track name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ActiveTrialByTrack returns the guild's active trial for a track,
// regardless of category, or nil when there is none
func (s *Store) ActiveTrialByTrack(ctx context.Context, guildID string, track string) (*Trial, error) {

	row := s.db.QueryRowContext(ctx,
		`SELECT `+trialColumns+` FROM weekly_trials
		 WHERE guild_id = $1 AND track_name = $2 AND status = 'active'
		 ORDER BY start_date DESC LIMIT 1`, guildID, track)
	t, err := scanTrial(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not get active trial for %s: %w", track, err)
	}
	return t, nil
}

// ActiveTrialByTrackCategory returns the guild's active trial for a
// track and category pair, or nil when there is none
func (s *Store) ActiveTrialByTrackCategory(ctx context.Context, guildID string, track string, category tracks.Category) (*Trial, error) {

	row := s.db.QueryRowContext(ctx,
		`SELECT `+trialColumns+` FROM weekly_trials
		 WHERE guild_id = $1 AND track_name = $2 AND category = $3 AND status = 'active'
		 LIMIT 1`, guildID, track, category)
	t, err := scanTrial(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not get active %s trial for %s: %w", category, track, err)
	}
	return t, nil
}

// ActiveTrials lists the guild's active trials, oldest first
func (s *Store) ActiveTrials(ctx context.Context, guildID string) ([]Trial, error) {

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+trialColumns+` FROM weekly_trials
		 WHERE guild_id = $1 AND status = 'active'
		 ORDER BY trial_number ASC`, guildID)
	if err != nil {
		return nil, fmt.Errorf("could not list active trials: %w", err)
	}
	defer rows.Close()

	var trials []Trial
	for rows.Next() {
		t, err := scanTrial(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan trial: %w", err)
		}
		trials = append(trials, *t)
	}
	return trials, rows.Err()
}

// CountActiveTrials returns the number of active trials in the guild
func (s *Store) CountActiveTrials(ctx context.Context, guildID string) (int, error) {

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM weekly_trials WHERE guild_id = $1 AND status = 'active'`,
		guildID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("could not count active trials: %w", err)
	}
	return count, nil
}

// EndTrial moves an active trial to ended, stamping end_date to now.
// Returns false when the trial was not active anymore
func (s *Store) EndTrial(ctx context.Context, id int64) (bool, error) {

	result, err := s.db.ExecContext(ctx,
		`UPDATE weekly_trials SET status = 'ended', end_date = CURRENT_TIMESTAMP
		 WHERE id = $1 AND status = 'active'`, id)
	if err != nil {
		return false, fmt.Errorf("could not end trial %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// SetTrialThresholds overwrites (or clears, when nil) the trial's medal times
func (s *Store) SetTrialThresholds(ctx context.Context, id int64, th *Thresholds) error {

	gold, silver, bronze := thresholdParams(th)
	_, err := s.db.ExecContext(ctx,
		`UPDATE weekly_trials
		 SET gold_time_ms = $1, silver_time_ms = $2, bronze_time_ms = $3
		 WHERE id = $4`, gold, silver, bronze, id)
	if err != nil {
		return fmt.Errorf("could not set thresholds for trial %d: %w", id, err)
	}
	return nil
}

// SetTrialCategory changes the trial's category
func (s *Store) SetTrialCategory(ctx context.Context, id int64, category tracks.Category) error {

	_, err := s.db.ExecContext(ctx,
		`UPDATE weekly_trials SET category = $1 WHERE id = $2`, category, id)
	if err != nil {
		return fmt.Errorf("could not set category for trial %d: %w", id, err)
	}
	return nil
}

// SetLeaderboardMessage records the posted live leaderboard location
func (s *Store) SetLeaderboardMessage(ctx context.Context, id int64, channelID string, messageID string) error {

	_, err := s.db.ExecContext(ctx,
		`UPDATE weekly_trials
		 SET leaderboard_channel_id = $1, leaderboard_message_id = $2
		 WHERE id = $3`, channelID, messageID, id)
	if err != nil {
		return fmt.Errorf("could not record leaderboard message for trial %d: %w", id, err)
	}
	return nil
}

// ExpireOverdueTrials marks every active trial whose end date has passed
// as expired and returns the affected rows
func (s *Store) ExpireOverdueTrials(ctx context.Context, now time.Time) ([]Trial, error) {

	rows, err := s.db.QueryContext(ctx,
		`UPDATE weekly_trials SET status = 'expired'
		 WHERE status = 'active' AND end_date < $1
		 RETURNING `+trialColumns, now)
	if err != nil {
		return nil, fmt.Errorf("could not expire trials: %w", err)
	}
	defer rows.Close()

	var trials []Trial
	for rows.Next() {
		t, err := scanTrial(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan expired trial: %w", err)
		}
		trials = append(trials, *t)
	}
	return trials, rows.Err()
}

// PurgeExpiredTrials deletes expired trials whose end date is older than
// the cutoff. Player times cascade with the trial row
func (s *Store) PurgeExpiredTrials(ctx context.Context, cutoff time.Time) ([]Trial, error) {

	rows, err := s.db.QueryContext(ctx,
		`DELETE FROM weekly_trials
		 WHERE status = 'expired' AND end_date < $1
		 RETURNING `+trialColumns, cutoff)
	if err != nil {
		return nil, fmt.Errorf("could not purge expired trials: %w", err)
	}
	defer rows.Close()

	var trials []Trial
	for rows.Next() {
		t, err := scanTrial(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan purged trial: %w", err)
		}
		trials = append(trials, *t)
	}
	return trials, rows.Err()
}
