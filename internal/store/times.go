package store

import (
	"context"
	"database/sql"
	"fmt"
)

const playerTimeColumns = `id, trial_id, user_id, time_ms, submitted_at, updated_at`

func scanPlayerTime(row rowScanner) (*PlayerTime, error) {
	var pt PlayerTime
	err := row.Scan(&pt.ID, &pt.TrialID, &pt.UserID, &pt.TimeMillis,
		&pt.SubmittedAt, &pt.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &pt, nil
}

// PlayerTimeFor returns the user's recorded time for a trial, or nil
func (s *Store) PlayerTimeFor(ctx context.Context, trialID int64, userID string) (*PlayerTime, error) {

	row := s.db.QueryRowContext(ctx,
		`SELECT `+playerTimeColumns+` FROM player_times
		 WHERE trial_id = $1 AND user_id = $2`, trialID, userID)
	pt, err := scanPlayerTime(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not get player time: %w", err)
	}
	return pt, nil
}

// UpsertPlayerTime records the user's best time for a trial. The caller
// is responsible for the improvement-only rule; this write overwrites
func (s *Store) UpsertPlayerTime(ctx context.Context, trialID int64, userID string, timeMillis int) error {

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO player_times (trial_id, user_id, time_ms)
		VALUES ($1, $2, $3)
		ON CONFLICT (trial_id, user_id)
		DO UPDATE SET time_ms = EXCLUDED.time_ms, updated_at = CURRENT_TIMESTAMP`,
		trialID, userID, timeMillis)
	if err != nil {
		return fmt.Errorf("could not save player time: %w", err)
	}
	return nil
}

// DeletePlayerTime removes the user's submission for a trial.
// Returns false when there was nothing to delete
func (s *Store) DeletePlayerTime(ctx context.Context, trialID int64, userID string) (bool, error) {

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM player_times WHERE trial_id = $1 AND user_id = $2`,
		trialID, userID)
	if err != nil {
		return false, fmt.Errorf("could not delete player time: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// PlayerTimes lists every submission for a trial, fastest first
func (s *Store) PlayerTimes(ctx context.Context, trialID int64) ([]PlayerTime, error) {

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+playerTimeColumns+` FROM player_times
		 WHERE trial_id = $1
		 ORDER BY time_ms ASC, user_id ASC`, trialID)
	if err != nil {
		return nil, fmt.Errorf("could not list player times: %w", err)
	}
	defer rows.Close()

	var times []PlayerTime
	for rows.Next() {
		pt, err := scanPlayerTime(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan player time: %w", err)
		}
		times = append(times, *pt)
	}
	return times, rows.Err()
}
