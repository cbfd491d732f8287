package store

import (
	"context"
	"database/sql"
	"fmt"
)

const duelTimeColumns = `id, challenge_id, user_id, time_ms, submitted_at, updated_at`

func scanDuelTime(row rowScanner) (*DuelTime, error) {
	var dt DuelTime
	err := row.Scan(&dt.ID, &dt.ChallengeID, &dt.UserID, &dt.TimeMillis,
		&dt.SubmittedAt, &dt.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &dt, nil
}

// UpsertDuelTime records the user's time for a duel, overwriting any
// previous submission regardless of value
func (s *Store) UpsertDuelTime(ctx context.Context, challengeID int64, userID string, timeMillis int) error {

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO challenge_1v1_times (challenge_id, user_id, time_ms)
		VALUES ($1, $2, $3)
		ON CONFLICT (challenge_id, user_id)
		DO UPDATE SET time_ms = EXCLUDED.time_ms, updated_at = CURRENT_TIMESTAMP`,
		challengeID, userID, timeMillis)
	if err != nil {
		return fmt.Errorf("could not save duel time: %w", err)
	}
	return nil
}

// DuelTimeFor returns the user's submitted time for a duel, or nil
func (s *Store) DuelTimeFor(ctx context.Context, challengeID int64, userID string) (*DuelTime, error) {

	row := s.db.QueryRowContext(ctx,
		`SELECT `+duelTimeColumns+` FROM challenge_1v1_times
		 WHERE challenge_id = $1 AND user_id = $2`, challengeID, userID)
	dt, err := scanDuelTime(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not get duel time: %w", err)
	}
	return dt, nil
}

// DuelTimes lists every submitted time for a duel, fastest first
func (s *Store) DuelTimes(ctx context.Context, challengeID int64) ([]DuelTime, error) {

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+duelTimeColumns+` FROM challenge_1v1_times
		 WHERE challenge_id = $1
		 ORDER BY time_ms ASC`, challengeID)
	if err != nil {
		return nil, fmt.Errorf("could not list duel times: %w", err)
	}
	defer rows.Close()

	var times []DuelTime
	for rows.Next() {
		dt, err := scanDuelTime(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan duel time: %w", err)
		}
		times = append(times, *dt)
	}
	return times, rows.Err()
}
