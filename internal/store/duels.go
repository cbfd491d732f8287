package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const duelColumns = `id, challenge_number, guild_id, track_name,
	creator_user_id, opponent_user_id, status,
	created_at, accepted_at, start_date, end_date, winner_user_id`

func scanDuel(row rowScanner) (*Duel, error) {

	var d Duel
	var acceptedAt, startDate sql.NullTime
	var winner sql.NullString

	err := row.Scan(&d.ID, &d.ChallengeNumber, &d.GuildID, &d.TrackName,
		&d.CreatorID, &d.OpponentID, &d.Status,
		&d.CreatedAt, &acceptedAt, &startDate, &d.EndDate, &winner)
	if err != nil {
		return nil, err
	}

	if acceptedAt.Valid {
		d.AcceptedAt = &acceptedAt.Time
	}
	if startDate.Valid {
		d.StartDate = &startDate.Time
	}
	if winner.Valid {
		d.WinnerID = &winner.String
	}
	return &d, nil
}

// CreateDuel allocates the next sequential challenge number for the guild
// and inserts the pending row in one transaction
func (s *Store) CreateDuel(ctx context.Context, d *Duel) error {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	var number int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(challenge_number), 0) + 1 FROM challenges_1v1 WHERE guild_id = $1`,
		d.GuildID).Scan(&number)
	if err != nil {
		return fmt.Errorf("could not allocate challenge number: %w", err)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO challenges_1v1
			(challenge_number, guild_id, track_name, creator_user_id, opponent_user_id, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending')
		RETURNING id, created_at`,
		number, d.GuildID, d.TrackName, d.CreatorID, d.OpponentID, d.EndDate).
		Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("could not insert duel: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit duel: %w", err)
	}
	d.ChallengeNumber = number
	d.Status = DuelPending
	return nil
}

// DuelByNumber returns the guild's duel with the given challenge number
func (s *Store) DuelByNumber(ctx context.Context, guildID string, number int) (*Duel, error) {

	row := s.db.QueryRowContext(ctx,
		`SELECT `+duelColumns+` FROM challenges_1v1
		 WHERE guild_id = $1 AND challenge_number = $2`, guildID, number)
	d, err := scanDuel(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not get duel #%d: %w", number, err)
	}
	return d, nil
}

// PendingDuelsForOpponent lists pending invitations addressed to the user,
// newest first
func (s *Store) PendingDuelsForOpponent(ctx context.Context, guildID string, userID string) ([]Duel, error) {
	return s.queryDuels(ctx,
		`SELECT `+duelColumns+` FROM challenges_1v1
		 WHERE guild_id = $1 AND opponent_user_id = $2 AND status = 'pending'
		 ORDER BY created_at DESC`, guildID, userID)
}

// ActiveDuelsForParticipant lists active duels the user takes part in,
// newest first
func (s *Store) ActiveDuelsForParticipant(ctx context.Context, guildID string, userID string) ([]Duel, error) {
	return s.queryDuels(ctx,
		`SELECT `+duelColumns+` FROM challenges_1v1
		 WHERE guild_id = $1 AND (creator_user_id = $2 OR opponent_user_id = $2)
		   AND status = 'active'
		 ORDER BY created_at DESC`, guildID, userID)
}

// PendingDuelsForCreator lists pending duels the user created, newest first
func (s *Store) PendingDuelsForCreator(ctx context.Context, guildID string, userID string) ([]Duel, error) {
	return s.queryDuels(ctx,
		`SELECT `+duelColumns+` FROM challenges_1v1
		 WHERE guild_id = $1 AND creator_user_id = $2 AND status = 'pending'
		 ORDER BY created_at DESC`, guildID, userID)
}

// DuelsForParticipant lists every duel the user takes part in, any status,
// newest first
func (s *Store) DuelsForParticipant(ctx context.Context, guildID string, userID string) ([]Duel, error) {
	return s.queryDuels(ctx,
		`SELECT `+duelColumns+` FROM challenges_1v1
		 WHERE guild_id = $1 AND (creator_user_id = $2 OR opponent_user_id = $2)
		 ORDER BY created_at DESC`, guildID, userID)
}

func (s *Store) queryDuels(ctx context.Context, query string, args ...any) ([]Duel, error) {

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not list duels: %w", err)
	}
	defer rows.Close()

	var duels []Duel
	for rows.Next() {
		d, err := scanDuel(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan duel: %w", err)
		}
		duels = append(duels, *d)
	}
	return duels, rows.Err()
}

// AcceptDuel moves a pending duel to active, stamping accepted_at and
// start_date. Returns false when the duel was not pending anymore
func (s *Store) AcceptDuel(ctx context.Context, id int64, now time.Time) (bool, error) {
	return s.transition(ctx,
		`UPDATE challenges_1v1
		 SET status = 'active', accepted_at = $2, start_date = $2
		 WHERE id = $1 AND status = 'pending'`, id, now)
}

// DeclineDuel moves a pending duel to declined.
// Returns false when the duel was not pending anymore
func (s *Store) DeclineDuel(ctx context.Context, id int64) (bool, error) {
	return s.transition(ctx,
		`UPDATE challenges_1v1 SET status = 'declined'
		 WHERE id = $1 AND status = 'pending'`, id)
}

// CancelDuel moves a pending duel to expired (creator withdrawal).
// Returns false when the duel was not pending anymore
func (s *Store) CancelDuel(ctx context.Context, id int64) (bool, error) {
	return s.transition(ctx,
		`UPDATE challenges_1v1 SET status = 'expired'
		 WHERE id = $1 AND status = 'pending'`, id)
}

// CompleteDuel moves an active duel to completed with the given winner
// (nil for a tie). The status guard makes concurrent completions collapse
// into a single winner: the loser of the race affects zero rows
func (s *Store) CompleteDuel(ctx context.Context, id int64, winnerID *string) (bool, error) {

	result, err := s.db.ExecContext(ctx,
		`UPDATE challenges_1v1 SET status = 'completed', winner_user_id = $2
		 WHERE id = $1 AND status = 'active'`, id, winnerID)
	if err != nil {
		return false, fmt.Errorf("could not complete duel %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// OverdueActiveDuels lists active duels whose end date has passed
func (s *Store) OverdueActiveDuels(ctx context.Context, now time.Time) ([]Duel, error) {
	return s.queryDuels(ctx,
		`SELECT `+duelColumns+` FROM challenges_1v1
		 WHERE status = 'active' AND end_date < $1`, now)
}

// ExpireOverduePendingDuels marks pending duels past their deadline as
// expired and returns the affected rows
func (s *Store) ExpireOverduePendingDuels(ctx context.Context, now time.Time) ([]Duel, error) {

	rows, err := s.db.QueryContext(ctx,
		`UPDATE challenges_1v1 SET status = 'expired'
		 WHERE status = 'pending' AND end_date < $1
		 RETURNING `+duelColumns, now)
	if err != nil {
		return nil, fmt.Errorf("could not expire pending duels: %w", err)
	}
	defer rows.Close()

	var duels []Duel
	for rows.Next() {
		d, err := scanDuel(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan expired duel: %w", err)
		}
		duels = append(duels, *d)
	}
	return duels, rows.Err()
}

func (s *Store) transition(ctx context.Context, query string, args ...any) (bool, error) {

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("could not update duel status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
