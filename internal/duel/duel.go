// Package duel implements the 1v1 challenge lifecycle:
//
//	pending --accept--> active --(both submitted | explicit end | deadline)--> completed
//	pending --decline--> declined
//	pending --cancel(by creator)--> expired
package duel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"kartbot/internal/store"
)

// Duration limits for a duel, in days
const (
	MinDurationDays = 1
	MaxDurationDays = 30
)

var (
	// ErrSelfChallenge means the creator tried to duel themselves
	ErrSelfChallenge = errors.New("you cannot challenge yourself to a duel")
	// ErrBotOpponent means the chosen opponent is not a human account
	ErrBotOpponent = errors.New("you cannot challenge a bot to a duel")
	// ErrDuration means the requested duration is outside [1,30] days
	ErrDuration = errors.New("duration must be between 1 and 30 days")
	// ErrNoPendingDuel means no pending invitation matches the request
	ErrNoPendingDuel = errors.New("no pending duel invitation found")
	// ErrNoActiveDuel means no active duel matches the request
	ErrNoActiveDuel = errors.New("no active duel found")
	// ErrNotOpponent means only the challenged opponent may perform the action
	ErrNotOpponent = errors.New("only the challenged opponent can do this")
	// ErrNotCreator means only the duel creator may perform the action
	ErrNotCreator = errors.New("only the duel creator can do this")
	// ErrNotParticipant means the user takes no part in the duel
	ErrNotParticipant = errors.New("you are not a participant in this duel")
)

// Store is the persistence surface the manager needs. *store.Store
// satisfies it; tests substitute an in-memory fake
type Store interface {
	CreateDuel(ctx context.Context, d *store.Duel) error
	DuelByNumber(ctx context.Context, guildID string, number int) (*store.Duel, error)
	PendingDuelsForOpponent(ctx context.Context, guildID string, userID string) ([]store.Duel, error)
	PendingDuelsForCreator(ctx context.Context, guildID string, userID string) ([]store.Duel, error)
	ActiveDuelsForParticipant(ctx context.Context, guildID string, userID string) ([]store.Duel, error)
	DuelsForParticipant(ctx context.Context, guildID string, userID string) ([]store.Duel, error)
	AcceptDuel(ctx context.Context, id int64, now time.Time) (bool, error)
	DeclineDuel(ctx context.Context, id int64) (bool, error)
	CancelDuel(ctx context.Context, id int64) (bool, error)
	CompleteDuel(ctx context.Context, id int64, winnerID *string) (bool, error)
	UpsertDuelTime(ctx context.Context, challengeID int64, userID string, timeMillis int) error
	DuelTimeFor(ctx context.Context, challengeID int64, userID string) (*store.DuelTime, error)
	DuelTimes(ctx context.Context, challengeID int64) ([]store.DuelTime, error)
}

// Manager drives duel lifecycle transitions against the store
type Manager struct {
	store    Store
	timeFunc func() time.Time
}

// NewManager creates a duel manager
func NewManager(s Store) *Manager {
	return &Manager{store: s, timeFunc: time.Now}
}

// Create opens a pending duel between creator and opponent
func (m *Manager) Create(ctx context.Context, guildID string, track string, creatorID string, opponentID string, opponentIsBot bool, durationDays int) (*store.Duel, error) {

	if opponentID == creatorID {
		return nil, ErrSelfChallenge
	}
	if opponentIsBot {
		return nil, ErrBotOpponent
	}
	if durationDays < MinDurationDays || durationDays > MaxDurationDays {
		return nil, ErrDuration
	}

	duel := &store.Duel{
		GuildID:    guildID,
		TrackName:  track,
		CreatorID:  creatorID,
		OpponentID: opponentID,
		EndDate:    m.timeFunc().AddDate(0, 0, durationDays),
	}
	if err := m.store.CreateDuel(ctx, duel); err != nil {
		return nil, err
	}

	log.Info().
		Str("guild", guildID).
		Int("challenge", duel.ChallengeNumber).
		Str("creator", creatorID).
		Str("opponent", opponentID).
		Str("track", track).
		Msg("Duel created")
	return duel, nil
}

// Accept moves a pending duel to active. Only the challenged opponent
// may accept
func (m *Manager) Accept(ctx context.Context, guildID string, userID string, number int) (*store.Duel, error) {

	duel, err := m.pendingForOpponent(ctx, guildID, userID, number)
	if err != nil {
		return nil, err
	}

	now := m.timeFunc()
	ok, err := m.store.AcceptDuel(ctx, duel.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race against cancel/decline/expiry
		return nil, fmt.Errorf("%w with challenge #%d", ErrNoPendingDuel, number)
	}

	duel.Status = store.DuelActive
	duel.AcceptedAt = &now
	duel.StartDate = &now
	log.Info().Str("guild", guildID).Int("challenge", number).Msg("Duel accepted")
	return duel, nil
}

// Decline moves a pending duel to declined. Only the challenged opponent
// may decline
func (m *Manager) Decline(ctx context.Context, guildID string, userID string, number int) (*store.Duel, error) {

	duel, err := m.pendingForOpponent(ctx, guildID, userID, number)
	if err != nil {
		return nil, err
	}

	ok, err := m.store.DeclineDuel(ctx, duel.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w with challenge #%d", ErrNoPendingDuel, number)
	}

	duel.Status = store.DuelDeclined
	log.Info().Str("guild", guildID).Int("challenge", number).Msg("Duel declined")
	return duel, nil
}

// Cancel withdraws a pending duel, marking it expired. Only the creator
// may cancel
func (m *Manager) Cancel(ctx context.Context, guildID string, userID string, number int) (*store.Duel, error) {

	duel, err := m.store.DuelByNumber(ctx, guildID, number)
	if err != nil {
		return nil, err
	}
	if duel == nil || duel.Status != store.DuelPending {
		return nil, fmt.Errorf("%w with challenge #%d", ErrNoPendingDuel, number)
	}
	if duel.CreatorID != userID {
		return nil, ErrNotCreator
	}

	ok, err := m.store.CancelDuel(ctx, duel.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w with challenge #%d", ErrNoPendingDuel, number)
	}

	duel.Status = store.DuelExpired
	log.Info().Str("guild", guildID).Int("challenge", number).Msg("Duel cancelled")
	return duel, nil
}

func (m *Manager) pendingForOpponent(ctx context.Context, guildID string, userID string, number int) (*store.Duel, error) {

	duel, err := m.store.DuelByNumber(ctx, guildID, number)
	if err != nil {
		return nil, err
	}
	if duel == nil || duel.Status != store.DuelPending {
		return nil, fmt.Errorf("%w with challenge #%d", ErrNoPendingDuel, number)
	}
	if duel.OpponentID != userID {
		return nil, ErrNotOpponent
	}
	return duel, nil
}

// SubmitResult describes a duel time submission and any completion it caused
type SubmitResult struct {
	Duel           *store.Duel
	Improvement    bool
	PreviousMillis *int
	Completed      bool
	WinnerID       *string
}

// SubmitTime records the user's time for an active duel. Resubmission
// overwrites at any value. When both participants have a time on record
// the duel auto-completes; a concurrent completion is a soft no-op
func (m *Manager) SubmitTime(ctx context.Context, guildID string, userID string, number int, timeMillis int) (*SubmitResult, error) {

	duel, err := m.activeForParticipant(ctx, guildID, userID, number)
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{Duel: duel}
	existing, err := m.store.DuelTimeFor(ctx, duel.ID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		previous := existing.TimeMillis
		result.PreviousMillis = &previous
		result.Improvement = timeMillis < previous
	}

	if err := m.store.UpsertDuelTime(ctx, duel.ID, userID, timeMillis); err != nil {
		return nil, err
	}
	log.Info().
		Str("guild", guildID).
		Int("challenge", number).
		Str("user", userID).
		Int("time_ms", timeMillis).
		Msg("Duel time saved")

	times, err := m.store.DuelTimes(ctx, duel.ID)
	if err != nil {
		return nil, err
	}
	if len(times) < 2 {
		return result, nil
	}

	winnerID := winnerFromTimes(times)
	completed, err := m.store.CompleteDuel(ctx, duel.ID, winnerID)
	if err != nil {
		return nil, err
	}
	if !completed {
		// Someone else completed it first; not an error
		log.Warn().Int("challenge", number).Msg("Duel already completed, skipping")
		return result, nil
	}

	duel.Status = store.DuelCompleted
	duel.WinnerID = winnerID
	result.Completed = true
	result.WinnerID = winnerID
	log.Info().Int("challenge", number).Msg("Duel completed")
	return result, nil
}

// EndResult describes an explicitly ended duel
type EndResult struct {
	Duel           *store.Duel
	WinnerID       *string
	CreatorMillis  *int
	OpponentMillis *int
}

// End completes an active duel regardless of how many times have been
// submitted. Either participant may end
func (m *Manager) End(ctx context.Context, guildID string, userID string, number int) (*EndResult, error) {

	duel, err := m.activeForParticipant(ctx, guildID, userID, number)
	if err != nil {
		return nil, err
	}

	winnerID, err := m.DetermineWinner(ctx, duel.ID)
	if err != nil {
		return nil, err
	}

	completed, err := m.store.CompleteDuel(ctx, duel.ID, winnerID)
	if err != nil {
		return nil, err
	}
	if !completed {
		return nil, fmt.Errorf("%w with challenge #%d", ErrNoActiveDuel, number)
	}

	duel.Status = store.DuelCompleted
	duel.WinnerID = winnerID

	result := &EndResult{Duel: duel, WinnerID: winnerID}
	if creatorTime, err := m.store.DuelTimeFor(ctx, duel.ID, duel.CreatorID); err == nil && creatorTime != nil {
		millis := creatorTime.TimeMillis
		result.CreatorMillis = &millis
	}
	if opponentTime, err := m.store.DuelTimeFor(ctx, duel.ID, duel.OpponentID); err == nil && opponentTime != nil {
		millis := opponentTime.TimeMillis
		result.OpponentMillis = &millis
	}

	log.Info().Str("guild", guildID).Int("challenge", number).Msg("Duel ended")
	return result, nil
}

// DetermineWinner reads the submitted times and applies the winner rule:
// nobody submitted means unresolved, one submission wins by default,
// equal fastest times mean a tie, otherwise the lower time wins
func (m *Manager) DetermineWinner(ctx context.Context, duelID int64) (*string, error) {

	times, err := m.store.DuelTimes(ctx, duelID)
	if err != nil {
		return nil, err
	}
	return winnerFromTimes(times), nil
}

// winnerFromTimes applies the winner rule to times sorted fastest first
func winnerFromTimes(times []store.DuelTime) *string {

	switch len(times) {
	case 0:
		return nil
	case 1:
		winner := times[0].UserID
		return &winner
	default:
		if times[0].TimeMillis == times[1].TimeMillis {
			return nil // tie
		}
		winner := times[0].UserID
		return &winner
	}
}

func (m *Manager) activeForParticipant(ctx context.Context, guildID string, userID string, number int) (*store.Duel, error) {

	duel, err := m.store.DuelByNumber(ctx, guildID, number)
	if err != nil {
		return nil, err
	}
	if duel == nil || duel.Status != store.DuelActive {
		return nil, fmt.Errorf("%w with challenge #%d", ErrNoActiveDuel, number)
	}
	if !duel.Participant(userID) {
		return nil, ErrNotParticipant
	}
	return duel, nil
}

// PendingFor lists the user's pending invitations (they are the opponent)
func (m *Manager) PendingFor(ctx context.Context, guildID string, userID string) ([]store.Duel, error) {
	return m.store.PendingDuelsForOpponent(ctx, guildID, userID)
}

// CreatedPendingBy lists the user's own pending duels (they are the creator)
func (m *Manager) CreatedPendingBy(ctx context.Context, guildID string, userID string) ([]store.Duel, error) {
	return m.store.PendingDuelsForCreator(ctx, guildID, userID)
}

// ActiveFor lists active duels the user takes part in
func (m *Manager) ActiveFor(ctx context.Context, guildID string, userID string) ([]store.Duel, error) {
	return m.store.ActiveDuelsForParticipant(ctx, guildID, userID)
}

// AllFor lists every duel the user takes part in, any status
func (m *Manager) AllFor(ctx context.Context, guildID string, userID string) ([]store.Duel, error) {
	return m.store.DuelsForParticipant(ctx, guildID, userID)
}

// Times lists the submitted times for a duel, fastest first
func (m *Manager) Times(ctx context.Context, duelID int64) ([]store.DuelTime, error) {
	return m.store.DuelTimes(ctx, duelID)
}
