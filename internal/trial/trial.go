// Package trial implements the weekly trial lifecycle: creation under
// the per-guild cap, ending, medal thresholds and the improvement-only
// time submission rule.
package trial

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"kartbot/internal/store"
	"kartbot/internal/tracks"
)

// Duration limits for a trial, in days
const (
	MinDurationDays = 1
	MaxDurationDays = 30
)

var (
	// ErrDuration means the requested duration is outside [1,30] days
	ErrDuration = errors.New("duration must be between 1 and 30 days")
	// ErrTrialExists means the track already has an active trial in this category
	ErrTrialExists = errors.New("an active trial already exists for this track and category")
	// ErrTrialCap means the guild already runs the maximum number of trials
	ErrTrialCap = errors.New("maximum number of concurrent trials reached")
	// ErrNoActiveTrial means no active trial matches the given track
	ErrNoActiveTrial = errors.New("no active trial found for this track")
	// ErrTrialNotFound means no trial matches the given number
	ErrTrialNotFound = errors.New("trial not found")
	// ErrNoSubmission means the user has no recorded time to remove
	ErrNoSubmission = errors.New("no submitted time found")
	// ErrSameCategory means the category update would not change anything
	ErrSameCategory = errors.New("trial is already in this category")
)

// NotImprovementError reports a rejected submission that is not strictly
// faster than the user's current best
type NotImprovementError struct {
	PreviousMillis int
	NewMillis      int
}

func (e *NotImprovementError) Error() string {
	return fmt.Sprintf("time %dms is not faster than current best %dms",
		e.NewMillis, e.PreviousMillis)
}

// Medal is the tier a time earns against the trial thresholds
type Medal string

const (
	MedalGold   Medal = "gold"
	MedalSilver Medal = "silver"
	MedalBronze Medal = "bronze"
	MedalNone   Medal = "none"
)

// Store is the persistence surface the manager needs. *store.Store
// satisfies it; tests substitute an in-memory fake
type Store interface {
	CreateTrial(ctx context.Context, t *store.Trial) error
	TrialByNumber(ctx context.Context, guildID string, number int) (*store.Trial, error)
	TrialByTrack(ctx context.Context, guildID string, track string) (*store.Trial, error)
	ActiveTrialByTrack(ctx context.Context, guildID string, track string) (*store.Trial, error)
	ActiveTrialByTrackCategory(ctx context.Context, guildID string, track string, category tracks.Category) (*store.Trial, error)
	ActiveTrials(ctx context.Context, guildID string) ([]store.Trial, error)
	CountActiveTrials(ctx context.Context, guildID string) (int, error)
	EndTrial(ctx context.Context, id int64) (bool, error)
	SetTrialThresholds(ctx context.Context, id int64, th *store.Thresholds) error
	SetTrialCategory(ctx context.Context, id int64, category tracks.Category) error
	PlayerTimeFor(ctx context.Context, trialID int64, userID string) (*store.PlayerTime, error)
	UpsertPlayerTime(ctx context.Context, trialID int64, userID string, timeMillis int) error
	DeletePlayerTime(ctx context.Context, trialID int64, userID string) (bool, error)
}

// Manager drives trial lifecycle transitions against the store
type Manager struct {
	store    Store
	maxOpen  int
	timeFunc func() time.Time
}

// NewManager creates a trial manager with the given concurrent-trial cap
func NewManager(s Store, maxConcurrent int) *Manager {
	return &Manager{store: s, maxOpen: maxConcurrent, timeFunc: time.Now}
}

// Create opens a new active trial for the guild, allocating the next
// sequential trial number. Fails when the track/category pair already has
// an active trial, when the guild cap is reached, or on a bad duration
func (m *Manager) Create(ctx context.Context, guildID string, track string, category tracks.Category, th *store.Thresholds, durationDays int) (*store.Trial, error) {

	if durationDays < MinDurationDays || durationDays > MaxDurationDays {
		return nil, ErrDuration
	}

	existing, err := m.store.ActiveTrialByTrackCategory(ctx, guildID, track, category)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: trial #%d", ErrTrialExists, existing.TrialNumber)
	}

	count, err := m.store.CountActiveTrials(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if count >= m.maxOpen {
		return nil, fmt.Errorf("%w (%d)", ErrTrialCap, m.maxOpen)
	}

	now := m.timeFunc()
	trial := &store.Trial{
		GuildID:    guildID,
		TrackName:  track,
		Category:   category,
		Thresholds: th,
		EndDate:    now.AddDate(0, 0, durationDays),
	}
	if err := m.store.CreateTrial(ctx, trial); err != nil {
		return nil, err
	}

	log.Info().
		Str("guild", guildID).
		Int("trial", trial.TrialNumber).
		Str("track", track).
		Str("category", string(category)).
		Msg("Trial created")
	return trial, nil
}

// End moves the track's active trial to ended
func (m *Manager) End(ctx context.Context, guildID string, track string) (*store.Trial, error) {

	trial, err := m.store.ActiveTrialByTrack(ctx, guildID, track)
	if err != nil {
		return nil, err
	}
	if trial == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoActiveTrial, track)
	}

	ended, err := m.store.EndTrial(ctx, trial.ID)
	if err != nil {
		return nil, err
	}
	if !ended {
		// Raced with the maintenance sweep
		return nil, fmt.Errorf("%w: %s", ErrNoActiveTrial, track)
	}

	trial.Status = store.TrialEnded
	log.Info().Str("guild", guildID).Int("trial", trial.TrialNumber).Msg("Trial ended")
	return trial, nil
}

// SetThresholds overwrites the trial's medal times, or clears them all
// when th is nil. Works on any trial regardless of status
func (m *Manager) SetThresholds(ctx context.Context, guildID string, trialNumber int, th *store.Thresholds) (*store.Trial, error) {

	trial, err := m.store.TrialByNumber(ctx, guildID, trialNumber)
	if err != nil {
		return nil, err
	}
	if trial == nil {
		return nil, fmt.Errorf("%w: #%d", ErrTrialNotFound, trialNumber)
	}

	if err := m.store.SetTrialThresholds(ctx, trial.ID, th); err != nil {
		return nil, err
	}
	trial.Thresholds = th
	return trial, nil
}

// UpdateCategory changes an existing trial's category. Fails when the
// trial already runs under that category or when the track has another
// active trial in the target category
func (m *Manager) UpdateCategory(ctx context.Context, guildID string, trialNumber int, category tracks.Category) (*store.Trial, error) {

	trial, err := m.store.TrialByNumber(ctx, guildID, trialNumber)
	if err != nil {
		return nil, err
	}
	if trial == nil {
		return nil, fmt.Errorf("%w: #%d", ErrTrialNotFound, trialNumber)
	}
	if trial.Category == category {
		return nil, fmt.Errorf("%w: %s", ErrSameCategory, category)
	}

	collision, err := m.store.ActiveTrialByTrackCategory(ctx, guildID, trial.TrackName, category)
	if err != nil {
		return nil, err
	}
	if collision != nil && collision.ID != trial.ID {
		return nil, fmt.Errorf("%w: trial #%d", ErrTrialExists, collision.TrialNumber)
	}

	if err := m.store.SetTrialCategory(ctx, trial.ID, category); err != nil {
		return nil, err
	}
	trial.Category = category
	log.Info().Str("guild", guildID).Int("trial", trialNumber).
		Str("category", string(category)).Msg("Trial category updated")
	return trial, nil
}

// Active lists the guild's currently active trials
func (m *Manager) Active(ctx context.Context, guildID string) ([]store.Trial, error) {
	return m.store.ActiveTrials(ctx, guildID)
}

// ByTrack returns the track's most recent trial in any status, so final
// standings of ended and expired trials stay viewable
func (m *Manager) ByTrack(ctx context.Context, guildID string, track string) (*store.Trial, error) {
	trial, err := m.store.TrialByTrack(ctx, guildID, track)
	if err != nil {
		return nil, err
	}
	if trial == nil {
		return nil, fmt.Errorf("%w: %s", ErrTrialNotFound, track)
	}
	return trial, nil
}

// ByNumber looks a trial up by its per-guild sequential number
func (m *Manager) ByNumber(ctx context.Context, guildID string, trialNumber int) (*store.Trial, error) {
	trial, err := m.store.TrialByNumber(ctx, guildID, trialNumber)
	if err != nil {
		return nil, err
	}
	if trial == nil {
		return nil, fmt.Errorf("%w: #%d", ErrTrialNotFound, trialNumber)
	}
	return trial, nil
}

// MedalFor classifies a time against the trial's thresholds. Boundaries
// are inclusive; a trial without thresholds awards no medals
func MedalFor(timeMillis int, trial *store.Trial) Medal {

	th := trial.Thresholds
	if th == nil {
		return MedalNone
	}
	switch {
	case timeMillis <= th.GoldMillis:
		return MedalGold
	case timeMillis <= th.SilverMillis:
		return MedalSilver
	case timeMillis <= th.BronzeMillis:
		return MedalBronze
	default:
		return MedalNone
	}
}

// SubmitResult describes an accepted weekly time submission
type SubmitResult struct {
	Trial          *store.Trial
	Improvement    bool
	PreviousMillis *int
	Medal          Medal
}

// SubmitTime records the user's time for the track's active trial.
// Resubmissions must be strictly faster than the current best
func (m *Manager) SubmitTime(ctx context.Context, guildID string, track string, userID string, timeMillis int) (*SubmitResult, error) {

	trial, err := m.store.ActiveTrialByTrack(ctx, guildID, track)
	if err != nil {
		return nil, err
	}
	if trial == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoActiveTrial, track)
	}

	existing, err := m.store.PlayerTimeFor(ctx, trial.ID, userID)
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{Trial: trial, Medal: MedalFor(timeMillis, trial)}
	if existing != nil {
		if timeMillis >= existing.TimeMillis {
			return nil, &NotImprovementError{
				PreviousMillis: existing.TimeMillis,
				NewMillis:      timeMillis,
			}
		}
		result.Improvement = true
		previous := existing.TimeMillis
		result.PreviousMillis = &previous
	}

	if err := m.store.UpsertPlayerTime(ctx, trial.ID, userID, timeMillis); err != nil {
		return nil, err
	}

	log.Info().
		Str("guild", guildID).
		Int("trial", trial.TrialNumber).
		Str("user", userID).
		Int("time_ms", timeMillis).
		Bool("improvement", result.Improvement).
		Msg("Time saved")
	return result, nil
}

// RemoveTime deletes the user's submission from the track's active trial
func (m *Manager) RemoveTime(ctx context.Context, guildID string, track string, userID string) (*store.Trial, error) {

	trial, err := m.store.ActiveTrialByTrack(ctx, guildID, track)
	if err != nil {
		return nil, err
	}
	if trial == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoActiveTrial, track)
	}

	deleted, err := m.store.DeletePlayerTime(ctx, trial.ID, userID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, fmt.Errorf("%w for %s", ErrNoSubmission, track)
	}

	log.Info().Str("guild", guildID).Int("trial", trial.TrialNumber).
		Str("user", userID).Msg("Time removed")
	return trial, nil
}
