// Package maintenance runs the periodic housekeeping sweep: it expires
// overdue trials and duels, settles duels whose deadline passed and
// purges expired trials past the retention window.
package maintenance

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"kartbot/internal/store"
)

// DefaultInterval is how often the sweep runs
const DefaultInterval = time.Hour

// Store is the persistence surface the sweeper needs
type Store interface {
	ExpireOverdueTrials(ctx context.Context, now time.Time) ([]store.Trial, error)
	PurgeExpiredTrials(ctx context.Context, cutoff time.Time) ([]store.Trial, error)
	OverdueActiveDuels(ctx context.Context, now time.Time) ([]store.Duel, error)
	CompleteDuel(ctx context.Context, id int64, winnerID *string) (bool, error)
	ExpireOverduePendingDuels(ctx context.Context, now time.Time) ([]store.Duel, error)
}

// Judge decides the winner of a duel from its submitted times
type Judge interface {
	DetermineWinner(ctx context.Context, duelID int64) (*string, error)
}

// Boards refreshes the live leaderboard of a trial. May be nil
type Boards interface {
	Update(ctx context.Context, trialID int64) error
}

// Report summarizes one sweep
type Report struct {
	TrialsExpired  int
	TrialsPurged   int
	DuelsCompleted int
	DuelsExpired   int
}

// Sweeper performs the housekeeping sweep on a fixed interval
type Sweeper struct {
	store         Store
	judge         Judge
	boards        Boards
	retentionDays int
	interval      time.Duration
}

// NewSweeper creates a sweeper. boards may be nil when no live
// leaderboards need refreshing on expiry
func NewSweeper(s Store, judge Judge, boards Boards, retentionDays int) *Sweeper {
	return &Sweeper{
		store:         s,
		judge:         judge,
		boards:        boards,
		retentionDays: retentionDays,
		interval:      DefaultInterval,
	}
}

// Run executes the sweep on the configured interval until the context
// is cancelled. One sweep runs immediately on start
func (s *Sweeper) Run(ctx context.Context) {

	log.Info().Dur("interval", s.interval).Msg("Maintenance sweeper started")
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Maintenance sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	report, err := s.RunOnce(ctx, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("Maintenance sweep failed")
		return
	}
	if report.TrialsExpired+report.TrialsPurged+report.DuelsCompleted+report.DuelsExpired == 0 {
		return
	}
	log.Info().
		Int("trials_expired", report.TrialsExpired).
		Int("trials_purged", report.TrialsPurged).
		Int("duels_completed", report.DuelsCompleted).
		Int("duels_expired", report.DuelsExpired).
		Msg("Maintenance sweep done")
}

// RunOnce performs a single sweep at the given instant. Each step is
// isolated so that a failure in one does not block the others
func (s *Sweeper) RunOnce(ctx context.Context, now time.Time) (Report, error) {

	var report Report
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	expired, err := s.store.ExpireOverdueTrials(ctx, now)
	keep(err)
	report.TrialsExpired = len(expired)
	for _, t := range expired {
		log.Info().Str("guild", t.GuildID).Int("trial", t.TrialNumber).
			Str("track", t.TrackName).Msg("Trial expired")
		if s.boards != nil && t.LeaderboardMessageID != nil {
			if err := s.boards.Update(ctx, t.ID); err != nil {
				log.Error().Err(err).Int64("trial_id", t.ID).
					Msg("Could not refresh leaderboard of expired trial")
			}
		}
	}

	cutoff := now.AddDate(0, 0, -s.retentionDays)
	purged, err := s.store.PurgeExpiredTrials(ctx, cutoff)
	keep(err)
	report.TrialsPurged = len(purged)

	overdue, err := s.store.OverdueActiveDuels(ctx, now)
	keep(err)
	for _, d := range overdue {
		winnerID, err := s.judge.DetermineWinner(ctx, d.ID)
		if err != nil {
			keep(err)
			continue
		}
		completed, err := s.store.CompleteDuel(ctx, d.ID, winnerID)
		if err != nil {
			keep(err)
			continue
		}
		// A concurrent submission may settle the duel first
		if completed {
			report.DuelsCompleted++
			log.Info().Str("guild", d.GuildID).Int("duel", d.ChallengeNumber).
				Msg("Duel settled at deadline")
		}
	}

	stale, err := s.store.ExpireOverduePendingDuels(ctx, now)
	keep(err)
	report.DuelsExpired = len(stale)

	return report, firstErr
}
