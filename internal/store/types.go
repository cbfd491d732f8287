package store

import (
	"time"

	"kartbot/internal/tracks"
)

// TrialStatus is the lifecycle state of a weekly trial
type TrialStatus string

const (
	TrialActive  TrialStatus = "active"
	TrialExpired TrialStatus = "expired"
	TrialEnded   TrialStatus = "ended"
)

// Thresholds holds the three medal times for a trial. The value is
// all-or-nothing: a trial either has all three thresholds or none
type Thresholds struct {
	GoldMillis   int
	SilverMillis int
	BronzeMillis int
}

// Trial is one weekly time trial challenge on one track within one guild
type Trial struct {
	ID          int64
	TrialNumber int
	GuildID     string
	TrackName   string
	Category    tracks.Category
	Thresholds  *Thresholds
	StartDate   time.Time
	EndDate     time.Time
	Status      TrialStatus

	// Pointer to the posted live leaderboard message, if any
	LeaderboardChannelID *string
	LeaderboardMessageID *string
}

// PlayerTime is one user's best recorded time for one trial.
// At most one row exists per (trial, user)
type PlayerTime struct {
	ID          int64
	TrialID     int64
	UserID      string
	TimeMillis  int
	SubmittedAt time.Time
	UpdatedAt   time.Time
}

// DuelStatus is the lifecycle state of a 1v1 challenge
type DuelStatus string

const (
	DuelPending   DuelStatus = "pending"
	DuelActive    DuelStatus = "active"
	DuelCompleted DuelStatus = "completed"
	DuelDeclined  DuelStatus = "declined"
	DuelExpired   DuelStatus = "expired"
)

// Duel is a head-to-head challenge between two users on one track
type Duel struct {
	ID              int64
	ChallengeNumber int
	GuildID         string
	TrackName       string
	CreatorID       string
	OpponentID      string
	Status          DuelStatus
	CreatedAt       time.Time
	AcceptedAt      *time.Time
	StartDate       *time.Time
	EndDate         time.Time
	WinnerID        *string // nil means tie or unresolved
}

// DuelTime is one participant's submitted time for one duel.
// Unlike PlayerTime, resubmission overwrites at any value
type DuelTime struct {
	ID          int64
	ChallengeID int64
	UserID      string
	TimeMillis  int
	SubmittedAt time.Time
	UpdatedAt   time.Time
}

// GuildSetting is the per-guild configuration row
type GuildSetting struct {
	GuildID              string
	LeaderboardChannelID *string
	UpdatedAt            time.Time
}

// Participant reports whether the given user is one of the duel's two sides
func (d *Duel) Participant(userID string) bool {
	return userID == d.CreatorID || userID == d.OpponentID
}

// Other returns the other participant's user id
func (d *Duel) Other(userID string) string {
	if userID == d.CreatorID {
		return d.OpponentID
	}
	return d.CreatorID
}
