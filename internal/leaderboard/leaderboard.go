// Package leaderboard projects trial standings into a live, in-place
// edited Discord message. The message is self-healing: when it has been
// deleted externally a replacement is posted and the stored pointer
// updated.
package leaderboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"kartbot/internal/store"
	"kartbot/internal/trial"
)

var (
	// ErrMessageNotFound is returned by Messenger implementations when
	// the target message no longer exists. Update recovers from it
	ErrMessageNotFound = errors.New("leaderboard message not found")
	// ErrNoMessage means the trial has no recorded leaderboard message
	ErrNoMessage = errors.New("trial has no live leaderboard message")
	// ErrTrialNotFound means the referenced trial does not exist anymore
	ErrTrialNotFound = errors.New("trial not found")
)

// Messenger is the chat-platform surface the projector needs.
// The bot package implements it over the discordgo session
type Messenger interface {
	SendEmbed(channelID string, embed *discordgo.MessageEmbed) (messageID string, err error)
	EditEmbed(channelID string, messageID string, embed *discordgo.MessageEmbed) error
	DisplayNames(guildID string, userIDs []string) map[string]string
}

// Store is the persistence surface the projector needs
type Store interface {
	TrialByID(ctx context.Context, id int64) (*store.Trial, error)
	PlayerTimes(ctx context.Context, trialID int64) ([]store.PlayerTime, error)
	SetLeaderboardMessage(ctx context.Context, id int64, channelID string, messageID string) error
}

// Row is one ranked leaderboard entry
type Row struct {
	Rank       int
	UserID     string
	TimeMillis int
	Medal      trial.Medal
}

// Standings ranks the submitted times, fastest first. Ties receive
// successive distinct ranks, not shared ranks. The input is expected
// sorted ascending by time, as the store returns it
func Standings(times []store.PlayerTime, t *store.Trial) []Row {

	rows := make([]Row, 0, len(times))
	for i, pt := range times {
		rows = append(rows, Row{
			Rank:       i + 1,
			UserID:     pt.UserID,
			TimeMillis: pt.TimeMillis,
			Medal:      trial.MedalFor(pt.TimeMillis, t),
		})
	}
	return rows
}

// Projector renders and maintains live leaderboard messages
type Projector struct {
	store Store
	msgr  Messenger
}

// NewProjector creates a projector over the given store and messenger
func NewProjector(s Store, m Messenger) *Projector {
	return &Projector{store: s, msgr: m}
}

// Render builds the leaderboard embed for a trial from current standings
func (p *Projector) Render(ctx context.Context, t *store.Trial) (*discordgo.MessageEmbed, error) {

	times, err := p.store.PlayerTimes(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	rows := Standings(times, t)

	userIDs := make([]string, len(rows))
	for i, row := range rows {
		userIDs[i] = row.UserID
	}
	names := p.msgr.DisplayNames(t.GuildID, userIDs)

	return Embed(t, rows, names), nil
}

// Post renders the trial and sends a fresh leaderboard message to the
// channel, recording its location on the trial
func (p *Projector) Post(ctx context.Context, t *store.Trial, channelID string) error {

	embed, err := p.Render(ctx, t)
	if err != nil {
		return err
	}

	messageID, err := p.msgr.SendEmbed(channelID, embed)
	if err != nil {
		return fmt.Errorf("could not post leaderboard: %w", err)
	}
	if err := p.store.SetLeaderboardMessage(ctx, t.ID, channelID, messageID); err != nil {
		return err
	}

	t.LeaderboardChannelID = &channelID
	t.LeaderboardMessageID = &messageID
	log.Info().Int64("trial_id", t.ID).Str("channel", channelID).
		Str("message", messageID).Msg("Live leaderboard posted")
	return nil
}

// Update re-renders the trial's leaderboard message in place. When the
// message has been deleted externally a replacement is posted instead
// and the stored pointer updated
func (p *Projector) Update(ctx context.Context, trialID int64) error {

	t, err := p.store.TrialByID(ctx, trialID)
	if err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("%w: id %d", ErrTrialNotFound, trialID)
	}
	return p.UpdateTrial(ctx, t)
}

// UpdateTrial is Update for an already loaded trial row
func (p *Projector) UpdateTrial(ctx context.Context, t *store.Trial) error {

	if t.LeaderboardChannelID == nil || t.LeaderboardMessageID == nil {
		return fmt.Errorf("%w: trial #%d", ErrNoMessage, t.TrialNumber)
	}

	embed, err := p.Render(ctx, t)
	if err != nil {
		return err
	}

	channelID := *t.LeaderboardChannelID
	err = p.msgr.EditEmbed(channelID, *t.LeaderboardMessageID, embed)
	if err == nil {
		log.Debug().Int64("trial_id", t.ID).Msg("Live leaderboard updated")
		return nil
	}
	if !errors.Is(err, ErrMessageNotFound) {
		return fmt.Errorf("could not edit leaderboard: %w", err)
	}

	// The message was deleted externally; post a replacement
	log.Warn().Int64("trial_id", t.ID).Msg("Leaderboard message deleted, posting replacement")
	messageID, err := p.msgr.SendEmbed(channelID, embed)
	if err != nil {
		return fmt.Errorf("could not repost leaderboard: %w", err)
	}
	if err := p.store.SetLeaderboardMessage(ctx, t.ID, channelID, messageID); err != nil {
		return err
	}
	t.LeaderboardMessageID = &messageID
	return nil
}

// Refresh updates the live leaderboard and swallows any failure. Callers
// whose command is not itself a leaderboard view use this: a failed board
// refresh must never fail the command that triggered it
func (p *Projector) Refresh(ctx context.Context, t *store.Trial) {

	if t.LeaderboardChannelID == nil || t.LeaderboardMessageID == nil {
		return
	}
	if err := p.UpdateTrial(ctx, t); err != nil {
		log.Error().Err(err).Int64("trial_id", t.ID).Msg("Leaderboard refresh failed")
	}
}
