package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"kartbot/internal/timefmt"
	"kartbot/internal/tracks"
)

// defaultDuelDays applies when the challenger gives no duration
const defaultDuelDays = 7

func (bot *Bot) handleCreateDuel(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {

	options := commandOptions(i)
	track, err := tracks.Validate(stringOption(options, "track"))
	if err != nil {
		replyFailure(s, i, err)
		return
	}
	option, ok := options["opponent"]
	if !ok {
		replyText(s, i, "Pick an opponent to challenge.", true)
		return
	}
	opponent := option.UserValue(s)

	duration := intOption(options, "duration")
	if duration == 0 {
		duration = defaultDuelDays
	}

	d, err := bot.duels.Create(ctx, i.GuildID, track, callerID(i), opponent.ID, opponent.Bot, duration)
	if err != nil {
		replyFailure(s, i, err)
		return
	}
	replyText(s, i, fmt.Sprintf(
		"⚔️ <@%s>, you have been challenged to a duel on **%s**! Duel **#%d** awaits: /accept-duel or /decline-duel.",
		opponent.ID, d.TrackName, d.ChallengeNumber), false)
}

func (bot *Bot) handleAcceptDuel(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {

	options := commandOptions(i)
	d, err := bot.duels.Accept(ctx, i.GuildID, callerID(i), intOption(options, "duel_number"))
	if err != nil {
		replyFailure(s, i, err)
		return
	}
	replyText(s, i, fmt.Sprintf(
		"Duel **#%d** on **%s** is on! <@%s> vs <@%s>, you have until %s. Submit with /dueltimesave.",
		d.ChallengeNumber, d.TrackName, d.CreatorID, d.OpponentID,
		d.EndDate.Format("Mon Jan 2, 15:04 MST")), false)
}

func (bot *Bot) handleDeclineDuel(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {

	options := commandOptions(i)
	d, err := bot.duels.Decline(ctx, i.GuildID, callerID(i), intOption(options, "duel_number"))
	if err != nil {
		replyFailure(s, i, err)
		return
	}
	replyText(s, i, fmt.Sprintf("Duel **#%d** on **%s** was declined.", d.ChallengeNumber, d.TrackName), false)
}

func (bot *Bot) handleCancelDuel(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {

	options := commandOptions(i)
	d, err := bot.duels.Cancel(ctx, i.GuildID, callerID(i), intOption(options, "duel_number"))
	if err != nil {
		replyFailure(s, i, err)
		return
	}
	replyText(s, i, fmt.Sprintf("Duel **#%d** on **%s** was cancelled.", d.ChallengeNumber, d.TrackName), false)
}

func (bot *Bot) handleDuelTimeSave(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {

	options := commandOptions(i)
	millis, err := timefmt.Parse(stringOption(options, "time"))
	if err != nil {
		replyFailure(s, i, err)
		return
	}

	result, err := bot.duels.SubmitTime(ctx, i.GuildID, callerID(i), intOption(options, "duel_number"), millis)
	if err != nil {
		replyFailure(s, i, err)
		return
	}
	replyEmbed(s, i, duelTimeEmbed(callerID(i), millis, result), false)
}

func (bot *Bot) handleEndDuel(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {

	options := commandOptions(i)
	result, err := bot.duels.End(ctx, i.GuildID, callerID(i), intOption(options, "duel_number"))
	if err != nil {
		replyFailure(s, i, err)
		return
	}
	replyEmbed(s, i, duelEndedEmbed(result), false)
}

func (bot *Bot) handleDuelResults(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {

	duels, err := bot.duels.AllFor(ctx, i.GuildID, callerID(i))
	if err != nil {
		replyFailure(s, i, err)
		return
	}
	replyEmbed(s, i, duelHistoryEmbed(callerID(i), duels), true)
}
