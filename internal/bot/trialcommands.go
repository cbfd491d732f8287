package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"kartbot/internal/store"
	"kartbot/internal/timefmt"
	"kartbot/internal/tracks"
)

func (bot *Bot) handleSave(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {

	options := commandOptions(i)
	track, err := tracks.Validate(stringOption(options, "track"))
	if err != nil {
		replyFailure(s, i, err)
		return
	}
	millis, err := timefmt.Parse(stringOption(options, "time"))
	if err != nil {
		replyFailure(s, i, err)
		return
	}

	result, err := bot.trials.SubmitTime(ctx, i.GuildID, track, callerID(i), millis)
	if err != nil {
		replyFailure(s, i, err)
		return
	}
	replyEmbed(s, i, saveEmbed(callerID(i), millis, result), false)
	bot.boards.Refresh(ctx, result.Trial)
}

func (bot *Bot) handleLeaderboard(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {

	options := commandOptions(i)
	track, err := tracks.Validate(stringOption(options, "track"))
	if err != nil {
		replyFailure(s, i, err)
		return
	}

	// Any status: final standings of ended and expired trials stay viewable
	t, err := bot.trials.ByTrack(ctx, i.GuildID, track)
	if err != nil {
		replyFailure(s, i, err)
		return
	}
	embed, err := bot.boards.Render(ctx, t)
	if err != nil {
		replyFailure(s, i, err)
		return
	}
	replyEmbed(s, i, embed, false)
	bot.boards.Refresh(ctx, t)
}

func (bot *Bot) handleActive(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {

	trials, err := bot.trials.Active(ctx, i.GuildID)
	if err != nil {
		replyFailure(s, i, err)
		return
	}
	replyEmbed(s, i, activeTrialsEmbed(trials), false)
}

func (bot *Bot) handleRemoveTime(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {

	options := commandOptions(i)
	track, err := tracks.Validate(stringOption(options, "track"))
	if err != nil {
		replyFailure(s, i, err)
		return
	}

	t, err := bot.trials.RemoveTime(ctx, i.GuildID, track, callerID(i))
	if err != nil {
		replyFailure(s, i, err)
		return
	}
	replyText(s, i, fmt.Sprintf("Your time for **%s** has been removed. You can submit a fresh one with /save.", track), false)
	bot.boards.Refresh(ctx, t)
}

// parseThresholdOptions reads the optional gold/silver/bronze trio.
// Either all three are given or none
func parseThresholdOptions(options map[string]*discordgo.ApplicationCommandInteractionDataOption) (*store.Thresholds, error) {

	gold := stringOption(options, "gold")
	silver := stringOption(options, "silver")
	bronze := stringOption(options, "bronze")
	given := 0
	for _, v := range []string{gold, silver, bronze} {
		if v != "" {
			given++
		}
	}
	if given == 0 {
		return nil, nil
	}
	if given != 3 {
		return nil, fmt.Errorf("%w: provide gold, silver and bronze together", timefmt.ErrThresholdOrder)
	}
	goldMillis, silverMillis, bronzeMillis, err := timefmt.ParseThresholds(gold, silver, bronze)
	if err != nil {
		return nil, err
	}
	return &store.Thresholds{
		GoldMillis:   goldMillis,
		SilverMillis: silverMillis,
		BronzeMillis: bronzeMillis,
	}, nil
}

func (bot *Bot) handleSetChallenge(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {

	if !isAdmin(i) {
		replyText(s, i, "Only administrators can start weekly trials.", true)
		return
	}

	options := commandOptions(i)
	track, err := tracks.Validate(stringOption(options, "track"))
	if err != nil {
		replyFailure(s, i, err)
		return
	}
	category, err := tracks.ParseCategory(stringOption(options, "category"))
	if err != nil {
		replyFailure(s, i, err)
		return
	}
	thresholds, err := parseThresholdOptions(options)
	if err != nil {
		replyFailure(s, i, err)
		return
	}

	t, err := bot.trials.Create(ctx, i.GuildID, track, category, thresholds, intOption(options, "duration"))
	if err != nil {
		replyFailure(s, i, err)
		return
	}
	replyEmbed(s, i, trialCreatedEmbed(t), false)

	// Post the live leaderboard when the guild has a channel for it
	channelID, err := bot.store.LeaderboardChannel(ctx, i.GuildID)
	if err != nil {
		log.Error().Err(err).Str("guild", i.GuildID).Msg("Could not read leaderboard channel")
		return
	}
	if channelID == nil {
		return
	}
	if err := bot.boards.Post(ctx, t, *channelID); err != nil {
		log.Error().Err(err).Int64("trial_id", t.ID).Msg("Could not post live leaderboard")
	}
}

func (bot *Bot) handleEndChallenge(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {

	if !isAdmin(i) {
		replyText(s, i, "Only administrators can end weekly trials.", true)
		return
	}

	options := commandOptions(i)
	track, err := tracks.Validate(stringOption(options, "track"))
	if err != nil {
		replyFailure(s, i, err)
		return
	}

	t, err := bot.trials.End(ctx, i.GuildID, track)
	if err != nil {
		replyFailure(s, i, err)
		return
	}
	replyText(s, i, fmt.Sprintf("Weekly trial **#%d** on **%s** has ended. Thanks for racing!", t.TrialNumber, t.TrackName), false)
	bot.boards.Refresh(ctx, t)
}

func (bot *Bot) handleSetMedalTimes(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {

	if !isAdmin(i) {
		replyText(s, i, "Only administrators can set medal times.", true)
		return
	}

	options := commandOptions(i)
	goldMillis, silverMillis, bronzeMillis, err := timefmt.ParseThresholds(
		stringOption(options, "gold"),
		stringOption(options, "silver"),
		stringOption(options, "bronze"),
	)
	if err != nil {
		replyFailure(s, i, err)
		return
	}

	t, err := bot.trials.SetThresholds(ctx, i.GuildID, intOption(options, "trial_number"), &store.Thresholds{
		GoldMillis:   goldMillis,
		SilverMillis: silverMillis,
		BronzeMillis: bronzeMillis,
	})
	if err != nil {
		replyFailure(s, i, err)
		return
	}
	replyText(s, i, fmt.Sprintf("Medal times for trial **#%d** set to 🥇 %s, 🥈 %s, 🥉 %s.",
		t.TrialNumber, timefmt.Format(goldMillis), timefmt.Format(silverMillis), timefmt.Format(bronzeMillis)), false)
	bot.boards.Refresh(ctx, t)
}

func (bot *Bot) handleRemoveMedalTimes(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {

	if !isAdmin(i) {
		replyText(s, i, "Only administrators can remove medal times.", true)
		return
	}

	options := commandOptions(i)
	t, err := bot.trials.SetThresholds(ctx, i.GuildID, intOption(options, "trial_number"), nil)
	if err != nil {
		replyFailure(s, i, err)
		return
	}
	replyText(s, i, fmt.Sprintf("Medal times for trial **#%d** removed.", t.TrialNumber), false)
	bot.boards.Refresh(ctx, t)
}

func (bot *Bot) handleUpdateCategory(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {

	if !isAdmin(i) {
		replyText(s, i, "Only administrators can change a trial's category.", true)
		return
	}

	options := commandOptions(i)
	category, err := tracks.ParseCategory(stringOption(options, "category"))
	if err != nil {
		replyFailure(s, i, err)
		return
	}

	t, err := bot.trials.UpdateCategory(ctx, i.GuildID, intOption(options, "trial_number"), category)
	if err != nil {
		replyFailure(s, i, err)
		return
	}
	replyText(s, i, fmt.Sprintf("Trial **#%d** on **%s** is now running in the **%s** category.",
		t.TrialNumber, t.TrackName, t.Category.Title()), false)
	bot.boards.Refresh(ctx, t)
}

func (bot *Bot) handleSetLeaderboardChannel(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {

	if !isAdmin(i) {
		replyText(s, i, "Only administrators can set the leaderboard channel.", true)
		return
	}

	options := commandOptions(i)
	option, ok := options["channel"]
	if !ok {
		replyText(s, i, "Pick a channel for the live leaderboards.", true)
		return
	}
	channel := option.ChannelValue(s)

	if err := bot.store.SetLeaderboardChannel(ctx, i.GuildID, channel.ID); err != nil {
		replyFailure(s, i, err)
		return
	}
	replyText(s, i, fmt.Sprintf("Live leaderboards will be posted in <#%s>.", channel.ID), false)
}
