package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"kartbot/internal/tracks"
)

var adminOnly int64 = discordgo.PermissionAdministrator

func float(v float64) *float64 { return &v }

func trackOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionString,
		Name:         "track",
		Description:  "Track name",
		Required:     true,
		Autocomplete: true,
	}
}

func timeOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "time",
		Description: description,
		Required:    true,
	}
}

func duelNumberOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionInteger,
		Name:         "duel_number",
		Description:  "Duel number",
		Required:     true,
		MinValue:     float(1),
		Autocomplete: true,
	}
}

func trialNumberOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "trial_number",
		Description: "Trial number",
		Required:    true,
		MinValue:    float(1),
	}
}

func categoryOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "category",
		Description: "Trial category",
		Required:    true,
		Choices: []*discordgo.ApplicationCommandOptionChoice{
			{Name: "Shrooms", Value: string(tracks.CategoryShrooms)},
			{Name: "Shroomless", Value: string(tracks.CategoryShroomless)},
		},
	}
}

func thresholdOption(name string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: "Target time in m:ss.mmm format",
		Required:    required,
	}
}

func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "save",
			Description: "Save your time for the track's active weekly trial",
			Options: []*discordgo.ApplicationCommandOption{
				trackOption(),
				timeOption("Your time in m:ss.mmm format, e.g. 2:23.640"),
			},
		},
		{
			Name:        "leaderboard",
			Description: "Show the leaderboard of the track's active weekly trial",
			Options:     []*discordgo.ApplicationCommandOption{trackOption()},
		},
		{
			Name:        "active",
			Description: "List the weekly trials currently running",
		},
		{
			Name:        "remove-time",
			Description: "Remove your submitted time from the track's active weekly trial",
			Options:     []*discordgo.ApplicationCommandOption{trackOption()},
		},
		{
			Name:                     "set-challenge",
			Description:              "Start a new weekly trial",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				trackOption(),
				categoryOption(),
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "duration",
					Description: "Duration in days (1 to 30)",
					Required:    true,
					MinValue:    float(1),
					MaxValue:    30,
				},
				thresholdOption("gold", false),
				thresholdOption("silver", false),
				thresholdOption("bronze", false),
			},
		},
		{
			Name:                     "end-challenge",
			Description:              "End the track's active weekly trial now",
			DefaultMemberPermissions: &adminOnly,
			Options:                  []*discordgo.ApplicationCommandOption{trackOption()},
		},
		{
			Name:                     "set-medal-times",
			Description:              "Set the medal target times of a weekly trial",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				trialNumberOption(),
				thresholdOption("gold", true),
				thresholdOption("silver", true),
				thresholdOption("bronze", true),
			},
		},
		{
			Name:                     "remove-medal-times",
			Description:              "Remove the medal target times of a weekly trial",
			DefaultMemberPermissions: &adminOnly,
			Options:                  []*discordgo.ApplicationCommandOption{trialNumberOption()},
		},
		{
			Name:                     "update-category",
			Description:              "Change the category of a weekly trial",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				trialNumberOption(),
				categoryOption(),
			},
		},
		{
			Name:                     "setleaderboardchannel",
			Description:              "Choose the channel where live leaderboards are posted",
			DefaultMemberPermissions: &adminOnly,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "Leaderboard channel",
					Required:    true,
					ChannelTypes: []discordgo.ChannelType{
						discordgo.ChannelTypeGuildText,
					},
				},
			},
		},
		{
			Name:        "create-duel",
			Description: "Challenge another racer to a 1v1 duel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "opponent",
					Description: "Who to challenge",
					Required:    true,
				},
				trackOption(),
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "duration",
					Description: "Duration in days (1 to 30, default 7)",
					Required:    false,
					MinValue:    float(1),
					MaxValue:    30,
				},
			},
		},
		{
			Name:        "accept-duel",
			Description: "Accept a duel you were challenged to",
			Options:     []*discordgo.ApplicationCommandOption{duelNumberOption()},
		},
		{
			Name:        "decline-duel",
			Description: "Decline a duel you were challenged to",
			Options:     []*discordgo.ApplicationCommandOption{duelNumberOption()},
		},
		{
			Name:        "cancel-duel",
			Description: "Cancel a pending duel you created",
			Options:     []*discordgo.ApplicationCommandOption{duelNumberOption()},
		},
		{
			Name:        "dueltimesave",
			Description: "Save your time for an active duel",
			Options: []*discordgo.ApplicationCommandOption{
				duelNumberOption(),
				timeOption("Your time in m:ss.mmm format, e.g. 2:23.640"),
			},
		},
		{
			Name:        "end-duel",
			Description: "End an active duel now and settle the winner",
			Options:     []*discordgo.ApplicationCommandOption{duelNumberOption()},
		},
		{
			Name:        "1v1-results",
			Description: "Show your duel history",
		},
	}
}

func (bot *Bot) dispatchCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {

	if i.GuildID == "" {
		replyText(s, i, "I only work inside a server.", true)
		return
	}

	data := i.ApplicationCommandData()
	ctx := context.Background()
	log.Debug().Str("command", data.Name).Str("guild", i.GuildID).
		Str("user", callerID(i)).Msg("Command received")

	switch data.Name {
	case "save":
		bot.handleSave(ctx, s, i)
	case "leaderboard":
		bot.handleLeaderboard(ctx, s, i)
	case "active":
		bot.handleActive(ctx, s, i)
	case "remove-time":
		bot.handleRemoveTime(ctx, s, i)
	case "set-challenge":
		bot.handleSetChallenge(ctx, s, i)
	case "end-challenge":
		bot.handleEndChallenge(ctx, s, i)
	case "set-medal-times":
		bot.handleSetMedalTimes(ctx, s, i)
	case "remove-medal-times":
		bot.handleRemoveMedalTimes(ctx, s, i)
	case "update-category":
		bot.handleUpdateCategory(ctx, s, i)
	case "setleaderboardchannel":
		bot.handleSetLeaderboardChannel(ctx, s, i)
	case "create-duel":
		bot.handleCreateDuel(ctx, s, i)
	case "accept-duel":
		bot.handleAcceptDuel(ctx, s, i)
	case "decline-duel":
		bot.handleDeclineDuel(ctx, s, i)
	case "cancel-duel":
		bot.handleCancelDuel(ctx, s, i)
	case "dueltimesave":
		bot.handleDuelTimeSave(ctx, s, i)
	case "end-duel":
		bot.handleEndDuel(ctx, s, i)
	case "1v1-results":
		bot.handleDuelResults(ctx, s, i)
	default:
		log.Warn().Str("command", data.Name).Msg("Unknown command")
	}
}

// callerID is the invoking user's id. Guild interactions always carry
// a member
func callerID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func isAdmin(i *discordgo.InteractionCreate) bool {
	return i.Member != nil && i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

// commandOptions flattens the interaction options into a lookup map
func commandOptions(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	raw := i.ApplicationCommandData().Options
	options := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(raw))
	for _, option := range raw {
		options[option.Name] = option
	}
	return options
}

func stringOption(options map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	option, ok := options[name]
	if !ok {
		return ""
	}
	return option.StringValue()
}

func intOption(options map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) int {
	option, ok := options[name]
	if !ok {
		return 0
	}
	return int(option.IntValue())
}

func replyText(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	respond(s, i, &discordgo.InteractionResponseData{Content: content}, ephemeral)
}

func replyEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	respond(s, i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
	}, ephemeral)
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData, ephemeral bool) {
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		log.Error().Err(err).Msg("Could not respond to interaction")
	}
}

// replyFailure sends the classified error reply, always ephemeral
func replyFailure(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	replyText(s, i, failureReply(i.ApplicationCommandData().Name, err), true)
}
