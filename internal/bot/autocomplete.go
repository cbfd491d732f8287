package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"kartbot/internal/store"
	"kartbot/internal/tracks"
)

// Discord caps autocomplete responses at 25 choices
const maxChoices = 25

func (bot *Bot) dispatchAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {

	focused := focusedOption(i)
	if focused == nil {
		return
	}

	var choices []*discordgo.ApplicationCommandOptionChoice
	switch focused.Name {
	case "track":
		// The leaderboard offers trials of any status, so its choices
		// come from the guild's trial history instead of the catalog
		if i.ApplicationCommandData().Name == "leaderboard" {
			choices = bot.guildTrackChoices(context.Background(), i.GuildID, focused.StringValue())
		} else {
			choices = trackChoices(focused.StringValue())
		}
	case "duel_number":
		choices = bot.duelChoices(context.Background(), i)
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
	if err != nil {
		log.Error().Err(err).Msg("Could not respond to autocomplete")
	}
}

func focusedOption(i *discordgo.InteractionCreate) *discordgo.ApplicationCommandInteractionDataOption {
	for _, option := range i.ApplicationCommandData().Options {
		if option.Focused {
			return option
		}
	}
	return nil
}

func trackChoices(query string) []*discordgo.ApplicationCommandOptionChoice {

	matches := tracks.Search(query, maxChoices)
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(matches))
	for _, name := range matches {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  name,
			Value: name,
		})
	}
	return choices
}

// guildTrackChoices offers the tracks that ever had a trial in the guild
func (bot *Bot) guildTrackChoices(ctx context.Context, guildID string, query string) []*discordgo.ApplicationCommandOptionChoice {

	names, err := bot.store.TrialTracks(ctx, guildID)
	if err != nil {
		log.Error().Err(err).Str("guild", guildID).Msg("Could not list trial tracks for autocomplete")
		return nil
	}

	matches := filterTracks(names, query, maxChoices)
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(matches))
	for _, name := range matches {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  name,
			Value: name,
		})
	}
	return choices
}

// filterTracks keeps the names matching the query, preserving order
func filterTracks(names []string, query string, limit int) []string {

	query = strings.ToLower(strings.TrimSpace(query))
	var matches []string
	for _, name := range names {
		if query != "" && !strings.Contains(strings.ToLower(name), query) {
			continue
		}
		matches = append(matches, name)
		if len(matches) == limit {
			break
		}
	}
	return matches
}

// duelChoices offers the duels the caller can act on, filtered by the
// command being completed
func (bot *Bot) duelChoices(ctx context.Context, i *discordgo.InteractionCreate) []*discordgo.ApplicationCommandOptionChoice {

	userID := callerID(i)
	var duels []store.Duel
	var err error
	switch i.ApplicationCommandData().Name {
	case "accept-duel", "decline-duel":
		duels, err = bot.duels.PendingFor(ctx, i.GuildID, userID)
	case "cancel-duel":
		duels, err = bot.duels.CreatedPendingBy(ctx, i.GuildID, userID)
	default:
		duels, err = bot.duels.ActiveFor(ctx, i.GuildID, userID)
	}
	if err != nil {
		log.Error().Err(err).Str("guild", i.GuildID).Msg("Could not list duels for autocomplete")
		return nil
	}

	if len(duels) > maxChoices {
		duels = duels[:maxChoices]
	}
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(duels))
	for _, d := range duels {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  fmt.Sprintf("#%d %s", d.ChallengeNumber, d.TrackName),
			Value: d.ChallengeNumber,
		})
	}
	return choices
}
