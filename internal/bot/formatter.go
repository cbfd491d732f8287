package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"kartbot/internal/duel"
	"kartbot/internal/store"
	"kartbot/internal/timefmt"
	"kartbot/internal/trial"
)

// Use "teal" color for the bot
const color int = 0x008080

func medalLine(medal trial.Medal) string {
	switch medal {
	case trial.MedalGold:
		return "🥇 That time earns a **gold** medal!"
	case trial.MedalSilver:
		return "🥈 That time earns a **silver** medal!"
	case trial.MedalBronze:
		return "🥉 That time earns a **bronze** medal!"
	default:
		return ""
	}
}

func saveEmbed(userID string, millis int, result *trial.SubmitResult) *discordgo.MessageEmbed {

	var body strings.Builder
	fmt.Fprintf(&body, "<@%s> clocked **%s** on **%s**.\n", userID, timefmt.Format(millis), result.Trial.TrackName)
	if result.Improvement && result.PreviousMillis != nil {
		fmt.Fprintf(&body, "%s\n", timefmt.Improvement(*result.PreviousMillis, millis))
	}
	if line := medalLine(result.Medal); line != "" {
		body.WriteString(line)
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Time saved for weekly trial #%d", result.Trial.TrialNumber),
		Description: body.String(),
		Color:       color,
	}
}

func trialCreatedEmbed(t *store.Trial) *discordgo.MessageEmbed {

	var body strings.Builder
	fmt.Fprintf(&body, "🏁 A new weekly trial is open on **%s** (%s)!\n", t.TrackName, t.Category.Title())
	fmt.Fprintf(&body, "Running until %s. Submit your time with /save.", t.EndDate.Format("Mon Jan 2, 15:04 MST"))

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Weekly trial #%d", t.TrialNumber),
		Description: body.String(),
		Color:       color,
	}
	if t.Thresholds != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Medal targets",
			Value: fmt.Sprintf("🥇 %s  🥈 %s  🥉 %s",
				timefmt.Format(t.Thresholds.GoldMillis),
				timefmt.Format(t.Thresholds.SilverMillis),
				timefmt.Format(t.Thresholds.BronzeMillis)),
		})
	}
	return embed
}

func activeTrialsEmbed(trials []store.Trial) *discordgo.MessageEmbed {

	embed := &discordgo.MessageEmbed{Title: "Active weekly trials", Color: color}
	if len(trials) == 0 {
		embed.Description = "No weekly trial is running right now."
		return embed
	}
	for _, t := range trials {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: fmt.Sprintf("#%d %s (%s)", t.TrialNumber, t.TrackName, t.Category.Title()),
			Value: fmt.Sprintf("Until %s. %s left.",
				t.EndDate.Format("Mon Jan 2, 15:04 MST"),
				timefmt.FormatDuration(daysUntil(t))),
			Inline: false,
		})
	}
	return embed
}

// daysUntil is the remaining whole days of a trial, never negative
func daysUntil(t store.Trial) int {
	remaining := int(time.Until(t.EndDate).Hours() / 24)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func winnerLine(winnerID *string) string {
	if winnerID == nil {
		return "🤝 It's a tie!"
	}
	return fmt.Sprintf("🏆 <@%s> wins the duel!", *winnerID)
}

func duelTimeEmbed(userID string, millis int, result *duel.SubmitResult) *discordgo.MessageEmbed {

	var body strings.Builder
	fmt.Fprintf(&body, "<@%s> clocked **%s** on **%s**.\n", userID, timefmt.Format(millis), result.Duel.TrackName)
	if result.PreviousMillis != nil {
		fmt.Fprintf(&body, "Previous time %s (%s).\n",
			timefmt.Format(*result.PreviousMillis), timefmt.Compare(millis, *result.PreviousMillis))
	}
	if result.Completed {
		body.WriteString("Both racers have submitted.\n")
		body.WriteString(winnerLine(result.WinnerID))
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Duel #%d time saved", result.Duel.ChallengeNumber),
		Description: body.String(),
		Color:       color,
	}
}

func duelTimeValue(millis *int) string {
	if millis == nil {
		return "no time submitted"
	}
	return timefmt.Format(*millis)
}

func duelEndedEmbed(result *duel.EndResult) *discordgo.MessageEmbed {

	d := result.Duel
	var body strings.Builder
	fmt.Fprintf(&body, "Duel on **%s** is over.\n", d.TrackName)
	fmt.Fprintf(&body, "<@%s>: %s\n", d.CreatorID, duelTimeValue(result.CreatorMillis))
	fmt.Fprintf(&body, "<@%s>: %s\n", d.OpponentID, duelTimeValue(result.OpponentMillis))
	body.WriteString(winnerLine(result.WinnerID))

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Duel #%d finished", d.ChallengeNumber),
		Description: body.String(),
		Color:       color,
	}
}

func duelOutcome(d store.Duel, userID string) string {
	switch d.Status {
	case store.DuelPending:
		return "⏳ pending"
	case store.DuelActive:
		return fmt.Sprintf("🟢 active until %s", d.EndDate.Format("Mon Jan 2, 15:04 MST"))
	case store.DuelDeclined:
		return "❌ declined"
	case store.DuelExpired:
		return "⏰ expired"
	}
	if d.WinnerID == nil {
		return "🤝 tie"
	}
	if *d.WinnerID == userID {
		return "🏆 won"
	}
	return "💀 lost"
}

func duelHistoryEmbed(userID string, duels []store.Duel) *discordgo.MessageEmbed {

	embed := &discordgo.MessageEmbed{Title: "Your duels", Color: color}
	if len(duels) == 0 {
		embed.Description = "You have no duels yet. Start one with /create-duel!"
		return embed
	}
	var body strings.Builder
	for _, d := range duels {
		fmt.Fprintf(&body, "**#%d** %s vs <@%s>: %s\n",
			d.ChallengeNumber, d.TrackName, d.Other(userID), duelOutcome(d, userID))
	}
	embed.Description = body.String()
	return embed
}
