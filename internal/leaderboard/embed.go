package leaderboard

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"kartbot/internal/store"
	"kartbot/internal/timefmt"
	"kartbot/internal/trial"
)

const embedColor = 0x1abc9c

func medalEmoji(m trial.Medal) string {
	switch m {
	case trial.MedalGold:
		return " 🥇"
	case trial.MedalSilver:
		return " 🥈"
	case trial.MedalBronze:
		return " 🥉"
	default:
		return ""
	}
}

func statusLine(t *store.Trial) string {
	switch t.Status {
	case store.TrialActive:
		return fmt.Sprintf("🟢 Active until %s", t.EndDate.Format("Mon Jan 2, 15:04 MST"))
	case store.TrialEnded:
		return "🏁 Ended"
	default:
		return "⏰ Expired"
	}
}

// Embed builds the leaderboard message for a trial. names maps user ids
// to display names; ids without an entry fall back to a mention
func Embed(t *store.Trial, rows []Row, names map[string]string) *discordgo.MessageEmbed {

	var body strings.Builder
	if len(rows) == 0 {
		body.WriteString("No times submitted yet. Be the first with /save!")
	}
	for _, row := range rows {
		name, ok := names[row.UserID]
		if !ok || name == "" {
			name = fmt.Sprintf("<@%s>", row.UserID)
		}
		fmt.Fprintf(&body, "**%d.** %s `%s`%s\n",
			row.Rank, name, timefmt.Format(row.TimeMillis), medalEmoji(row.Medal))
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🏁 Weekly trial #%d: %s", t.TrialNumber, t.TrackName),
		Description: body.String(),
		Color:       embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Category", Value: t.Category.Title(), Inline: true},
			{Name: "Status", Value: statusLine(t), Inline: true},
		},
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
