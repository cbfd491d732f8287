package bot

import (
	"errors"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"kartbot/internal/leaderboard"
)

// sessionMessenger adapts the discordgo session to the leaderboard's
// Messenger surface
type sessionMessenger struct {
	session *discordgo.Session

	// fetchMember overrides the member lookup in tests
	fetchMember func(guildID string, userID string) (*discordgo.Member, error)
}

func (m *sessionMessenger) member(guildID string, userID string) (*discordgo.Member, error) {
	if m.fetchMember != nil {
		return m.fetchMember(guildID, userID)
	}
	return m.session.GuildMember(guildID, userID)
}

func (m *sessionMessenger) SendEmbed(channelID string, embed *discordgo.MessageEmbed) (string, error) {
	msg, err := m.session.ChannelMessageSendEmbed(channelID, embed)
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (m *sessionMessenger) EditEmbed(channelID string, messageID string, embed *discordgo.MessageEmbed) error {
	_, err := m.session.ChannelMessageEditEmbed(channelID, messageID, embed)
	if isUnknownMessage(err) {
		return leaderboard.ErrMessageNotFound
	}
	return err
}

// isUnknownMessage reports whether the API rejected the call because
// the target message no longer exists
func isUnknownMessage(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMessage {
		return true
	}
	return restErr.Response != nil && restErr.Response.StatusCode == 404
}

// DisplayNames resolves user ids to the names shown on the leaderboard.
// Resolution failures fall back to a mention, rendered by the caller
func (m *sessionMessenger) DisplayNames(guildID string, userIDs []string) map[string]string {

	names := make(map[string]string, len(userIDs))
	attempted := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		// Each id is looked up once, even when the lookup fails
		if attempted[id] {
			continue
		}
		attempted[id] = true
		member, err := m.member(guildID, id)
		if err != nil {
			log.Debug().Err(err).Str("user", id).Msg("Could not resolve member name")
			continue
		}
		names[id] = memberName(member)
	}
	return names
}

func memberName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User == nil {
		return ""
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}
