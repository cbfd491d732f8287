package bot

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"kartbot/internal/duel"
	"kartbot/internal/timefmt"
	"kartbot/internal/tracks"
	"kartbot/internal/trial"
)

// userMessage translates a domain error into the text shown to the user.
// The second return is false for unexpected errors that must not leak
func userMessage(err error) (string, bool) {

	var notImprovement *trial.NotImprovementError
	if errors.As(err, &notImprovement) {
		return fmt.Sprintf("Your current best is **%s**. Submit a faster time to improve, or use /remove-time first.",
			timefmt.Format(notImprovement.PreviousMillis)), true
	}

	known := []error{
		timefmt.ErrFormat,
		timefmt.ErrRange,
		timefmt.ErrThresholdOrder,
		tracks.ErrUnknownTrack,
		tracks.ErrUnknownCategory,
		trial.ErrDuration,
		trial.ErrTrialExists,
		trial.ErrTrialCap,
		trial.ErrNoActiveTrial,
		trial.ErrTrialNotFound,
		trial.ErrNoSubmission,
		trial.ErrSameCategory,
		duel.ErrSelfChallenge,
		duel.ErrBotOpponent,
		duel.ErrDuration,
		duel.ErrNoPendingDuel,
		duel.ErrNoActiveDuel,
		duel.ErrNotOpponent,
		duel.ErrNotCreator,
		duel.ErrNotParticipant,
	}
	for _, sentinel := range known {
		if errors.Is(err, sentinel) {
			return capitalizeError(err), true
		}
	}
	return "", false
}

func capitalizeError(err error) string {
	text := err.Error()
	if text == "" {
		return text
	}
	upper := []rune(text)
	if upper[0] >= 'a' && upper[0] <= 'z' {
		upper[0] = upper[0] - 'a' + 'A'
	}
	return string(upper)
}

// failureReply builds the reply for a failed command. Expected domain
// errors are echoed to the user; everything else is logged under a
// correlation id and replaced with a generic message
func failureReply(command string, err error) string {

	if message, ok := userMessage(err); ok {
		return message
	}
	id := uuid.NewString()
	log.Error().Err(err).Str("command", command).Str("correlation_id", id).
		Msg("Command failed")
	return fmt.Sprintf("Something went wrong on my side. Reference: `%s`", id)
}
