// Package bot wires the Discord gateway to the trial and duel managers.
// All interaction happens through guild slash commands
package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"kartbot/internal/duel"
	"kartbot/internal/leaderboard"
	"kartbot/internal/maintenance"
	"kartbot/internal/store"
	"kartbot/internal/trial"
)

type Bot struct {
	token   string
	store   *store.Store
	trials  *trial.Manager
	duels   *duel.Manager
	boards  *leaderboard.Projector
	sweeper *maintenance.Sweeper

	session *discordgo.Session
}

// New assembles the bot and its managers over an opened store
func New(token string, db *store.Store, maxConcurrentTrials int, retentionDays int) *Bot {

	bot := &Bot{
		token:  token,
		store:  db,
		trials: trial.NewManager(db, maxConcurrentTrials),
		duels:  duel.NewManager(db),
	}
	// The bot forwards board refreshes so the sweeper can be built
	// before the gateway session exists
	bot.sweeper = maintenance.NewSweeper(db, bot.duels, bot, retentionDays)
	return bot
}

// Update refreshes a trial's live leaderboard. Satisfies the sweeper's
// Boards dependency; a no-op until the gateway session is up
func (bot *Bot) Update(ctx context.Context, trialID int64) error {
	if bot.boards == nil {
		return nil
	}
	return bot.boards.Update(ctx, trialID)
}

// Run connects to Discord, registers the slash commands and blocks
// until the process receives an interrupt
func (bot *Bot) Run() error {

	discord, err := discordgo.New("Bot " + bot.token)
	if err != nil {
		return fmt.Errorf("could not create discord session: %w", err)
	}
	discord.Identify.Intents = discordgo.IntentGuilds
	bot.session = discord
	bot.boards = leaderboard.NewProjector(bot.store, &sessionMessenger{session: discord})

	discord.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).
			Msg("Gateway session ready")
	})
	discord.AddHandler(bot.handleInteraction)

	if err := discord.Open(); err != nil {
		return fmt.Errorf("could not open discord session: %w", err)
	}
	defer discord.Close()

	// Global registration; the commands appear in every guild the bot joins
	_, err = discord.ApplicationCommandBulkOverwrite(discord.State.User.ID, "", commandDefinitions())
	if err != nil {
		return fmt.Errorf("could not register slash commands: %w", err)
	}
	log.Info().Int("commands", len(commandDefinitions())).Msg("Slash commands registered")

	ctx, cancel := context.WithCancel(context.Background())
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		bot.sweeper.Run(ctx)
	}()

	// Keep running until there is an os interruption (ctrl + C)
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	log.Info().Msg("Shutting down")

	// Join an in-flight sweep before the caller closes the store
	cancel()
	<-sweeperDone

	return nil
}

func (bot *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		bot.dispatchCommand(s, i)
	case discordgo.InteractionApplicationCommandAutocomplete:
		bot.dispatchAutocomplete(s, i)
	}
}
