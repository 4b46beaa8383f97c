package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/fourgraph/bot"
	"github.com/domino14/fourgraph/config"
)

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// stdout belongs to the referee.
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Info().Int("depth", cfg.GetInt(config.ConfigDepth)).Msg("bot-starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := bot.NewBot(cfg, os.Stdout)
	if err := b.Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
		log.Err(err).Msg("bot-stopped")
		os.Exit(1)
	}
	log.Info().Msg("bot-exiting")
}
