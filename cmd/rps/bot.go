// cmd/rps/bot.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/client"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/game"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/models"
	"github.com/sirupsen/logrus"
)

func runBot(ctx context.Context, cfg *botConfig) error {
	logger := newLogger(cfg.logLevel)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var player *client.AutoPlayer
	var cl *client.Client
	cl = client.New(client.Config{
		URL:          cfg.server,
		Reconnect:    cfg.reconnect,
		PingInterval: cfg.pingInterval,
	}, func(ev models.Event) {
		if ev.Type == models.EventGameResult {
			logResult(logger, cl, ev)
		}
		player.Handle(ev)
	}, logger)
	player = client.NewAutoPlayer(cfg.name, cfg.think, cl, nil, logger)
	defer player.Stop()

	logger.Infof("Playing as %s against %s.", cfg.name, cfg.server)
	err := cl.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func logResult(logger logrus.FieldLogger, cl *client.Client, ev models.Event) {
	self := cl.ID()
	var score game.Score
	if ev.Room != nil {
		// scores are keyed by display name
		for _, p := range ev.Room.Players {
			if p.PlayerID == self {
				score = ev.Scores[p.Name]
			}
		}
	}
	entry := logger.WithFields(logrus.Fields{
		"result": ev.Results[self],
		"wins":   score.Wins,
		"losses": score.Losses,
		"draws":  score.Draws,
		"rtt":    cl.RTT(),
	})
	if ev.Series != nil {
		entry = entry.WithField("series_round", ev.Series.Round)
		if ev.Series.Over {
			entry = entry.WithField("series_winner", ev.Series.Winner)
		}
	}
	entry.Info("Round finished.")
}
