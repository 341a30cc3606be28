// cmd/rps/serve.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/auth"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/cache"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/handlers"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/lobby"
)

const shutdownTimeout = 5 * time.Second

func runServe(ctx context.Context, cfg *serveConfig) error {
	logger := newLogger(cfg.logLevel)

	var err error
	if cfg.privateKey != "" {
		err = auth.InitFromPath(cfg.privateKey, cfg.publicKey, cfg.tokenExpire)
	} else {
		err = auth.Init(cfg.tokenExpire)
	}
	if err != nil {
		return err
	}

	var history cache.HistoryStore
	if cfg.redisAddr != "" {
		rdb, err := cache.ConnectRedis(ctx, cfg.redisAddr, cfg.redisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		history = cache.NewRedisHistory(rdb, cfg.historySize)
		logger.Infof("Keeping round history in redis at %s (db %d).", cfg.redisAddr, cfg.redisDB)
	} else {
		history = cache.NewMemoryHistory(cfg.historySize)
	}

	dir := lobby.NewDirectory(cfg.roomConfig(), history, logger)
	defer dir.Close()

	srv := &http.Server{
		Addr: net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler: handlers.NewRouter(handlers.Options{
			Directory:      dir,
			Logger:         logger,
			AllowedOrigins: cfg.allowedOrigins,
			PublicURL:      cfg.publicURL,
			PingInterval:   cfg.pingInterval,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	logger.Infof("Listening on %s (best of %d, %s per round).", srv.Addr, cfg.bestOf, cfg.roundTimeout)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
		logger.Info("Shutting down.")
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// Hijacked websocket connections are not tracked by Shutdown; closing the
	// directory ends every session.
	dir.Close()
	return srv.Shutdown(sctx)
}
