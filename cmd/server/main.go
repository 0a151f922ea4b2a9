package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ncruz/tablero/internal/cache"
	"github.com/ncruz/tablero/internal/config"
	"github.com/ncruz/tablero/internal/game"
	"github.com/ncruz/tablero/internal/httpapi"
	"github.com/ncruz/tablero/internal/store"
	"github.com/ncruz/tablero/internal/ws"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sessions store.SessionStore
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("connect postgres")
		}
		defer pg.Close()
		sessions = pg
		log.Info("using postgres session store")
	} else {
		sessions = store.NewMemory()
		log.Info("using in-memory session store")
	}

	var audit *cache.Publisher
	if cfg.RedisURL != "" {
		audit, err = cache.NewPublisher(cfg.RedisURL, log)
		if err != nil {
			log.WithError(err).Fatal("connect redis")
		}
		defer audit.Close()
		log.Info("action auditing enabled")
	}

	orch := game.NewOrchestrator(sessions, log, audit,
		game.WithMoveDelay(cfg.AutoMoveDelay))
	gateway := ws.NewGateway(orch, log, cfg.AuthSecret)
	handler := httpapi.NewSessionHandler(orch, log, gateway, cfg.AuthSecret, cfg.TokenTTL)
	router := httpapi.NewRouter(handler, gateway)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	go func() {
		log.WithField("addr", cfg.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
