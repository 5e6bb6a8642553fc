package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	adapthttp "identity/internal/adapter/http"
	"identity/internal/adapter/memory"
	mongostore "identity/internal/adapter/mongo"
	"identity/internal/app"
	"identity/internal/config"
	"identity/internal/domain"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("config", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var (
		users    domain.UserRepository
		sessions domain.SessionStore
	)
	if cfg.MemoryStore {
		db := memory.New()
		users, sessions = db, memory.NewSessionStore(db)
		log.Warn("using in-memory store, data will not survive a restart")
	} else {
		db, err := mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.Error("mongo open", "err", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close(ctx) }()
		users, sessions = db, mongostore.NewSessionRepo(db)
	}

	sessionManager := app.NewSessionManager(sessions, cfg.SessionTTL)
	authSvc := app.NewAuthService(users, sessionManager)
	userSvc := app.NewUserService(users)

	h := adapthttp.New(authSvc, userSvc, sessionManager.TTL(), log).Handler()
	log.Info("listening", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, h); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server", "err", err)
		os.Exit(1)
	}
}
