package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/pinte/recruiting/app"
	"github.com/pinte/recruiting/config"
	"github.com/pinte/recruiting/database"
	"github.com/pinte/recruiting/httpx"
	"github.com/pinte/recruiting/log"
	"github.com/pinte/recruiting/questionnaire"
	"github.com/pinte/recruiting/routes"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg.DBUrl)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	if cfg.Recalc {
		failed, err := questionnaire.RecalculateAll(context.Background(), db)
		if err != nil {
			log.Fatal("main.recalc:", err)
		}
		if len(failed) > 0 {
			log.Fatal("main.recalc: failed responses:", failed)
		}
		log.Info("all responses re-scored")
		return
	}

	bearerServer := httpx.NewBearerServer(db, cfg)

	app := app.App{
		DB:           db,
		BearerServer: bearerServer,
		Config:       cfg,
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
