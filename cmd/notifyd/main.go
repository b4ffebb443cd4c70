// notifyd runs the notification subsystem as a standalone service:
// the websocket delivery channel, the history/preferences API, and an
// internal dispatch endpoint for business-logic collaborators that live
// in other processes.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chatlead/notify/modules/notifications"
	"github.com/chatlead/notify/pkg/bus"
	"github.com/chatlead/notify/pkg/config"
	"github.com/chatlead/notify/pkg/httpserver"
	"github.com/chatlead/notify/pkg/jwt"
	"github.com/chatlead/notify/pkg/logger"
	"github.com/chatlead/notify/pkg/notify"
	"github.com/chatlead/notify/pkg/pg"
	"github.com/chatlead/notify/pkg/presence"
	"github.com/chatlead/notify/pkg/ws"
)

type serverConfig struct {
	JWTSecret string     `env:"NOTIFY_JWT_SECRET,required"`
	LogFormat string     `env:"NOTIFY_LOG_FORMAT" envDefault:"json"`
	LogLevel  slog.Level `env:"NOTIFY_LOG_LEVEL" envDefault:"info"`
	BusBuffer int        `env:"NOTIFY_BUS_BUFFER" envDefault:"64"`
}

func main() {
	var cfg serverConfig
	config.MustLoad(&cfg)
	var pgCfg pg.Config
	config.MustLoad(&pgCfg)
	var httpCfg httpserver.Config
	config.MustLoad(&httpCfg)

	log := logger.New(
		logger.WithLevel(cfg.LogLevel),
		logger.WithFormat(logger.Format(cfg.LogFormat)),
		logger.WithAttr(logger.Component("notifyd")),
	)
	slog.SetDefault(log)

	if err := run(cfg, pgCfg, httpCfg, log); err != nil {
		log.Error("notifyd exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(cfg serverConfig, pgCfg pg.Config, httpCfg httpserver.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	tokens, err := jwt.New([]byte(cfg.JWTSecret))
	if err != nil {
		return err
	}

	storage := notify.NewPGStorage(pool)
	eventBus := bus.NewMemoryBus[notify.Envelope](cfg.BusBuffer)
	defer eventBus.Close()

	registry := presence.NewRegistry()
	dispatcher := notify.NewDispatcher(storage, eventBus,
		notify.WithDispatcherLogger(log),
	)
	gateway := ws.NewGateway(registry, eventBus, storage, tokens,
		ws.WithGatewayLogger(log),
	)
	api := notifications.NewService(storage, notifications.WithLogger(log))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", httpserver.Healthcheck(pool.Ping))
	r.Method(http.MethodGet, "/ws", gateway)
	r.Route("/api/notifications", func(r chi.Router) {
		r.Use(jwt.Middleware(tokens, nil))
		r.Mount("/", api.Handle())
	})
	// Internal dispatch endpoint for collaborators running outside this
	// process. In-process callers use dispatcher.Dispatch directly.
	r.Route("/internal/events", func(r chi.Router) {
		r.Use(jwt.Middleware(tokens, nil))
		r.Post("/", dispatchHandler(dispatcher))
	})

	fanoutDone := make(chan struct{})
	go func() {
		defer close(fanoutDone)
		if err := gateway.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("fan-out loop stopped", logger.Error(err))
		}
	}()

	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))
	if err := srv.Run(ctx, r); err != nil {
		return err
	}
	<-fanoutDone
	return nil
}

func dispatchHandler(d *notify.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev notify.Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		n, err := d.Dispatch(r.Context(), ev)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, notify.ErrUnknownType) || errors.Is(err, notify.ErrMissingUserID) {
				status = http.StatusBadRequest
			}
			http.Error(w, err.Error(), status)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if n == nil {
			// Suppressed by the user's preferences; nothing was stored.
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(map[string]bool{"suppressed": true})
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(n)
	}
}
