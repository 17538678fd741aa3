// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/api"
	bookingsapi "github.com/courtsidehq/courtside/internal/api/bookings"
	couponsapi "github.com/courtsidehq/courtside/internal/api/coupons"
	courtsapi "github.com/courtsidehq/courtside/internal/api/courts"
	facilitiesapi "github.com/courtsidehq/courtside/internal/api/facilities"
	paymentsapi "github.com/courtsidehq/courtside/internal/api/payments"
	"github.com/courtsidehq/courtside/internal/booking"
	"github.com/courtsidehq/courtside/internal/cache"
	"github.com/courtsidehq/courtside/internal/config"
	"github.com/courtsidehq/courtside/internal/coupon"
	"github.com/courtsidehq/courtside/internal/notify"
	"github.com/courtsidehq/courtside/internal/payments"
	"github.com/courtsidehq/courtside/internal/scheduler"
	"github.com/courtsidehq/courtside/internal/slots"
	"github.com/courtsidehq/courtside/internal/store"
)

// app holds the wired process: the HTTP server, the background scheduler,
// and the resources both share.
type app struct {
	server    *http.Server
	scheduler *scheduler.Service
	store     *store.Store
}

func newApp(cfg *config.Config) (*app, error) {
	st, err := store.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var availCache *cache.Availability
	if cfg.Redis.Enabled {
		redisClient := cache.NewClient(cfg.Redis)
		availCache = cache.NewAvailability(redisClient, time.Duration(cfg.Redis.TTLSeconds)*time.Second)
	}

	notifier, err := buildNotifier(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	generator := slots.NewGenerator(st, cfg.Booking.HorizonDays)
	availability := slots.NewAvailability(st, availCache, cfg.Booking.DefaultOpenTime, cfg.Booking.DefaultCloseTime)
	blocker := slots.NewBlocker(st, availCache, notifier)
	lifecycle := booking.NewLifecycle(st, booking.FeesFromConfig(cfg.Booking), notifier, availCache)
	reconciler := payments.NewReconciler(st, notifier, availCache)
	couponEngine := coupon.NewEngine(st)

	sched, err := scheduler.NewService()
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init scheduler: %w", err)
	}
	if err := scheduler.RegisterSlotJobs(sched, generator, cfg.Booking.SlotGenerationCron); err != nil {
		st.Close()
		return nil, fmt.Errorf("register slot jobs: %w", err)
	}

	router := http.NewServeMux()
	registerRoutes(router, st, availability, blocker, generator, lifecycle, reconciler, couponEngine)

	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithIdentity,
		api.WithRequestID,
	)

	return &app{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.App.Port),
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		scheduler: sched,
		store:     st,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close store")
	}
}

func buildNotifier(cfg *config.Config) (notify.Notifier, error) {
	if !cfg.Notifications.Enabled {
		return notify.LogNotifier{}, nil
	}
	sesClient, err := notify.NewSESClient(
		cfg.Notifications.AccessKeyID,
		cfg.Notifications.SecretAccessKey,
		cfg.Notifications.Region,
		cfg.Notifications.Sender,
	)
	if err != nil {
		return nil, fmt.Errorf("init ses client: %w", err)
	}
	return notify.NewEmailNotifier(sesClient, cfg.Notifications.Recipient), nil
}

func registerRoutes(
	mux *http.ServeMux,
	st *store.Store,
	availability *slots.Availability,
	blocker *slots.Blocker,
	generator *slots.Generator,
	lifecycle *booking.Lifecycle,
	reconciler *payments.Reconciler,
	couponEngine *coupon.Engine,
) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	courtsapi.NewHandlers(availability, blocker).RegisterRoutes(mux)
	bookingsapi.NewHandlers(lifecycle, st).RegisterRoutes(mux)
	facilitiesapi.NewHandlers(st, generator).RegisterRoutes(mux)
	couponsapi.NewHandlers(st, couponEngine).RegisterRoutes(mux)
	paymentsapi.NewHandlers(reconciler).RegisterRoutes(mux)
}
