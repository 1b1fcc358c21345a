package main

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	server "localbiz_backend/internal/adapters/http_server"
	"localbiz_backend/internal/adapters/mongodb"
	"localbiz_backend/internal/adapters/observability"
	redisad "localbiz_backend/internal/adapters/redis"
	"localbiz_backend/internal/adapters/supabase"
	"localbiz_backend/internal/app"
	"localbiz_backend/internal/domain"
	"localbiz_backend/internal/shared"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// primary store (REST-fronted); the API stays up without it
	var reviewStore domain.ReviewStore
	var leadPrimary domain.LeadStore
	if cfg.StoreURL != "" && cfg.StoreKey != "" {
		client, err := supabase.New(cfg.StoreURL, cfg.StoreKey, 10)
		if err != nil {
			log.Fatal().Err(err).Msg("store client init failed")
		}
		reviewStore = client
		leadPrimary = client
		log.Info().Str("base", cfg.StoreURL).Msg("primary store configured")
	}

	// document-store fallback; tolerated down at startup
	var leadFallback domain.LeadStore
	var bookingStore domain.BookingStore
	if cfg.MongoURI != "" {
		mongoStore, err := mongodb.Connect(context.Background(), cfg.MongoURI, "localbiz")
		if err != nil {
			log.Warn().Err(err).Msg("mongodb unavailable; fallback writes disabled")
		} else {
			leadFallback = mongoStore
			bookingStore = mongoStore
			log.Info().Msg("mongodb connection ok")
		}
	}

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	reviews := app.NewReviewService(reviewStore, cache, cfg.DedupWindow, cfg.CacheTTL, cfg.ReadLimit)
	leads := app.NewLeadService(leadPrimary, leadFallback, bookingStore)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Reviews: reviews, Leads: leads})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
