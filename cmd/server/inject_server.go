package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/wire"
	"github.com/rs/cors"
	"github.com/spf13/viper"

	"github.com/lumapay/onboard/handler/api"
	"github.com/lumapay/onboard/handler/hc"
	"github.com/lumapay/onboard/service/onboarding"
	"github.com/lumapay/onboard/worker/janitor"
)

var serverSet = wire.NewSet(
	api.New,
	provideJanitorConfig,
	janitor.New,
	wire.Bind(new(janitor.SessionSweeper), new(*onboarding.Manager)),
	provideServer,
)

func provideJanitorConfig(v *viper.Viper) janitor.Config {
	v.SetDefault("onboarding.session_ttl", 30*time.Minute)
	v.SetDefault("onboarding.sweep_interval", time.Minute)

	return janitor.Config{
		SessionTTL: v.GetDuration("onboarding.session_ttl"),
		Interval:   v.GetDuration("onboarding.sweep_interval"),
	}
}

func provideServer(apiHandler *api.Server) *http.Server {
	m := chi.NewMux()
	m.Use(middleware.RealIP)
	m.Use(middleware.Logger)
	m.Use(middleware.Recoverer)
	m.Use(cors.AllowAll().Handler)

	m.Mount("/api", apiHandler.Handler())
	m.Mount("/hc", hc.Handler(version))

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", opt.port),
		Handler: m,
	}
}
