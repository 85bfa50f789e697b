package main

import (
	"log"
	"log/slog"

	"github.com/joho/godotenv"

	"github.com/SofiaKung/redflag/internal/analyzer"
	"github.com/SofiaKung/redflag/internal/config"
	"github.com/SofiaKung/redflag/internal/intel"
	"github.com/SofiaKung/redflag/internal/llm"
	"github.com/SofiaKung/redflag/internal/server"
	"github.com/SofiaKung/redflag/internal/tools"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	intelClient := intel.New(intel.Config{
		DoHEndpoint:          cfg.Intel.DoHEndpoint,
		GeoIPEndpoint:        cfg.Intel.GeoIPEndpoint,
		GeoIPToken:           cfg.Intel.GeoIPToken,
		RDAPBootstrapURL:     cfg.Intel.RDAPBootstrapURL,
		WhoisAPIEndpoint:     cfg.Intel.WhoisAPIEndpoint,
		WhoisAPIKey:          cfg.Intel.WhoisAPIKey,
		SafeBrowsingEndpoint: cfg.Intel.SafeBrowsingEndpoint,
		SafeBrowsingKey:      cfg.Intel.SafeBrowsingKey,
		Timeout:              cfg.Intel.Timeout,
	})

	registry := tools.NewRegistry(intelClient)
	provider := llm.NewOpenAI(&cfg.OpenAI)
	analyzer := analyzer.New(provider, registry, intelClient, cfg.OpenAI.Model, cfg.Agent)

	srv := server.New(*cfg, analyzer)
	slog.Info("starting server", "host", cfg.Server.Host, "port", cfg.Server.Port)
	if err := srv.Run(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
