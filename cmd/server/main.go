package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/JustinWhittecar/critslots/internal/builds"
	"github.com/JustinWhittecar/critslots/internal/config"
	"github.com/JustinWhittecar/critslots/internal/db"
	"github.com/JustinWhittecar/critslots/internal/handlers"
	"github.com/JustinWhittecar/critslots/internal/logging"
)

func main() {
	configDir := flag.String("config", ".", "directory containing "+config.FileName)
	flag.Parse()

	if err := config.Load(*configDir); err != nil {
		// Logger is not set up yet.
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("Failed to load config")
	}
	log := logging.Setup(config.GetString("logLevel"), config.GetBool("logPretty"))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	catalogDB, err := db.ConnectCatalog(config.GetString("catalog.path"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open equipment catalog")
	}
	defer catalogDB.Close()

	buildDB, err := db.ConnectBuildDB(config.GetString("builds.path"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open build database")
	}
	defer buildDB.Close()

	catalog := &db.Catalog{DB: catalogDB}
	hub := handlers.NewHub(log.With().Str("component", "hub").Logger())
	svc := builds.NewService(&db.BuildStore{DB: buildDB}, catalog, hub, log.With().Str("component", "builds").Logger())

	mux := http.NewServeMux()
	handlers.Register(mux,
		&handlers.BuildsHandler{Service: svc, Log: log},
		&handlers.EquipmentHandler{Catalog: catalog, Log: log},
		hub,
	)

	port := config.GetString("http.port")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: corsMiddleware(config.GetStringSlice("http.allowedOrigins"), mux),
	}

	go func() {
		log.Info().Str("port", port).Msg("critslots server listening")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
}

func corsMiddleware(origins []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && slices.Contains(origins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
