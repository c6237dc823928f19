package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"flag-trivia-service/internal/app"
	"flag-trivia-service/internal/config"
	"flag-trivia-service/internal/domain"
	"flag-trivia-service/internal/infra/jsonfile"
	"flag-trivia-service/internal/infra/memory"
	pgloader "flag-trivia-service/internal/infra/postgres"
	rediscache "flag-trivia-service/internal/infra/redis"
	"flag-trivia-service/internal/infra/sqlstore"
	"flag-trivia-service/internal/ranking"
	transport "flag-trivia-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var db *bun.DB
	if cfg.Database.PostgresURL != "" || cfg.Database.SQLitePath != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
		db, err = openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	var store ranking.Store
	if db != nil {
		store, err = sqlstore.New(ctx, db)
		if err != nil {
			return err
		}
	} else {
		store = memory.NewRankingStore()
	}

	var rankingOpts []ranking.Option
	if redisClient != nil {
		ttl := config.TTLDuration(cfg.Redis.TTL, time.Minute)
		rankingOpts = append(rankingOpts, ranking.WithCache(rediscache.NewRankingCache(redisClient, ttl)))
	}
	rankings := ranking.NewService(store, rankingOpts...)

	var pool *pgxpool.Pool
	if cfg.Database.PostgresURL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Database.PostgresURL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.DatasetLoader
	switch {
	case cfg.Dataset.Dir != "":
		loader = jsonfile.NewDatasetLoader(cfg.Dataset.Dir)
	case pool != nil:
		loader = pgloader.NewDatasetLoader(pool)
	default:
		loader = memory.NewStaticDatasetLoader(sampleCountries(), samplePaintings())
	}
	datasetTTL := config.TTLDuration(cfg.Dataset.TTL, 10*time.Minute)
	datasets := memory.NewDatasetRepository(loader, datasetTTL)

	game := app.NewGameService(memory.NewSessionStore(), datasets, rankings)

	rankingHandler := transport.NewRankingHandler(rankings)
	playHandler := transport.NewPlayHandler(game, rankings)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/ranking", rankingHandler.Handle)
	mux.HandleFunc("/ws/play", playHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleCountries and samplePaintings back the static loader so the
// server can run without a dataset directory or database.
func sampleCountries() map[string][]domain.Country {
	return map[string][]domain.Country{
		"en": {
			{ID: "fr", Name: "France", Capital: domain.StringList{"Paris"}, Continent: "Europe", FlagImageURL: "https://flagcdn.com/fr.svg"},
			{ID: "jp", Name: "Japan", Capital: domain.StringList{"Tokyo"}, Continent: "Asia", FlagImageURL: "https://flagcdn.com/jp.svg"},
			{ID: "br", Name: "Brazil", Capital: domain.StringList{"Brasília"}, Continent: "South America", FlagImageURL: "https://flagcdn.com/br.svg"},
			{ID: "ke", Name: "Kenya", Capital: domain.StringList{"Nairobi"}, Continent: "Africa", FlagImageURL: "https://flagcdn.com/ke.svg"},
			{ID: "ca", Name: "Canada", Capital: domain.StringList{"Ottawa"}, Continent: "North America", FlagImageURL: "https://flagcdn.com/ca.svg"},
			{ID: "au", Name: "Australia", Capital: domain.StringList{"Canberra"}, Continent: "Oceania", FlagImageURL: "https://flagcdn.com/au.svg"},
		},
	}
}

func samplePaintings() map[string][]domain.Painting {
	return map[string][]domain.Painting{
		"en": {
			{ID: "p1", Name: "The Starry Night", Artist: "Vincent van Gogh", Year: "1889"},
			{ID: "p2", Name: "Sunflowers", Artist: "Vincent van Gogh", Year: "1888"},
			{ID: "p3", Name: "Mona Lisa", Artist: "Leonardo da Vinci", Year: "1503"},
			{ID: "p4", Name: "Girl with a Pearl Earring", Artist: "Johannes Vermeer", Year: "1665"},
			{ID: "p5", Name: "The Persistence of Memory", Artist: "Salvador Dalí", Year: "1931"},
		},
	}
}
