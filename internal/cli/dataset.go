package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"flag-trivia-service/internal/config"
	"flag-trivia-service/internal/domain"
)

// NewDatasetCmd validates the harvested dataset JSON files and, when
// Postgres is configured, loads them so the server can serve quizzes
// without the files on disk.
func NewDatasetCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "dataset",
		Short: "Validate dataset JSON files and load them into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return loadDatasets(cmd.Context(), cfg)
		},
	}
}

func loadDatasets(ctx context.Context, cfg config.Config) error {
	if cfg.Dataset.Dir == "" {
		return fmt.Errorf("dataset dir not configured")
	}

	var pool *pgxpool.Pool
	if cfg.Database.PostgresURL != "" {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Database.PostgresURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		_, err = pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS datasets (
			kind TEXT NOT NULL,
			lang TEXT NOT NULL,
			data JSONB NOT NULL,
			PRIMARY KEY (kind, lang)
		)`)
		if err != nil {
			return fmt.Errorf("create datasets table: %w", err)
		}
	}

	files, err := filepath.Glob(filepath.Join(cfg.Dataset.Dir, "*.json"))
	if err != nil {
		return err
	}

	loaded := 0
	for _, path := range files {
		// files are named <kind>.<lang>.json
		parts := strings.SplitN(filepath.Base(path), ".", 3)
		if len(parts) != 3 || parts[2] != "json" {
			continue
		}
		kind, lang := parts[0], parts[1]

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		count, err := validateDataset(kind, raw)
		if err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		log.Printf("%s.%s: %d items ok", kind, lang, count)

		if pool != nil {
			_, err = pool.Exec(ctx,
				`INSERT INTO datasets (kind, lang, data) VALUES ($1, $2, $3)
				 ON CONFLICT (kind, lang) DO UPDATE SET data = EXCLUDED.data`,
				kind, lang, raw)
			if err != nil {
				return fmt.Errorf("upsert %s.%s: %w", kind, lang, err)
			}
			loaded++
		}
	}

	if pool != nil {
		log.Printf("loaded %d dataset files into postgres", loaded)
	}
	return nil
}

// validateDataset checks the harvest output shape: a non-empty array
// with unique, non-empty ids.
func validateDataset(kind string, raw []byte) (int, error) {
	ids := make([]string, 0)
	switch kind {
	case "countries":
		var countries []domain.Country
		if err := json.Unmarshal(raw, &countries); err != nil {
			return 0, err
		}
		for _, c := range countries {
			ids = append(ids, c.ID)
		}
	case "paintings":
		var paintings []domain.Painting
		if err := json.Unmarshal(raw, &paintings); err != nil {
			return 0, err
		}
		for _, p := range paintings {
			ids = append(ids, p.ID)
		}
	default:
		return 0, fmt.Errorf("unknown dataset kind %q", kind)
	}

	if len(ids) == 0 {
		return 0, fmt.Errorf("dataset is empty")
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			return 0, fmt.Errorf("item with empty id")
		}
		if _, ok := seen[id]; ok {
			return 0, fmt.Errorf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
	return len(ids), nil
}
