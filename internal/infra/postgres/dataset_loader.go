package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"flag-trivia-service/internal/domain"
)

// DatasetLoader reads harvested dataset JSONB from Postgres. One row
// per (kind, lang) holds the whole array, mirroring the static files.
type DatasetLoader struct {
	pool *pgxpool.Pool
}

func NewDatasetLoader(pool *pgxpool.Pool) *DatasetLoader {
	return &DatasetLoader{pool: pool}
}

func (l *DatasetLoader) LoadCountries(ctx context.Context, lang string) ([]domain.Country, error) {
	raw, err := l.load(ctx, "countries", lang)
	if err != nil {
		return nil, err
	}
	var countries []domain.Country
	if err := json.Unmarshal(raw, &countries); err != nil {
		return nil, fmt.Errorf("unmarshal countries: %w", err)
	}
	return countries, nil
}

func (l *DatasetLoader) LoadPaintings(ctx context.Context, lang string) ([]domain.Painting, error) {
	raw, err := l.load(ctx, "paintings", lang)
	if err != nil {
		return nil, err
	}
	var paintings []domain.Painting
	if err := json.Unmarshal(raw, &paintings); err != nil {
		return nil, fmt.Errorf("unmarshal paintings: %w", err)
	}
	return paintings, nil
}

func (l *DatasetLoader) load(ctx context.Context, kind, lang string) ([]byte, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM datasets WHERE kind=$1 AND lang=$2`, kind, lang).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDatasetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load dataset %s.%s: %w", kind, lang, err)
	}
	return raw, nil
}
