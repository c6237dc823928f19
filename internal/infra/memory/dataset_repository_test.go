package memory

import (
	"context"
	"testing"
	"time"

	"flag-trivia-service/internal/domain"
)

type countingLoader struct {
	DatasetLoader
	countryCalls int
}

func (l *countingLoader) LoadCountries(ctx context.Context, lang string) ([]domain.Country, error) {
	l.countryCalls++
	return l.DatasetLoader.LoadCountries(ctx, lang)
}

func TestDatasetRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		DatasetLoader: NewStaticDatasetLoader(map[string][]domain.Country{
			"en": {{ID: "fr", Name: "France"}},
		}, nil),
	}
	repo := NewDatasetRepository(loader, time.Minute)
	ctx := context.Background()

	countries, err := repo.Countries(ctx, "en")
	if err != nil {
		t.Fatalf("countries: %v", err)
	}
	if len(countries) != 1 || countries[0].ID != "fr" {
		t.Fatalf("unexpected dataset %+v", countries)
	}
	if loader.countryCalls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.countryCalls)
	}

	// Second read within TTL hits the cache.
	if _, err := repo.Countries(ctx, "en"); err != nil {
		t.Fatalf("countries: %v", err)
	}
	if loader.countryCalls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.countryCalls)
	}
}

func TestDatasetRepositoryUnknownLanguage(t *testing.T) {
	repo := NewDatasetRepository(NewStaticDatasetLoader(nil, nil), time.Minute)

	if _, err := repo.Countries(context.Background(), "xx"); err != domain.ErrDatasetNotFound {
		t.Fatalf("expected dataset-not-found, got %v", err)
	}
	if _, err := repo.Paintings(context.Background(), "xx"); err != domain.ErrDatasetNotFound {
		t.Fatalf("expected dataset-not-found, got %v", err)
	}
}
