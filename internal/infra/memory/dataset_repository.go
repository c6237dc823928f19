package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"flag-trivia-service/internal/domain"
)

// DatasetLoader fetches the reference datasets for a language from a
// backing source (JSON files, Postgres, etc).
type DatasetLoader interface {
	LoadCountries(ctx context.Context, lang string) ([]domain.Country, error)
	LoadPaintings(ctx context.Context, lang string) ([]domain.Painting, error)
}

// DatasetRepository caches datasets per language with TTL to avoid
// re-reading the backing source on every quiz setup.
type DatasetRepository struct {
	loader DatasetLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedDataset
}

type cachedDataset struct {
	countries []domain.Country
	paintings []domain.Painting
	expiresAt time.Time
}

func NewDatasetRepository(loader DatasetLoader, ttl time.Duration) *DatasetRepository {
	return &DatasetRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedDataset),
	}
}

func (r *DatasetRepository) Countries(ctx context.Context, lang string) ([]domain.Country, error) {
	entry, err := r.get(ctx, "countries", lang)
	if err != nil {
		return nil, err
	}
	return entry.countries, nil
}

func (r *DatasetRepository) Paintings(ctx context.Context, lang string) ([]domain.Painting, error) {
	entry, err := r.get(ctx, "paintings", lang)
	if err != nil {
		return nil, err
	}
	return entry.paintings, nil
}

func (r *DatasetRepository) get(ctx context.Context, kind, lang string) (cachedDataset, error) {
	key := kind + ":" + lang
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry, nil
		}
		r.mu.RUnlock()

		var entry cachedDataset
		switch kind {
		case "countries":
			countries, err := r.loader.LoadCountries(ctx, lang)
			if err != nil {
				return cachedDataset{}, err
			}
			entry.countries = countries
		case "paintings":
			paintings, err := r.loader.LoadPaintings(ctx, lang)
			if err != nil {
				return cachedDataset{}, err
			}
			entry.paintings = paintings
		}
		entry.expiresAt = now.Add(r.ttlWithJitter())

		r.mu.Lock()
		r.cache[key] = entry
		r.mu.Unlock()
		return entry, nil
	})
	if err != nil {
		return cachedDataset{}, err
	}
	return result.(cachedDataset), nil
}

func (r *DatasetRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticDatasetLoader serves fixed in-memory datasets (tests/demos).
type StaticDatasetLoader struct {
	countries map[string][]domain.Country
	paintings map[string][]domain.Painting
}

func NewStaticDatasetLoader(countries map[string][]domain.Country, paintings map[string][]domain.Painting) *StaticDatasetLoader {
	return &StaticDatasetLoader{countries: countries, paintings: paintings}
}

func (l *StaticDatasetLoader) LoadCountries(_ context.Context, lang string) ([]domain.Country, error) {
	if countries, ok := l.countries[lang]; ok {
		return countries, nil
	}
	return nil, domain.ErrDatasetNotFound
}

func (l *StaticDatasetLoader) LoadPaintings(_ context.Context, lang string) ([]domain.Painting, error) {
	if paintings, ok := l.paintings[lang]; ok {
		return paintings, nil
	}
	return nil, domain.ErrDatasetNotFound
}
