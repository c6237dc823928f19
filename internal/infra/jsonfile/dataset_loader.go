package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"flag-trivia-service/internal/domain"
)

// DatasetLoader reads the harvest scripts' output files
// (countries.<lang>.json, paintings.<lang>.json) from a directory.
type DatasetLoader struct {
	dir string
}

func NewDatasetLoader(dir string) *DatasetLoader {
	return &DatasetLoader{dir: dir}
}

func (l *DatasetLoader) LoadCountries(_ context.Context, lang string) ([]domain.Country, error) {
	raw, err := l.read("countries", lang)
	if err != nil {
		return nil, err
	}
	var countries []domain.Country
	if err := json.Unmarshal(raw, &countries); err != nil {
		return nil, fmt.Errorf("unmarshal countries.%s.json: %w", lang, err)
	}
	return countries, nil
}

func (l *DatasetLoader) LoadPaintings(_ context.Context, lang string) ([]domain.Painting, error) {
	raw, err := l.read("paintings", lang)
	if err != nil {
		return nil, err
	}
	var paintings []domain.Painting
	if err := json.Unmarshal(raw, &paintings); err != nil {
		return nil, fmt.Errorf("unmarshal paintings.%s.json: %w", lang, err)
	}
	return paintings, nil
}

func (l *DatasetLoader) read(kind, lang string) ([]byte, error) {
	path := filepath.Join(l.dir, fmt.Sprintf("%s.%s.json", kind, lang))
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, domain.ErrDatasetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return raw, nil
}
