package quiz

import (
	"math/rand"
	"time"

	"flag-trivia-service/internal/domain"
)

const optionsPerQuestion = 4

// Question pairs one country with its shuffled answer options. Options
// always contain the correct country; the rest are distractors with
// distinct ids.
type Question struct {
	Country domain.Country
	Options []domain.Country
}

// PaintingQuestion carries two independent option lists; the player has
// to identify both the artist and the title.
type PaintingQuestion struct {
	Painting      domain.Painting
	ArtistOptions []string
	TitleOptions  []string
}

// Generator builds randomized question sets. The random source is
// injectable so that selection and option order are reproducible in
// tests; production callers pass nil for a time-seeded source.
type Generator struct {
	rnd *rand.Rand
}

func NewGenerator(rnd *rand.Rand) *Generator {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rnd: rnd}
}

// CountryQuestions selects min(requested, len(countries)) distinct
// countries without replacement and builds up to 4 options per question.
func (g *Generator) CountryQuestions(countries []domain.Country, requested int) ([]Question, error) {
	if len(countries) == 0 {
		return nil, domain.ErrDatasetEmpty
	}
	if requested < 1 {
		requested = 1
	}

	picked := make([]domain.Country, len(countries))
	copy(picked, countries)
	g.rnd.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	if requested < len(picked) {
		picked = picked[:requested]
	}

	questions := make([]Question, 0, len(picked))
	for _, correct := range picked {
		distractors := make([]domain.Country, 0, len(countries)-1)
		for _, c := range countries {
			if c.ID != correct.ID {
				distractors = append(distractors, c)
			}
		}
		g.rnd.Shuffle(len(distractors), func(i, j int) {
			distractors[i], distractors[j] = distractors[j], distractors[i]
		})
		if len(distractors) > optionsPerQuestion-1 {
			distractors = distractors[:optionsPerQuestion-1]
		}

		options := append(distractors, correct)
		g.rnd.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })

		questions = append(questions, Question{Country: correct, Options: options})
	}
	return questions, nil
}

// PaintingQuestions builds dual-field questions. Title distractors draw
// from a pool holding at most two works by the same artist plus every
// other painting, so confusable titles stay in play.
func (g *Generator) PaintingQuestions(paintings []domain.Painting, requested int) ([]PaintingQuestion, error) {
	if len(paintings) == 0 {
		return nil, domain.ErrDatasetEmpty
	}
	if requested < 1 {
		requested = 1
	}

	picked := make([]domain.Painting, len(paintings))
	copy(picked, paintings)
	g.rnd.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	if requested < len(picked) {
		picked = picked[:requested]
	}

	questions := make([]PaintingQuestion, 0, len(picked))
	for _, correct := range picked {
		questions = append(questions, PaintingQuestion{
			Painting:      correct,
			ArtistOptions: g.artistOptions(paintings, correct),
			TitleOptions:  g.titleOptions(paintings, correct),
		})
	}
	return questions, nil
}

func (g *Generator) artistOptions(paintings []domain.Painting, correct domain.Painting) []string {
	seen := map[string]struct{}{correct.Artist: {}}
	others := make([]string, 0, len(paintings))
	for _, p := range paintings {
		if _, ok := seen[p.Artist]; ok {
			continue
		}
		seen[p.Artist] = struct{}{}
		others = append(others, p.Artist)
	}
	g.rnd.Shuffle(len(others), func(i, j int) { others[i], others[j] = others[j], others[i] })
	if len(others) > optionsPerQuestion-1 {
		others = others[:optionsPerQuestion-1]
	}

	options := append(others, correct.Artist)
	g.rnd.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
	return options
}

func (g *Generator) titleOptions(paintings []domain.Painting, correct domain.Painting) []string {
	var sameArtist, others []domain.Painting
	for _, p := range paintings {
		if p.ID == correct.ID {
			continue
		}
		if p.Artist == correct.Artist {
			sameArtist = append(sameArtist, p)
		} else {
			others = append(others, p)
		}
	}
	if len(sameArtist) > 2 {
		sameArtist = sameArtist[:2]
	}

	pool := append(sameArtist, others...)
	g.rnd.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if len(pool) > optionsPerQuestion-1 {
		pool = pool[:optionsPerQuestion-1]
	}

	options := make([]string, 0, len(pool)+1)
	for _, p := range pool {
		options = append(options, p.Name)
	}
	options = append(options, correct.Name)
	g.rnd.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
	return options
}
