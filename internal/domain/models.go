package domain

import (
	"encoding/json"
	"time"
)

// QuizFormat is the direction a flag question is posed in.
type QuizFormat string

const (
	FormatFlagToName QuizFormat = "flag-to-name"
	FormatNameToFlag QuizFormat = "name-to-flag"
)

// DefaultRegion is the unscoped leaderboard partition tag.
const DefaultRegion = "all"

// Valid reports whether the format is one of the two supported values.
func (f QuizFormat) Valid() bool {
	return f == FormatFlagToName || f == FormatNameToFlag
}

// RankingMode selects the daily or the capped all-time leaderboard.
type RankingMode string

const (
	ModeDaily   RankingMode = "daily"
	ModeAllTime RankingMode = "all_time"
)

// ScoreEntry is a single submitted attempt. Entries are immutable once
// stored; the all-time board only ever inserts or evicts whole rows.
type ScoreEntry struct {
	Nickname  string     `json:"nickname"`
	Score     int        `json:"score"`
	Region    string     `json:"region"`
	Format    QuizFormat `json:"format"`
	CreatedAt time.Time  `json:"created_at"`
}

// RankedEntry is a leaderboard row annotated with its 1-based position.
type RankedEntry struct {
	Rank      int       `json:"rank"`
	Nickname  string    `json:"nickname"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// Receipt is returned to the submitter: the rank of this exact
// submission within today's daily board for its (region, format) key.
type Receipt struct {
	Rank     int    `json:"rank"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
}

// StringList accepts both a bare string and an array of strings; the
// harvested dataset encodes single capitals without the array form.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = StringList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = StringList(many)
	return nil
}

// Country is one item of the harvested countries dataset
// (countries.<lang>.json), consumed read-only by the quiz engine.
type Country struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Capital      StringList `json:"capital"`
	Continent    string     `json:"continent"`
	FlagImageURL string     `json:"flag_image_url"`
	MapImageURL  string     `json:"map_image_url"`
	Description  string     `json:"description"`
	Summary      string     `json:"summary"`
}

// Painting is one item of the harvested paintings dataset
// (paintings.<lang>.json).
type Painting struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Artist      string `json:"artist"`
	Year        string `json:"year"`
	Medium      string `json:"medium"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description"`
	Culture     string `json:"culture"`
}
