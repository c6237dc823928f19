package ranking

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"flag-trivia-service/internal/domain"
)

const (
	maxNicknameLen = 20
	maxScore       = 1000000
)

// Patterns match the submission contract: raw or entity-encoded angle
// brackets, script/protocol/handler injection attempts, and control
// characters are all rejected.
var (
	unsafeNickname = regexp.MustCompile(`(?i)[<>]|&lt;|&gt;|<script|javascript:|on\w+=`)
	controlChars   = regexp.MustCompile(`[\x00-\x1f\x7f-\x9f]`)
)

// Submission is the raw client input to SubmitScore. Region and Format
// are optional; empty values take the documented defaults.
type Submission struct {
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
	Region   string `json:"region"`
	Format   string `json:"format"`
}

// validate rejects malformed input before any persistence and fills in
// defaults. The returned entry has no CreatedAt yet.
func validate(sub Submission) (domain.ScoreEntry, *domain.ValidationError) {
	var fields []domain.FieldError

	nickname := strings.TrimSpace(sub.Nickname)
	switch {
	case nickname == "":
		fields = append(fields, domain.FieldError{Field: "nickname", Message: "nickname is required"})
	case utf8.RuneCountInString(nickname) > maxNicknameLen:
		fields = append(fields, domain.FieldError{Field: "nickname", Message: "nickname must be 20 characters or fewer"})
	case unsafeNickname.MatchString(nickname):
		fields = append(fields, domain.FieldError{Field: "nickname", Message: "nickname contains forbidden characters"})
	case controlChars.MatchString(nickname):
		fields = append(fields, domain.FieldError{Field: "nickname", Message: "nickname must not contain control characters"})
	}

	if sub.Score < 0 || sub.Score > maxScore {
		fields = append(fields, domain.FieldError{Field: "score", Message: "score must be between 0 and 1000000"})
	}

	region := sub.Region
	if region == "" {
		region = domain.DefaultRegion
	}

	format := domain.QuizFormat(sub.Format)
	if sub.Format == "" {
		format = domain.FormatFlagToName
	} else if !format.Valid() {
		fields = append(fields, domain.FieldError{Field: "format", Message: "format must be flag-to-name or name-to-flag"})
	}

	if len(fields) > 0 {
		return domain.ScoreEntry{}, &domain.ValidationError{Fields: fields}
	}

	return domain.ScoreEntry{
		Nickname: nickname,
		Score:    sub.Score,
		Region:   region,
		Format:   format,
	}, nil
}
