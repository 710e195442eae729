// Package ingest turns raw pasted text into a deduplicated batch of comments.
package ingest

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spacesedan/feedbacklens/internal/models"
)

const (
	// singleTokenMaxRunes is the longest line still treated as a single token.
	singleTokenMaxRunes = 3
	// singleTokenWarnPercent is exclusive: exactly 40% does not warn.
	singleTokenWarnPercent = 40.0
)

var ErrEmptyInput = errors.New("no comments found in input")

// Normalize splits raw on line breaks and builds a ParsedBatch from the
// non-empty trimmed lines.
func Normalize(raw string) (models.ParsedBatch, error) {
	return NormalizeLines(strings.Split(raw, "\n"))
}

// NormalizeLines applies the same rules as Normalize to text that has already
// been split, e.g. a column of a table. Entries holding line breaks are split
// further.
func NormalizeLines(lines []string) (models.ParsedBatch, error) {
	rawLines := make([]string, 0, len(lines))
	for _, entry := range lines {
		for _, line := range strings.Split(entry, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			rawLines = append(rawLines, line)
		}
	}

	if len(rawLines) == 0 {
		return models.ParsedBatch{}, ErrEmptyInput
	}

	singles := 0
	seen := make(map[string]struct{}, len(rawLines))
	comments := make([]models.Comment, 0, len(rawLines))
	for _, line := range rawLines {
		if IsSingleToken(line) {
			singles++
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		comments = append(comments, models.Comment(line))
	}

	pct := 100 * float64(singles) / float64(len(rawLines))

	return models.ParsedBatch{
		Comments:              comments,
		RawCount:              len(rawLines),
		UniqueCount:           len(comments),
		DuplicateCount:        len(rawLines) - len(comments),
		SingleTokenWarning:    pct > singleTokenWarnPercent,
		SingleTokenPercentage: pct,
	}, nil
}

// IsSingleToken reports whether a trimmed line is too short to be a genuine
// comment: at most three characters, or a single word.
func IsSingleToken(line string) bool {
	if utf8.RuneCountInString(line) <= singleTokenMaxRunes {
		return true
	}
	return strings.IndexFunc(line, unicode.IsSpace) < 0
}
