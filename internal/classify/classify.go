// Package classify maps free-text deal-stage labels onto canonical forecast
// buckets. Stage names arrive inconsistently cased and punctuated
// ("Closed- WON!", "commit (verbal)"), so classification is tokenization
// plus an explicit precedence order rather than a lookup table.
package classify

import (
	"strings"
	"unicode"

	"github.com/sells-group/revops-cli/internal/model"
)

// Classify returns the canonical bucket for a raw stage label.
//
// The label is lower-cased and every run of non-letter characters collapses
// to a single space, with a leading and trailing space added so keywords can
// match as whole tokens. "won" and "lost"/"loss" match whole tokens only;
// "commit" and "best" match as token prefixes to tolerate suffixes like
// "committed" or "bestcase".
//
// Precedence, first match wins: Won, Lost, Commit, Best, Pipeline. Outcome
// keywords outrank forecast keywords because attainment math downstream keys
// on exact outcomes; a label carrying both ("Commit - Won") is Won. Flagged
// for product confirmation but deliberately stable.
//
// Empty or all-punctuation labels are Pipeline: an unclassifiable open deal
// still counts toward pipeline totals.
func Classify(raw string) model.Bucket {
	norm := normalize(raw)

	switch {
	case strings.Contains(norm, " won "):
		return model.BucketWon
	case strings.Contains(norm, " lost "), strings.Contains(norm, " loss "):
		return model.BucketLost
	case strings.Contains(norm, " commit"):
		return model.BucketCommit
	case strings.Contains(norm, " best"):
		return model.BucketBest
	default:
		return model.BucketPipeline
	}
}

// normalize lower-cases the label, collapses every maximal run of non-letter
// characters to one space, and pads both ends with a space.
func normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw) + 2)
	b.WriteByte(' ')

	inGap := true
	for _, r := range strings.ToLower(raw) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
			inGap = false
			continue
		}
		if !inGap {
			b.WriteByte(' ')
			inGap = true
		}
	}
	if !inGap {
		b.WriteByte(' ')
	}
	return b.String()
}
