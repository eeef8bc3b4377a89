package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/revops-cli/internal/model"
)

func TestClassify_Precedence(t *testing.T) {
	tests := []struct {
		label string
		want  model.Bucket
	}{
		{"Closed Won", model.BucketWon},
		{"closed-won!", model.BucketWon},
		{"Commit - Won", model.BucketWon},   // outcome outranks forecast
		{"Won, then lost", model.BucketWon}, // won outranks lost
		{"Closed Lost", model.BucketLost},
		{"closed lost - no budget", model.BucketLost},
		{"Closed/Loss", model.BucketLost},
		{"Commit", model.BucketCommit},
		{"Committed (verbal)", model.BucketCommit}, // prefix match
		{"Best Case", model.BucketBest},
		{"bestcase", model.BucketBest},
		{"Negotiation", model.BucketPipeline},
		{"Stage 2 - Discovery", model.BucketPipeline},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.label), "label %q", tt.label)
	}
}

func TestClassify_WholeTokenOnly(t *testing.T) {
	// Substrings inside larger words must not match outcome keywords.
	assert.Equal(t, model.BucketPipeline, Classify("wonder widgets"))
	assert.Equal(t, model.BucketPipeline, Classify("glossary review"))
	assert.Equal(t, model.BucketPipeline, Classify("asbestos abatement"))
}

func TestClassify_Degenerate(t *testing.T) {
	assert.Equal(t, model.BucketPipeline, Classify(""))
	assert.Equal(t, model.BucketPipeline, Classify("!!! --- ###"))
	assert.Equal(t, model.BucketPipeline, Classify("   "))
}

func TestClassify_Totality(t *testing.T) {
	// Every input maps to exactly one of the known buckets.
	inputs := []string{"", "won", "LOST", "commitment", "best and final", "qualified", "提案", "übernahme won"}
	for _, in := range inputs {
		b := Classify(in)
		assert.Contains(t, model.Buckets, b, "input %q", in)
	}
}
