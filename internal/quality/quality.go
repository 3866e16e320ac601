// Package quality implements the scoring rubric and failure tracking that
// gate progression through the campaign workflow.
package quality

import (
	"strings"
	"unicode"

	"github.com/ronappleton/campaign-engine/internal/campaign"
)

// Weights is the additive rubric: points awarded per present, non-empty
// artifact. Policy, not business logic; the defaults cap at 100.
type Weights struct {
	Strategy         int
	CreativeConcepts int
	Copy             int
	Visual           int
	AudiencePersonas int
	CTAOptimization  int
}

// DefaultWeights returns the documented default rubric.
func DefaultWeights() Weights {
	return Weights{
		Strategy:         20,
		CreativeConcepts: 20,
		Copy:             20,
		Visual:           20,
		AudiencePersonas: 10,
		CTAOptimization:  10,
	}
}

// Checker assesses campaign quality and revision-worthiness.
type Checker struct {
	weights   Weights
	threshold int
}

// NewChecker creates a checker with the given rubric and pass threshold.
func NewChecker(w Weights, threshold int) *Checker {
	if threshold <= 0 {
		threshold = 80
	}
	return &Checker{weights: w, threshold: threshold}
}

// Threshold returns the pass score.
func (c *Checker) Threshold() int { return c.threshold }

// Assess scores artifact completeness, capped at 100. The visual artifact
// only counts once the designer has filled in an image URL.
func (c *Checker) Assess(st *campaign.State) int {
	score := 0
	if st.Text(campaign.ArtifactStrategy) != "" {
		score += c.weights.Strategy
	}
	if st.Text(campaign.ArtifactCreativeConcepts) != "" {
		score += c.weights.CreativeConcepts
	}
	if st.Text(campaign.ArtifactCopy) != "" {
		score += c.weights.Copy
	}
	if st.VisualArtifact().ImageURL != "" {
		score += c.weights.Visual
	}
	if st.Text(campaign.ArtifactAudiencePersonas) != "" {
		score += c.weights.AudiencePersonas
	}
	if st.Text(campaign.ArtifactCTAOptimization) != "" {
		score += c.weights.CTAOptimization
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Passed reports whether the score clears the threshold.
func (c *Checker) Passed(score int) bool {
	return score >= c.threshold
}

// HasSignificantChanges compares the current artifacts against the snapshot
// taken before the previous revision cycle. Fewer than two changed keys
// means further revision is unlikely to move the score.
func (c *Checker) HasSignificantChanges(st *campaign.State) bool {
	changes := 0
	for key, cur := range st.Artifacts {
		prev, ok := st.PreviousArtifacts[key]
		if !ok || prev != cur {
			changes++
		}
	}
	return changes >= 2
}

var (
	positiveIndicators = map[string]bool{
		"good": true, "great": true, "excellent": true,
		"approved": true, "satisfied": true, "perfect": true,
	}
	negativeIndicators = map[string]bool{
		"revise": true, "revised": true, "change": true, "changes": true,
		"improve": true, "fix": true, "fixed": true, "fixing": true,
		"wrong": true, "bad": true, "needs": true,
	}
)

// FeedbackRequestsRevision analyses the latest review feedback. Indicator
// words match whole tokens only, so "goods" is not praise. Revision is only
// worth another cycle when negative indicators outweigh positive ones.
func FeedbackRequestsRevision(feedback string) bool {
	words := strings.FieldsFunc(strings.ToLower(feedback), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	positives, negatives := 0, 0
	for _, w := range words {
		switch {
		case positiveIndicators[w]:
			positives++
		case negativeIndicators[w]:
			negatives++
		}
	}
	if positives > negatives {
		return false
	}
	return negatives > 0
}
