// Package workflow drives campaign runs over a fixed agent graph: a
// sequential pipeline with one parallel fan-out stage, a quality-gated
// revision loop after review, and a bounded website re-generation edge.
package workflow

import (
	"strings"

	"github.com/ronappleton/campaign-engine/internal/agent"
)

// Stage is one scheduling unit. Stages with more than one agent run their
// agents concurrently and join before the next stage starts.
type Stage struct {
	Agents []string
}

// Parallel reports whether the stage fans out.
func (s Stage) Parallel() bool { return len(s.Agents) > 1 }

// Pipeline returns the stages in execution order.
func Pipeline() []Stage {
	return []Stage{
		{Agents: []string{agent.NameProjectManager}},
		{Agents: []string{agent.NameStrategy}},
		{Agents: []string{agent.NameAudiencePersona}},
		{Agents: []string{agent.NameCreative}},
		{Agents: []string{agent.NameCopy}},
		{Agents: []string{agent.NameCTAOptimizer}},
		{Agents: []string{agent.NameVisual}},
		{Agents: []string{agent.NameDesigner}},
		{Agents: []string{
			agent.NameSocialMedia,
			agent.NameEmotionPersonalization,
			agent.NameMediaPlanner,
		}},
		{Agents: []string{agent.NameReview}},
		{Agents: []string{agent.NameCampaignSummary}},
		{Agents: []string{agent.NameClientSummary}},
		{Agents: []string{agent.NameWebDeveloper}},
		{Agents: []string{agent.NameHTMLValidator}},
		{Agents: []string{agent.NamePDFGenerator}},
	}
}

// stageIndex returns the position of the stage whose first agent is name.
func stageIndex(stages []Stage, name string) int {
	for i, st := range stages {
		if st.Agents[0] == name {
			return i
		}
	}
	return -1
}

var copyFeedbackWords = []string{"copy", "text", "headline", "tagline", "message", "wording"}

// revisionTarget picks the agent a revision cycle restarts from, based on
// what the review feedback talks about. Copy-centric feedback goes back to
// the copy agent; everything else restarts from creative.
func revisionTarget(feedback string) string {
	lower := strings.ToLower(feedback)
	for _, w := range copyFeedbackWords {
		if strings.Contains(lower, w) {
			return agent.NameCopy
		}
	}
	return agent.NameCreative
}
