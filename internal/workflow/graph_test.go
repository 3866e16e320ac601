package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ronappleton/campaign-engine/internal/agent"
	"github.com/ronappleton/campaign-engine/internal/campaign"
)

func TestPipelineShape(t *testing.T) {
	stages := Pipeline()

	total := 0
	for _, st := range stages {
		assert.NotEmpty(t, st.Agents)
		total += len(st.Agents)
	}
	assert.Equal(t, campaign.TotalSteps, total)

	assert.Equal(t, agent.NameProjectManager, stages[0].Agents[0])
	assert.Equal(t, agent.NamePDFGenerator, stages[len(stages)-1].Agents[0])

	var parallel []Stage
	for _, st := range stages {
		if st.Parallel() {
			parallel = append(parallel, st)
		}
	}
	assert.Len(t, parallel, 1)
	assert.ElementsMatch(t, []string{
		agent.NameSocialMedia,
		agent.NameEmotionPersonalization,
		agent.NameMediaPlanner,
	}, parallel[0].Agents)
}

func TestStageIndex(t *testing.T) {
	stages := Pipeline()
	i := stageIndex(stages, agent.NameCopy)
	assert.GreaterOrEqual(t, i, 0)
	assert.Equal(t, []string{agent.NameCopy}, stages[i].Agents)

	assert.Equal(t, -1, stageIndex(stages, "nonexistent"))
}

func TestRevisionTarget(t *testing.T) {
	tests := []struct {
		feedback string
		want     string
	}{
		{"Please fix the headline and tagline.", agent.NameCopy},
		{"The wording feels off.", agent.NameCopy},
		{"Rework the message for clarity.", agent.NameCopy},
		{"The concept does not land with the audience.", agent.NameCreative},
		{"Needs a bolder visual direction.", agent.NameCreative},
		{"", agent.NameCreative},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, revisionTarget(tt.feedback), tt.feedback)
	}
}
