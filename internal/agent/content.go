package agent

import (
	"fmt"
	"strings"

	"github.com/ronappleton/campaign-engine/internal/campaign"
)

// NewProjectManager builds the coordination hub: it reads current progress
// and accumulated feedback and writes the project plan for the run.
func NewProjectManager(llm Completer) Agent {
	return &textAgent{
		base: base{
			name:        NameProjectManager,
			artifactKey: campaign.ArtifactProjectPlan,
			system: "You are a project manager coordinating an ad campaign creation. " +
				"Oversee the workflow, keep the teams aligned, and decide the next actions. " +
				"If feedback indicates improvements are needed, name the specific areas to revise.",
			llm: llm,
		},
		prompt: func(st *campaign.State) string {
			var sb strings.Builder
			fmt.Fprintf(&sb, "Campaign brief:\n%s\n", st.Brief.Summary())
			fmt.Fprintf(&sb, "Completed steps: %d of %d. Revision cycles so far: %d.\n",
				st.Progress.CompletedSteps, st.Progress.TotalSteps, st.RevisionCount)
			if fb := st.LastFeedback(); fb != "" {
				fmt.Fprintf(&sb, "Latest review feedback:\n%s\n", fb)
			}
			sb.WriteString("Produce the project plan and the next actions for the team.")
			return sb.String()
		},
	}
}

// NewStrategy analyzes the brief and writes the strategic direction.
func NewStrategy(llm Completer) Agent {
	return &textAgent{
		base: base{
			name:        NameStrategy,
			artifactKey: campaign.ArtifactStrategy,
			system: "You are the strategy team responsible for analyzing campaign requirements. " +
				"Provide strategic recommendations for targeting, messaging, and positioning. " +
				"Focus on actionable insights that will guide creative development.",
			llm: llm,
		},
		prompt: func(st *campaign.State) string {
			p := "Analyze this campaign brief and provide the campaign strategy:\n" + st.Brief.Summary()
			if fb := st.LastFeedback(); fb != "" && st.RevisionCount > 0 {
				p += "\nIncorporate this review feedback:\n" + fb
			}
			return p
		},
	}
}

// NewAudiencePersona builds 2-3 detailed audience personas from the brief.
func NewAudiencePersona(llm Completer) Agent {
	return &textAgent{
		base: base{
			name:        NameAudiencePersona,
			artifactKey: campaign.ArtifactAudiencePersonas,
			system: "You are the audience persona specialist. Build detailed personas from the " +
				"campaign brief to guide creative direction, tone, and targeting decisions.",
			llm: llm,
		},
		prompt: func(st *campaign.State) string {
			return "Based on this campaign brief, create 2-3 detailed audience personas including " +
				"demographics, psychographics, pain points, motivations, and preferred channels:\n" +
				st.Brief.Summary()
		},
	}
}

// NewCreative generates creative concepts from the strategy.
func NewCreative(llm Completer) Agent {
	return &textAgent{
		base: base{
			name:        NameCreative,
			artifactKey: campaign.ArtifactCreativeConcepts,
			system: "You are the creative team responsible for generating innovative ad concepts. " +
				"Generate compelling creative concepts that align with the strategy, including " +
				"visual direction and thematic elements.",
			llm: llm,
		},
		prompt: func(st *campaign.State) string {
			p := fmt.Sprintf("Based on this strategy:\n%s\nGenerate creative concepts for the campaign.",
				st.Text(campaign.ArtifactStrategy))
			if fb := st.LastFeedback(); fb != "" && st.RevisionCount > 0 {
				p += "\nAddress this review feedback:\n" + fb
			}
			return p
		},
	}
}

// NewCopy writes the ad copy from the creative concepts.
func NewCopy(llm Completer) Agent {
	return &textAgent{
		base: base{
			name:        NameCopy,
			artifactKey: campaign.ArtifactCopy,
			system: "You are the copywriting team responsible for creating compelling ad copy. " +
				"Write engaging headlines, body copy, and calls-to-action aligned with the " +
				"creative concepts. Ensure copy is persuasive and on-brand.",
			llm: llm,
		},
		prompt: func(st *campaign.State) string {
			p := fmt.Sprintf("Based on these concepts:\n%s\nWrite the ad copy.",
				st.Text(campaign.ArtifactCreativeConcepts))
			if fb := st.LastFeedback(); fb != "" && st.RevisionCount > 0 {
				p += "\nAddress this review feedback:\n" + fb
			}
			return p
		},
	}
}

// NewCTAOptimizer suggests optimal calls-to-action for the campaign.
func NewCTAOptimizer(llm Completer) Agent {
	return &textAgent{
		base: base{
			name:        NameCTAOptimizer,
			artifactKey: campaign.ArtifactCTAOptimization,
			system: "You are the CTA optimization specialist. Analyze the campaign brief, target " +
				"audience, and goals to suggest the most effective calls-to-action. Consider " +
				"psychological triggers, urgency, and audience-specific language.",
			llm: llm,
		},
		prompt: func(st *campaign.State) string {
			return fmt.Sprintf("Campaign brief:\n%s\nStrategy:\n%s\nCopy:\n%s\n"+
				"Suggest 3-5 optimal CTAs with explanations for why each would be effective.",
				st.Brief.Summary(),
				st.Text(campaign.ArtifactStrategy),
				st.Text(campaign.ArtifactCopy))
		},
	}
}
