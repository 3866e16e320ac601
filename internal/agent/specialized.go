package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/ronappleton/campaign-engine/internal/campaign"
)

// emotionTypes are the personalization targets, from the original campaign
// playbook.
var emotionTypes = []string{
	"HAPPY", "EXCITED", "CALM", "ANXIOUS", "CONFIDENT", "CURIOUS", "SAD",
	"ANGRY", "SCARED", "DISGUSTED", "SURPRISED", "LOVED", "JEALOUS",
}

// NewSocialMedia creates platform-specific social campaigns. One of the
// three fan-out agents; depends only on pre-fan-out artifacts.
func NewSocialMedia(llm Completer) Agent {
	return &textAgent{
		base: base{
			name:        NameSocialMedia,
			artifactKey: campaign.ArtifactSocialMediaCampaign,
			system: "You are the social media campaign specialist. Develop platform-specific " +
				"strategies for TikTok and Instagram: content ideas, trending hashtags, posting " +
				"schedules, engagement tactics, influencer collaborations, and user-generated " +
				"content campaigns aligned with the overall campaign goals.",
			llm: llm,
		},
		prompt: func(st *campaign.State) string {
			return fmt.Sprintf("Create a comprehensive social media campaign for TikTok and Instagram.\n"+
				"Campaign brief:\n%s\nStrategy:\n%s\nAudience personas:\n%s\nCreative concepts:\n%s\nCopy:\n%s",
				st.Brief.Summary(),
				st.Text(campaign.ArtifactStrategy),
				st.Text(campaign.ArtifactAudiencePersonas),
				st.Text(campaign.ArtifactCreativeConcepts),
				st.Text(campaign.ArtifactCopy))
		},
	}
}

// NewEmotionPersonalization produces messaging variants for each emotion
// type. One of the three fan-out agents.
func NewEmotionPersonalization(llm Completer) Agent {
	return &textAgent{
		base: base{
			name:        NameEmotionPersonalization,
			artifactKey: campaign.ArtifactEmotionPersonalization,
			system: "You are the emotion personalization specialist. Develop hyperpersonalized " +
				"campaign messages for each emotion type: copy variations, visual style " +
				"recommendations, tone adjustments, CTA variations, and engagement strategies.",
			llm: llm,
		},
		prompt: func(st *campaign.State) string {
			return fmt.Sprintf("Create personalized campaign messages for each of these emotion types: %s.\n"+
				"Campaign brief:\n%s\nCopy:\n%s\nCTA optimization:\n%s\nAudience personas:\n%s",
				strings.Join(emotionTypes, ", "),
				st.Brief.Summary(),
				st.Text(campaign.ArtifactCopy),
				st.Text(campaign.ArtifactCTAOptimization),
				st.Text(campaign.ArtifactAudiencePersonas))
		},
	}
}

// NewMediaPlanner recommends the distribution channel mix. One of the
// three fan-out agents.
func NewMediaPlanner(llm Completer) Agent {
	return &textAgent{
		base: base{
			name:        NameMediaPlanner,
			artifactKey: campaign.ArtifactMediaPlan,
			system: "You are the media planning specialist. Recommend the most effective ad " +
				"distribution channels based on the campaign brief, target audience, and budget. " +
				"Consider social media, paid search, display ads, and email marketing.",
			llm: llm,
		},
		prompt: func(st *campaign.State) string {
			return fmt.Sprintf("Based on this campaign brief:\n%s\nand audience personas:\n%s\n"+
				"Recommend the optimal media mix with specific platforms, budget allocation, and "+
				"reasoning for each recommendation.",
				st.Brief.Summary(),
				st.Text(campaign.ArtifactAudiencePersonas))
		},
	}
}

// NewReview evaluates the assembled campaign and produces structured
// feedback. Routing decisions belong to the quality gate, not the reviewer.
func NewReview(llm Completer) Agent {
	return &reviewAgent{llm: llm}
}

type reviewAgent struct {
	llm Completer
}

func (a *reviewAgent) Name() string { return NameReview }

func (a *reviewAgent) Run(ctx context.Context, st *campaign.State) (campaign.Update, error) {
	prompt := fmt.Sprintf("Review these campaign elements for effectiveness and alignment, and "+
		"provide specific feedback and recommendations:\nStrategy:\n%s\nCreative concepts:\n%s\n"+
		"Copy:\n%s\nCTA optimization:\n%s\nMedia plan:\n%s",
		st.Text(campaign.ArtifactStrategy),
		st.Text(campaign.ArtifactCreativeConcepts),
		st.Text(campaign.ArtifactCopy),
		st.Text(campaign.ArtifactCTAOptimization),
		st.Text(campaign.ArtifactMediaPlan))
	msgs := []campaign.Message{
		{Role: "system", Content: "You are the review team responsible for evaluating the campaign. " +
			"Assess the strategy, creative, copy, and visuals for effectiveness and alignment."},
		{Role: "user", Content: prompt},
	}
	out, err := a.llm.Complete(ctx, msgs, 0.3, 0)
	if err != nil {
		return a.Fallback(st, err), err
	}
	return campaign.Update{
		Artifacts: map[string]any{campaign.ArtifactReview: out},
		Messages:  []campaign.Message{{Role: "assistant", Content: out}},
		Feedback:  []string{out},
	}, nil
}

func (a *reviewAgent) Fallback(_ *campaign.State, cause error) campaign.Update {
	// Degraded review must not trigger another revision cycle, so the
	// fallback reads as approval.
	text := fmt.Sprintf("%s: review unavailable (%v). Campaign approved as-is; manual review recommended.",
		FallbackLabel, cause)
	return campaign.Update{
		Artifacts: map[string]any{campaign.ArtifactReview: text},
		Feedback:  []string{text},
	}
}
