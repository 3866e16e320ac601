// Package agent implements the pipeline stages of the campaign workflow.
// Every agent consumes the shared state, optionally calls the LLM or image
// adapters, and returns a partial update. Agents never fail the pipeline:
// when an adapter is unavailable they substitute a deterministic,
// clearly-labeled fallback artifact and report the degradation through the
// returned error.
package agent

import (
	"context"
	"fmt"

	"github.com/ronappleton/campaign-engine/internal/campaign"
	"github.com/ronappleton/campaign-engine/internal/image"
)

// Agent step names, in documented pipeline order.
const (
	NameProjectManager         = "project_manager"
	NameStrategy               = "strategy"
	NameAudiencePersona        = "audience_persona"
	NameCreative               = "creative"
	NameCopy                   = "copy"
	NameCTAOptimizer           = "cta_optimizer"
	NameVisual                 = "visual"
	NameDesigner               = "designer"
	NameSocialMedia            = "social_media_campaign"
	NameEmotionPersonalization = "emotion_personalization"
	NameMediaPlanner           = "media_planner"
	NameReview                 = "review"
	NameCampaignSummary        = "campaign_summary"
	NameClientSummary          = "client_summary"
	NameWebDeveloper           = "web_developer"
	NameHTMLValidator          = "html_validator"
	NamePDFGenerator           = "pdf_generator"
)

// Completer is the LLM adapter surface agents depend on.
type Completer interface {
	Complete(ctx context.Context, messages []campaign.Message, temperature float64, maxTokens int) (string, error)
}

// ImageGenerator is the image adapter surface the designer depends on.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (image.Ref, error)
}

// Agent is one pipeline stage. Run returns the update to merge into state;
// a non-nil error means the update carries fallback content (the run is
// degraded at this step, never aborted). Fallback produces the same
// deterministic content without touching any adapter, for use when the
// circuit breaker is open or a step times out.
type Agent interface {
	Name() string
	Run(ctx context.Context, st *campaign.State) (campaign.Update, error)
	Fallback(st *campaign.State, cause error) campaign.Update
}

// FallbackLabel prefixes every substituted artifact so degraded content is
// unmistakable downstream.
const FallbackLabel = "FALLBACK CONTENT"

func fallbackText(agentName string, cause error) string {
	reason := "upstream service unavailable"
	if cause != nil {
		reason = cause.Error()
	}
	return fmt.Sprintf("%s (%s)\n\nGenerated placeholder: the %s stage could not reach its upstream service (%s). "+
		"The campaign continues with this placeholder; review and regenerate this section manually.",
		FallbackLabel, agentName, agentName, reason)
}

// base carries the fields shared by the LLM-backed agents.
type base struct {
	name        string
	artifactKey string
	system      string
	temperature float64
	llm         Completer
}

func (b *base) Name() string { return b.name }

func (b *base) complete(ctx context.Context, userPrompt string) (string, error) {
	msgs := []campaign.Message{
		{Role: "system", Content: b.system},
		{Role: "user", Content: userPrompt},
	}
	temp := b.temperature
	if temp == 0 {
		temp = 0.7
	}
	return b.llm.Complete(ctx, msgs, temp, 0)
}

func (b *base) Fallback(_ *campaign.State, cause error) campaign.Update {
	text := fallbackText(b.name, cause)
	return campaign.Update{
		Artifacts: map[string]any{b.artifactKey: text},
		Messages:  []campaign.Message{{Role: "assistant", Content: text}},
	}
}

// textAgent is the shape of the pure content-generation agents: build a
// prompt from upstream artifacts, call the LLM, write one artifact.
type textAgent struct {
	base
	prompt func(st *campaign.State) string
}

func (a *textAgent) Run(ctx context.Context, st *campaign.State) (campaign.Update, error) {
	out, err := a.complete(ctx, a.prompt(st))
	if err != nil {
		return a.Fallback(st, err), err
	}
	return campaign.Update{
		Artifacts: map[string]any{a.artifactKey: out},
		Messages:  []campaign.Message{{Role: "assistant", Content: out}},
	}, nil
}
