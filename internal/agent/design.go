package agent

import (
	"context"
	"fmt"

	"github.com/ronappleton/campaign-engine/internal/campaign"
	"github.com/ronappleton/campaign-engine/internal/image"
)

// NewVisual produces the image prompt for the designer. It writes the
// visual artifact with the prompt only; the designer fills in the URL.
func NewVisual(llm Completer) Agent {
	return &visualAgent{llm: llm}
}

type visualAgent struct {
	llm Completer
}

func (a *visualAgent) Name() string { return NameVisual }

func (a *visualAgent) Run(ctx context.Context, st *campaign.State) (campaign.Update, error) {
	prompt := fmt.Sprintf("Based on this copy:\n%s\nand these concepts:\n%s\n"+
		"Create a detailed image prompt describing the ad in vivid visual terms. "+
		"Keep it under 3800 characters.",
		st.Text(campaign.ArtifactCopy),
		st.Text(campaign.ArtifactCreativeConcepts))
	msgs := []campaign.Message{
		{Role: "system", Content: "You are the visual design lead for this campaign. Create an image " +
			"prompt that describes the ad in vivid visual terms."},
		{Role: "user", Content: prompt},
	}
	out, err := a.llm.Complete(ctx, msgs, 0.7, 0)
	if err != nil {
		return a.Fallback(st, err), err
	}
	return campaign.Update{
		Artifacts: map[string]any{campaign.ArtifactVisual: campaign.Visual{ImagePrompt: out}},
		Messages:  []campaign.Message{{Role: "assistant", Content: out}},
	}, nil
}

func (a *visualAgent) Fallback(st *campaign.State, cause error) campaign.Update {
	// A brief-derived prompt keeps the designer stage meaningful even with
	// the LLM down.
	prompt := fmt.Sprintf("%s: marketing image for %s by %s, aimed at %s, color scheme %s",
		FallbackLabel, st.Brief.Product, st.Brief.Client, st.Brief.TargetAudience, st.Brief.ColorScheme)
	return campaign.Update{
		Artifacts: map[string]any{campaign.ArtifactVisual: campaign.Visual{ImagePrompt: prompt}},
	}
}

// NewDesigner generates the campaign image from the visual prompt through
// the image adapter. The adapter degrades to a placeholder reference on its
// own, so the designer always completes the visual artifact.
func NewDesigner(gen ImageGenerator) Agent {
	return &designerAgent{gen: gen}
}

type designerAgent struct {
	gen ImageGenerator
}

func (a *designerAgent) Name() string { return NameDesigner }

func (a *designerAgent) Run(ctx context.Context, st *campaign.State) (campaign.Update, error) {
	visual := st.VisualArtifact()
	if visual.ImagePrompt == "" {
		visual.ImagePrompt = fmt.Sprintf("Marketing image for %s by %s", st.Brief.Product, st.Brief.Client)
	}
	ref, err := a.gen.Generate(ctx, visual.ImagePrompt)
	visual.ImagePrompt = ref.Prompt
	visual.ImageURL = ref.URL
	visual.Placeholder = ref.Placeholder
	update := campaign.Update{
		Artifacts: map[string]any{campaign.ArtifactVisual: visual},
	}
	return update, err
}

func (a *designerAgent) Fallback(st *campaign.State, _ error) campaign.Update {
	visual := st.VisualArtifact()
	visual.ImageURL = image.PlaceholderURL
	visual.Placeholder = true
	return campaign.Update{
		Artifacts: map[string]any{campaign.ArtifactVisual: visual},
	}
}
