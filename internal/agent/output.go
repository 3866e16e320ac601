package agent

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/ronappleton/campaign-engine/internal/campaign"
	"github.com/ronappleton/campaign-engine/internal/image"
)

// NewCampaignSummary builds the agent that condenses the full campaign
// into an internal summary document.
func NewCampaignSummary(llm Completer) Agent {
	return &textAgent{
		base: base{
			name:        NameCampaignSummary,
			artifactKey: campaign.ArtifactCampaignSummary,
			system: "You are a marketing operations lead. Summarize the full campaign " +
				"for internal stakeholders: objectives, strategy, creative direction, " +
				"channel plan, and open risks. Be factual and concise.",
			llm: llm,
		},
		prompt: func(st *campaign.State) string {
			var b strings.Builder
			b.WriteString("Summarize the campaign below.\n\n")
			b.WriteString(st.Brief.Summary())
			for _, key := range []string{
				campaign.ArtifactStrategy,
				campaign.ArtifactCreativeConcepts,
				campaign.ArtifactCopy,
				campaign.ArtifactMediaPlan,
				campaign.ArtifactReview,
			} {
				if text := st.Text(key); text != "" {
					fmt.Fprintf(&b, "\n## %s\n%s\n", key, text)
				}
			}
			return b.String()
		},
	}
}

// NewClientSummary builds the agent that writes the client-facing
// summary: plain language, no internal process detail.
func NewClientSummary(llm Completer) Agent {
	return &textAgent{
		base: base{
			name:        NameClientSummary,
			artifactKey: campaign.ArtifactClientSummary,
			system: "You are an account manager presenting a finished campaign to a client. " +
				"Write a warm, clear summary of what was produced and why it will work. " +
				"No internal jargon, no process detail.",
			llm: llm,
		},
		prompt: func(st *campaign.State) string {
			var b strings.Builder
			fmt.Fprintf(&b, "Write the client summary for %s.\n\n", st.Brief.Client)
			b.WriteString(st.Brief.Summary())
			if text := st.Text(campaign.ArtifactCampaignSummary); text != "" {
				b.WriteString("\n## Internal summary\n")
				b.WriteString(text)
			}
			return b.String()
		},
	}
}

// webDeveloperAgent generates a single-page campaign website. When the
// LLM is unavailable it renders a deterministic page from the artifacts
// already in the state.
type webDeveloperAgent struct {
	base
}

func NewWebDeveloper(llm Completer) Agent {
	return &webDeveloperAgent{base: base{
		name:        NameWebDeveloper,
		artifactKey: campaign.ArtifactWebsite,
		system: "You are a front-end developer. Produce a complete, valid, single-file " +
			"HTML5 landing page: DOCTYPE, head with charset, viewport and title, embedded " +
			"CSS with media queries, semantic body sections. Output only the HTML document.",
		temperature: 0.4,
		llm:         llm,
	}}
}

func (a *webDeveloperAgent) Run(ctx context.Context, st *campaign.State) (campaign.Update, error) {
	var b strings.Builder
	b.WriteString("Build the landing page for this campaign.\n\n")
	b.WriteString(st.Brief.Summary())
	if text := st.Text(campaign.ArtifactCopy); text != "" {
		b.WriteString("\n## Copy\n")
		b.WriteString(text)
	}
	if text := st.Text(campaign.ArtifactCTAOptimization); text != "" {
		b.WriteString("\n## Calls to action\n")
		b.WriteString(text)
	}
	if vis := st.VisualArtifact(); vis.ImageURL != "" {
		fmt.Fprintf(&b, "\n## Hero image\nUse this image URL: %s\n", vis.ImageURL)
	}
	fmt.Fprintf(&b, "\nUse the color scheme: %s.\n", st.Brief.ColorScheme)

	out, err := a.complete(ctx, b.String())
	if err != nil {
		return a.Fallback(st, err), err
	}
	return campaign.Update{
		Artifacts: map[string]any{campaign.ArtifactWebsite: cleanHTML(out)},
		Messages:  []campaign.Message{{Role: "assistant", Content: "website generated"}},
	}, nil
}

var fallbackPage = template.Must(template.New("site").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Product}} | {{.Client}}</title>
<style>
body { font-family: sans-serif; margin: 0; color: #222; }
header { padding: 4rem 2rem; text-align: center; }
section { max-width: 48rem; margin: 0 auto; padding: 2rem; }
img { max-width: 100%; }
@media (max-width: 600px) { header { padding: 2rem 1rem; } }
</style>
</head>
<body>
<header>
<h1>{{.Product}}</h1>
<p>{{.Audience}}</p>
</header>
{{if .ImageURL}}<section><img src="{{.ImageURL}}" alt="{{.Product}}"></section>{{end}}
{{if .Copy}}<section><p>{{.Copy}}</p></section>{{end}}
<footer><section><p>&copy; {{.Client}}</p></section></footer>
</body>
</html>`))

func (a *webDeveloperAgent) Fallback(st *campaign.State, _ error) campaign.Update {
	vis := st.VisualArtifact()
	imageURL := vis.ImageURL
	if imageURL == "" {
		imageURL = image.PlaceholderURL
	}
	var buf bytes.Buffer
	err := fallbackPage.Execute(&buf, map[string]string{
		"Product":  st.Brief.Product,
		"Client":   st.Brief.Client,
		"Audience": st.Brief.TargetAudience,
		"Copy":     st.Text(campaign.ArtifactCopy),
		"ImageURL": imageURL,
	})
	if err != nil {
		return campaign.Update{
			Artifacts: map[string]any{campaign.ArtifactWebsite: fallbackText(a.name, err)},
		}
	}
	return campaign.Update{
		Artifacts: map[string]any{campaign.ArtifactWebsite: buf.String()},
		Messages:  []campaign.Message{{Role: "assistant", Content: FallbackLabel + ": static website rendered"}},
	}
}

// htmlValidatorAgent runs the structural checks over the generated
// website and, when issues are found, makes one LLM attempt to correct
// the document before reporting.
type htmlValidatorAgent struct {
	base
}

func NewHTMLValidator(llm Completer) Agent {
	return &htmlValidatorAgent{base: base{
		name:        NameHTMLValidator,
		artifactKey: campaign.ArtifactHTMLValidation,
		system: "You are an HTML validator. Fix the reported issues in the document " +
			"and return the corrected HTML only, with no commentary.",
		temperature: 0.1,
		llm:         llm,
	}}
}

func (a *htmlValidatorAgent) Run(ctx context.Context, st *campaign.State) (campaign.Update, error) {
	html := st.Text(campaign.ArtifactWebsite)
	if html == "" {
		report := campaign.ValidationReport{Issues: []string{"no website artifact to validate"}}
		return campaign.Update{
			Artifacts: map[string]any{campaign.ArtifactHTMLValidation: report},
		}, nil
	}

	html = cleanHTML(html)
	res := checkHTML(html)
	report := campaign.ValidationReport{
		Valid:    res.valid(),
		Issues:   res.Issues,
		Warnings: res.Warnings,
		Fixes:    res.Fixes,
	}
	update := campaign.Update{
		Artifacts: map[string]any{
			campaign.ArtifactHTMLValidation: report,
			campaign.ArtifactWebsite:        html,
		},
	}
	if report.Valid {
		update.Messages = []campaign.Message{{Role: "assistant", Content: "website validated"}}
		return update, nil
	}

	// One correction attempt, then report whatever remains.
	prompt := fmt.Sprintf("Issues found:\n- %s\n\nDocument:\n%s",
		strings.Join(res.Issues, "\n- "), html)
	fixed, err := a.complete(ctx, prompt)
	if err == nil {
		fixed = cleanHTML(fixed)
		if res := checkHTML(fixed); res.valid() {
			report.Valid = true
			report.CorrectedHTML = fixed
			update.Artifacts[campaign.ArtifactHTMLValidation] = report
			update.Artifacts[campaign.ArtifactWebsite] = fixed
			update.Messages = []campaign.Message{{Role: "assistant", Content: "website corrected and validated"}}
			return update, nil
		}
	}
	update.Messages = []campaign.Message{{Role: "assistant", Content: fmt.Sprintf("website validation found %d issues", len(report.Issues))}}
	return update, nil
}

func (a *htmlValidatorAgent) Fallback(st *campaign.State, _ error) campaign.Update {
	html := cleanHTML(st.Text(campaign.ArtifactWebsite))
	res := checkHTML(html)
	return campaign.Update{
		Artifacts: map[string]any{
			campaign.ArtifactHTMLValidation: campaign.ValidationReport{
				Valid:    res.valid(),
				Issues:   res.Issues,
				Warnings: res.Warnings,
				Fixes:    res.Fixes,
			},
		},
	}
}

// pdfGeneratorAgent composes the final campaign report. It is fully
// deterministic: the content is assembled from artifacts already in the
// state, no LLM call involved.
type pdfGeneratorAgent struct{}

func NewPDFGenerator() Agent { return pdfGeneratorAgent{} }

func (pdfGeneratorAgent) Name() string { return NamePDFGenerator }

func (pdfGeneratorAgent) Run(_ context.Context, st *campaign.State) (campaign.Update, error) {
	report := composeReport(st)
	return campaign.Update{
		Artifacts: map[string]any{campaign.ArtifactPDFReport: report},
		Messages:  []campaign.Message{{Role: "assistant", Content: "campaign report composed"}},
	}, nil
}

func (pdfGeneratorAgent) Fallback(st *campaign.State, _ error) campaign.Update {
	return campaign.Update{
		Artifacts: map[string]any{campaign.ArtifactPDFReport: composeReport(st)},
	}
}

var reportSections = []struct {
	key   string
	title string
}{
	{campaign.ArtifactProjectPlan, "Project Plan"},
	{campaign.ArtifactStrategy, "Strategy"},
	{campaign.ArtifactAudiencePersonas, "Audience Personas"},
	{campaign.ArtifactCreativeConcepts, "Creative Concepts"},
	{campaign.ArtifactCopy, "Copy"},
	{campaign.ArtifactCTAOptimization, "Call-to-Action Optimization"},
	{campaign.ArtifactSocialMediaCampaign, "Social Media Campaign"},
	{campaign.ArtifactEmotionPersonalization, "Emotion Personalization"},
	{campaign.ArtifactMediaPlan, "Media Plan"},
	{campaign.ArtifactReview, "Review"},
	{campaign.ArtifactCampaignSummary, "Campaign Summary"},
	{campaign.ArtifactClientSummary, "Client Summary"},
}

func composeReport(st *campaign.State) campaign.Report {
	title := fmt.Sprintf("%s Campaign Report", st.Brief.Product)
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\nClient: %s\nGenerated: %s\n",
		st.Brief.Product, st.Brief.Client, time.Now().UTC().Format(time.RFC3339))
	for _, s := range reportSections {
		if text := st.Text(s.key); text != "" {
			fmt.Fprintf(&b, "\n## %s\n\n%s\n", s.title, text)
		}
	}
	if vis := st.VisualArtifact(); vis.ImageURL != "" {
		fmt.Fprintf(&b, "\n## Campaign Visual\n\n%s\n", vis.ImageURL)
	}
	return campaign.Report{
		Title:     title,
		Content:   b.String(),
		Reference: fmt.Sprintf("reports/%s.pdf", st.RunID),
	}
}
