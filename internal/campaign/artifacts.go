package campaign

// Artifact keys written by the pipeline. Each agent owns one key; the
// visual/designer pair shares ArtifactVisual (prompt first, image URL after).
const (
	ArtifactProjectPlan            = "project_plan"
	ArtifactStrategy               = "strategy"
	ArtifactAudiencePersonas       = "audience_personas"
	ArtifactCreativeConcepts       = "creative_concepts"
	ArtifactCopy                   = "copy"
	ArtifactCTAOptimization        = "cta_optimization"
	ArtifactVisual                 = "visual"
	ArtifactSocialMediaCampaign    = "social_media_campaign"
	ArtifactEmotionPersonalization = "emotion_personalization"
	ArtifactMediaPlan              = "media_plan"
	ArtifactReview                 = "review"
	ArtifactCampaignSummary        = "campaign_summary"
	ArtifactClientSummary          = "client_summary"
	ArtifactWebsite                = "website"
	ArtifactHTMLValidation         = "html_validation"
	ArtifactPDFReport              = "pdf_report"
)

// AllArtifactKeys returns every key a fully completed run produces.
func AllArtifactKeys() []string {
	return []string{
		ArtifactProjectPlan,
		ArtifactStrategy,
		ArtifactAudiencePersonas,
		ArtifactCreativeConcepts,
		ArtifactCopy,
		ArtifactCTAOptimization,
		ArtifactVisual,
		ArtifactSocialMediaCampaign,
		ArtifactEmotionPersonalization,
		ArtifactMediaPlan,
		ArtifactReview,
		ArtifactCampaignSummary,
		ArtifactClientSummary,
		ArtifactWebsite,
		ArtifactHTMLValidation,
		ArtifactPDFReport,
	}
}

// Visual is the two-stage visual artifact: the visual agent writes the
// prompt, the designer fills in the generated image URL.
type Visual struct {
	ImagePrompt string `json:"image_prompt"`
	ImageURL    string `json:"image_url"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// ValidationReport is the html_validator agent's artifact.
type ValidationReport struct {
	Valid         bool     `json:"valid"`
	Issues        []string `json:"issues,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
	Fixes         []string `json:"fixes,omitempty"`
	CorrectedHTML string   `json:"corrected_html,omitempty"`
}

// Report is the pdf_generator agent's artifact: structured report content
// plus a reference the storage collaborator can resolve to rendered bytes.
type Report struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Reference string `json:"reference"`
}
