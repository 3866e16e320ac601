package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ronappleton/campaign-engine/internal/campaign"
)

func TestWebDeveloperCleansLLMOutput(t *testing.T) {
	llm := &fakeCompleter{reply: func([]campaign.Message) string {
		return "```html\n<html lang=\"en\"><head><title>x</title></head><body></body></html>\n```"
	}}
	st := campaign.NewState("run-1", testBrief())

	upd, err := NewWebDeveloper(llm).Run(context.Background(), st)
	require.NoError(t, err)
	html, _ := upd.Artifacts[campaign.ArtifactWebsite].(string)
	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.NotContains(t, html, "```")
}

func TestWebDeveloperFallbackRendersValidPage(t *testing.T) {
	st := campaign.NewState("run-1", testBrief())
	st.Apply(campaign.Update{Artifacts: map[string]any{campaign.ArtifactCopy: "Stay hydrated."}})

	upd := NewWebDeveloper(&fakeCompleter{}).Fallback(st, errors.New("llm down"))
	html, _ := upd.Artifacts[campaign.ArtifactWebsite].(string)
	require.NotEmpty(t, html)

	res := checkHTML(html)
	assert.True(t, res.valid(), strings.Join(res.Issues, "; "))
	assert.Contains(t, html, "EcoBottle")
	assert.Contains(t, html, "Stay hydrated.")
}

func TestHTMLValidatorApprovesValidSite(t *testing.T) {
	st := campaign.NewState("run-1", testBrief())
	st.Apply(campaign.Update{Artifacts: map[string]any{campaign.ArtifactWebsite: validPage}})

	llm := &fakeCompleter{}
	upd, err := NewHTMLValidator(llm).Run(context.Background(), st)
	require.NoError(t, err)
	report, ok := upd.Artifacts[campaign.ArtifactHTMLValidation].(campaign.ValidationReport)
	require.True(t, ok)
	assert.True(t, report.Valid)
	assert.Zero(t, llm.calls)
}

func TestHTMLValidatorCorrectsBrokenSite(t *testing.T) {
	st := campaign.NewState("run-1", testBrief())
	st.Apply(campaign.Update{Artifacts: map[string]any{campaign.ArtifactWebsite: "<div>broken</div>"}})

	llm := &fakeCompleter{reply: func([]campaign.Message) string { return validPage }}
	upd, err := NewHTMLValidator(llm).Run(context.Background(), st)
	require.NoError(t, err)

	report := upd.Artifacts[campaign.ArtifactHTMLValidation].(campaign.ValidationReport)
	assert.True(t, report.Valid)
	assert.NotEmpty(t, report.CorrectedHTML)
	assert.Equal(t, 1, llm.calls)

	site, _ := upd.Artifacts[campaign.ArtifactWebsite].(string)
	assert.True(t, checkHTML(site).valid())
}

func TestHTMLValidatorReportsWhenCorrectionFails(t *testing.T) {
	st := campaign.NewState("run-1", testBrief())
	st.Apply(campaign.Update{Artifacts: map[string]any{campaign.ArtifactWebsite: "<div>broken</div>"}})

	llm := &fakeCompleter{err: errors.New("llm down")}
	upd, err := NewHTMLValidator(llm).Run(context.Background(), st)
	require.NoError(t, err)

	report := upd.Artifacts[campaign.ArtifactHTMLValidation].(campaign.ValidationReport)
	assert.False(t, report.Valid)
	assert.NotEmpty(t, report.Issues)
}

func TestHTMLValidatorMissingWebsite(t *testing.T) {
	st := campaign.NewState("run-1", testBrief())
	upd, err := NewHTMLValidator(&fakeCompleter{}).Run(context.Background(), st)
	require.NoError(t, err)
	report := upd.Artifacts[campaign.ArtifactHTMLValidation].(campaign.ValidationReport)
	assert.False(t, report.Valid)
}

func TestPDFGeneratorComposesReport(t *testing.T) {
	st := campaign.NewState("run-9", testBrief())
	st.Apply(campaign.Update{Artifacts: map[string]any{
		campaign.ArtifactStrategy:        "the strategy",
		campaign.ArtifactCampaignSummary: "the summary",
		campaign.ArtifactVisual:          campaign.Visual{ImageURL: "https://cdn.example/hero.png"},
	}})

	upd, err := NewPDFGenerator().Run(context.Background(), st)
	require.NoError(t, err)
	report, ok := upd.Artifacts[campaign.ArtifactPDFReport].(campaign.Report)
	require.True(t, ok)
	assert.Equal(t, "EcoBottle Campaign Report", report.Title)
	assert.Equal(t, "reports/run-9.pdf", report.Reference)
	assert.Contains(t, report.Content, "the strategy")
	assert.Contains(t, report.Content, "https://cdn.example/hero.png")
}
