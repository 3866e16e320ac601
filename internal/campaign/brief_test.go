package campaign

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBriefJSON() []byte {
	return []byte(`{
		"product": "EcoBottle",
		"client": "GreenCo",
		"target_audience": "urban commuters aged 25-40",
		"goals": ["increase brand awareness"],
		"key_features": ["self-cleaning", "insulated"],
		"budget": "50k",
		"timeline": "6 weeks",
		"color_scheme": "forest green and white"
	}`)
}

func TestParseBriefValid(t *testing.T) {
	brief, err := ParseBrief(validBriefJSON())
	require.NoError(t, err)
	assert.Equal(t, "EcoBottle", brief.Product)
	assert.Equal(t, "GreenCo", brief.Client)
	assert.Len(t, brief.KeyFeatures, 2)
}

func TestParseBriefMissingFields(t *testing.T) {
	_, err := ParseBrief([]byte(`{"product": "EcoBottle"}`))
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.NotEmpty(t, verr.Reason)
}

func TestParseBriefEmptyArrays(t *testing.T) {
	_, err := ParseBrief([]byte(`{
		"product": "EcoBottle",
		"client": "GreenCo",
		"target_audience": "commuters",
		"goals": [],
		"key_features": ["x"],
		"budget": "50k",
		"timeline": "6 weeks",
		"color_scheme": "green"
	}`))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
}

func TestParseBriefBadJSON(t *testing.T) {
	_, err := ParseBrief([]byte(`{not json`))
	require.Error(t, err)
	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))
}

func TestValidateReportsEveryMissingField(t *testing.T) {
	err := Brief{Product: "x", Client: "y"}.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ElementsMatch(t, []string{
		"target_audience", "goals", "key_features", "budget", "timeline", "color_scheme",
	}, verr.Fields)
}

func TestSummaryIncludesOptionalFields(t *testing.T) {
	b := Brief{
		Product:        "EcoBottle",
		Client:         "GreenCo",
		TargetAudience: "commuters",
		Goals:          []string{"awareness"},
		KeyFeatures:    []string{"insulated"},
		Budget:         "50k",
		Timeline:       "6 weeks",
		ColorScheme:    "green",
		Website:        "https://example.com",
	}
	out := b.Summary()
	assert.Contains(t, out, "EcoBottle")
	assert.Contains(t, out, "https://example.com")
}
