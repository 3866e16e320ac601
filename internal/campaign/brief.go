package campaign

import (
	"fmt"
	"strings"
)

// Brief is the immutable input describing the campaign to generate.
// It is validated once at submission and never mutated afterwards.
type Brief struct {
	Product                string   `json:"product" yaml:"product"`
	Client                 string   `json:"client" yaml:"client"`
	TargetAudience         string   `json:"target_audience" yaml:"target_audience"`
	Goals                  []string `json:"goals" yaml:"goals"`
	KeyFeatures            []string `json:"key_features" yaml:"key_features"`
	Budget                 string   `json:"budget" yaml:"budget"`
	Timeline               string   `json:"timeline" yaml:"timeline"`
	ColorScheme            string   `json:"color_scheme" yaml:"color_scheme"`
	Website                string   `json:"website,omitempty" yaml:"website,omitempty"`
	Logo                   string   `json:"logo,omitempty" yaml:"logo,omitempty"`
	AdditionalRequirements string   `json:"additional_requirements,omitempty" yaml:"additional_requirements,omitempty"`
}

// ValidationError reports a rejected campaign brief: either missing
// required fields or a schema violation.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid campaign brief: %s", e.Reason)
	}
	return fmt.Sprintf("invalid campaign brief: missing %s", strings.Join(e.Fields, ", "))
}

// Validate checks that every required field is present and non-empty.
func (b Brief) Validate() error {
	var missing []string
	if strings.TrimSpace(b.Product) == "" {
		missing = append(missing, "product")
	}
	if strings.TrimSpace(b.Client) == "" {
		missing = append(missing, "client")
	}
	if strings.TrimSpace(b.TargetAudience) == "" {
		missing = append(missing, "target_audience")
	}
	if len(b.Goals) == 0 {
		missing = append(missing, "goals")
	}
	if len(b.KeyFeatures) == 0 {
		missing = append(missing, "key_features")
	}
	if strings.TrimSpace(b.Budget) == "" {
		missing = append(missing, "budget")
	}
	if strings.TrimSpace(b.Timeline) == "" {
		missing = append(missing, "timeline")
	}
	if strings.TrimSpace(b.ColorScheme) == "" {
		missing = append(missing, "color_scheme")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// Summary renders the brief as prompt context for the agents.
func (b Brief) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Product: %s\nClient: %s\nTarget audience: %s\n", b.Product, b.Client, b.TargetAudience)
	fmt.Fprintf(&sb, "Goals: %s\nKey features: %s\n", strings.Join(b.Goals, "; "), strings.Join(b.KeyFeatures, "; "))
	fmt.Fprintf(&sb, "Budget: %s\nTimeline: %s\nColor scheme: %s\n", b.Budget, b.Timeline, b.ColorScheme)
	if b.Website != "" {
		fmt.Fprintf(&sb, "Website: %s\n", b.Website)
	}
	if b.AdditionalRequirements != "" {
		fmt.Fprintf(&sb, "Additional requirements: %s\n", b.AdditionalRequirements)
	}
	return sb.String()
}
