package agent

import "fmt"

// Roster holds the full set of pipeline agents, indexed by name.
type Roster struct {
	byName map[string]Agent
}

// NewRoster wires every pipeline agent against the given adapters.
func NewRoster(llm Completer, images ImageGenerator) *Roster {
	agents := []Agent{
		NewProjectManager(llm),
		NewStrategy(llm),
		NewAudiencePersona(llm),
		NewCreative(llm),
		NewCopy(llm),
		NewCTAOptimizer(llm),
		NewVisual(llm),
		NewDesigner(images),
		NewSocialMedia(llm),
		NewEmotionPersonalization(llm),
		NewMediaPlanner(llm),
		NewReview(llm),
		NewCampaignSummary(llm),
		NewClientSummary(llm),
		NewWebDeveloper(llm),
		NewHTMLValidator(llm),
		NewPDFGenerator(),
	}
	byName := make(map[string]Agent, len(agents))
	for _, a := range agents {
		byName[a.Name()] = a
	}
	return &Roster{byName: byName}
}

// Get returns the agent registered under name.
func (r *Roster) Get(name string) (Agent, error) {
	a, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("agent: unknown agent %q", name)
	}
	return a, nil
}

// Len reports how many agents are registered.
func (r *Roster) Len() int { return len(r.byName) }
