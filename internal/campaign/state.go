package campaign

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle state of a campaign run.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusComplete Status = "completed"
	StatusDegraded Status = "completed_with_degradation"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Terminal reports whether a status is absorbing.
func (s Status) Terminal() bool {
	switch s {
	case StatusComplete, StatusDegraded, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// TotalSteps is the number of agents in the pipeline.
const TotalSteps = 17

// Message is one entry of the conversational context carried into prompts.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Progress marks where a run currently is in the pipeline.
type Progress struct {
	CurrentStep    string    `json:"current_step"`
	CompletedSteps int       `json:"completed_steps"`
	TotalSteps     int       `json:"total_steps"`
	CurrentAgent   string    `json:"current_agent"`
	LastUpdate     time.Time `json:"last_update"`
}

// Update is the partial state change an agent returns. The scheduler is the
// only writer of State, so agents stay race-free during the fan-out stage.
type Update struct {
	Artifacts map[string]any `json:"artifacts,omitempty"`
	Messages  []Message      `json:"messages,omitempty"`
	Feedback  []string       `json:"feedback,omitempty"`
}

// State is the single mutable record threaded through one campaign run.
// Artifacts accumulate additively; a key once written is never removed.
type State struct {
	RunID             string         `json:"run_id"`
	Brief             Brief          `json:"campaign_brief"`
	Messages          []Message      `json:"messages"`
	Artifacts         map[string]any `json:"artifacts"`
	Feedback          []string       `json:"feedback"`
	RevisionCount     int            `json:"revision_count"`
	Progress          Progress       `json:"progress"`
	QualityScore      int            `json:"quality_score"`
	ExecutionTime     time.Duration  `json:"execution_time"`
	PreviousArtifacts map[string]any `json:"-"`
	StartedAt         time.Time      `json:"started_at"`
}

// NewState creates the initial state for a run: brief populated, everything
// else empty.
func NewState(runID string, brief Brief) *State {
	return &State{
		RunID:     runID,
		Brief:     brief,
		Artifacts: map[string]any{},
		Progress: Progress{
			TotalSteps:   TotalSteps,
			CurrentAgent: "system",
			LastUpdate:   time.Now().UTC(),
		},
		PreviousArtifacts: map[string]any{},
		StartedAt:         time.Now().UTC(),
	}
}

// Apply merges an agent's partial update into the state.
func (s *State) Apply(u Update) {
	for k, v := range u.Artifacts {
		s.Artifacts[k] = v
	}
	s.Messages = append(s.Messages, u.Messages...)
	s.Feedback = append(s.Feedback, u.Feedback...)
}

// Text returns a string artifact, or "" when absent or not a string.
func (s *State) Text(key string) string {
	if v, ok := s.Artifacts[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

// VisualArtifact returns the visual artifact, zero-valued when absent.
func (s *State) VisualArtifact() Visual {
	if v, ok := s.Artifacts[ArtifactVisual].(Visual); ok {
		return v
	}
	return Visual{}
}

// LastFeedback returns the most recent review feedback, or "".
func (s *State) LastFeedback() string {
	if len(s.Feedback) == 0 {
		return ""
	}
	return s.Feedback[len(s.Feedback)-1]
}

// SnapshotArtifacts records the current artifact set for change detection
// across revision cycles.
func (s *State) SnapshotArtifacts() {
	snap := make(map[string]any, len(s.Artifacts))
	for k, v := range s.Artifacts {
		snap[k] = v
	}
	s.PreviousArtifacts = snap
}

// MarkStep updates the progress marker for an agent invocation. Revision
// cycles re-run stages, so the raw invocation count can exceed the pipeline
// length; completed steps are capped at the total.
func (s *State) MarkStep(agent string, completed int) {
	s.Progress.CurrentStep = agent
	s.Progress.CurrentAgent = agent
	if completed > s.Progress.TotalSteps {
		completed = s.Progress.TotalSteps
	}
	s.Progress.CompletedSteps = completed
	s.Progress.LastUpdate = time.Now().UTC()
}

// Analytics summarizes a finished run for result payloads: how many passes
// the pipeline took, how long it ran, and how much content each agent
// produced.
type Analytics struct {
	Iterations    int            `json:"iterations"`
	Duration      string         `json:"duration"`
	QualityScore  int            `json:"quality_score"`
	ArtifactSizes map[string]int `json:"artifact_sizes"`
}

// Analytics derives the run summary from the current state.
func (s *State) Analytics() Analytics {
	sizes := make(map[string]int, len(s.Artifacts))
	for k, v := range s.Artifacts {
		if text, ok := v.(string); ok {
			sizes[k] = len(text)
			continue
		}
		if raw, err := json.Marshal(v); err == nil {
			sizes[k] = len(raw)
		}
	}
	return Analytics{
		Iterations:    s.RevisionCount + 1,
		Duration:      s.ExecutionTime.String(),
		QualityScore:  s.QualityScore,
		ArtifactSizes: sizes,
	}
}
