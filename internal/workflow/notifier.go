package workflow

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ronappleton/campaign-engine/internal/campaign"
)

// Notifier posts run and step lifecycle events to a webhook. A nil notifier
// or an empty URL disables delivery; events are fire-and-forget.
type Notifier struct {
	url    string
	client *http.Client
}

func NewNotifier(url, timeout string) *Notifier {
	if url == "" {
		return nil
	}
	dur, err := time.ParseDuration(timeout)
	if err != nil || dur <= 0 {
		dur = 5 * time.Second
	}
	return &Notifier{
		url:    url,
		client: &http.Client{Timeout: dur},
	}
}

func (n *Notifier) RunEvent(r RunRecord, event, note string) {
	if n == nil {
		return
	}
	n.postJSON(map[string]any{
		"event":  event,
		"run_id": r.ID,
		"status": string(r.Status),
		"client": r.Brief.Client,
		"note":   note,
		"ts":     time.Now().UTC().Format(time.RFC3339),
	})
}

func (n *Notifier) StepEvent(runID string, in campaign.Interaction) {
	if n == nil {
		return
	}
	n.postJSON(map[string]any{
		"event":       "step." + string(in.Status),
		"run_id":      runID,
		"agent":       in.Agent,
		"action":      in.Action,
		"message":     in.Message,
		"step_status": string(in.Status),
		"ts":          in.Timestamp.UTC().Format(time.RFC3339),
	})
}

func (n *Notifier) postJSON(payload map[string]any) {
	raw, _ := json.Marshal(payload)
	req, err := http.NewRequest(http.MethodPost, n.url, bytes.NewReader(raw))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}
