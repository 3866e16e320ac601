package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ronappleton/campaign-engine/internal/campaign"
	"github.com/ronappleton/campaign-engine/internal/workflow"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("content-type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": s.runs.AgentNames()})
}

func (s *Server) handleCampaigns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSubmit(w, r)
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"items": s.runs.List()})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unable to read request body")
		return
	}
	brief, err := campaign.ParseBrief(body)
	if err != nil {
		var verr *campaign.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":  "invalid campaign brief",
				"fields": verr.Fields,
				"reason": verr.Reason,
			})
			return
		}
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	info, err := s.runs.StartRun(brief)
	if err != nil {
		switch {
		case errors.Is(err, workflow.ErrDraining):
			writeError(w, http.StatusServiceUnavailable, "service shutting down")
		case errors.Is(err, workflow.ErrBusy):
			writeError(w, http.StatusTooManyRequests, "submission queue full")
		default:
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		}
		return
	}
	s.logger.Info("campaign submitted", zap.String("run_id", info.ID))
	writeJSON(w, http.StatusAccepted, info)
}

func (s *Server) handleCampaignByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/campaigns/")
	if path == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(path, "/")
	id := parts[0]
	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}

	switch r.Method {
	case http.MethodGet:
		switch action {
		case "":
			info, err := s.runs.Status(id)
			if err != nil {
				writeError(w, http.StatusNotFound, "not found")
				return
			}
			writeJSON(w, http.StatusOK, info)
		case "result":
			s.handleResult(w, id)
		case "interactions":
			if len(parts) > 2 && parts[2] == "stream" {
				s.handleInteractionStream(w, r, id)
				return
			}
			s.handleInteractions(w, r, id)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	case http.MethodPost:
		if action != "cancel" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if err := s.runs.Cancel(id); err != nil {
			if errors.Is(err, workflow.ErrNotFound) {
				writeError(w, http.StatusNotFound, "not found")
				return
			}
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleResult(w http.ResponseWriter, id string) {
	state, err := s.runs.Result(id)
	if err != nil {
		if errors.Is(err, workflow.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeError(w, http.StatusConflict, "run has not finished")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		*campaign.State
		Analytics campaign.Analytics `json:"analytics"`
	}{state, state.Analytics()})
}

func (s *Server) handleInteractions(w http.ResponseWriter, r *http.Request, id string) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	entries, err := s.runs.Interactions(id, limit)
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": entries})
}

// handleInteractionStream serves the live interaction feed over SSE:
// history first, then entries as the run produces them, until the run
// ends or the client disconnects.
func (s *Server) handleInteractionStream(w http.ResponseWriter, r *http.Request, id string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	history, live, cancel, err := s.runs.Watch(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for _, in := range history {
		writeEvent(w, in)
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case in, open := <-live:
			if !open {
				return
			}
			writeEvent(w, in)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, in campaign.Interaction) {
	raw, err := json.Marshal(in)
	if err != nil {
		return
	}
	_, _ = w.Write([]byte("data: "))
	_, _ = w.Write(raw)
	_, _ = w.Write([]byte("\n\n"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
