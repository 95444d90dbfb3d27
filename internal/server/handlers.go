package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opengovchat/decision-bot-go/internal/domain"
	"go.uber.org/zap"
)

const healthCheckTimeout = 2 * time.Second

type classifyRequest struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleClassify runs the deterministic classifier alone. No conversation
// state is touched, which makes it safe for integration probes.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "text is required"})
		return
	}

	result := s.deps.Classifier.Classify(text)
	writeJSON(w, http.StatusOK, result)
}

// handleChat routes a message through the full pipeline, conversation
// memory included. A request without a conversation id gets a fresh one.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "text is required"})
		return
	}
	if req.ConvID == "" {
		req.ConvID = uuid.NewString()
	}

	reply, err := s.deps.Router.Route(r.Context(), &req)
	if err != nil {
		s.logger.Error("Chat routing failed", zap.String("conv_id", req.ConvID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

// handleHealth reports dependency liveness. Missing optional dependencies
// are reported as absent rather than failing.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	payload := map[string]any{
		"time": time.Now().Format(time.RFC3339),
	}

	healthy := true

	redisOK := s.deps.Cache != nil && s.deps.Cache.IsConnected(ctx)
	payload["redis"] = redisOK
	healthy = healthy && redisOK

	pgOK := s.deps.Postgres != nil && s.deps.Postgres.Ping(ctx) == nil
	payload["postgres"] = pgOK
	healthy = healthy && pgOK

	if s.deps.Models != nil {
		status := s.deps.Models.GetCircuitStatus()
		payload["ai"] = map[string]any{
			"circuit_state": status.State.String(),
			"failures":      status.FailureCount,
		}
	}

	if sized, ok := s.deps.Router.(interface{ CacheSize() int }); ok {
		payload["classify_cache"] = sized.CacheSize()
	}

	if healthy {
		payload["status"] = "ok"
		writeJSON(w, http.StatusOK, payload)
		return
	}

	payload["status"] = "degraded"
	writeJSON(w, http.StatusServiceUnavailable, payload)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
