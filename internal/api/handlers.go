// HTTP surface over the backend manager. Every operation takes a
// workspace path; mutating operations use POST with a JSON body, reads
// use GET with query parameters.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"rewind/internal/backend"
	"rewind/internal/vcerrors"
	shared "rewind/shared/types"

	"go.uber.org/zap"
)

type CheckpointHandler struct {
	manager *backend.Manager
	logger  *zap.Logger
}

func NewCheckpointHandler(manager *backend.Manager, logger *zap.Logger) *CheckpointHandler {
	return &CheckpointHandler{manager: manager, logger: logger}
}

type checkpointRequest struct {
	Workspace string `json:"workspace"`
	Message   string `json:"message"`
}

type diffRequest struct {
	Workspace string `json:"workspace"`
	From      string `json:"from"`
	To        string `json:"to,omitempty"`
}

type revertRequest struct {
	Workspace string `json:"workspace"`
	Sha       string `json:"sha"`
}

type workspaceRequest struct {
	Workspace string `json:"workspace"`
}

type switchRequest struct {
	Type string `json:"type"`
}

func (h *CheckpointHandler) Checkpoint(w http.ResponseWriter, r *http.Request) {
	var req checkpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Workspace == "" {
		http.Error(w, "workspace is required", http.StatusBadRequest)
		return
	}

	outcome, err := h.manager.Backend().Checkpoint(r.Context(), req.Workspace, req.Message)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *CheckpointHandler) Diff(w http.ResponseWriter, r *http.Request) {
	var req diffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Workspace == "" || req.From == "" {
		http.Error(w, "workspace and from are required", http.StatusBadRequest)
		return
	}

	text, err := h.manager.Backend().Diff(r.Context(), req.Workspace, req.From, req.To)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"diff": text})
}

func (h *CheckpointHandler) Revert(w http.ResponseWriter, r *http.Request) {
	var req revertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Workspace == "" || req.Sha == "" {
		http.Error(w, "workspace and sha are required", http.StatusBadRequest)
		return
	}

	if err := h.manager.Backend().Revert(r.Context(), req.Workspace, req.Sha); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CheckpointHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	var req workspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Workspace == "" {
		http.Error(w, "workspace is required", http.StatusBadRequest)
		return
	}

	if err := h.manager.Backend().InitializeRepository(r.Context(), req.Workspace); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CheckpointHandler) HasRepository(w http.ResponseWriter, r *http.Request) {
	workspace := r.URL.Query().Get("workspace")
	if workspace == "" {
		http.Error(w, "workspace is required", http.StatusBadRequest)
		return
	}

	has, err := h.manager.Backend().HasRepository(r.Context(), workspace)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"has_repository": has})
}

func (h *CheckpointHandler) CurrentCommit(w http.ResponseWriter, r *http.Request) {
	workspace := r.URL.Query().Get("workspace")
	if workspace == "" {
		http.Error(w, "workspace is required", http.StatusBadRequest)
		return
	}

	hash, err := h.manager.Backend().GetCurrentCommit(r.Context(), workspace)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"hash": hash})
}

func (h *CheckpointHandler) History(w http.ResponseWriter, r *http.Request) {
	workspace := r.URL.Query().Get("workspace")
	if workspace == "" {
		http.Error(w, "workspace is required", http.StatusBadRequest)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	commits, err := h.manager.Backend().GetHistory(r.Context(), workspace, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if commits == nil {
		commits = []shared.Commit{}
	}
	writeJSON(w, http.StatusOK, commits)
}

func (h *CheckpointHandler) FileAtCommit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	workspace, sha, path := q.Get("workspace"), q.Get("sha"), q.Get("path")
	if workspace == "" || sha == "" || path == "" {
		http.Error(w, "workspace, sha and path are required", http.StatusBadRequest)
		return
	}

	content, err := h.manager.Backend().GetFileAtCommit(r.Context(), workspace, sha, path)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"content": content})
}

func (h *CheckpointHandler) BackendInfo(w http.ResponseWriter, r *http.Request) {
	b := h.manager.Backend()
	writeJSON(w, http.StatusOK, map[string]any{
		"type": b.GetBackendType(),
		"real": b.IsRealBackend(),
	})
}

func (h *CheckpointHandler) SwitchBackend(w http.ResponseWriter, r *http.Request) {
	var req switchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.manager.SwitchBackend(shared.BackendType(req.Type)); err != nil {
		h.writeError(w, err)
		return
	}
	h.BackendInfo(w, r)
}

func (h *CheckpointHandler) writeError(w http.ResponseWriter, err error) {
	var vcErr *vcerrors.Error
	status := http.StatusInternalServerError
	if errors.As(err, &vcErr) {
		switch vcErr.Type {
		case vcerrors.ErrorTypeWorkspaceNotFound:
			status = http.StatusNotFound
		case vcerrors.ErrorTypeUnsupported:
			status = http.StatusNotImplemented
		case vcerrors.ErrorTypeBackendUnavailable:
			status = http.StatusServiceUnavailable
		}
	}
	h.logger.Error("request failed", zap.Error(err))
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
