package api

import (
	"net/http"

	"flanergide/pkg/auth"
	"flanergide/pkg/logger"
	"flanergide/pkg/models"
)

type pullRequest struct {
	Since int64 `json:"since"`
}

func (a *API) handlePull(w http.ResponseWriter, r *http.Request) {
	var req pullRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := a.Sync.Pull(r.Context(), req.Since)
	if err != nil {
		logger.Error("sync_pull_failed", "err", err)
		respondErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type pushRequest struct {
	Events []models.IncomingEvent `json:"events"`
}

func (a *API) handlePush(w http.ResponseWriter, r *http.Request) {
	var req pushRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := a.Sync.Push(r.Context(), req.Events)
	if err != nil {
		logger.Error("sync_push_failed", "err", err)
		respondErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type logsUploadRequest struct {
	Logs []models.LogEntry `json:"logs"`
}

func (a *API) handleLogsUpload(w http.ResponseWriter, r *http.Request) {
	var req logsUploadRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	indexed, err := a.Sync.Logs(r.Context(), auth.DeviceFromContext(r.Context()), req.Logs)
	if err != nil {
		logger.Error("logs_upload_failed", "err", err)
		respondErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{
		"received": len(req.Logs),
		"indexed":  indexed,
	})
}

type logsSearchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

func (a *API) handleLogsSearch(w http.ResponseWriter, r *http.Request) {
	var req logsSearchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Query == "" {
		respondErr(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.K == 0 {
		req.K = 10
	}
	hits, err := a.Events.Search(r.Context(), req.Query, req.K, models.SearchFilter{Kind: "captured_text"})
	if err != nil {
		logger.Error("logs_search_failed", "err", err)
		respondErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	if hits == nil {
		hits = []models.SearchHit{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": hits})
}
