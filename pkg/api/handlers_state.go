package api

import (
	"errors"
	"net/http"

	"flanergide/internal/refresh"
	"flanergide/pkg/logger"
	"flanergide/pkg/state"
	"flanergide/pkg/telemetry"
)

func (a *API) handleStateCurrent(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, a.State.Snapshot())
}

type moodRequest struct {
	Mood    string `json:"mood"`
	Context string `json:"context"`
}

func (a *API) handleSetMood(w http.ResponseWriter, r *http.Request) {
	var req moodRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := a.State.SetMood(req.Mood, req.Context); err != nil {
		if errors.Is(err, state.ErrInvalidMood) {
			respondErr(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("set_mood_failed", "err", err)
		respondErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, a.State.Mood())
}

func (a *API) handleBlog(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{
		"posts":    a.State.Posts(),
		"thoughts": a.State.Thoughts(),
	}
	if a.Refresher != nil {
		st := a.Refresher.Status()
		resp["next_refresh"] = st.NextRefresh
		resp["last_refresh"] = st.LastRun
	}
	respondJSON(w, http.StatusOK, resp)
}

func (a *API) handleBlogRefresh(w http.ResponseWriter, r *http.Request) {
	if a.Refresher == nil {
		respondErr(w, http.StatusServiceUnavailable, "blog refresh not configured")
		return
	}
	if err := a.Refresher.RunNow(r.Context()); err != nil {
		if errors.Is(err, refresh.ErrRunInProgress) {
			respondErr(w, http.StatusConflict, err.Error())
			return
		}
		telemetry.BlogRefreshTotal.WithLabelValues("error").Inc()
		logger.Error("manual_blog_refresh_failed", "err", err)
		respondErr(w, http.StatusBadGateway, err.Error())
		return
	}
	telemetry.BlogRefreshTotal.WithLabelValues("ok").Inc()
	respondJSON(w, http.StatusOK, a.Refresher.Status())
}
