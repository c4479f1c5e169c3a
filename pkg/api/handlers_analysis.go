package api

import (
	"net/http"
	"time"

	"flanergide/pkg/logger"
)

type summaryRequest struct {
	Date string `json:"date"`
}

func (a *API) handleSummaryDaily(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondErr(w, http.StatusBadRequest, "invalid json")
			return
		}
	}
	if req.Date != "" {
		if _, err := time.Parse("2006-01-02", req.Date); err != nil {
			respondErr(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
	}
	res, err := a.Summaries.Daily(r.Context(), req.Date)
	if err != nil {
		if res.Path != "" {
			// generation failed but the placeholder was saved
			respondJSON(w, http.StatusBadGateway, res)
			return
		}
		respondErr(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (a *API) handleSummaryWeekly(w http.ResponseWriter, r *http.Request) {
	res, err := a.Summaries.Weekly(r.Context())
	if err != nil {
		if res.Path != "" {
			respondJSON(w, http.StatusBadGateway, res)
			return
		}
		respondErr(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (a *API) handleCommentary(w http.ResponseWriter, r *http.Request) {
	c, err := a.Commentary.Generate(r.Context())
	if err != nil {
		logger.Error("commentary_failed", "err", err)
		respondErr(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, c)
}
