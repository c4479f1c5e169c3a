package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"flanergide/pkg/auth"
	"flanergide/pkg/logger"
	"flanergide/pkg/memory"
	"flanergide/pkg/models"
	"flanergide/pkg/telemetry"
)

type storeRequest struct {
	Kind      string         `json:"kind"`
	Data      map[string]any `json:"data"`
	Device    string         `json:"device"`
	Timestamp int64          `json:"timestamp"`
}

func (a *API) handleStore(w http.ResponseWriter, r *http.Request) {
	var req storeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	device := req.Device
	if device == "" {
		device = auth.DeviceFromContext(r.Context())
	}
	ev, err := a.Events.Insert(r.Context(), req.Kind, req.Data, device, req.Timestamp)
	if err != nil {
		if errors.Is(err, memory.ErrMissingKind) {
			respondErr(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("store_event_failed", "err", err)
		respondErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	telemetry.EventsStored.Inc()
	respondJSON(w, http.StatusCreated, ev)
}

type searchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
	Kind  string `json:"kind"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
}

func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
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
	hits, err := a.Events.Search(r.Context(), req.Query, req.K, models.SearchFilter{
		Kind:  req.Kind,
		Start: req.Start,
		End:   req.End,
	})
	if err != nil {
		logger.Error("search_failed", "err", err)
		respondErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	telemetry.SearchesTotal.Inc()
	if hits == nil {
		hits = []models.SearchHit{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": hits})
}

func (a *API) handleRecent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 20
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	offset := 0
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}
	page, err := a.Events.Recent(r.Context(), limit, offset, q.Get("kind"))
	if err != nil {
		logger.Error("recent_failed", "err", err)
		respondErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (a *API) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ok, err := a.Events.Delete(r.Context(), id)
	if err != nil {
		logger.Error("delete_event_failed", "id", id, "err", err)
		respondErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		respondErr(w, http.StatusNotFound, "event not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
