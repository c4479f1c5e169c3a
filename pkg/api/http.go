package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"flanergide/internal/refresh"
	"flanergide/pkg/commentary"
	"flanergide/pkg/memory"
	"flanergide/pkg/state"
	"flanergide/pkg/summarize"
	"flanergide/pkg/syncer"
	"flanergide/pkg/telemetry"
)

// API holds the services behind the HTTP surface.
type API struct {
	Events     *memory.Service
	State      *state.Manager
	Sync       *syncer.Coordinator
	Summaries  *summarize.Service
	Commentary *commentary.Service
	Refresher  *refresh.Refresher
	Version    string
}

// Router builds the full route table. Telemetry runs inside the router so
// metric labels use route templates instead of raw paths.
func (a *API) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(telemetry.Middleware)

	r.HandleFunc("/api/health", a.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/api/memory/store", a.handleStore).Methods(http.MethodPost)
	r.HandleFunc("/api/memory/search", a.handleSearch).Methods(http.MethodPost)
	r.HandleFunc("/api/memory/recent", a.handleRecent).Methods(http.MethodGet)
	r.HandleFunc("/api/memory/{id}", a.handleDelete).Methods(http.MethodDelete)

	r.HandleFunc("/api/state/current", a.handleStateCurrent).Methods(http.MethodGet)
	r.HandleFunc("/api/state/mood", a.handleSetMood).Methods(http.MethodPost)
	r.HandleFunc("/api/state/blog", a.handleBlog).Methods(http.MethodGet)
	r.HandleFunc("/api/state/blog/refresh", a.handleBlogRefresh).Methods(http.MethodPost)

	r.HandleFunc("/api/sync/pull", a.handlePull).Methods(http.MethodPost)
	r.HandleFunc("/api/sync/push", a.handlePush).Methods(http.MethodPost)

	r.HandleFunc("/api/logs/upload", a.handleLogsUpload).Methods(http.MethodPost)
	r.HandleFunc("/api/logs/search", a.handleLogsSearch).Methods(http.MethodPost)

	r.HandleFunc("/api/summary/daily", a.handleSummaryDaily).Methods(http.MethodPost)
	r.HandleFunc("/api/summary/weekly", a.handleSummaryWeekly).Methods(http.MethodPost)
	r.HandleFunc("/api/commentary", a.handleCommentary).Methods(http.MethodPost)

	return r
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	ver := a.Version
	if ver == "" {
		ver = "dev"
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": ver})
}
