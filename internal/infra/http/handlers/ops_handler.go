package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/xavierca1/lead-inbox/internal/infra/integration/github"
)

type RateLimitProbe interface {
	RateLimit(ctx context.Context) (*github.RateLimit, error)
}

// OpsInfo is what the operational endpoints may reveal. Secrets are only
// reported as present or absent.
type OpsInfo struct {
	Commit         string
	URL            string
	Repo           string
	HasGitHubToken bool
	HasRepo        bool
	HasAdminToken  bool
}

type OpsHandler struct {
	info  OpsInfo
	probe RateLimitProbe
	now   func() time.Time
}

func NewOpsHandler(info OpsInfo, probe RateLimitProbe) *OpsHandler {
	return &OpsHandler{info: info, probe: probe, now: time.Now}
}

func (h *OpsHandler) ts() string {
	return h.now().UTC().Format(time.RFC3339Nano)
}

// Ping handles GET /api/ping.
func (h *OpsHandler) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"ts":   h.ts(),
		"path": r.URL.Path,
	})
}

// Version handles GET /api/version.
func (h *OpsHandler) Version(w http.ResponseWriter, r *http.Request) {
	commit, url := h.info.Commit, h.info.URL
	if commit == "" {
		commit = "unknown"
	}
	if url == "" {
		url = "unknown"
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":  true,
		"ver": map[string]string{"ts": h.ts(), "commit": commit, "url": url},
	})
}

// Debug handles GET /api/debug.
func (h *OpsHandler) Debug(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"ts": h.ts(),
		"env": map[string]bool{
			"GH_TOKEN":         h.info.HasGitHubToken,
			"GH_REPO_FULLNAME": h.info.HasRepo,
			"ADMIN_TOKEN":      h.info.HasAdminToken,
		},
	})
}

// NetCheck handles GET /api/netcheck: reachability of GitHub with the
// configured token, reported as the core rate-limit bucket.
func (h *OpsHandler) NetCheck(w http.ResponseWriter, r *http.Request) {
	rl, err := h.probe.RateLimit(r.Context())
	if err != nil {
		writeErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"repo": h.info.Repo,
		"core": rl,
	})
}
