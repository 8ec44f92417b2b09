package api

import (
	"net/http"

	"github.com/seenimoa/earningsinsights/internal/config"
)

// StatusResponse describes the running configuration. Credentials are
// reported masked.
type StatusResponse struct {
	Keys           []config.KeyStatus `json:"keys"`
	CacheDir       string             `json:"cache_dir"`
	ListFormat     string             `json:"list_format"`
	ParentFallback bool               `json:"parent_fallback"`
	MaxConcurrency int                `json:"max_concurrency"`
	RateLimit      float64            `json:"rate_limit"`
}

// handleStatus reports credential status and the effective scraper settings.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: StatusResponse{
			Keys:           config.CheckAPIKeys(s.cfg),
			CacheDir:       s.cfg.Cache.Dir,
			ListFormat:     s.cfg.SEC.ListFormat,
			ParentFallback: s.cfg.SEC.ParentFallback,
			MaxConcurrency: s.cfg.SEC.MaxConcurrency,
			RateLimit:      s.cfg.SEC.RateLimit,
		},
	})
}
