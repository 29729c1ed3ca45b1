package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/agozel5/Honeypot/internal/logger"
	"github.com/agozel5/Honeypot/internal/repository"
)

// NoCampaignLabel names links created without a campaign.
const NoCampaignLabel = "(sans campagne)"

// CampaignsHandler serves GET /api/campaigns: links, clicks and clicks per
// link for every campaign.
type CampaignsHandler struct {
	Repo repository.ClickRepository
}

func (h *CampaignsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Repo.CampaignStats(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "campaign stats failed", err)
		return
	}
	if stats == nil {
		stats = []repository.CampaignStat{}
	}
	for i := range stats {
		if stats[i].Campaign == "" {
			stats[i].Campaign = NoCampaignLabel
		}
	}
	writeJSON(w, http.StatusOK, stats)
}

// DeleteCampaignHandler serves POST /campaigns/delete/{name}: every link of
// the campaign goes, with its clicks. Links without a campaign are not a
// campaign and cannot be deleted this way.
type DeleteCampaignHandler struct {
	Repo repository.ClickRepository
}

type deleteCampaignResponse struct {
	OK           bool `json:"ok"`
	DeletedLinks int  `json:"deleted_links"`
}

func (h *DeleteCampaignHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
	}
	name = strings.TrimSpace(name)
	if name == "" || name == NoCampaignLabel {
		writeError(w, r, http.StatusBadRequest, "this campaign cannot be deleted", nil)
		return
	}

	n, err := h.Repo.DeleteCampaign(r.Context(), name)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "delete campaign failed", err)
		return
	}
	logger.FromContext(r.Context()).Info("campaign deleted", "campaign", name, "links", n)
	writeJSON(w, http.StatusOK, deleteCampaignResponse{OK: true, DeletedLinks: n})
}
