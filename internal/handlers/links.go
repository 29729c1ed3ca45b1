package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/agozel5/Honeypot/internal/logger"
	"github.com/agozel5/Honeypot/internal/models"
	"github.com/agozel5/Honeypot/internal/repository"
)

const (
	defaultFileName = "rapport.pdf"
	maxGenerate     = 100
	maxLinksListed  = 200
)

var validate = validator.New()

// LinksHandler serves GET /api/links, most recent first.
type LinksHandler struct {
	Repo repository.ClickRepository
}

func (h *LinksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r, "limit", maxLinksListed)
	if limit < 1 || limit > maxLinksListed {
		limit = maxLinksListed
	}
	links, err := h.Repo.ListLinks(r.Context(), limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "list links failed", err)
		return
	}
	if links == nil {
		links = []models.Link{}
	}
	writeJSON(w, http.StatusOK, links)
}

type GenerateRequest struct {
	File     string `json:"file" validate:"max=255"`
	Campaign string `json:"campaign" validate:"max=100"`
	Count    int    `json:"count"`
}

type GenerateResponse struct {
	OK   bool     `json:"ok"`
	IDs  []string `json:"ids"`
	URLs []string `json:"urls"`
}

// GenerateHandler serves POST /api/generate. count is clamped to [1, 100];
// an empty or unreadable body generates one default link.
type GenerateHandler struct {
	Repo repository.ClickRepository
}

func (h *GenerateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if r.Body != nil {
		_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req)
	}
	req.File = strings.TrimSpace(req.File)
	req.Campaign = strings.TrimSpace(req.Campaign)
	if err := validate.Struct(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request: "+err.Error(), nil)
		return
	}
	if req.File == "" {
		req.File = defaultFileName
	}
	count := max(1, min(req.Count, maxGenerate))

	now := time.Now().UTC()
	links := make([]models.Link, count)
	resp := GenerateResponse{OK: true}
	base := hostURL(r)
	for i := range links {
		id := uuid.New().String()
		links[i] = models.Link{ID: id, FileName: req.File, Campaign: req.Campaign, CreatedAt: now}
		resp.IDs = append(resp.IDs, id)
		resp.URLs = append(resp.URLs, clickURL(base, id))
	}
	if err := h.Repo.CreateLinks(r.Context(), links); err != nil {
		writeError(w, r, http.StatusInternalServerError, "create links failed", err)
		return
	}
	logger.FromContext(r.Context()).Info("links generated", "count", count, "campaign", req.Campaign)
	writeJSON(w, http.StatusCreated, resp)
}

// DeleteLinkHandler serves DELETE /delete_link/{id}. The link's clicks go with it.
type DeleteLinkHandler struct {
	Repo repository.ClickRepository
}

func (h *DeleteLinkHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.Repo.DeleteLink(r.Context(), id)
	switch {
	case errors.Is(err, repository.ErrLinkNotFound):
		writeError(w, r, http.StatusNotFound, "link not found", nil)
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, "delete failed", err)
		return
	}
	logger.FromContext(r.Context()).Info("link deleted", "link_id", id)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}
