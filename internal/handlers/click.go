package handlers

import (
	"context"
	"errors"
	"html/template"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agozel5/Honeypot/internal/geo"
	"github.com/agozel5/Honeypot/internal/logger"
	"github.com/agozel5/Honeypot/internal/models"
	"github.com/agozel5/Honeypot/internal/repository"
)

var clickPage = template.Must(template.New("click").Parse(
	`<!doctype html><html><head><meta charset="utf-8"><title>{{.}}</title></head>` +
		`<body><p>Le document <strong>{{.}}</strong> n'est plus disponible.</p></body></html>`))

// Geolocator resolves a visitor address. Failures leave the click without
// a location.
type Geolocator interface {
	Locate(ctx context.Context, ip string) (geo.Location, error)
}

// ClickHandler serves GET /click/{id}: it records who opened the link and
// shows a placeholder page.
type ClickHandler struct {
	Repo repository.ClickRepository
	// Geo is optional.
	Geo Geolocator
}

func (h *ClickHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	link, err := h.Repo.GetLink(r.Context(), id)
	if errors.Is(err, repository.ErrLinkNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "lookup failed", err)
		return
	}

	click := models.Click{
		LinkID:    link.ID,
		Time:      time.Now().UTC(),
		IP:        visitorIP(r),
		UserAgent: r.UserAgent(),
		Referer:   r.Referer(),
		Path:      r.URL.Path,
	}
	if h.Geo != nil {
		h.locate(r.Context(), &click)
	}
	if err := h.Repo.InsertClicks(r.Context(), []models.Click{click}); err != nil {
		writeError(w, r, http.StatusInternalServerError, "record click failed", err)
		return
	}
	log := logger.FromContext(r.Context())
	log.Info("click", "link_id", link.ID, "ip", click.IP, "country", click.Country)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := clickPage.Execute(w, link.FileName); err != nil {
		log.Error("render click page", "link_id", link.ID, "error", err)
	}
}

func (h *ClickHandler) locate(ctx context.Context, c *models.Click) {
	loc, err := h.Geo.Locate(ctx, c.IP)
	if err != nil {
		logger.FromContext(ctx).Warn("geolocation failed", "ip", c.IP, "error", err)
		return
	}
	c.Country = loc.Country
	c.Region = loc.Region
	c.City = loc.City
	c.Lat = loc.Lat
	c.Lon = loc.Lon
}

// visitorIP prefers the first X-Forwarded-For hop, as the honeypot usually
// sits behind a proxy.
func visitorIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
