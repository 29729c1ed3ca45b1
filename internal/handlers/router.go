package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/agozel5/Honeypot/internal/csrf"
	"github.com/agozel5/Honeypot/internal/middleware"
	"github.com/agozel5/Honeypot/internal/repository"
)

type RouterConfig struct {
	// CSRF requires the double-submit token on state-changing requests.
	CSRF bool
	// Limiter throttles the API per client; nil disables it.
	Limiter *middleware.IPRateLimiter
	// Geo locates recorded clicks; nil records them without a location.
	Geo Geolocator
}

func NewRouter(repo repository.ClickRepository, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/click/{id}", &ClickHandler{Repo: repo, Geo: cfg.Geo})
	r.Method(http.MethodGet, "/qr/{id}.png", &QRHandler{Repo: repo})

	r.Group(func(r chi.Router) {
		if cfg.Limiter != nil {
			r.Use(cfg.Limiter.Limit)
		}
		if cfg.CSRF {
			r.Use(csrf.Protect)
		}
		r.Method(http.MethodGet, "/api/logs", &LogsHandler{Repo: repo})
		r.Method(http.MethodGet, "/api/logs/export", &ExportHandler{Repo: repo})
		r.Method(http.MethodGet, "/api/links", &LinksHandler{Repo: repo})
		r.Method(http.MethodGet, "/api/campaigns", &CampaignsHandler{Repo: repo})
		r.Method(http.MethodPost, "/api/generate", &GenerateHandler{Repo: repo})
		r.Method(http.MethodDelete, "/delete_link/{id}", &DeleteLinkHandler{Repo: repo})
		r.Method(http.MethodPost, "/campaigns/delete/{name}", &DeleteCampaignHandler{Repo: repo})
	})
	return r
}
