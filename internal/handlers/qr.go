package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/agozel5/Honeypot/internal/repository"
)

// qrSize is the PNG edge in pixels.
const qrSize = 256

// QRHandler serves GET /qr/{id}.png: a QR code of the link's absolute
// click URL.
type QRHandler struct {
	Repo repository.ClickRepository
}

func (h *QRHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	link, err := h.Repo.GetLink(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, repository.ErrLinkNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "lookup failed", err)
		return
	}

	png, err := qrcode.Encode(clickURL(hostURL(r), link.ID), qrcode.Medium, qrSize)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "qr encoding failed", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	_, _ = w.Write(png)
}
