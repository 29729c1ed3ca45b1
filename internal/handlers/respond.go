// Package handlers serves the JSON API the dashboard consumes.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/agozel5/Honeypot/internal/logger"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	if err != nil {
		logger.FromContext(r.Context()).Error(msg, "error", err, "path", r.URL.Path)
	}
	writeJSON(w, status, errorBody{Error: msg})
}

// hostURL is the scheme and host the request was addressed to, so that
// generated links are absolute.
func hostURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

func clickURL(base, linkID string) string { return base + "/click/" + linkID }
func qrURL(base, linkID string) string { return base + "/qr/" + linkID + ".png" }

// intParam parses name from the query string, falling back to def when it
// is missing or not a number.
func intParam(r *http.Request, name string, def int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
