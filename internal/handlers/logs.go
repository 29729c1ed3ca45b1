package handlers

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/agozel5/Honeypot/internal/models"
	"github.com/agozel5/Honeypot/internal/query"
	"github.com/agozel5/Honeypot/internal/repository"
)

// TimestampLayout is how click times appear in API responses.
const TimestampLayout = "2006-01-02T15:04:05"

// LogsHandler serves GET /api/logs: one page of clicks, newest first.
type LogsHandler struct {
	Repo repository.ClickRepository
	Now  func() time.Time
}

func (h *LogsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	page := intParam(r, "page", 1)
	if page < 1 {
		page = 1
	}
	perPage := query.ClampPerPage(intParam(r, "per_page", query.DefaultPerPage))

	filters := parseClickFilters(r, h.now())
	rows, total, err := h.Repo.QueryClicks(r.Context(), filters, perPage, (page-1)*perPage)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "query failed", err)
		return
	}

	base := hostURL(r)
	items := make([]models.LogEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, toEntry(row, base))
	}
	writeJSON(w, http.StatusOK, models.LogPage{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
	})
}

func (h *LogsHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// ExportHandler serves GET /api/logs/export as CSV (default) or JSON, with
// the same filters as the paged endpoint but no pagination.
type ExportHandler struct {
	Repo repository.ClickRepository
}

var exportHeader = []string{"timestamp", "ip", "user_agent", "referer", "path", "file_name", "campaign", "country", "region", "city", "lat", "lon", "link_id"}

func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rows, _, err := h.Repo.QueryClicks(r.Context(), parseClickFilters(r, time.Now()), -1, 0)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "export failed", err)
		return
	}

	base := hostURL(r)
	if strings.EqualFold(r.URL.Query().Get("format"), "json") {
		items := make([]models.LogEntry, 0, len(rows))
		for _, row := range rows {
			items = append(items, toEntry(row, base))
		}
		w.Header().Set("Content-Disposition", `attachment; filename="logs.json"`)
		writeJSON(w, http.StatusOK, items)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="logs.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write(exportHeader)
	for _, row := range rows {
		_ = cw.Write([]string{
			row.Time.Format(TimestampLayout), row.IP, row.UserAgent, row.Referer, row.Path,
			row.FileName, row.Campaign, row.Country, row.Region, row.City,
			formatCoord(row.Lat), formatCoord(row.Lon), row.LinkID,
		})
	}
	cw.Flush()
}

// parseClickFilters reads q, ip, campaign, file and days. A days value that
// is not a positive integer is ignored.
func parseClickFilters(r *http.Request, now time.Time) repository.ClickFilters {
	q := r.URL.Query()
	f := repository.ClickFilters{
		IP:           strings.TrimSpace(q.Get(string(query.FilterIP))),
		Campaign:     strings.TrimSpace(q.Get(string(query.FilterCampaign))),
		FileContains: strings.TrimSpace(q.Get(string(query.FilterFile))),
		Search:       strings.TrimSpace(q.Get(string(query.FilterSearch))),
	}
	if days, err := strconv.Atoi(strings.TrimSpace(q.Get(string(query.FilterDays)))); err == nil && days > 0 {
		since := now.Add(-time.Duration(days) * 24 * time.Hour)
		f.Since = &since
	}
	return f
}

func toEntry(row repository.ClickRow, base string) models.LogEntry {
	return models.LogEntry{
		ID:        row.ID,
		Timestamp: row.Time.UTC().Format(TimestampLayout),
		IP:        row.IP,
		Country:   row.Country,
		Region:    row.Region,
		City:      row.City,
		Lat:       row.Lat,
		Lon:       row.Lon,
		UserAgent: row.UserAgent,
		Referer:   row.Referer,
		Path:      row.Path,
		FileName:  row.FileName,
		Campaign:  row.Campaign,
		ClickURL:  clickURL(base, row.LinkID),
		QRURL:     qrURL(base, row.LinkID),
		LinkID:    row.LinkID,
	}
}

func formatCoord(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
