package handlers

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agozel5/Honeypot/internal/client"
	"github.com/agozel5/Honeypot/internal/geo"
	"github.com/agozel5/Honeypot/internal/logger"
	"github.com/agozel5/Honeypot/internal/models"
	"github.com/agozel5/Honeypot/internal/query"
	"github.com/agozel5/Honeypot/internal/repository"
)

func newTestRepo(t *testing.T) *repository.SQLiteRepository {
	t.Helper()
	repo, err := repository.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, repo.CreateLinks(ctx, []models.Link{
		{ID: "l1", FileName: "rapport.pdf", Campaign: "q2", CreatedAt: now.Add(-time.Hour)},
		{ID: "l2", FileName: "salaires.xlsx", CreatedAt: now},
	}))
	require.NoError(t, repo.InsertClicks(ctx, []models.Click{
		{LinkID: "l1", Time: now.Add(-3 * time.Minute), IP: "10.0.0.1", UserAgent: "curl/8.0"},
		{LinkID: "l1", Time: now.Add(-2 * time.Minute), IP: "10.0.0.2", UserAgent: "<script>alert(1)</script>"},
		{LinkID: "l1", Time: now.Add(-1 * time.Minute), IP: "10.0.0.1", UserAgent: "Mozilla/5.0", Country: "FR", City: "Lyon"},
		{LinkID: "l2", Time: now.Add(-40 * 24 * time.Hour), IP: "10.0.0.3", UserAgent: "Outlook"},
	}))
	return repo
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(logger.WithLogger(req.Context(), logger.Discard()))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestLogsEndpoint(t *testing.T) {
	h := NewRouter(newTestRepo(t), RouterConfig{})

	rr := do(t, h, http.MethodGet, "/api/logs?per_page=2", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	page := decode[models.LogPage](t, rr)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.PerPage)
	assert.Equal(t, 4, page.Total)
	require.Len(t, page.Items, 2)

	first := page.Items[0]
	assert.Equal(t, "l1", first.LinkID)
	assert.Equal(t, "FR", first.Country)
	assert.Equal(t, "q2", first.Campaign)
	assert.Equal(t, "http://example.com/click/l1", first.ClickURL)
	assert.Equal(t, "http://example.com/qr/l1.png", first.QRURL)
	_, err := time.Parse(TimestampLayout, first.Timestamp)
	assert.NoError(t, err)
	assert.Equal(t, "<script>alert(1)</script>", page.Items[1].UserAgent)
}

func TestLogsPagination(t *testing.T) {
	h := NewRouter(newTestRepo(t), RouterConfig{})

	tests := []struct {
		target      string
		wantPage    int
		wantPerPage int
		wantItems   int
	}{
		{"/api/logs?page=2&per_page=3", 2, 3, 1},
		{"/api/logs?page=0", 1, 25, 4},
		{"/api/logs?page=-4&per_page=0", 1, 1, 1},
		{"/api/logs?per_page=5000", 1, 200, 4},
		{"/api/logs?per_page=abc", 1, 25, 4},
		{"/api/logs?page=9", 9, 25, 0},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			page := decode[models.LogPage](t, do(t, h, http.MethodGet, tt.target, ""))
			assert.Equal(t, tt.wantPage, page.Page)
			assert.Equal(t, tt.wantPerPage, page.PerPage)
			assert.Len(t, page.Items, tt.wantItems)
			assert.NotNil(t, page.Items)
			assert.Equal(t, 4, page.Total)
		})
	}
}

func TestLogsFilters(t *testing.T) {
	h := NewRouter(newTestRepo(t), RouterConfig{})

	tests := []struct {
		query string
		want  int
	}{
		{"ip=10.0.0.1", 2},
		{"campaign=q2", 3},
		{"file=salaire", 1},
		{"q=mozilla", 1},
		{"days=7", 3},
		{"days=abc", 4},
		{"days=-1", 4},
		{"ip=", 4},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			page := decode[models.LogPage](t, do(t, h, http.MethodGet, "/api/logs?"+tt.query, ""))
			assert.Equal(t, tt.want, page.Total)
		})
	}
}

func TestLinksEndpoint(t *testing.T) {
	h := NewRouter(newTestRepo(t), RouterConfig{})

	links := decode[[]models.Link](t, do(t, h, http.MethodGet, "/api/links", ""))
	require.Len(t, links, 2)
	assert.Equal(t, "l2", links[0].ID)

	links = decode[[]models.Link](t, do(t, h, http.MethodGet, "/api/links?limit=1", ""))
	assert.Len(t, links, 1)
}

func TestGenerate(t *testing.T) {
	repo := newTestRepo(t)
	h := NewRouter(repo, RouterConfig{})

	rr := do(t, h, http.MethodPost, "/api/generate", `{"file":" offre.pdf ","campaign":"rh","count":3}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	resp := decode[GenerateResponse](t, rr)
	assert.True(t, resp.OK)
	require.Len(t, resp.IDs, 3)
	assert.Equal(t, "http://example.com/click/"+resp.IDs[0], resp.URLs[0])

	l, err := repo.GetLink(context.Background(), resp.IDs[2])
	require.NoError(t, err)
	assert.Equal(t, "offre.pdf", l.FileName)
	assert.Equal(t, "rh", l.Campaign)

	resp = decode[GenerateResponse](t, do(t, h, http.MethodPost, "/api/generate", ""))
	require.Len(t, resp.IDs, 1)
	l, err = repo.GetLink(context.Background(), resp.IDs[0])
	require.NoError(t, err)
	assert.Equal(t, defaultFileName, l.FileName)

	resp = decode[GenerateResponse](t, do(t, h, http.MethodPost, "/api/generate", `{"count":1000}`))
	assert.Len(t, resp.IDs, maxGenerate)

	rr = do(t, h, http.MethodPost, "/api/generate", `{"file":"`+strings.Repeat("x", 300)+`"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteLink(t *testing.T) {
	h := NewRouter(newTestRepo(t), RouterConfig{})

	rr := do(t, h, http.MethodDelete, "/delete_link/l1", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	page := decode[models.LogPage](t, do(t, h, http.MethodGet, "/api/logs", ""))
	assert.Equal(t, 1, page.Total)

	rr = do(t, h, http.MethodDelete, "/delete_link/l1", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.False(t, decode[errorBody](t, rr).OK)
}

func TestCampaigns(t *testing.T) {
	h := NewRouter(newTestRepo(t), RouterConfig{})

	stats := decode[[]repository.CampaignStat](t, do(t, h, http.MethodGet, "/api/campaigns", ""))
	require.Len(t, stats, 2)
	assert.Equal(t, "q2", stats[0].Campaign)
	assert.Equal(t, 3, stats[0].Clicks)
	assert.Equal(t, NoCampaignLabel, stats[1].Campaign)
}

func TestClickRecordsVisit(t *testing.T) {
	repo := newTestRepo(t)
	h := NewRouter(repo, RouterConfig{})

	req := httptest.NewRequest(http.MethodGet, "/click/l2", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	req.Header.Set("User-Agent", "Thunderbird")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "salaires.xlsx")

	rows, total, err := repo.QueryClicks(context.Background(), repository.ClickFilters{IP: "198.51.100.7"}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Thunderbird", rows[0].UserAgent)
	assert.Equal(t, "/click/l2", rows[0].Path)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/click/nope", "").Code)
}

func TestClickRecordsLocation(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/203.0.113.9/json/", r.URL.Path)
		_, _ = w.Write([]byte(`{"country_name":"France","region":"Occitanie","city":"Toulouse","latitude":43.6,"longitude":1.44}`))
	}))
	t.Cleanup(provider.Close)
	locator, err := geo.New(geo.Options{Provider: geo.ProviderIPAPI, BaseURL: provider.URL, Logger: logger.Discard()})
	require.NoError(t, err)

	repo := newTestRepo(t)
	h := NewRouter(repo, RouterConfig{Geo: locator})

	req := httptest.NewRequest(http.MethodGet, "/click/l2", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	page := decode[models.LogPage](t, do(t, h, http.MethodGet, "/api/logs?ip=203.0.113.9", ""))
	require.Len(t, page.Items, 1)
	e := page.Items[0]
	assert.Equal(t, "France", e.Country)
	assert.Equal(t, "Occitanie", e.Region)
	assert.Equal(t, "Toulouse", e.City)
	require.NotNil(t, e.Lat)
	assert.InDelta(t, 43.6, *e.Lat, 1e-9)
}

type failingLocator struct{}

func (failingLocator) Locate(context.Context, string) (geo.Location, error) {
	return geo.Location{}, errors.New("provider down")
}

func TestClickRecordedWhenGeolocationFails(t *testing.T) {
	repo := newTestRepo(t)
	h := NewRouter(repo, RouterConfig{Geo: failingLocator{}})

	req := httptest.NewRequest(http.MethodGet, "/click/l2", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	rows, total, err := repo.QueryClicks(context.Background(), repository.ClickFilters{IP: "203.0.113.9"}, 10, 0)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Empty(t, rows[0].Country)
}

type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestClickPageWriteFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/click/{id}", &ClickHandler{Repo: newTestRepo(t)})

	req := httptest.NewRequest(http.MethodGet, "/click/l1", nil)
	req = req.WithContext(logger.WithLogger(req.Context(), logger.New(&buf, "text", slog.LevelInfo)))
	r.ServeHTTP(brokenWriter{httptest.NewRecorder()}, req)

	assert.Contains(t, buf.String(), "render click page")
	assert.Contains(t, buf.String(), "connection reset")
}

func TestQRCode(t *testing.T) {
	h := NewRouter(newTestRepo(t), RouterConfig{})

	rr := do(t, h, http.MethodGet, "/qr/l1.png", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG\r\n\x1a\n")))

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/qr/nope.png", "").Code)
}

func TestDeleteCampaign(t *testing.T) {
	repo := newTestRepo(t)
	h := NewRouter(repo, RouterConfig{})

	rr := do(t, h, http.MethodPost, "/campaigns/delete/q2", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode[deleteCampaignResponse](t, rr)
	assert.True(t, body.OK)
	assert.Equal(t, 1, body.DeletedLinks)

	page := decode[models.LogPage](t, do(t, h, http.MethodGet, "/api/logs", ""))
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "l2", page.Items[0].LinkID)

	rr = do(t, h, http.MethodPost, "/campaigns/delete/q2", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Zero(t, decode[deleteCampaignResponse](t, rr).DeletedLinks)
}

func TestDeleteCampaignRefusesUncategorised(t *testing.T) {
	repo := newTestRepo(t)
	h := NewRouter(repo, RouterConfig{})

	rr := do(t, h, http.MethodPost, "/campaigns/delete/(sans%20campagne)", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, decode[errorBody](t, rr).OK)

	links, err := repo.ListLinks(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, links, 2)
}

func TestCSRFProtectsCampaignDelete(t *testing.T) {
	h := NewRouter(newTestRepo(t), RouterConfig{CSRF: true})
	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodPost, "/campaigns/delete/q2", "").Code)
}

func TestExportCSV(t *testing.T) {
	h := NewRouter(newTestRepo(t), RouterConfig{})

	rr := do(t, h, http.MethodGet, "/api/logs/export?campaign=q2", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/csv")

	records, err := csv.NewReader(rr.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, exportHeader, records[0])
	assert.Equal(t, "l1", records[1][12])
}

func TestExportJSON(t *testing.T) {
	h := NewRouter(newTestRepo(t), RouterConfig{})

	items := decode[[]models.LogEntry](t, do(t, h, http.MethodGet, "/api/logs/export?format=json", ""))
	assert.Len(t, items, 4)
}

func TestHealth(t *testing.T) {
	rr := do(t, NewRouter(newTestRepo(t), RouterConfig{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}

func TestCSRFProtectsDelete(t *testing.T) {
	h := NewRouter(newTestRepo(t), RouterConfig{CSRF: true})
	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodDelete, "/delete_link/l1", "").Code)
}

// The dashboard client against the real router, CSRF included.
func TestClientAgainstRouter(t *testing.T) {
	srv := httptest.NewServer(NewRouter(newTestRepo(t), RouterConfig{CSRF: true}))
	t.Cleanup(srv.Close)

	c, err := client.New(srv.URL, client.WithLogger(logger.Discard()))
	require.NoError(t, err)
	ctx := context.Background()

	st := query.New()
	st.SetPerPage(2)
	page, err := c.FetchPage(ctx, st.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, srv.URL+"/click/l1", page.Items[0].ClickURL)

	links, err := c.ListLinks(ctx)
	require.NoError(t, err)
	assert.Len(t, links, 2)

	require.NoError(t, c.DeleteLink(ctx, "l1"))

	var rejected *client.DeleteRejected
	require.ErrorAs(t, c.DeleteLink(ctx, "l1"), &rejected)
	assert.Equal(t, http.StatusNotFound, rejected.Status)

	st.SetFilter(query.FilterCampaign, "q2")
	page, err = c.FetchPage(ctx, st.Snapshot())
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}
