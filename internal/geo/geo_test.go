package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeProvider(t *testing.T, h http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestLocateIPAPI(t *testing.T) {
	srv, _ := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/203.0.113.9/json/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ip":"203.0.113.9","country_name":"France","region":"Auvergne-Rhône-Alpes","city":"Lyon","latitude":45.75,"longitude":4.85}`))
	})
	l, err := New(Options{Provider: ProviderIPAPI, BaseURL: srv.URL})
	require.NoError(t, err)

	loc, err := l.Locate(context.Background(), "203.0.113.9")
	require.NoError(t, err)
	assert.Equal(t, "France", loc.Country)
	assert.Equal(t, "Auvergne-Rhône-Alpes", loc.Region)
	assert.Equal(t, "Lyon", loc.City)
	require.NotNil(t, loc.Lat)
	require.NotNil(t, loc.Lon)
	assert.InDelta(t, 45.75, *loc.Lat, 1e-9)
	assert.InDelta(t, 4.85, *loc.Lon, 1e-9)
}

func TestLocateIPAPIErrorBody(t *testing.T) {
	srv, _ := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":true,"reason":"RateLimited"}`))
	})
	l, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = l.Locate(context.Background(), "203.0.113.9")
	assert.ErrorContains(t, err, "RateLimited")
}

func TestLocateIPInfo(t *testing.T) {
	srv, _ := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/198.51.100.7/json", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"ip":"198.51.100.7","city":"Berlin","region":"Berlin","country":"DE","loc":"52.5200,13.4050"}`))
	})
	l, err := New(Options{Provider: ProviderIPInfo, Token: "tok", BaseURL: srv.URL})
	require.NoError(t, err)

	loc, err := l.Locate(context.Background(), "198.51.100.7")
	require.NoError(t, err)
	assert.Equal(t, "DE", loc.Country)
	assert.Equal(t, "Berlin", loc.City)
	require.NotNil(t, loc.Lat)
	assert.InDelta(t, 52.52, *loc.Lat, 1e-9)
	assert.InDelta(t, 13.405, *loc.Lon, 1e-9)
}

func TestLocateWithoutRequest(t *testing.T) {
	srv, calls := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected lookup of %s", r.URL.Path)
	})
	l, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)
	ctx := context.Background()

	for _, ip := range []string{"127.0.0.1", "::1", "::ffff:127.0.0.1"} {
		loc, err := l.Locate(ctx, ip)
		require.NoError(t, err, ip)
		assert.Equal(t, Local, loc, ip)
	}
	for _, ip := range []string{"10.0.0.1", "192.168.1.20", "0.0.0.0"} {
		loc, err := l.Locate(ctx, ip)
		require.NoError(t, err, ip)
		assert.Equal(t, Location{}, loc, ip)
	}

	_, err = l.Locate(ctx, "../admin")
	assert.ErrorIs(t, err, ErrInvalidIP)
	assert.Zero(t, calls.Load())
}

func TestLocateProviderFailure(t *testing.T) {
	srv, _ := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	})
	l, err := New(Options{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = l.Locate(context.Background(), "203.0.113.9")
	assert.ErrorContains(t, err, "unexpected status 503")
}

func TestLocateRateLimited(t *testing.T) {
	srv, calls := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"country_name":"France"}`))
	})
	l, err := New(Options{BaseURL: srv.URL, RPS: 0.001})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = l.Locate(ctx, "203.0.113.9")
	require.NoError(t, err)
	_, err = l.Locate(ctx, "203.0.113.10")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(Options{Provider: "maxmind"})
	assert.Error(t, err)
}
