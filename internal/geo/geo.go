// Package geo resolves visitor IPs to an approximate location through a
// public lookup service (ipapi.co or ipinfo.io).
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	ProviderIPAPI  = "ipapi"
	ProviderIPInfo = "ipinfo"
)

var (
	// ErrRateLimited means the lookup was skipped to stay under the
	// provider's quota.
	ErrRateLimited = errors.New("geo lookup rate limited")
	ErrInvalidIP   = errors.New("invalid ip address")
)

// Location is what is known about where an address is. Lat and Lon are nil
// when the provider does not say.
type Location struct {
	Country string
	Region  string
	City    string
	Lat     *float64
	Lon     *float64
}

// Local is reported for loopback addresses without asking anyone.
var Local = Location{Country: "Local", City: "localhost"}

type Options struct {
	Provider string
	Token    string
	// BaseURL overrides the provider's public endpoint.
	BaseURL string
	Timeout time.Duration
	// RPS caps outgoing lookups; zero means unlimited.
	RPS    float64
	Logger *slog.Logger
}

type Locator struct {
	provider string
	token    string
	base     string
	http     *http.Client
	limiter  *rate.Limiter
	log      *slog.Logger
}

func New(opts Options) (*Locator, error) {
	l := &Locator{
		provider: opts.Provider,
		token:    opts.Token,
		base:     strings.TrimRight(opts.BaseURL, "/"),
		http:     &http.Client{Timeout: opts.Timeout},
		log:      opts.Logger,
	}
	switch l.provider {
	case "", ProviderIPAPI:
		l.provider = ProviderIPAPI
		if l.base == "" {
			l.base = "https://ipapi.co"
		}
	case ProviderIPInfo:
		if l.base == "" {
			l.base = "https://ipinfo.io"
		}
	default:
		return nil, fmt.Errorf("unknown geo provider %q", opts.Provider)
	}
	if l.http.Timeout == 0 {
		l.http.Timeout = 4 * time.Second
	}
	if opts.RPS > 0 {
		l.limiter = rate.NewLimiter(rate.Limit(opts.RPS), max(1, int(opts.RPS)))
	}
	if l.log == nil {
		l.log = slog.Default()
	}
	return l, nil
}

// Locate looks ip up. Loopback addresses resolve to Local, private and
// unspecified ones to an empty Location, both without a request.
func (l *Locator) Locate(ctx context.Context, ip string) (Location, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return Location{}, fmt.Errorf("%w: %q", ErrInvalidIP, ip)
	}
	addr = addr.Unmap()
	switch {
	case addr.IsLoopback():
		return Local, nil
	case addr.IsPrivate(), addr.IsUnspecified(), addr.IsLinkLocalUnicast():
		return Location{}, nil
	}
	if l.limiter != nil && !l.limiter.Allow() {
		return Location{}, ErrRateLimited
	}

	if l.provider == ProviderIPInfo {
		return l.ipinfo(ctx, addr.String())
	}
	return l.ipapi(ctx, addr.String())
}

func (l *Locator) ipapi(ctx context.Context, ip string) (Location, error) {
	var body struct {
		Error       bool     `json:"error"`
		Reason      string   `json:"reason"`
		CountryName string   `json:"country_name"`
		Region      string   `json:"region"`
		City        string   `json:"city"`
		Latitude    *float64 `json:"latitude"`
		Longitude   *float64 `json:"longitude"`
	}
	if err := l.get(ctx, l.base+"/"+ip+"/json/", "", &body); err != nil {
		return Location{}, err
	}
	if body.Error {
		return Location{}, fmt.Errorf("ipapi: %s", body.Reason)
	}
	return Location{
		Country: body.CountryName,
		Region:  body.Region,
		City:    body.City,
		Lat:     body.Latitude,
		Lon:     body.Longitude,
	}, nil
}

func (l *Locator) ipinfo(ctx context.Context, ip string) (Location, error) {
	var body struct {
		Country string `json:"country"`
		Region  string `json:"region"`
		City    string `json:"city"`
		Loc     string `json:"loc"`
		Bogon   bool   `json:"bogon"`
	}
	if err := l.get(ctx, l.base+"/"+ip+"/json", l.token, &body); err != nil {
		return Location{}, err
	}
	if body.Bogon {
		return Location{}, nil
	}
	loc := Location{Country: body.Country, Region: body.Region, City: body.City}
	loc.Lat, loc.Lon = parseLoc(body.Loc)
	return loc, nil
}

func (l *Locator) get(ctx context.Context, url, token string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := l.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s lookup: %w", l.provider, err)
	}
	defer resp.Body.Close()
	l.log.Debug("geo lookup", "provider", l.provider, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s lookup: unexpected status %d", l.provider, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(v); err != nil {
		return fmt.Errorf("%s lookup: decode: %w", l.provider, err)
	}
	return nil
}

// parseLoc splits ipinfo's "lat,lon".
func parseLoc(s string) (lat, lon *float64) {
	a, b, ok := strings.Cut(s, ",")
	if !ok {
		return nil, nil
	}
	la, err1 := strconv.ParseFloat(strings.TrimSpace(a), 64)
	lo, err2 := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err1 != nil || err2 != nil {
		return nil, nil
	}
	return &la, &lo
}
