// Package client talks to the honeypot backend: paged click queries and link deletion.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/agozel5/Honeypot/internal/csrf"
	"github.com/agozel5/Honeypot/internal/logger"
	"github.com/agozel5/Honeypot/internal/models"
	"github.com/agozel5/Honeypot/internal/query"
)

// maxBodySize bounds how much of a response is read (a 200-row page is far below it).
const maxBodySize = 8 << 20

type Client struct {
	base *url.URL
	http *http.Client
	log  *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the transport. The client's cookie jar is kept
// unless hc brings its own.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc.Jar == nil {
			hc.Jar = c.http.Jar
		}
		c.http = hc
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		base: u,
		http: &http.Client{Jar: jar, Timeout: 10 * time.Second},
		log:  logger.Get(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchPage runs the click query described by p.
func (c *Client) FetchPage(ctx context.Context, p query.Params) (*models.LogPage, error) {
	const op = "fetch logs"

	var body struct {
		Items *[]models.LogEntry `json:"items"`
		Page  *int               `json:"page"`
		Total *int               `json:"total"`
	}
	if err := c.getJSON(ctx, op, "/api/logs", p.Values(), &body); err != nil {
		return nil, err
	}
	if body.Items == nil || body.Page == nil || body.Total == nil {
		return nil, &ProtocolError{Op: op, Err: errors.New("response lacks items, page or total")}
	}
	if len(*body.Items) > p.PerPage {
		return nil, &ProtocolError{Op: op, Err: fmt.Errorf("%d items for a page of %d", len(*body.Items), p.PerPage)}
	}
	for i, e := range *body.Items {
		if err := checkEntry(e); err != nil {
			return nil, &ProtocolError{Op: op, Err: fmt.Errorf("item %d: %w", i, err)}
		}
	}
	return &models.LogPage{
		Items:   *body.Items,
		Page:    *body.Page,
		PerPage: p.PerPage,
		Total:   *body.Total,
	}, nil
}

// ListLinks returns the most recent links, as shown on the index page.
func (c *Client) ListLinks(ctx context.Context) ([]models.Link, error) {
	const op = "list links"

	var links []models.Link
	if err := c.getJSON(ctx, op, "/api/links", nil, &links); err != nil {
		return nil, err
	}
	for i, l := range links {
		if l.ID == "" {
			return nil, &ProtocolError{Op: op, Err: fmt.Errorf("link %d has no id", i)}
		}
	}
	return links, nil
}

// DeleteLink deletes a link and its clicks. Only a 2xx answer counts as success.
func (c *Client) DeleteLink(ctx context.Context, linkID string) error {
	const op = "delete link"

	ctx, log := c.requestContext(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.endpoint("/delete_link/"+url.PathEscape(linkID), nil), nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	c.decorate(ctx, req)
	if token := c.csrfToken(); token != "" {
		req.Header.Set(csrf.HeaderName, token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("delete failed", "link_id", linkID, "error", err)
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))

	log.Info("delete", "link_id", linkID, "status", resp.StatusCode, "duration", time.Since(start))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DeleteRejected{LinkID: linkID, Status: resp.StatusCode}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, q url.Values, out any) error {
	ctx, log := c.requestContext(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, q), nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	c.decorate(ctx, req)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("request failed", "op", op, "error", err)
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	log.Debug("request done", "op", op, "status", resp.StatusCode, "duration", time.Since(start))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ProtocolError{Op: op, Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ProtocolError{Op: op, Status: resp.StatusCode, Err: err}
	}
	return nil
}

// endpoint joins an already-escaped path and an optional query onto the base URL.
func (c *Client) endpoint(path string, q url.Values) string {
	s := c.base.String() + path
	if len(q) > 0 {
		s += "?" + q.Encode()
	}
	return s
}

func (c *Client) requestContext(ctx context.Context) (context.Context, *slog.Logger) {
	ctx = logger.WithLogger(ctx, c.log)
	ctx = logger.WithRequestID(ctx, logger.NewRequestID())
	return ctx, logger.FromContext(ctx)
}

func (c *Client) decorate(ctx context.Context, req *http.Request) {
	req.Header.Set("X-Request-ID", logger.RequestIDFromContext(ctx))
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
}

func (c *Client) csrfToken() string {
	if c.http.Jar == nil {
		return ""
	}
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name == csrf.CookieName {
			return ck.Value
		}
	}
	return ""
}

func checkEntry(e models.LogEntry) error {
	switch {
	case e.Timestamp == "":
		return errors.New("missing ts")
	case e.ClickURL == "":
		return errors.New("missing click_url")
	case e.QRURL == "":
		return errors.New("missing qr_url")
	case e.LinkID == "":
		return errors.New("missing link_id")
	}
	return nil
}
