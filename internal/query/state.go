// Package query holds the filter and pagination parameters that drive the log view.
package query

import (
	"strconv"
	"strings"
	"time"
)

// Filter names a query filter. The value is also the query-string key.
type Filter string

const (
	FilterSearch   Filter = "q"
	FilterIP       Filter = "ip"
	FilterCampaign Filter = "campaign"
	FilterFile     Filter = "file"
	FilterDays     Filter = "days"
)

// Filters lists every recognised filter in form order.
var Filters = []Filter{FilterSearch, FilterIP, FilterCampaign, FilterFile, FilterDays}

const (
	DefaultPerPage = 25
	MaxPerPage     = 200
)

// Valid reports whether f is one of the recognised filters.
func (f Filter) Valid() bool {
	for _, known := range Filters {
		if f == known {
			return true
		}
	}
	return false
}

// State is the mutable view state. It is not safe for concurrent use; the
// dashboard only touches it from its event loop.
type State struct {
	page            int
	perPage         int
	filters         map[Filter]string
	refreshInterval time.Duration
}

func New() *State {
	return &State{
		page:    1,
		perPage: DefaultPerPage,
		filters: make(map[Filter]string),
	}
}

func (s *State) Page() int                      { return s.page }
func (s *State) PerPage() int                   { return s.perPage }
func (s *State) RefreshInterval() time.Duration { return s.refreshInterval }

// Filter returns the current value of f, or "" when unset.
func (s *State) Filter(f Filter) string { return s.filters[f] }

// SetFilter trims value and stores it. Unknown filters are ignored.
// Any change of the view resets the page.
func (s *State) SetFilter(f Filter, value string) {
	if !f.Valid() {
		return
	}
	value = strings.TrimSpace(value)
	if value == "" {
		delete(s.filters, f)
	} else {
		s.filters[f] = value
	}
	s.page = 1
}

// SetPerPage clamps n to [1, MaxPerPage] and resets the page.
func (s *State) SetPerPage(n int) {
	s.perPage = ClampPerPage(n)
	s.page = 1
}

// SetPerPageInput applies a raw per-page form value. Empty or non-numeric
// input falls back to DefaultPerPage.
func (s *State) SetPerPageInput(raw string) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		n = DefaultPerPage
	}
	s.SetPerPage(n)
}

func (s *State) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	s.page = n
}

// NextPage has no upper bound; the renderer disables forward navigation instead.
func (s *State) NextPage() { s.page++ }

func (s *State) PrevPage() { s.SetPage(s.page - 1) }

// SetRefreshInterval stores d; zero or negative disables auto-refresh.
func (s *State) SetRefreshInterval(d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.refreshInterval = d
}

// Snapshot copies the parameters a fetch needs.
func (s *State) Snapshot() Params {
	p := Params{Page: s.page, PerPage: s.perPage}
	if len(s.filters) > 0 {
		p.Filters = make(map[Filter]string, len(s.filters))
		for k, v := range s.filters {
			p.Filters[k] = v
		}
	}
	return p
}

// ClampPerPage bounds n to [1, MaxPerPage].
func ClampPerPage(n int) int {
	switch {
	case n < 1:
		return 1
	case n > MaxPerPage:
		return MaxPerPage
	}
	return n
}

// ParseRefreshInterval maps a refresh selector value in milliseconds to a
// duration. Anything that is not a positive integer disables auto-refresh.
func ParseRefreshInterval(raw string) time.Duration {
	ms, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
