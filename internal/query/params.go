package query

import (
	"net/url"
	"strconv"
)

// Params is an immutable snapshot of State taken when a request is issued.
type Params struct {
	Page    int
	PerPage int
	Filters map[Filter]string
}

// Values encodes p as the /api/logs query string. Empty filters are omitted.
func (p Params) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(p.Page))
	v.Set("per_page", strconv.Itoa(p.PerPage))
	for _, f := range Filters {
		if val := p.Filters[f]; val != "" {
			v.Set(string(f), val)
		}
	}
	return v
}

// Equal reports whether p and o would produce the same query.
func (p Params) Equal(o Params) bool {
	return p.Values().Encode() == o.Values().Encode()
}
