// Package render turns API pages into table rows with escaped markup.
package render

import (
	"fmt"
	"html/template"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/x/ansi"

	"github.com/agozel5/Honeypot/internal/models"
)

var (
	LogColumns  = []string{"Date", "IP", "Lieu", "User-Agent", "Fichier", "Campagne", "Actions"}
	LinkColumns = []string{"ID", "Fichier", "Campagne", "Créé le", "Actions"}
)

const rowTemplates = `
{{define "log"}}<tr data-id="{{.LinkID}}"><td>{{.Timestamp}}</td><td>{{.IP}}</td><td>{{.Location}}</td><td>{{.UserAgent}}</td><td>{{.FileName}}</td><td>{{.Campaign}}</td><td><a href="{{.ClickURL}}" target="_blank" rel="noopener">ouvrir</a> · <a href="{{.QRURL}}" target="_blank" rel="noopener">QR</a> · <button class="delete-link-btn" data-id="{{.LinkID}}">Supprimer</button></td></tr>{{end}}
{{define "link"}}<tr data-id="{{.ID}}"><td><code>{{.ID}}</code></td><td>{{.FileName}}</td><td>{{.Campaign}}</td><td>{{.CreatedAt}}</td><td><button class="delete-link-btn" data-id="{{.ID}}">Supprimer</button></td></tr>{{end}}
`

type Renderer struct {
	tmpl *template.Template
}

func New() *Renderer {
	return &Renderer{tmpl: template.Must(template.New("rows").Parse(rowTemplates))}
}

type logRow struct {
	LinkID    string
	Timestamp string
	IP        string
	Location  string
	UserAgent string
	FileName  string
	Campaign  string
	ClickURL  template.URL
	QRURL     template.URL
}

type linkRow struct {
	ID        string
	FileName  string
	Campaign  string
	CreatedAt string
}

// Render replaces the table's rows with one row per entry, in server order,
// then updates the status line and pager state. onDelete is bound to each
// row's delete affordance with the entry's link id.
func (r *Renderer) Render(t *Table, page *models.LogPage, perPage int, onDelete func(linkID string)) error {
	rows := make([]Row, 0, len(page.Items))
	for _, e := range page.Items {
		data := logRow{
			LinkID:    e.LinkID,
			Timestamp: Plain(e.Timestamp),
			IP:        Plain(e.IP),
			Location:  Plain(Location(e.Country, e.City)),
			UserAgent: Plain(e.UserAgent),
			FileName:  Plain(e.FileName),
			Campaign:  Plain(e.Campaign),
			ClickURL:  template.URL(e.ClickURL),
			QRURL:     template.URL(e.QRURL),
		}
		html, err := r.exec("log", data)
		if err != nil {
			return err
		}
		rows = append(rows, Row{
			ID:       e.LinkID,
			Cells:    []string{data.Timestamp, data.IP, data.Location, data.UserAgent, data.FileName, data.Campaign, "ouvrir · QR · Supprimer"},
			HTML:     html,
			onDelete: onDelete,
		})
	}

	t.replace(LogColumns, rows,
		Status(page.Page, len(page.Items), page.Total), nil,
		page.Page <= 1,
		page.Page*perPage >= page.Total,
	)
	return nil
}

// RenderLinks fills the table with the static link list of the index view.
// There is no pagination there, so both pager buttons stay disabled.
func (r *Renderer) RenderLinks(t *Table, links []models.Link, onDelete func(linkID string)) error {
	rows := make([]Row, 0, len(links))
	for _, l := range links {
		data := linkRow{
			ID:       Plain(l.ID),
			FileName: Plain(l.FileName),
			Campaign: Plain(l.Campaign),
		}
		if !l.CreatedAt.IsZero() {
			data.CreatedAt = l.CreatedAt.Format(time.DateTime)
		}
		html, err := r.exec("link", data)
		if err != nil {
			return err
		}
		rows = append(rows, Row{
			ID:       l.ID,
			Cells:    []string{data.ID, data.FileName, data.Campaign, data.CreatedAt, "Supprimer"},
			HTML:     html,
			onDelete: onDelete,
		})
	}
	t.replace(LinkColumns, rows, LinkStatus(len(rows)), LinkStatus, true, true)
	return nil
}

func (r *Renderer) exec(name string, data any) (template.HTML, error) {
	var b strings.Builder
	if err := r.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("render %s row: %w", name, err)
	}
	return template.HTML(b.String()), nil
}

// Status is the line shown under the table.
func Status(page, shown, total int) string {
	return fmt.Sprintf("Page %d • %d / %d entrées", page, shown, total)
}

// LinkStatus is the index view's status line.
func LinkStatus(n int) string {
	return fmt.Sprintf("%d liens", n)
}

// Plain makes untrusted text safe to print on a terminal: escape sequences
// are dropped, then any control character left over.
func Plain(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, ansi.Strip(s))
}

// Location joins country and city the way the table shows them.
func Location(country, city string) string {
	if city == "" {
		return country
	}
	return strings.TrimSpace(country + " • " + city)
}
