package models

import "time"

// LogEntry is one captured click as returned by GET /api/logs.
// ts, click_url, qr_url and link_id are always present; everything else is optional.
type LogEntry struct {
	ID        int64    `json:"id,omitempty"`
	Timestamp string   `json:"ts"`
	IP        string   `json:"ip,omitempty"`
	Country   string   `json:"country,omitempty"`
	Region    string   `json:"region,omitempty"`
	City      string   `json:"city,omitempty"`
	Lat       *float64 `json:"lat,omitempty"`
	Lon       *float64 `json:"lon,omitempty"`
	UserAgent string   `json:"user_agent,omitempty"`
	Referer   string   `json:"referer,omitempty"`
	Path      string   `json:"path,omitempty"`
	FileName  string   `json:"file_name,omitempty"`
	Campaign  string   `json:"campaign,omitempty"`
	ClickURL  string   `json:"click_url"`
	QRURL     string   `json:"qr_url"`
	LinkID    string   `json:"link_id"`
}

// LogPage is one page of clicks. Total counts every match, not just this page.
type LogPage struct {
	Items   []LogEntry `json:"items"`
	Page    int        `json:"page"`
	PerPage int        `json:"per_page,omitempty"`
	Total   int        `json:"total"`
}

// Link is a generated honeypot link. Deleting it removes its clicks too.
type Link struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	Campaign  string    `json:"campaign,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Click is the stored form of a LogEntry, before URLs are attached.
type Click struct {
	ID        int64
	LinkID    string
	Time      time.Time
	IP        string
	UserAgent string
	Referer   string
	Path      string
	Country   string
	Region    string
	City      string
	Lat       *float64
	Lon       *float64
}
