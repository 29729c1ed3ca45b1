package repository

import (
	"context"
	"errors"
	"time"

	"github.com/agozel5/Honeypot/internal/models"
)

var ErrLinkNotFound = errors.New("link not found")

// ClickFilters mirrors the /api/logs query parameters.
type ClickFilters struct {
	IP           string
	Campaign     string
	FileContains string
	// Search matches user agent, referer or file name.
	Search string
	Since  *time.Time
}

// CampaignStat aggregates the links of one campaign. Campaign is empty for
// links created without one.
type CampaignStat struct {
	Campaign string  `json:"campaign"`
	Links    int     `json:"links"`
	Clicks   int     `json:"clicks"`
	CTR      float64 `json:"ctr"`
}

// ClickRow is a click joined with the link it was made through.
type ClickRow struct {
	models.Click
	FileName string
	Campaign string
}

type ClickRepository interface {
	QueryClicks(ctx context.Context, filters ClickFilters, limit, offset int) ([]ClickRow, int, error)
	InsertClicks(ctx context.Context, clicks []models.Click) error
	DeleteClicksOlderThan(ctx context.Context, t time.Time) (int64, error)

	CampaignStats(ctx context.Context) ([]CampaignStat, error)
	// DeleteCampaign removes every link of the campaign with their clicks
	// and returns how many links went.
	DeleteCampaign(ctx context.Context, campaign string) (int, error)

	GetLink(ctx context.Context, id string) (*models.Link, error)
	ListLinks(ctx context.Context, limit int) ([]models.Link, error)
	CreateLinks(ctx context.Context, links []models.Link) error
	// DeleteLink removes the link and every click made through it.
	DeleteLink(ctx context.Context, id string) error
}
