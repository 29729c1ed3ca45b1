package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/agozel5/Honeypot/internal/models"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS links (
	id TEXT PRIMARY KEY,
	file_name TEXT NOT NULL,
	campaign TEXT,
	created_at REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS clicks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	link_id TEXT NOT NULL REFERENCES links(id),
	ts REAL NOT NULL,
	ip TEXT,
	user_agent TEXT,
	referer TEXT,
	path TEXT,
	country TEXT,
	region TEXT,
	city TEXT,
	lat REAL,
	lon REAL
);

CREATE INDEX IF NOT EXISTS idx_links_campaign ON links(campaign);
CREATE INDEX IF NOT EXISTS idx_links_created_at ON links(created_at);
CREATE INDEX IF NOT EXISTS idx_clicks_link_id ON clicks(link_id);
CREATE INDEX IF NOT EXISTS idx_clicks_ts ON clicks(ts);
CREATE INDEX IF NOT EXISTS idx_clicks_ip ON clicks(ip);
`

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// One connection: keeps ":memory:" databases shared and writes serialised.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) QueryClicks(ctx context.Context, filters ClickFilters, limit, offset int) ([]ClickRow, int, error) {
	var args []interface{}
	var where []string

	if filters.IP != "" {
		where = append(where, "c.ip = ?")
		args = append(args, filters.IP)
	}
	if filters.Campaign != "" {
		where = append(where, "l.campaign = ?")
		args = append(args, filters.Campaign)
	}
	if filters.FileContains != "" {
		where = append(where, "l.file_name LIKE ?")
		args = append(args, "%"+filters.FileContains+"%")
	}
	if filters.Search != "" {
		like := "%" + filters.Search + "%"
		where = append(where, "(c.user_agent LIKE ? OR c.referer LIKE ? OR l.file_name LIKE ?)")
		args = append(args, like, like, like)
	}
	if filters.Since != nil {
		where = append(where, "c.ts >= ?")
		args = append(args, epoch(*filters.Since))
	}

	from := " FROM clicks c JOIN links l ON l.id = c.link_id"
	if len(where) > 0 {
		from += " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*)"+from, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.link_id, c.ts, c.ip, c.user_agent, c.referer, c.path,
			c.country, c.region, c.city, c.lat, c.lon, l.file_name, l.campaign`+from+
			" ORDER BY c.ts DESC, c.id DESC LIMIT ? OFFSET ?",
		args...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []ClickRow
	for rows.Next() {
		var (
			row                                          ClickRow
			ts                                           float64
			ip, ua, ref, path, country, region, city, cp sql.NullString
			lat, lon                                     sql.NullFloat64
		)
		err := rows.Scan(&row.ID, &row.LinkID, &ts, &ip, &ua, &ref, &path,
			&country, &region, &city, &lat, &lon, &row.FileName, &cp)
		if err != nil {
			return nil, 0, err
		}
		row.Time = fromEpoch(ts)
		row.IP, row.UserAgent, row.Referer, row.Path = ip.String, ua.String, ref.String, path.String
		row.Country, row.Region, row.City, row.Campaign = country.String, region.String, city.String, cp.String
		if lat.Valid {
			row.Lat = &lat.Float64
		}
		if lon.Valid {
			row.Lon = &lon.Float64
		}
		out = append(out, row)
	}
	return out, total, rows.Err()
}

func (r *SQLiteRepository) InsertClicks(ctx context.Context, clicks []models.Click) error {
	if len(clicks) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO clicks (link_id, ts, ip, user_agent, referer, path, country, region, city, lat, lon) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, c := range clicks {
		ts := c.Time
		if ts.IsZero() {
			ts = time.Now()
		}
		_, err := stmt.ExecContext(ctx, c.LinkID, epoch(ts), nullable(c.IP), nullable(c.UserAgent), nullable(c.Referer),
			nullable(c.Path), nullable(c.Country), nullable(c.Region), nullable(c.City), c.Lat, c.Lon)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) DeleteClicksOlderThan(ctx context.Context, t time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM clicks WHERE ts < ?", epoch(t))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CampaignStats counts links and clicks per campaign, busiest first.
func (r *SQLiteRepository) CampaignStats(ctx context.Context) ([]CampaignStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(l.campaign, ''), COUNT(DISTINCT l.id), COUNT(c.id)
		FROM links l LEFT JOIN clicks c ON c.link_id = l.id
		GROUP BY COALESCE(l.campaign, '')
		ORDER BY COUNT(c.id) DESC, COALESCE(l.campaign, '')`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []CampaignStat
	for rows.Next() {
		var s CampaignStat
		if err := rows.Scan(&s.Campaign, &s.Links, &s.Clicks); err != nil {
			return nil, err
		}
		if s.Links > 0 {
			s.CTR = float64(s.Clicks) / float64(s.Links)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (r *SQLiteRepository) GetLink(ctx context.Context, id string) (*models.Link, error) {
	var (
		l        models.Link
		campaign sql.NullString
		created  float64
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, file_name, campaign, created_at FROM links WHERE id = ?", id,
	).Scan(&l.ID, &l.FileName, &campaign, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}
	l.Campaign = campaign.String
	l.CreatedAt = fromEpoch(created)
	return &l, nil
}

func (r *SQLiteRepository) ListLinks(ctx context.Context, limit int) ([]models.Link, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, file_name, campaign, created_at FROM links ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []models.Link
	for rows.Next() {
		var (
			l        models.Link
			campaign sql.NullString
			created  float64
		)
		if err := rows.Scan(&l.ID, &l.FileName, &campaign, &created); err != nil {
			return nil, err
		}
		l.Campaign = campaign.String
		l.CreatedAt = fromEpoch(created)
		links = append(links, l)
	}
	return links, rows.Err()
}

func (r *SQLiteRepository) CreateLinks(ctx context.Context, links []models.Link) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, l := range links {
		created := l.CreatedAt
		if created.IsZero() {
			created = time.Now()
		}
		_, err := tx.ExecContext(ctx, "INSERT INTO links (id, file_name, campaign, created_at) VALUES (?, ?, ?, ?)",
			l.ID, l.FileName, nullable(l.Campaign), epoch(created))
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) DeleteLink(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM clicks WHERE link_id = ?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM links WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLinkNotFound
	}
	return tx.Commit()
}

func (r *SQLiteRepository) DeleteCampaign(ctx context.Context, campaign string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM clicks WHERE link_id IN (SELECT id FROM links WHERE campaign = ?)", campaign); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM links WHERE campaign = ?", campaign)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), tx.Commit()
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func epoch(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func fromEpoch(f float64) time.Time {
	sec := int64(f)
	return time.Unix(sec, int64((f-float64(sec))*1e9)).UTC()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
