// api/internal/store/visitor_store.go
package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"cathedral/analytics/database"
	"cathedral/analytics/models"
)

// VisitorStore is the ClickHouse sink for raw page-view rows and the query
// side of the per-site visitor widget. Page views are mirrored here
// best-effort; the Postgres table stays the source of truth for engagement.
type VisitorStore struct {
	DB *database.ClickHouseClient
}

func NewVisitorStore(chClient *database.ClickHouseClient) *VisitorStore {
	return &VisitorStore{
		DB: chClient,
	}
}

// InsertPageViews batch-inserts page views into the analytics table.
func (s *VisitorStore) InsertPageViews(ctx context.Context, views []models.PageView) error {
	if len(views) == 0 {
		return nil
	}

	batch, err := s.DB.Conn.PrepareBatch(ctx, `
		INSERT INTO page_views (
			site, page_path, page_title, referrer, visitor_id, session_id,
			user_agent, screen_width, screen_height, viewed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch insert: %w", err)
	}

	for _, pv := range views {
		referrer := ""
		if pv.Referrer != nil {
			referrer = *pv.Referrer
		}
		err := batch.Append(
			pv.Site,
			pv.PagePath,
			pv.PageTitle,
			referrer,
			pv.VisitorID,
			pv.SessionID,
			pv.UserAgent,
			pv.ScreenWidth,
			pv.ScreenHeight,
			pv.ViewedAt,
		)
		if err != nil {
			log.Printf("Error appending page view to batch (%s%s): %v", pv.Site, pv.PagePath, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	return nil
}

// GetVisitorStats builds the visitor widget numbers for one site: page views,
// unique visitors and sessions for today, plus week/month counts, the top
// pages and the top referrers. now anchors the day boundary.
func (s *VisitorStore) GetVisitorStats(ctx context.Context, site string, now time.Time) (models.VisitorStats, error) {
	var stats models.VisitorStats

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekAgo := today.AddDate(0, 0, -7)
	monthAgo := today.AddDate(0, 0, -30)

	query := `
		SELECT count(), uniq(visitor_id), uniq(session_id)
		FROM page_views
		WHERE site = ? AND viewed_at >= ?
	`
	err := s.DB.Conn.QueryRow(ctx, query, site, today).Scan(
		&stats.Today.PageViews,
		&stats.Today.UniqueVisitors,
		&stats.Today.Sessions,
	)
	if err != nil {
		return stats, fmt.Errorf("failed to query today's visitor stats: %w", err)
	}

	var sessions uint64
	if err := s.DB.Conn.QueryRow(ctx, query, site, weekAgo).Scan(
		&stats.ThisWeek.PageViews, &stats.ThisWeek.UniqueVisitors, &sessions,
	); err != nil {
		return stats, fmt.Errorf("failed to query weekly visitor stats: %w", err)
	}
	if err := s.DB.Conn.QueryRow(ctx, query, site, monthAgo).Scan(
		&stats.ThisMonth.PageViews, &stats.ThisMonth.UniqueVisitors, &sessions,
	); err != nil {
		return stats, fmt.Errorf("failed to query monthly visitor stats: %w", err)
	}

	stats.PopularPages, err = s.PopularPages(ctx, site, monthAgo, 5)
	if err != nil {
		return stats, err
	}
	stats.TopReferrers, err = s.TopReferrers(ctx, site, monthAgo, 5)
	if err != nil {
		return stats, err
	}

	return stats, nil
}

// PopularPages returns the most viewed paths for a site since start.
func (s *VisitorStore) PopularPages(ctx context.Context, site string, start time.Time, limit uint64) ([]models.PageCount, error) {
	if limit == 0 {
		limit = 5
	}

	query := `
		SELECT page_path, count() AS view_count
		FROM page_views
		WHERE site = ? AND viewed_at >= ?
		GROUP BY page_path
		ORDER BY view_count DESC
		LIMIT ?
	`
	rows, err := s.DB.Conn.Query(ctx, query, site, start, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query popular pages: %w", err)
	}
	defer rows.Close()

	var results []models.PageCount
	for rows.Next() {
		var pc models.PageCount
		if err := rows.Scan(&pc.Path, &pc.Views); err != nil {
			log.Printf("Error scanning row for popular pages: %v", err)
			continue
		}
		results = append(results, pc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for popular pages: %w", err)
	}

	return results, nil
}

// TopReferrers returns the most common non-empty referrers for a site.
func (s *VisitorStore) TopReferrers(ctx context.Context, site string, start time.Time, limit uint64) ([]models.ReferrerCount, error) {
	if limit == 0 {
		limit = 5
	}

	query := `
		SELECT referrer, count() AS visit_count
		FROM page_views
		WHERE site = ? AND viewed_at >= ? AND referrer != ''
		GROUP BY referrer
		ORDER BY visit_count DESC
		LIMIT ?
	`
	rows, err := s.DB.Conn.Query(ctx, query, site, start, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top referrers: %w", err)
	}
	defer rows.Close()

	var results []models.ReferrerCount
	for rows.Next() {
		var rc models.ReferrerCount
		if err := rows.Scan(&rc.Source, &rc.Visits); err != nil {
			log.Printf("Error scanning row for top referrers: %v", err)
			continue
		}
		results = append(results, rc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for top referrers: %w", err)
	}

	return results, nil
}

// UniqueVisitors counts distinct visitors in a window, network-wide when site
// is empty or "all". Feeds the conversion funnel's visitor stage.
func (s *VisitorStore) UniqueVisitors(ctx context.Context, site string, start, end time.Time) (uint64, error) {
	query := `SELECT uniq(visitor_id) FROM page_views WHERE viewed_at >= ? AND viewed_at <= ?`
	args := []interface{}{start, end}

	if site != "" && site != "all" {
		query += ` AND site = ?`
		args = append(args, site)
	}

	var visitors uint64
	if err := s.DB.Conn.QueryRow(ctx, query, args...).Scan(&visitors); err != nil {
		return 0, fmt.Errorf("failed to query unique visitors: %w", err)
	}

	return visitors, nil
}
