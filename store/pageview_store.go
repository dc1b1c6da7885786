package store

import (
	"context"
	"database/sql"
	"fmt"

	"cathedral/analytics/models"
)

// PageViewStore reads and writes page-view rows in the shared record store.
// It implements tracker.RecordStore.
type PageViewStore struct {
	db *sql.DB
}

func NewPageViewStore(db *sql.DB) *PageViewStore {
	return &PageViewStore{db: db}
}

// InsertPageView records one page activation and returns the row id so the
// tracker can address later engagement updates directly.
func (s *PageViewStore) InsertPageView(ctx context.Context, pv models.PageView) (int64, error) {
	query := `
		INSERT INTO page_views (
			site, page_path, page_title, referrer, visitor_id, session_id,
			user_agent, screen_width, screen_height, viewed_at,
			time_on_page, scrolled_percentage
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, 0)
		RETURNING id;
	`
	var id int64
	err := s.db.QueryRowContext(ctx, query,
		pv.Site,
		pv.PagePath,
		pv.PageTitle,
		pv.Referrer,
		pv.VisitorID,
		pv.SessionID,
		pv.UserAgent,
		pv.ScreenWidth,
		pv.ScreenHeight,
		pv.ViewedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert page view: %w", err)
	}
	return id, nil
}

// UpdateEngagement rewrites the engagement totals of one page view by id.
// Flushes recompute the full totals, so repeating the same update is a no-op.
func (s *PageViewStore) UpdateEngagement(ctx context.Context, id int64, timeOnPage, scrolledPercentage int) error {
	query := `
		UPDATE page_views
		SET time_on_page = $2, scrolled_percentage = $3
		WHERE id = $1;
	`
	if _, err := s.db.ExecContext(ctx, query, id, timeOnPage, scrolledPercentage); err != nil {
		return fmt.Errorf("failed to update engagement for page view %d: %w", id, err)
	}
	return nil
}

// UpdateLatestEngagement updates the most recently created page view matching
// (visitor, session, path). Fallback path for when the insert never returned
// an id; matches at most one row.
func (s *PageViewStore) UpdateLatestEngagement(ctx context.Context, visitorID, sessionID, pagePath string, timeOnPage, scrolledPercentage int) error {
	query := `
		UPDATE page_views
		SET time_on_page = $4, scrolled_percentage = $5
		WHERE id = (
			SELECT id FROM page_views
			WHERE visitor_id = $1 AND session_id = $2 AND page_path = $3
			ORDER BY viewed_at DESC
			LIMIT 1
		);
	`
	_, err := s.db.ExecContext(ctx, query, visitorID, sessionID, pagePath, timeOnPage, scrolledPercentage)
	if err != nil {
		return fmt.Errorf("failed to update latest engagement for %s: %w", pagePath, err)
	}
	return nil
}
