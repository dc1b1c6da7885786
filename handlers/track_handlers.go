// api/handlers/track_handlers.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"cathedral/analytics/models"
	"cathedral/analytics/store"

	"github.com/gin-gonic/gin"
)

// TrackHandlers ingests page views and engagement flushes from the network
// sites. Either store may be nil when its backend is not configured; in that
// case telemetry is accepted and dropped so the sites never see an error.
type TrackHandlers struct {
	PageViews *store.PageViewStore
	Visitors  *store.VisitorStore
}

func NewTrackHandlers(pageViews *store.PageViewStore, visitors *store.VisitorStore) *TrackHandlers {
	return &TrackHandlers{
		PageViews: pageViews,
		Visitors:  visitors,
	}
}

// TrackPageView records one page activation and returns the row id the
// client uses to address later engagement flushes.
func (h *TrackHandlers) TrackPageView(c *gin.Context) {
	var pv models.PageView
	if err := c.ShouldBindJSON(&pv); err != nil {
		log.Printf("Error binding incoming page view JSON: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if pv.ViewedAt.IsZero() {
		pv.ViewedAt = time.Now().UTC()
	}
	if pv.UserAgent == "" {
		pv.UserAgent = c.Request.UserAgent()
	}

	if h.PageViews == nil {
		// Telemetry disabled; acknowledge so the page carries on.
		c.JSON(http.StatusAccepted, gin.H{"id": 0})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	id, err := h.PageViews.InsertPageView(ctx, pv)
	if err != nil {
		log.Printf("Error inserting page view: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record page view"})
		return
	}

	// Mirror into the ClickHouse sink best-effort; losing the mirror only
	// costs widget precision, never the request.
	if h.Visitors != nil {
		if err := h.Visitors.InsertPageViews(ctx, []models.PageView{pv}); err != nil {
			log.Printf("Error mirroring page view to ClickHouse: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"id": id})
}

// TrackEngagement applies an engagement flush. The id-based path is
// preferred; the tuple path matches the latest view for
// (visitor, session, path) when the original insert never returned an id.
func (h *TrackHandlers) TrackEngagement(c *gin.Context) {
	var upd models.EngagementUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		log.Printf("Error binding incoming engagement JSON: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if upd.ScrolledPercentage < 0 {
		upd.ScrolledPercentage = 0
	}
	if upd.ScrolledPercentage > 100 {
		upd.ScrolledPercentage = 100
	}

	if h.PageViews == nil {
		c.Status(http.StatusAccepted)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	var err error
	if upd.PageViewID != 0 {
		err = h.PageViews.UpdateEngagement(ctx, upd.PageViewID, upd.TimeOnPage, upd.ScrolledPercentage)
	} else {
		err = h.PageViews.UpdateLatestEngagement(ctx, upd.VisitorID, upd.SessionID, upd.PagePath, upd.TimeOnPage, upd.ScrolledPercentage)
	}
	if err != nil {
		log.Printf("Error updating engagement: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record engagement"})
		return
	}

	c.Status(http.StatusOK)
}
