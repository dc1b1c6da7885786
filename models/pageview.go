// api/internal/models/pageview.go
package models

import "time"

// PageView represents a single page activation on one of the network sites.
// TimeOnPage and ScrolledPercentage start at zero and are rewritten by later
// engagement flushes; everything else is fixed at creation.
type PageView struct {
	ID                 int64     `json:"id,omitempty"`
	Site               string    `json:"site"`
	PagePath           string    `json:"pagePath"`
	PageTitle          string    `json:"pageTitle"`
	Referrer           *string   `json:"referrer"`
	VisitorID          string    `json:"visitorId"`
	SessionID          string    `json:"sessionId"`
	UserAgent          string    `json:"userAgent"`
	ScreenWidth        int       `json:"screenWidth"`
	ScreenHeight       int       `json:"screenHeight"`
	ViewedAt           time.Time `json:"viewedAt"`
	TimeOnPage         int       `json:"timeOnPage"`
	ScrolledPercentage int       `json:"scrolledPercentage"`
}

// EngagementUpdate is the payload of an engagement flush. PageViewID is the
// identifier returned by the original insert; when it is zero the update falls
// back to matching the most recent view for (visitor, session, path).
type EngagementUpdate struct {
	PageViewID         int64  `json:"pageViewId,omitempty"`
	VisitorID          string `json:"visitorId"`
	SessionID          string `json:"sessionId"`
	PagePath           string `json:"pagePath"`
	TimeOnPage         int    `json:"timeOnPage"`
	ScrolledPercentage int    `json:"scrolledPercentage"`
}
