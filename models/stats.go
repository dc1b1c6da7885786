package models

// NetworkStats is the rollup computed over the filtered order set. It is
// derived per request and discarded after rendering.
type NetworkStats struct {
	TotalRevenue      float64          `json:"totalRevenue"`
	TotalOrders       int              `json:"totalOrders"`
	TotalCustomers    int              `json:"totalCustomers"`
	AverageOrderValue float64          `json:"averageOrderValue"`
	BySite            []SiteStats      `json:"bySite"`
	ByTimeRange       TimeRangeRevenue `json:"byTimeRange"`
	TopProducts       []TopProduct     `json:"topProducts"`
	ConversionFunnel  ConversionFunnel `json:"conversionFunnel"`

	// Sample is true when the rollup came from the built-in example dataset
	// because no order store was reachable.
	Sample bool `json:"sample"`
}

// SiteStats is the per-site slice of the rollup. Every registry site appears
// even when it has no matching orders.
type SiteStats struct {
	Site      string  `json:"site"`
	Revenue   float64 `json:"revenue"`
	Orders    int     `json:"orders"`
	Customers int     `json:"customers"`
}

// TimeRangeRevenue buckets revenue of the already-filtered order set by
// recency from the current day boundary.
type TimeRangeRevenue struct {
	Today     float64 `json:"today"`
	ThisWeek  float64 `json:"thisWeek"`
	ThisMonth float64 `json:"thisMonth"`
}

// TopProduct aggregates one product name across every order in the window.
type TopProduct struct {
	Name     string   `json:"name"`
	Quantity int      `json:"quantity"`
	Revenue  float64  `json:"revenue"`
	Sites    []string `json:"sites"`
}

// ConversionFunnel reports the purchase funnel. Completed always equals the
// filtered order count; the earlier stages come from an external analytics
// source and are flagged Approximate when that source was unavailable.
type ConversionFunnel struct {
	Visitors    uint64 `json:"visitors"`
	AddToCart   uint64 `json:"addToCart"`
	Checkout    uint64 `json:"checkout"`
	Completed   int    `json:"completed"`
	Approximate bool   `json:"approximate"`
}

// VisitorStats is the per-site traffic widget payload.
type VisitorStats struct {
	Today struct {
		PageViews      uint64 `json:"pageViews"`
		UniqueVisitors uint64 `json:"uniqueVisitors"`
		Sessions       uint64 `json:"sessions"`
	} `json:"today"`
	ThisWeek struct {
		PageViews      uint64 `json:"pageViews"`
		UniqueVisitors uint64 `json:"uniqueVisitors"`
	} `json:"thisWeek"`
	ThisMonth struct {
		PageViews      uint64 `json:"pageViews"`
		UniqueVisitors uint64 `json:"uniqueVisitors"`
	} `json:"thisMonth"`
	PopularPages []PageCount     `json:"popularPages"`
	TopReferrers []ReferrerCount `json:"topReferrers"`
}

type PageCount struct {
	Path  string `json:"path"`
	Views uint64 `json:"views"`
}

type ReferrerCount struct {
	Source string `json:"source"`
	Visits uint64 `json:"visits"`
}
