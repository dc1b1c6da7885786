// Package stats reduces raw order rows into network-wide rollup statistics.
// The computation is pure and stateless: every request re-filters and
// re-reduces the rows it is given, so it can run on any number of concurrent
// requests with no shared state.
package stats

import (
	"sort"
	"strconv"
	"time"

	"cathedral/analytics/models"
	"cathedral/analytics/sites"
)

// TimeRange selects the lower bound of the aggregation window, measured from
// the current day boundary. "all" applies no lower bound.
type TimeRange string

const (
	Range7d  TimeRange = "7d"
	Range30d TimeRange = "30d"
	Range90d TimeRange = "90d"
	RangeAll TimeRange = "all"
)

// IsValidTimeRange reports whether s is one of the supported range tokens.
func IsValidTimeRange(s string) bool {
	switch TimeRange(s) {
	case Range7d, Range30d, Range90d, RangeAll:
		return true
	default:
		return false
	}
}

// SiteAll passes every site through the site filter.
const SiteAll = "all"

// FunnelInput carries upstream funnel counts from an external analytics
// source. A nil input marks the upstream stages as approximate.
type FunnelInput struct {
	Visitors  uint64
	AddToCart uint64
	Checkout  uint64
}

// ComputeNetworkStats filters orders by time range and site, then reduces
// them into a NetworkStats rollup. now anchors the window boundaries and is
// truncated to its local calendar day.
func ComputeNetworkStats(orders []models.Order, rng TimeRange, site string, now time.Time, funnel *FunnelInput) models.NetworkStats {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekAgo := today.AddDate(0, 0, -7)
	monthAgo := today.AddDate(0, 0, -30)

	var lowerBound time.Time
	hasBound := true
	switch rng {
	case Range7d:
		lowerBound = weekAgo
	case Range30d:
		lowerBound = monthAgo
	case Range90d:
		lowerBound = today.AddDate(0, 0, -90)
	default:
		hasBound = false
	}

	filtered := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if hasBound && o.CreatedAt.Before(lowerBound) {
			continue
		}
		if site != SiteAll && site != "" && o.Site != site {
			continue
		}
		filtered = append(filtered, o)
	}

	totalRevenue := sumRevenue(filtered)
	totalOrders := len(filtered)
	customers := make(map[string]struct{}, totalOrders)
	for _, o := range filtered {
		customers[o.CustomerEmail] = struct{}{}
	}

	avg := 0.0
	if totalOrders > 0 {
		avg = totalRevenue / float64(totalOrders)
	}

	return models.NetworkStats{
		TotalRevenue:      totalRevenue,
		TotalOrders:       totalOrders,
		TotalCustomers:    len(customers),
		AverageOrderValue: avg,
		BySite:            bySite(filtered),
		ByTimeRange: models.TimeRangeRevenue{
			Today:     sumRevenueSince(filtered, today),
			ThisWeek:  sumRevenueSince(filtered, weekAgo),
			ThisMonth: sumRevenueSince(filtered, monthAgo),
		},
		TopProducts:      topProducts(filtered, 10),
		ConversionFunnel: buildFunnel(totalOrders, funnel),
	}
}

// parseAmount turns a stored amount string into a float. Malformed or
// negative values count as zero so one bad row never sinks the rollup.
func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func sumRevenue(orders []models.Order) float64 {
	var sum float64
	for _, o := range orders {
		sum += parseAmount(o.TotalAmount)
	}
	return sum
}

// sumRevenueSince re-filters the already-filtered set, so an outer 7d window
// caps what the month bucket can see.
func sumRevenueSince(orders []models.Order, since time.Time) float64 {
	var sum float64
	for _, o := range orders {
		if !o.CreatedAt.Before(since) {
			sum += parseAmount(o.TotalAmount)
		}
	}
	return sum
}

// bySite breaks the filtered set down per registry site. Sites with no rows
// still appear with zeros.
func bySite(orders []models.Order) []models.SiteStats {
	out := make([]models.SiteStats, 0, len(sites.All()))
	for _, s := range sites.All() {
		var revenue float64
		var count int
		siteCustomers := make(map[string]struct{})
		for _, o := range orders {
			if o.Site != s.Domain {
				continue
			}
			revenue += parseAmount(o.TotalAmount)
			count++
			siteCustomers[o.CustomerEmail] = struct{}{}
		}
		out = append(out, models.SiteStats{
			Site:      s.Name,
			Revenue:   revenue,
			Orders:    count,
			Customers: len(siteCustomers),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Revenue > out[j].Revenue
	})
	return out
}

// topProducts explodes line items, groups by exact product name and keeps the
// n highest-revenue products. Ties break by name so the order is stable.
func topProducts(orders []models.Order, n int) []models.TopProduct {
	type acc struct {
		quantity int
		revenue  float64
		sites    map[string]struct{}
	}
	byName := make(map[string]*acc)
	for _, o := range orders {
		for _, item := range o.Items {
			a := byName[item.Name]
			if a == nil {
				a = &acc{sites: make(map[string]struct{})}
				byName[item.Name] = a
			}
			a.quantity += item.Quantity
			a.revenue += item.Price * float64(item.Quantity)
			a.sites[o.Site] = struct{}{}
		}
	}

	out := make([]models.TopProduct, 0, len(byName))
	for name, a := range byName {
		siteList := make([]string, 0, len(a.sites))
		for s := range a.sites {
			siteList = append(siteList, s)
		}
		sort.Strings(siteList)
		out = append(out, models.TopProduct{
			Name:     name,
			Quantity: a.quantity,
			Revenue:  a.revenue,
			Sites:    siteList,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// buildFunnel fills the conversion funnel. Completed is always the filtered
// order count; the upstream stages come from the external input when present.
func buildFunnel(completed int, in *FunnelInput) models.ConversionFunnel {
	f := models.ConversionFunnel{Completed: completed}
	if in == nil {
		f.Approximate = true
		return f
	}
	f.Visitors = in.Visitors
	f.AddToCart = in.AddToCart
	f.Checkout = in.Checkout
	return f
}

// FunnelPercent returns stage/visitors as a percentage, guarding the zero
// denominator a missing upstream source leaves behind.
func FunnelPercent(stage, visitors uint64) float64 {
	if visitors == 0 {
		return 0
	}
	return float64(stage) / float64(visitors) * 100
}
