package stats

import "cathedral/analytics/models"

// SampleNetworkStats returns the fixed example rollup served when the order
// store is missing or unreachable, so the dashboard never renders a broken
// state. Sample is set so consumers and tests can tell it from live data.
func SampleNetworkStats() models.NetworkStats {
	return models.NetworkStats{
		TotalRevenue:      24567.89,
		TotalOrders:       432,
		TotalCustomers:    318,
		AverageOrderValue: 56.85,
		BySite: []models.SiteStats{
			{Site: "Git is Life", Revenue: 8234.12, Orders: 145, Customers: 112},
			{Site: "Git Theology", Revenue: 6421.33, Orders: 98, Customers: 87},
			{Site: "Git is Truth", Revenue: 4123.44, Orders: 78, Customers: 65},
			{Site: "Git is Love", Revenue: 2987.11, Orders: 52, Customers: 44},
			{Site: "Git is Eternal", Revenue: 1234.56, Orders: 31, Customers: 27},
			{Site: "Git is Forever", Revenue: 987.23, Orders: 18, Customers: 16},
			{Site: "Git Manifesto", Revenue: 580.10, Orders: 10, Customers: 9},
		},
		ByTimeRange: models.TimeRangeRevenue{
			Today:     456.78,
			ThisWeek:  3421.90,
			ThisMonth: 14567.23,
		},
		TopProducts: []models.TopProduct{
			{Name: "Cathedral Network Hoodie", Quantity: 89, Revenue: 4450.11, Sites: []string{"git-theology.com", "git-truth.com", "git-islove.com"}},
			{Name: "Git is Life T-Shirt", Quantity: 145, Revenue: 4349.55, Sites: []string{"git-islife.com", "git-theology.com"}},
			{Name: "Git Truth Sticker Pack", Quantity: 234, Revenue: 1401.66, Sites: []string{"git-truth.com", "git-islife.com"}},
		},
		ConversionFunnel: models.ConversionFunnel{
			Visitors:    12450,
			AddToCart:   847,
			Checkout:    523,
			Completed:   432,
			Approximate: true,
		},
		Sample: true,
	}
}
