package stats

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cathedral/analytics/models"
	"cathedral/analytics/sites"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestComputeNetworkStatsTotals(t *testing.T) {
	orders := []models.Order{
		{Site: "git-islife.com", TotalAmount: "50.00", CustomerEmail: "a@x.com", CreatedAt: date("2024-01-10")},
		{Site: "git-theology.com", TotalAmount: "30.00", CustomerEmail: "b@x.com", CreatedAt: date("2024-01-11")},
	}
	now := date("2024-01-12")

	got := ComputeNetworkStats(orders, RangeAll, SiteAll, now, nil)

	require.Equal(t, 80.00, got.TotalRevenue)
	require.Equal(t, 2, got.TotalOrders)
	require.Equal(t, 2, got.TotalCustomers)
	require.Equal(t, 40.00, got.AverageOrderValue)
	require.False(t, got.Sample)
}

func TestMalformedAmountCountsAsZero(t *testing.T) {
	orders := []models.Order{
		{Site: "git-islife.com", TotalAmount: "abc", CustomerEmail: "a@x.com", CreatedAt: date("2024-01-10")},
		{Site: "git-islife.com", TotalAmount: "25.50", CustomerEmail: "b@x.com", CreatedAt: date("2024-01-10")},
	}

	got := ComputeNetworkStats(orders, RangeAll, SiteAll, date("2024-01-12"), nil)

	require.Equal(t, 25.50, got.TotalRevenue)
	require.Equal(t, 2, got.TotalOrders, "malformed amount still counts as an order")
}

func TestNegativeAmountCountsAsZero(t *testing.T) {
	orders := []models.Order{
		{Site: "git-islife.com", TotalAmount: "-10.00", CustomerEmail: "a@x.com", CreatedAt: date("2024-01-10")},
	}

	got := ComputeNetworkStats(orders, RangeAll, SiteAll, date("2024-01-12"), nil)
	require.Equal(t, 0.0, got.TotalRevenue)
	require.Equal(t, 1, got.TotalOrders)
}

func TestTimeRangeFilterExcludesOldRows(t *testing.T) {
	now := date("2024-01-20")
	orders := []models.Order{
		{Site: "git-islife.com", TotalAmount: "50.00", CustomerEmail: "a@x.com", CreatedAt: date("2024-01-10")}, // 10 days old
		{Site: "git-islife.com", TotalAmount: "30.00", CustomerEmail: "b@x.com", CreatedAt: date("2024-01-18")},
	}

	all := ComputeNetworkStats(orders, RangeAll, SiteAll, now, nil)
	require.Equal(t, 2, all.TotalOrders)

	week := ComputeNetworkStats(orders, Range7d, SiteAll, now, nil)
	require.Equal(t, 1, week.TotalOrders)
	require.Equal(t, 30.00, week.TotalRevenue)
}

func TestTimeRangeBoundaryIsInclusive(t *testing.T) {
	now := date("2024-01-20")
	orders := []models.Order{
		// Exactly on the 7-day boundary (day-truncated now minus 7 days).
		{Site: "git-islife.com", TotalAmount: "10.00", CustomerEmail: "a@x.com", CreatedAt: date("2024-01-13")},
	}

	got := ComputeNetworkStats(orders, Range7d, SiteAll, now, nil)
	require.Equal(t, 1, got.TotalOrders)
}

func TestSiteFilter(t *testing.T) {
	orders := []models.Order{
		{Site: "git-islife.com", TotalAmount: "50.00", CustomerEmail: "a@x.com", CreatedAt: date("2024-01-10")},
		{Site: "git-theology.com", TotalAmount: "30.00", CustomerEmail: "b@x.com", CreatedAt: date("2024-01-11")},
	}

	got := ComputeNetworkStats(orders, RangeAll, "git-theology.com", date("2024-01-12"), nil)
	require.Equal(t, 1, got.TotalOrders)
	require.Equal(t, 30.00, got.TotalRevenue)
}

func TestAverageOrderValueZeroGuard(t *testing.T) {
	got := ComputeNetworkStats(nil, RangeAll, SiteAll, date("2024-01-12"), nil)
	require.Equal(t, 0.0, got.AverageOrderValue)
	require.Equal(t, 0, got.TotalOrders)
}

func TestBySiteCoversRegistryAndSumsToTotal(t *testing.T) {
	orders := []models.Order{
		{Site: "git-islife.com", TotalAmount: "50.00", CustomerEmail: "a@x.com", CreatedAt: date("2024-01-10")},
		{Site: "git-theology.com", TotalAmount: "30.00", CustomerEmail: "b@x.com", CreatedAt: date("2024-01-11")},
		{Site: "git-theology.com", TotalAmount: "10.00", CustomerEmail: "b@x.com", CreatedAt: date("2024-01-11")},
	}

	got := ComputeNetworkStats(orders, RangeAll, SiteAll, date("2024-01-12"), nil)

	require.Len(t, got.BySite, len(sites.All()), "every registry site appears, even with zero rows")

	var sum float64
	for i, s := range got.BySite {
		sum += s.Revenue
		if i > 0 {
			require.LessOrEqual(t, s.Revenue, got.BySite[i-1].Revenue, "bySite sorted descending by revenue")
		}
	}
	require.Equal(t, got.TotalRevenue, sum)

	require.Equal(t, "Git is Life", got.BySite[0].Site)
	require.Equal(t, 50.00, got.BySite[0].Revenue)
	require.Equal(t, 1, got.BySite[0].Customers)
}

func TestTopProducts(t *testing.T) {
	orders := []models.Order{
		{
			Site: "git-islife.com", TotalAmount: "60.00", CustomerEmail: "a@x.com", CreatedAt: date("2024-01-10"),
			Items: []models.OrderItem{
				{Name: "T-Shirt", Quantity: 2, Price: 29.99},
			},
		},
		{
			Site: "git-theology.com", TotalAmount: "45.00", CustomerEmail: "b@x.com", CreatedAt: date("2024-01-11"),
			Items: []models.OrderItem{
				{Name: "T-Shirt", Quantity: 1, Price: 29.99},
				{Name: "Sticker Pack", Quantity: 3, Price: 5.00},
			},
		},
		{Site: "git-truth.com", TotalAmount: "10.00", CustomerEmail: "c@x.com", CreatedAt: date("2024-01-11")}, // no items
	}

	got := ComputeNetworkStats(orders, RangeAll, SiteAll, date("2024-01-12"), nil)

	require.Len(t, got.TopProducts, 2, "orders with no line items contribute nothing")

	shirt := got.TopProducts[0]
	require.Equal(t, "T-Shirt", shirt.Name)
	require.Equal(t, 3, shirt.Quantity)
	require.InDelta(t, 3*29.99, shirt.Revenue, 1e-9)
	require.Equal(t, []string{"git-islife.com", "git-theology.com"}, shirt.Sites)

	for i := 1; i < len(got.TopProducts); i++ {
		require.LessOrEqual(t, got.TopProducts[i].Revenue, got.TopProducts[i-1].Revenue)
	}
}

func TestTopProductsTruncatedToTen(t *testing.T) {
	var items []models.OrderItem
	for i := 0; i < 15; i++ {
		items = append(items, models.OrderItem{
			Name:     fmt.Sprintf("Product %02d", i),
			Quantity: 1,
			Price:    float64(i + 1),
		})
	}
	orders := []models.Order{
		{Site: "git-islife.com", TotalAmount: "120.00", CustomerEmail: "a@x.com", CreatedAt: date("2024-01-10"), Items: items},
	}

	got := ComputeNetworkStats(orders, RangeAll, SiteAll, date("2024-01-12"), nil)

	require.Len(t, got.TopProducts, 10)
	require.Equal(t, "Product 14", got.TopProducts[0].Name)
}

func TestTimeBucketsRefilterFromFilteredSet(t *testing.T) {
	now := date("2024-01-20")
	orders := []models.Order{
		{Site: "git-islife.com", TotalAmount: "100.00", CustomerEmail: "a@x.com", CreatedAt: date("2024-01-05")}, // outside 7d
		{Site: "git-islife.com", TotalAmount: "40.00", CustomerEmail: "b@x.com", CreatedAt: date("2024-01-18")},
		{Site: "git-islife.com", TotalAmount: "5.00", CustomerEmail: "c@x.com", CreatedAt: date("2024-01-20")}, // today
	}

	got := ComputeNetworkStats(orders, Range7d, SiteAll, now, nil)

	// The month bucket can only see what survived the outer 7d filter.
	require.Equal(t, 45.00, got.ByTimeRange.ThisMonth)
	require.Equal(t, 45.00, got.ByTimeRange.ThisWeek)
	require.Equal(t, 5.00, got.ByTimeRange.Today)
}

func TestFunnel(t *testing.T) {
	orders := []models.Order{
		{Site: "git-islife.com", TotalAmount: "50.00", CustomerEmail: "a@x.com", CreatedAt: date("2024-01-10")},
	}

	noUpstream := ComputeNetworkStats(orders, RangeAll, SiteAll, date("2024-01-12"), nil)
	require.Equal(t, 1, noUpstream.ConversionFunnel.Completed)
	require.True(t, noUpstream.ConversionFunnel.Approximate)
	require.Equal(t, uint64(0), noUpstream.ConversionFunnel.Visitors)

	withUpstream := ComputeNetworkStats(orders, RangeAll, SiteAll, date("2024-01-12"), &FunnelInput{
		Visitors:  1000,
		AddToCart: 70,
		Checkout:  40,
	})
	require.False(t, withUpstream.ConversionFunnel.Approximate)
	require.Equal(t, uint64(1000), withUpstream.ConversionFunnel.Visitors)
	require.Equal(t, 1, withUpstream.ConversionFunnel.Completed)
}

func TestFunnelPercentZeroGuard(t *testing.T) {
	require.Equal(t, 0.0, FunnelPercent(50, 0))
	require.Equal(t, 7.0, FunnelPercent(70, 1000))
}

func TestSampleNetworkStatsIsLabeledAndDeterministic(t *testing.T) {
	a := SampleNetworkStats()
	b := SampleNetworkStats()

	require.True(t, a.Sample)
	require.Equal(t, a, b)
	require.True(t, a.ConversionFunnel.Approximate)

	for i := 1; i < len(a.TopProducts); i++ {
		require.LessOrEqual(t, a.TopProducts[i].Revenue, a.TopProducts[i-1].Revenue)
	}
}

func TestIsValidTimeRange(t *testing.T) {
	for _, ok := range []string{"7d", "30d", "90d", "all"} {
		require.True(t, IsValidTimeRange(ok), ok)
	}
	for _, bad := range []string{"", "1d", "week", "ALL"} {
		require.False(t, IsValidTimeRange(bad), bad)
	}
}
