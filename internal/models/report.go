package models

import "time"

type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

type CategoryCount struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}

type ScatterPoint struct {
	Rating      int   `json:"rating"`
	TotalAmount int64 `json:"total_amount"`
}

// MonthlyData is the summed total_amount of one calendar month, keyed YYYY-MM.
type MonthlyData struct {
	Month  string `json:"month"`
	Volume int64  `json:"volume"`
}

type BoxSummary struct {
	Group  string  `json:"group"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
}

// Crosstab counts records per (row, column) pair. Counts[i][j] belongs to
// Rows[i] and Columns[j].
type Crosstab struct {
	Rows    []string `json:"rows"`
	Columns []string `json:"columns"`
	Counts  [][]int  `json:"counts"`
}

// Max returns the largest cell count.
func (c Crosstab) Max() int {
	m := 0
	for _, row := range c.Counts {
		for _, v := range row {
			m = max(m, v)
		}
	}
	return m
}

type TTestResult struct {
	Statistic        float64 `json:"statistic"`
	DegreesOfFreedom float64 `json:"degrees_of_freedom"`
	PValue           float64 `json:"p_value"`
	Alpha            float64 `json:"alpha"`
	Significant      bool    `json:"significant"`
	MemberMean       float64 `json:"member_mean"`
	NonMemberMean    float64 `json:"non_member_mean"`
	MemberCount      int     `json:"member_count"`
	NonMemberCount   int     `json:"non_member_count"`
}

// Report holds every view derived from one transaction table.
type Report struct {
	AmountHistogram  []HistogramBin  `json:"amount_histogram"`
	CategoryCounts   []CategoryCount `json:"category_counts"`
	RatingScatter    []ScatterPoint  `json:"rating_scatter"`
	MonthlySales     []MonthlyData   `json:"monthly_sales"`
	MemberAmounts    []BoxSummary    `json:"member_amounts"`
	RegionCategory   Crosstab        `json:"region_category"`
	RatingByCategory []BoxSummary    `json:"rating_by_category"`
	MemberTTest      *TTestResult    `json:"member_ttest,omitempty"`
	TTestError       string          `json:"ttest_error,omitempty"`
	RecordCount      int64           `json:"record_count"`
	Seed             uint64          `json:"seed"`
	GeneratedAt      time.Time       `json:"generated_at"`
}

type ChartInfo struct {
	ID     string
	Title  string
	XLabel string
	YLabel string
}

const (
	ChartAmountHistogram  = "amount-histogram"
	ChartCategoryCounts   = "category-counts"
	ChartRatingScatter    = "rating-scatter"
	ChartMonthlySales     = "monthly-sales"
	ChartMemberAmounts    = "member-amounts"
	ChartRegionCategory   = "region-category"
	ChartRatingByCategory = "rating-by-category"
)

// Charts lists the seven exploratory charts in rendering order.
var Charts = []ChartInfo{
	{ChartAmountHistogram, "Total Purchase Distribution", "Total Purchase (Rp)", "Frequency"},
	{ChartCategoryCounts, "Orders per Product Category", "Product Category", "Order Count"},
	{ChartRatingScatter, "Product Rating vs Total Purchase", "Product Rating (1-5)", "Total Purchase (Rp)"},
	{ChartMonthlySales, "Monthly Total Sales Trend (2024)", "Month", "Total Sales (Rp)"},
	{ChartMemberAmounts, "Total Purchase: Member vs Non-Member", "Member Status", "Total Purchase (Rp)"},
	{ChartRegionCategory, "Region vs Product Category Heatmap", "Product Category", "Region"},
	{ChartRatingByCategory, "Product Rating Distribution per Category", "Product Category", "Product Rating (1-5)"},
}

// ChartByID returns the chart metadata registered under id.
func ChartByID(id string) (ChartInfo, bool) {
	for _, c := range Charts {
		if c.ID == id {
			return c, true
		}
	}
	return ChartInfo{}, false
}
