package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"retail-eda/internal/models"
	"retail-eda/internal/observability"
	"retail-eda/internal/synth"
)

func tx(id int64, month time.Month, c models.Category, r models.Region, member bool, rating int, amount int64) models.Transaction {
	return models.Transaction{
		OrderID:         id,
		TransactionTime: time.Date(2024, month, 10, 12, 0, 0, 0, time.UTC),
		ProductCategory: c,
		Region:          r,
		PaymentMethod:   models.CreditCard,
		IsMember:        member,
		ItemCount:       1,
		Rating:          rating,
		TotalAmount:     amount,
	}
}

func sampleData() []models.Transaction {
	return []models.Transaction{
		tx(1001, time.January, models.Electronics, models.CityA, false, 5, 3_000_000),
		tx(1002, time.January, models.Health, models.CityA, true, 4, 405_000),
		tx(1003, time.March, models.Electronics, models.CityB, true, 3, 1_350_000),
		tx(1004, time.February, models.Fashion, models.OtherRegion, false, 2, 280_000),
		tx(1005, time.March, models.Health, models.CityA, false, 1, 150_000),
		tx(1006, time.February, models.Electronics, models.CityD, true, 4, 1_200_000),
	}
}

func TestNewAnalytics(t *testing.T) {
	a := NewAnalytics()
	if a == nil {
		t.Fatal("NewAnalytics() returned nil")
	}
	if a.report == nil {
		t.Error("report should be initialized")
	}
	if a.logger == nil {
		t.Error("logger should be initialized")
	}
	if tbl := a.Table(); tbl != nil {
		t.Error("Table() should be nil before the first dataset")
	}
}

func TestAnalytics_SetData(t *testing.T) {
	a := NewAnalytics()
	if err := a.SetData(sampleData()); err != nil {
		t.Fatalf("SetData() error = %v", err)
	}
	defer a.Close()

	if got := a.Report().RecordCount; got != 6 {
		t.Errorf("RecordCount = %d, want 6", got)
	}

	tbl := a.Table()
	if tbl == nil {
		t.Fatal("Table() returned nil after SetData")
	}
	defer tbl.Release()
	if tbl.NumRows() != 6 {
		t.Errorf("table rows = %d, want 6", tbl.NumRows())
	}

	if len(a.AmountHistogram()) != HistogramBins {
		t.Errorf("AmountHistogram() bins = %d, want %d", len(a.AmountHistogram()), HistogramBins)
	}
	if len(a.RatingScatter()) != 6 {
		t.Errorf("RatingScatter() points = %d, want 6", len(a.RatingScatter()))
	}
}

func TestAnalytics_CategoryCounts(t *testing.T) {
	a := NewAnalytics()
	if err := a.SetData(sampleData()); err != nil {
		t.Fatal(err)
	}

	want := []models.CategoryCount{
		{Category: models.Electronics, Count: 3},
		{Category: models.Health, Count: 2},
		{Category: models.Fashion, Count: 1},
	}
	got := a.CategoryCounts()
	if len(got) != len(want) {
		t.Fatalf("CategoryCounts() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("CategoryCounts()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAnalytics_CategoryCounts_TiesKeepEnumOrder(t *testing.T) {
	a := NewAnalytics()
	data := []models.Transaction{
		tx(1001, time.May, models.Sports, models.CityA, false, 1, 1),
		tx(1002, time.May, models.Fashion, models.CityA, false, 1, 1),
	}
	if err := a.SetData(data); err != nil {
		t.Fatal(err)
	}

	got := a.CategoryCounts()
	if len(got) != 2 || got[0].Category != models.Fashion || got[1].Category != models.Sports {
		t.Errorf("CategoryCounts() = %v, want Fashion before Sports", got)
	}
}

func TestAnalytics_MonthlySales(t *testing.T) {
	a := NewAnalytics()
	if err := a.SetData(sampleData()); err != nil {
		t.Fatal(err)
	}

	want := []models.MonthlyData{
		{Month: "2024-01", Volume: 3_405_000},
		{Month: "2024-02", Volume: 1_480_000},
		{Month: "2024-03", Volume: 1_500_000},
	}
	got := a.MonthlySales()
	if len(got) != len(want) {
		t.Fatalf("MonthlySales() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("MonthlySales()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAnalytics_MonthlySalesFillsGaps(t *testing.T) {
	a := NewAnalytics()
	data := []models.Transaction{
		tx(1001, time.June, models.Sports, models.CityC, false, 3, 720_000),
		tx(1002, time.February, models.Fashion, models.CityB, true, 5, 450_000),
		tx(1003, time.June, models.Household, models.CityA, true, 4, 300_000),
	}
	if err := a.SetData(data); err != nil {
		t.Fatal(err)
	}

	want := []models.MonthlyData{
		{Month: "2024-02", Volume: 450_000},
		{Month: "2024-03", Volume: 0},
		{Month: "2024-04", Volume: 0},
		{Month: "2024-05", Volume: 0},
		{Month: "2024-06", Volume: 1_020_000},
	}
	got := a.MonthlySales()
	if len(got) != len(want) {
		t.Fatalf("MonthlySales() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("MonthlySales()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAnalytics_MemberAmounts(t *testing.T) {
	a := NewAnalytics()
	if err := a.SetData(sampleData()); err != nil {
		t.Fatal(err)
	}

	got := a.MemberAmounts()
	if len(got) != 2 {
		t.Fatalf("MemberAmounts() groups = %d, want 2", len(got))
	}
	if got[0].Group != models.NonMemberGroup || got[1].Group != models.MemberGroup {
		t.Errorf("groups = %q, %q", got[0].Group, got[1].Group)
	}
	if got[0].Count != 3 || got[0].Max != 3_000_000 || got[0].Min != 150_000 {
		t.Errorf("non-member summary = %+v", got[0])
	}
	if got[1].Count != 3 || got[1].Median != 1_200_000 {
		t.Errorf("member summary = %+v", got[1])
	}
}

func TestAnalytics_RegionCategory(t *testing.T) {
	a := NewAnalytics()
	if err := a.SetData(sampleData()); err != nil {
		t.Fatal(err)
	}

	ct := a.RegionCategory()
	if len(ct.Rows) != len(models.Regions) || len(ct.Columns) != len(models.Categories) {
		t.Fatalf("crosstab shape = %dx%d", len(ct.Rows), len(ct.Columns))
	}

	total := 0
	for _, row := range ct.Counts {
		for _, v := range row {
			total += v
		}
	}
	if total != 6 {
		t.Errorf("crosstab total = %d, want 6", total)
	}
	// City A x Electronics, City A x Health
	if ct.Counts[0][0] != 1 || ct.Counts[0][3] != 2 {
		t.Errorf("City A row = %v", ct.Counts[0])
	}
	if ct.Max() != 2 {
		t.Errorf("Max() = %d, want 2", ct.Max())
	}
}

func TestAnalytics_RatingByCategory(t *testing.T) {
	a := NewAnalytics()
	if err := a.SetData(sampleData()); err != nil {
		t.Fatal(err)
	}

	got := a.RatingByCategory()
	if len(got) != 3 {
		t.Fatalf("RatingByCategory() groups = %d, want 3", len(got))
	}
	if got[0].Group != string(models.Electronics) || got[0].Median != 4 {
		t.Errorf("electronics summary = %+v", got[0])
	}
	if got[1].Group != string(models.Fashion) || got[2].Group != string(models.Health) {
		t.Errorf("groups not in category order: %q, %q", got[1].Group, got[2].Group)
	}
}

func TestAnalytics_MemberTTest(t *testing.T) {
	a := NewAnalytics()
	if _, reason := a.MemberTTest(); reason == "" {
		t.Error("MemberTTest() should explain why no result exists before data")
	}

	if err := a.SetData(sampleData()); err != nil {
		t.Fatal(err)
	}
	res, reason := a.MemberTTest()
	if res == nil {
		t.Fatalf("MemberTTest() = nil, reason %q", reason)
	}
	if res.MemberCount != 3 || res.NonMemberCount != 3 {
		t.Errorf("group sizes = %d/%d", res.MemberCount, res.NonMemberCount)
	}
	if res.PValue < 0 || res.PValue > 1 {
		t.Errorf("p-value out of range: %f", res.PValue)
	}
}

func TestAnalytics_MemberTTest_SingleGroup(t *testing.T) {
	a := NewAnalytics()
	data := []models.Transaction{
		tx(1001, time.May, models.Sports, models.CityA, true, 1, 100),
		tx(1002, time.May, models.Sports, models.CityA, true, 2, 200),
	}
	if err := a.SetData(data); err != nil {
		t.Fatal(err)
	}

	res, reason := a.MemberTTest()
	if res != nil {
		t.Errorf("MemberTTest() = %+v, want nil", res)
	}
	if reason == "" {
		t.Error("reason should be set")
	}
}

func TestAnalytics_EmptyData(t *testing.T) {
	a := NewAnalytics()
	if err := a.SetData(nil); err != nil {
		t.Fatalf("SetData(nil) error = %v", err)
	}
	defer a.Close()

	if n := len(a.AmountHistogram()); n != 0 {
		t.Errorf("AmountHistogram() bins = %d, want 0", n)
	}
	if n := len(a.CategoryCounts()); n != 0 {
		t.Errorf("CategoryCounts() length = %d, want 0", n)
	}
	if n := len(a.MonthlySales()); n != 0 {
		t.Errorf("MonthlySales() length = %d, want 0", n)
	}
	if n := len(a.MemberAmounts()); n != 0 {
		t.Errorf("MemberAmounts() length = %d, want 0", n)
	}
	if ct := a.RegionCategory(); ct.Max() != 0 || len(ct.Rows) != len(models.Regions) {
		t.Errorf("RegionCategory() = %+v, want an all-zero grid", ct)
	}
	if res, _ := a.MemberTTest(); res != nil {
		t.Error("MemberTTest() should be nil for an empty table")
	}
	if n := len(a.Head(5)); n != 0 {
		t.Errorf("Head(5) length = %d, want 0", n)
	}

	tbl := a.Table()
	defer tbl.Release()
	if tbl.NumRows() != 0 {
		t.Errorf("table rows = %d, want 0", tbl.NumRows())
	}
}

func TestAnalytics_Head(t *testing.T) {
	a := NewAnalytics()
	if err := a.SetData(sampleData()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		n    int
		want int
	}{
		{5, 5},
		{100, 6},
		{0, 0},
		{-3, 0},
	}
	for _, tt := range tests {
		if got := len(a.Head(tt.n)); got != tt.want {
			t.Errorf("Head(%d) length = %d, want %d", tt.n, got, tt.want)
		}
	}
	if a.Head(1)[0].OrderID != 1001 {
		t.Error("Head() should start at the first order")
	}
}

func TestAnalytics_Generate(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	metrics := observability.NewMetrics()
	a := NewAnalytics(WithAllocator(mem), WithMetrics(metrics))
	defer a.Close()

	seed, err := a.Generate(context.Background(), 42)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if seed != 42 {
		t.Errorf("seed = %d, want 42", seed)
	}

	rep := a.Report()
	if rep.RecordCount != synth.DefaultRows {
		t.Errorf("RecordCount = %d, want %d", rep.RecordCount, synth.DefaultRows)
	}
	if rep.Seed != 42 {
		t.Errorf("report seed = %d, want 42", rep.Seed)
	}
	if rep.MemberTTest == nil {
		t.Errorf("MemberTTest missing: %s", rep.TTestError)
	}

	sum := 0
	for _, c := range rep.CategoryCounts {
		sum += c.Count
	}
	if sum != synth.DefaultRows {
		t.Errorf("category counts sum = %d, want %d", sum, synth.DefaultRows)
	}

	// regenerate with the same seed, replacing the old table
	if _, err := a.Generate(context.Background(), 42); err != nil {
		t.Fatal(err)
	}
	again := a.Report()
	if again.MonthlySales[0] != rep.MonthlySales[0] {
		t.Error("same seed should reproduce the same monthly sales")
	}
	if a.Stats()["generations"].(int64) != 2 {
		t.Errorf("generations = %v, want 2", a.Stats()["generations"])
	}
}

func TestAnalytics_GenerateRandomSeed(t *testing.T) {
	a := NewAnalytics()
	defer a.Close()

	seed, err := a.Generate(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if seed == 0 {
		t.Error("a zero seed should be replaced")
	}
	if a.Report().Seed != seed {
		t.Errorf("report seed = %d, want %d", a.Report().Seed, seed)
	}
}

func TestBuildReport_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := BuildReport(ctx, sampleData())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("BuildReport() error = %v, want context.Canceled", err)
	}
}

func TestAnalytics_ConcurrentAccess(t *testing.T) {
	a := NewAnalytics()
	defer a.Close()
	if _, err := a.Generate(context.Background(), 7); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%3 == 0 {
				if _, err := a.Generate(context.Background(), uint64(i+1)); err != nil {
					t.Error(err)
				}
				return
			}
			_ = a.AmountHistogram()
			_ = a.CategoryCounts()
			_ = a.MonthlySales()
			_ = a.RegionCategory()
			_, _ = a.MemberTTest()
			if tbl := a.Table(); tbl != nil {
				_ = tbl.NumRows()
				tbl.Release()
			}
		}()
	}
	wg.Wait()
}

func BenchmarkBuildReport(b *testing.B) {
	txs, err := synth.Generate(synth.NewRand(1), synth.DefaultRows)
	if err != nil {
		b.Fatal(err)
	}

	for b.Loop() {
		if _, err := BuildReport(context.Background(), txs); err != nil {
			b.Fatal(err)
		}
	}
}
