// Package charts draws the exploratory report as PNG images with gonum/plot.
package charts

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"retail-eda/internal/analysis"
	"retail-eda/internal/models"
	"retail-eda/internal/observability"
)

const (
	width  = 10 * vg.Inch
	height = 6 * vg.Inch
)

var (
	barColor     = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	lineColor    = color.RGBA{R: 220, G: 90, B: 60, A: 255}
	scatterColor = color.RGBA{R: 70, G: 130, B: 180, A: 150}
)

type Renderer struct {
	dir     string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewRenderer writes charts into dir. metrics may be nil.
func NewRenderer(dir string, logger *slog.Logger, metrics *observability.Metrics) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{dir: dir, logger: logger, metrics: metrics}
}

// RenderAll writes one PNG per entry of models.Charts and returns the file
// paths in the same order.
func (r *Renderer) RenderAll(ctx context.Context, txs []models.Transaction, rep *models.Report) ([]string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}

	paths := make([]string, len(models.Charts))
	g, ctx := errgroup.WithContext(ctx)
	for i, info := range models.Charts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			_, span := observability.StartSpan(ctx, "chart.render")
			span.SetTag("chart", info.ID)
			defer span.Finish(r.logger)

			p, err := Plot(info.ID, txs, rep)
			if err != nil {
				span.SetError(err)
				return err
			}
			path := filepath.Join(r.dir, info.ID+".png")
			if err := p.Save(width, height, path); err != nil {
				span.SetError(err)
				return fmt.Errorf("save %s: %w", info.ID, err)
			}
			paths[i] = path
			if r.metrics != nil {
				r.metrics.ObserveChart()
			}
			r.logger.Debug("chart written", "chart", info.ID, "path", path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// WritePNG streams a single chart.
func WritePNG(w io.Writer, id string, txs []models.Transaction, rep *models.Report) error {
	p, err := Plot(id, txs, rep)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("encode %s: %w", id, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", id, err)
	}
	return nil
}

// Plot builds the chart registered under id. Empty data produces a plot
// with the title and axes only.
func Plot(id string, txs []models.Transaction, rep *models.Report) (*plot.Plot, error) {
	info, ok := models.ChartByID(id)
	if !ok {
		return nil, fmt.Errorf("unknown chart %q", id)
	}

	p := plot.New()
	p.Title.Text = info.Title
	p.X.Label.Text = info.XLabel
	p.Y.Label.Text = info.YLabel

	var err error
	switch id {
	case models.ChartAmountHistogram:
		err = histogram(p, rep.AmountHistogram)
	case models.ChartCategoryCounts:
		err = categoryBars(p, rep.CategoryCounts)
	case models.ChartRatingScatter:
		err = ratingScatter(p, rep.RatingScatter)
	case models.ChartMonthlySales:
		err = monthlyLine(p, rep.MonthlySales)
	case models.ChartMemberAmounts:
		err = memberBoxes(p, txs)
	case models.ChartRegionCategory:
		err = heatmap(p, rep.RegionCategory)
	case models.ChartRatingByCategory:
		err = ratingBoxes(p, txs)
	}
	if err != nil {
		return nil, fmt.Errorf("plot %s: %w", id, err)
	}
	return p, nil
}

func histogram(p *plot.Plot, bins []models.HistogramBin) error {
	if len(bins) == 0 {
		return nil
	}
	h := &plotter.Histogram{
		Bins:      make([]plotter.HistogramBin, len(bins)),
		Width:     bins[0].Upper - bins[0].Lower,
		FillColor: barColor,
		LineStyle: plotter.DefaultLineStyle,
	}
	for i, b := range bins {
		h.Bins[i] = plotter.HistogramBin{Min: b.Lower, Max: b.Upper, Weight: float64(b.Count)}
	}
	p.Add(h)
	return nil
}

func categoryBars(p *plot.Plot, counts []models.CategoryCount) error {
	if len(counts) == 0 {
		return nil
	}
	values := make(plotter.Values, len(counts))
	names := make([]string, len(counts))
	for i, c := range counts {
		values[i] = float64(c.Count)
		names[i] = string(c.Category)
	}
	bars, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return err
	}
	bars.Color = barColor
	p.Add(bars)
	p.NominalX(names...)
	return nil
}

func ratingScatter(p *plot.Plot, points []models.ScatterPoint) error {
	if len(points) == 0 {
		return nil
	}
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = float64(pt.Rating)
		xys[i].Y = float64(pt.TotalAmount)
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	s.GlyphStyle.Color = scatterColor
	s.GlyphStyle.Radius = vg.Points(3)
	p.Add(s)
	p.X.Min, p.X.Max = 0.5, 5.5
	return nil
}

func monthlyLine(p *plot.Plot, months []models.MonthlyData) error {
	if len(months) == 0 {
		return nil
	}
	xys := make(plotter.XYs, len(months))
	names := make([]string, len(months))
	for i, m := range months {
		xys[i].X = float64(i)
		xys[i].Y = float64(m.Volume)
		names[i] = m.Month
	}
	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return err
	}
	line.Color = lineColor
	points.GlyphStyle.Color = lineColor
	p.Add(line, points, plotter.NewGrid())
	p.NominalX(names...)
	return nil
}

// boxes adds one box per non-empty group, labelled on the X axis.
func boxes(p *plot.Plot, names []string, groups [][]float64) error {
	var labels []string
	for i, values := range groups {
		if len(values) == 0 {
			continue
		}
		box, err := newBox(float64(len(labels)), analysis.Summarize(names[i], values), values)
		if err != nil {
			return err
		}
		p.Add(box)
		labels = append(labels, names[i])
	}
	if len(labels) > 0 {
		p.NominalX(labels...)
	}
	return nil
}

// newBox draws s rather than gonum's own quartiles so the image agrees with
// the JSON summaries. Whiskers reach the furthest values within 1.5 IQR of
// the box; the rest are drawn as outliers.
func newBox(location float64, s models.BoxSummary, values []float64) (*plotter.BoxPlot, error) {
	box, err := plotter.NewBoxPlot(vg.Points(40), location, plotter.Values(values))
	if err != nil {
		return nil, err
	}
	box.FillColor = barColor
	box.Median, box.Quartile1, box.Quartile3 = s.Median, s.Q1, s.Q3

	iqr := s.Q3 - s.Q1
	lo, hi := s.Q1-1.5*iqr, s.Q3+1.5*iqr
	box.AdjLow, box.AdjHigh = math.Inf(1), math.Inf(-1)
	box.Outside = nil
	for i, v := range box.Values {
		if v < lo || v > hi {
			box.Outside = append(box.Outside, i)
			continue
		}
		box.AdjLow = min(box.AdjLow, v)
		box.AdjHigh = max(box.AdjHigh, v)
	}
	if math.IsInf(box.AdjLow, 1) {
		box.AdjLow, box.AdjHigh = s.Median, s.Median
	}
	return box, nil
}

func memberBoxes(p *plot.Plot, txs []models.Transaction) error {
	groups := make([][]float64, 2)
	for _, tx := range txs {
		i := 0
		if tx.IsMember {
			i = 1
		}
		groups[i] = append(groups[i], float64(tx.TotalAmount))
	}
	return boxes(p, []string{models.NonMemberGroup, models.MemberGroup}, groups)
}

func ratingBoxes(p *plot.Plot, txs []models.Transaction) error {
	index := make(map[models.Category]int, len(models.Categories))
	names := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		index[c] = i
		names[i] = string(c)
	}
	groups := make([][]float64, len(models.Categories))
	for _, tx := range txs {
		if i, ok := index[tx.ProductCategory]; ok {
			groups[i] = append(groups[i], float64(tx.Rating))
		}
	}
	return boxes(p, names, groups)
}

// crosstabGrid adapts a crosstab to plotter.GridXYZ with columns on X and
// rows on Y.
type crosstabGrid struct {
	ct models.Crosstab
}

func (g crosstabGrid) Dims() (c, r int)   { return len(g.ct.Columns), len(g.ct.Rows) }
func (g crosstabGrid) Z(c, r int) float64 { return float64(g.ct.Counts[r][c]) }
func (g crosstabGrid) X(c int) float64    { return float64(c) }
func (g crosstabGrid) Y(r int) float64    { return float64(r) }

func heatmap(p *plot.Plot, ct models.Crosstab) error {
	if len(ct.Rows) == 0 || len(ct.Columns) == 0 {
		return nil
	}

	hm := plotter.NewHeatMap(crosstabGrid{ct}, palette.Heat(12, 1))
	hm.Min = 0
	hm.Max = float64(max(ct.Max(), 1))
	p.Add(hm)

	var xys plotter.XYs
	var text []string
	for r, row := range ct.Counts {
		for c, n := range row {
			xys = append(xys, plotter.XY{X: float64(c), Y: float64(r)})
			text = append(text, strconv.Itoa(n))
		}
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: text})
	if err != nil {
		return err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = -0.5
		labels.TextStyle[i].YAlign = -0.5
	}
	p.Add(labels)

	p.NominalX(ct.Columns...)
	p.NominalY(ct.Rows...)
	return nil
}
