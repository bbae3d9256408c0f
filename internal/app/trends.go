package app

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"ted_dashboard/internal/domain"
)

// Palette colours the product lines, cycling when there are more products.
var Palette = []string{"#2563EB", "#DC2626", "#16A34A", "#EAB308", "#9333EA"}

type TrendCell struct {
	Count   float64 `json:"count"`
	Present bool    `json:"present"`
}

type TrendSeries struct {
	Product string      `json:"product"`
	Color   string      `json:"color"`
	Cells   []TrendCell `json:"cells"` // aligned with TrendChart.Months
	Total   float64     `json:"total"`
	Points  string      `json:"-"` // SVG polyline points
}

type AxisTick struct {
	Pos   float64 `json:"pos"`
	Label string  `json:"label"`
}

// TrendChart is the chart-ready shape of the trends payload: one line per
// product over ascending months, with SVG geometry precomputed.
type TrendChart struct {
	Months []string      `json:"months"`
	Series []TrendSeries `json:"series"`
	Max    float64       `json:"max"`

	Width  int        `json:"-"`
	Height int        `json:"-"`
	XTicks []AxisTick `json:"-"`
	YTicks []AxisTick `json:"-"`
	Plot   PlotArea   `json:"-"`
}

type PlotArea struct{ Left, Top, Right, Bottom float64 }

func (c TrendChart) Empty() bool { return len(c.Months) == 0 || len(c.Series) == 0 }

const (
	padLeft   = 48.0
	padRight  = 20.0
	padTop    = 16.0
	padBottom = 32.0
	yTicks    = 4
)

func BuildTrendChart(t domain.Trends, width, height int) TrendChart {
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 320
	}
	chart := TrendChart{Width: width, Height: height}

	byMonth := map[string]map[string]float64{}
	for _, p := range t.Data {
		m := strings.TrimSpace(p.Month)
		if m == "" {
			m = "Unknown"
		}
		if byMonth[m] == nil {
			byMonth[m] = map[string]float64{}
		}
		for k, v := range p.Counts {
			byMonth[m][k] += v
		}
	}
	for m := range byMonth {
		chart.Months = append(chart.Months, m)
	}
	sort.Strings(chart.Months)

	for i, product := range t.ProductNames() {
		s := TrendSeries{Product: product, Color: Palette[i%len(Palette)]}
		for _, m := range chart.Months {
			v, ok := byMonth[m][product]
			s.Cells = append(s.Cells, TrendCell{Count: v, Present: ok})
			if ok {
				s.Total += v
				chart.Max = math.Max(chart.Max, v)
			}
		}
		chart.Series = append(chart.Series, s)
	}

	chart.layout()
	return chart
}

func (c *TrendChart) layout() {
	c.Plot = PlotArea{
		Left:   padLeft,
		Top:    padTop,
		Right:  float64(c.Width) - padRight,
		Bottom: float64(c.Height) - padBottom,
	}
	top := c.Max
	if top <= 0 {
		top = 1
	}

	for i, m := range c.Months {
		c.XTicks = append(c.XTicks, AxisTick{Pos: c.x(i), Label: m})
	}
	for i := 0; i <= yTicks; i++ {
		v := top * float64(i) / yTicks
		c.YTicks = append(c.YTicks, AxisTick{Pos: c.y(v, top), Label: strconv.FormatFloat(v, 'f', -1, 64)})
	}

	for si := range c.Series {
		var pts []string
		for i, cell := range c.Series[si].Cells {
			// months without data are skipped so the line connects across gaps
			if !cell.Present {
				continue
			}
			pts = append(pts, fmtCoord(c.x(i))+","+fmtCoord(c.y(cell.Count, top)))
		}
		c.Series[si].Points = strings.Join(pts, " ")
	}
}

func (c TrendChart) x(i int) float64 {
	w := c.Plot.Right - c.Plot.Left
	if len(c.Months) <= 1 {
		return c.Plot.Left + w/2
	}
	return c.Plot.Left + w*float64(i)/float64(len(c.Months)-1)
}

func (c TrendChart) y(v, top float64) float64 {
	h := c.Plot.Bottom - c.Plot.Top
	return c.Plot.Bottom - h*v/top
}

func fmtCoord(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) }
