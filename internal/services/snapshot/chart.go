package snapshot

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/stockwatch/internal/models"
)

const (
	chartBarWidth   = 40
	chartBarSpacing = 24
	chartMinWidth   = 600
	chartHeight     = 400
)

// RenderRatioChart renders a PNG bar chart of each ticker's ratio to its
// all-time high, in ticker order. Labels use tickers since the bundled
// font has no Hangul glyphs.
func RenderRatioChart(snap *models.PriceSnapshot) ([]byte, error) {
	if snap == nil || len(snap.Prices) == 0 {
		return nil, fmt.Errorf("no prices to chart")
	}

	tickers := make([]string, 0, len(snap.Prices))
	for t := range snap.Prices {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	maxRatio := 100.0
	bars := make([]chart.Value, len(tickers))
	for i, t := range tickers {
		ratio := snap.Prices[t].Ratio
		maxRatio = math.Max(maxRatio, ratio)
		bars[i] = chart.Value{
			Label: t,
			Value: ratio,
			Style: chart.Style{
				FillColor:   ratioColor(ratio),
				StrokeColor: ratioColor(ratio),
				StrokeWidth: 1,
			},
		}
	}

	width := len(bars)*(chartBarWidth+chartBarSpacing) + 120
	if width < chartMinWidth {
		width = chartMinWidth
	}

	graph := chart.BarChart{
		Title:      "Price vs All-Time High (%)",
		Width:      width,
		Height:     chartHeight,
		BarWidth:   chartBarWidth,
		BarSpacing: chartBarSpacing,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: math.Ceil(maxRatio/10) * 10},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f%%", f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}

// ratioColor shades bars by distance from the high.
func ratioColor(ratio float64) drawing.Color {
	switch {
	case ratio >= 90:
		return drawing.ColorFromHex("16a34a") // green-600
	case ratio >= 70:
		return drawing.ColorFromHex("2563eb") // blue-600
	default:
		return drawing.ColorFromHex("dc2626") // red-600
	}
}
