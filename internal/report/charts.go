package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/motionref/internal/profile"
	"github.com/banshee-data/motionref/internal/replay"
)

// maxChartPoints bounds the points per series sent to the browser.
const maxChartPoints = 2000

func lineData(s series) []opts.LineData {
	stride := 1
	if n := len(s.x); n > maxChartPoints {
		stride = (n + maxChartPoints - 1) / maxChartPoints
	}
	data := make([]opts.LineData, 0, len(s.x)/stride+1)
	for i := 0; i < len(s.x); i += stride {
		data = append(data, opts.LineData{Value: []interface{}{s.x[i], s.y[i]}})
	}
	// Always keep the final sample so the chart ends on the target.
	if last := len(s.x) - 1; last > 0 && last%stride != 0 {
		data = append(data, opts.LineData{Value: []interface{}{s.x[last], s.y[last]}})
	}
	return data
}

func newLineChart(title, subtitle, yName string, lines []series) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: yName}),
	)

	colors := palette(len(lines))
	for i, s := range lines {
		line.AddSeries(s.name, lineData(s),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: colors[i]}),
		)
	}
	return line
}

// RenderProfileCharts writes an HTML page with position, velocity and
// acceleration charts of p.
func RenderProfileCharts(w io.Writer, p *profile.Profile) error {
	data := profileSeries(p)
	pp := p.Parameters
	subtitle := fmt.Sprintf("%s v=%.4g a=%.4g steps=%d/%d/%d T=%.4gs",
		pp.Shape, pp.VelocityPeak, pp.AccelerationPeak, pp.AccelSteps, pp.PlateauSteps, pp.DecelSteps, pp.StepPeriod)

	page := components.NewPage()
	page.PageTitle = "Motion profile"
	for _, q := range quantities {
		page.AddCharts(newLineChart("Profile "+q.key, subtitle, q.unit, data[q.key]))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render profile charts: %w", err)
	}
	return nil
}

// RenderReplayCharts writes an HTML page with the measured and reference
// positions of every joint and the measured cycle periods.
func RenderReplayCharts(w io.Writer, r *replay.Result) error {
	s := r.Summary
	subtitle := fmt.Sprintf("valid=%d/%d resets=%d lead mean=%.3g sd=%.3g",
		s.ValidCycles, s.Cycles, s.StaleResets, s.LeadMean, s.LeadStdDev)

	periods := series{name: "period"}
	for i := range r.Trace {
		if r.Trace[i].Index == 0 {
			continue
		}
		periods.x = append(periods.x, r.Trace[i].Time)
		periods.y = append(periods.y, r.Trace[i].Period.Seconds()*1000)
	}

	page := components.NewPage()
	page.PageTitle = "Integrator replay"
	page.AddCharts(
		newLineChart("Joint positions", subtitle, "position", replaySeries(r)),
		newLineChart("Cycle period", fmt.Sprintf("mean %.3f ms", s.MeanPeriod*1000), "ms", []series{periods}),
	)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render replay charts: %w", err)
	}
	return nil
}
