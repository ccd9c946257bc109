// Package report renders generated profiles and integrator replays as PNG
// plots, HTML charts and CSV tables.
package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/motionref/internal/profile"
	"github.com/banshee-data/motionref/internal/replay"
)

const (
	plotWidth  = 14 * vg.Inch
	plotHeight = 6 * vg.Inch
)

// series is one named line of a plot or chart.
type series struct {
	name string
	x, y []float64
}

// movingAxes returns the axes of p with a non-zero displacement, or the
// linear axis alone when nothing moves.
func movingAxes(p *profile.Profile) []profile.Axis {
	var axes []profile.Axis
	for _, a := range profile.Axes {
		path := p.Path(a)
		if len(path) > 0 && path[len(path)-1] != 0 {
			axes = append(axes, a)
		}
	}
	if len(axes) == 0 {
		axes = []profile.Axis{profile.AxisLinear}
	}
	return axes
}

// profileSeries returns the path, velocity and acceleration series of every
// moving axis, keyed by quantity.
func profileSeries(p *profile.Profile) map[string][]series {
	ts := p.Times()
	out := make(map[string][]series, 3)
	for _, a := range movingAxes(p) {
		out["position"] = append(out["position"], series{a.String(), ts, p.Path(a)})
		out["velocity"] = append(out["velocity"], series{a.String(), ts, p.Velocities(a)})
		out["acceleration"] = append(out["acceleration"], series{a.String(), ts, p.Accelerations(a)})
	}
	return out
}

// quantities is the plotting order of profileSeries keys.
var quantities = []struct{ key, unit string }{
	{"position", "units"},
	{"velocity", "units/s"},
	{"acceleration", "units/s^2"},
}

func newLinePlot(title, xLabel, yLabel string, lines []series) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	colors := generateColors(len(lines))
	for i, s := range lines {
		if len(s.x) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(s.x))
		for k := range s.x {
			pts[k] = plotter.XY{X: s.x[k], Y: s.y[k]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("plot %s: %w", s.name, err)
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// WriteProfilePlots saves position, velocity and acceleration plots of p as
// PNG files in dir and returns their paths.
func WriteProfilePlots(p *profile.Profile, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create plot directory: %w", err)
	}

	data := profileSeries(p)
	pp := p.Parameters
	var files []string
	for _, q := range quantities {
		title := fmt.Sprintf("%s profile %s (%d steps, %.3fs)", pp.Shape, q.key, pp.TotalSteps, pp.Duration)
		plt, err := newLinePlot(title, "Time (s)", fmt.Sprintf("%s (%s)", q.key, q.unit), data[q.key])
		if err != nil {
			return files, err
		}
		file := filepath.Join(dir, fmt.Sprintf("profile_%s.png", q.key))
		if err := plt.Save(plotWidth, plotHeight, file); err != nil {
			return files, fmt.Errorf("failed to save %s: %w", file, err)
		}
		files = append(files, file)
	}
	return files, nil
}

// replaySeries returns the measured and reference position series of each
// joint.
func replaySeries(r *replay.Result) []series {
	var out []series
	for j := 0; j < r.Config.Joints; j++ {
		mt, mp := r.Measured(j)
		rt, rp := r.Series(j)
		out = append(out,
			series{fmt.Sprintf("joint %d measured", j), mt, mp},
			series{fmt.Sprintf("joint %d reference", j), rt, rp},
		)
	}
	return out
}

// WriteReplayPlot saves the measured and reference positions of every joint
// to a PNG file, marking cycles that produced no reference.
func WriteReplayPlot(r *replay.Result, file string) error {
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return fmt.Errorf("failed to create plot directory: %w", err)
	}

	s := r.Summary
	title := fmt.Sprintf("Integrator replay: %d/%d valid cycles, %d resets", s.ValidCycles, s.Cycles, s.StaleResets)
	plt, err := newLinePlot(title, "Time (s)", "Position", replaySeries(r))
	if err != nil {
		return err
	}

	var invalid plotter.XYs
	for i := range r.Trace {
		if !r.Trace[i].Valid {
			invalid = append(invalid, plotter.XY{X: r.Trace[i].Time, Y: 0})
		}
	}
	if len(invalid) > 0 {
		sc, err := plotter.NewScatter(invalid)
		if err != nil {
			return fmt.Errorf("plot invalid cycles: %w", err)
		}
		sc.GlyphStyle.Color = color.RGBA{R: 200, A: 255}
		sc.GlyphStyle.Radius = vg.Points(2)
		plt.Add(sc)
		plt.Legend.Add("no reference", sc)
	}

	if err := plt.Save(plotWidth, plotHeight, file); err != nil {
		return fmt.Errorf("failed to save %s: %w", file, err)
	}
	return nil
}
