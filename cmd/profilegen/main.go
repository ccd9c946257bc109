// Package main generates a discretized motion profile from the command line
// and optionally writes it as CSV, PNG plots and an HTML chart page, and
// records the run in a local database.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/motionref/internal/config"
	"github.com/banshee-data/motionref/internal/profile"
	"github.com/banshee-data/motionref/internal/report"
	"github.com/banshee-data/motionref/internal/security"
	"github.com/banshee-data/motionref/internal/store"
	"github.com/banshee-data/motionref/internal/units"
	"github.com/banshee-data/motionref/internal/version"
)

// Config holds the command line options.
type Config struct {
	ConfigPath string
	Shape      string
	Linear     float64
	Roll       float64
	Pitch      float64
	Yaw        float64
	AngleUnit  string
	LengthUnit string
	Duration   float64
	CSVPath    string
	PNGDir     string
	HTMLPath   string
	DBPath     string
	Version    bool
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if cfg.Version {
		fmt.Println("profilegen", version.String())
		return
	}
	if err := run(cfg, os.Stdout); err != nil {
		log.Fatalf("profilegen: %v", err)
	}
}

func parseFlags(args []string) (Config, error) {
	cfg := Config{}
	fs := flag.NewFlagSet("profilegen", flag.ContinueOnError)

	fs.StringVar(&cfg.ConfigPath, "config", "", "Motion config JSON (default: built-in defaults)")
	fs.StringVar(&cfg.Shape, "shape", "", "Velocity shape: ramp or sinoid (overrides config)")
	fs.Float64Var(&cfg.Linear, "linear", 0, "Linear displacement")
	fs.Float64Var(&cfg.Roll, "roll", 0, "Roll displacement")
	fs.Float64Var(&cfg.Pitch, "pitch", 0, "Pitch displacement")
	fs.Float64Var(&cfg.Yaw, "yaw", 0, "Yaw displacement")
	fs.StringVar(&cfg.AngleUnit, "angle-unit", "", "Unit of roll, pitch and yaw: "+units.GetValidAngleUnitsString()+" (overrides config)")
	fs.StringVar(&cfg.LengthUnit, "length-unit", "", "Unit of the linear displacement: "+units.GetValidLengthUnitsString()+" (overrides config)")
	fs.Float64Var(&cfg.Duration, "duration", 0, "Fixed profile duration in seconds (0 = time-optimal)")
	fs.StringVar(&cfg.CSVPath, "csv", "", "Write the sampled paths to this CSV file")
	fs.StringVar(&cfg.PNGDir, "png", "", "Write position, velocity and acceleration plots to this directory")
	fs.StringVar(&cfg.HTMLPath, "html", "", "Write interactive charts to this HTML file")
	fs.StringVar(&cfg.DBPath, "db", "", "Record the run in this SQLite database")
	fs.BoolVar(&cfg.Version, "version", false, "Print version and exit")

	err := fs.Parse(args)
	return cfg, err
}

// loadMotionConfig applies command line overrides on top of the config file.
func loadMotionConfig(cfg Config) (*config.MotionConfig, error) {
	motion := config.DefaultMotionConfig()
	if cfg.ConfigPath != "" {
		var err error
		if motion, err = config.LoadMotionConfig(cfg.ConfigPath); err != nil {
			return nil, err
		}
	}
	if cfg.Shape != "" {
		motion.ProfileShape = &cfg.Shape
	}
	if cfg.AngleUnit != "" {
		motion.AngleUnit = &cfg.AngleUnit
	}
	if cfg.LengthUnit != "" {
		motion.LengthUnit = &cfg.LengthUnit
	}
	if err := motion.Validate(); err != nil {
		return nil, err
	}
	return motion, nil
}

func run(cfg Config, w io.Writer) error {
	motion, err := loadMotionConfig(cfg)
	if err != nil {
		return err
	}
	if err := security.ValidateOutputPaths(cfg.CSVPath, cfg.PNGDir, cfg.HTMLPath, cfg.DBPath); err != nil {
		return err
	}

	unit := motion.GetAngleUnit()
	d := profile.Displacement{
		Linear: units.ToMeters(cfg.Linear, motion.GetLengthUnit()),
		Roll:   units.ToRadians(cfg.Roll, unit),
		Pitch:  units.ToRadians(cfg.Pitch, unit),
		Yaw:    units.ToRadians(cfg.Yaw, unit),
	}
	req := motion.ProfileRequest(cfg.Duration)

	p, err := profile.Calculate(d, req)
	if err != nil {
		return err
	}
	if err := p.Check(); err != nil {
		return fmt.Errorf("generated profile failed checks: %w", err)
	}
	printParameters(w, req, p, motion.GetAngleUnit())

	if cfg.CSVPath != "" {
		if err := report.WriteFile(cfg.CSVPath, func(out io.Writer) error {
			return report.WriteProfileCSV(out, p)
		}); err != nil {
			return err
		}
		log.Printf("Profile written to: %s", cfg.CSVPath)
	}

	if cfg.PNGDir != "" {
		files, err := report.WriteProfilePlots(p, cfg.PNGDir)
		if err != nil {
			return err
		}
		log.Printf("Wrote %d plots to: %s", len(files), cfg.PNGDir)
	}

	if cfg.HTMLPath != "" {
		if err := report.WriteFile(cfg.HTMLPath, func(out io.Writer) error {
			return report.RenderProfileCharts(out, p)
		}); err != nil {
			return err
		}
		log.Printf("Charts written to: %s", cfg.HTMLPath)
	}

	if cfg.DBPath != "" {
		db, err := store.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		run := store.NewProfileRun(req, p)
		if err := store.NewProfileRunStore(db).Insert(run); err != nil {
			return err
		}
		fmt.Fprintf(w, "Run ID:        %s\n", run.RunID)
	}
	return nil
}

func printParameters(w io.Writer, req profile.Request, p *profile.Profile, angleUnit string) {
	pp := p.Parameters
	mode := "time-optimal"
	if req.FixedDuration() {
		mode = fmt.Sprintf("fixed %.4gs", req.Duration)
	}

	fmt.Fprintf(w, "Shape:         %s (%s)\n", pp.Shape, mode)
	fmt.Fprintf(w, "Update rate:   %.4g Hz (T = %.4gs)\n", req.UpdateRate, pp.StepPeriod)
	fmt.Fprintf(w, "Peak velocity: %.6g (limit %.6g)\n", pp.VelocityPeak, req.MaxVelocity)
	fmt.Fprintf(w, "Peak accel:    %.6g (limit %.6g)\n", pp.AccelerationPeak, req.MaxAcceleration)
	fmt.Fprintf(w, "Steps:         %d accel + %d plateau + %d decel = %d\n",
		pp.AccelSteps, pp.PlateauSteps, pp.DecelSteps, pp.TotalSteps)
	fmt.Fprintf(w, "Duration:      %.4fs\n", pp.Duration)
	for _, a := range profile.Axes {
		path := p.Path(a)
		if len(path) == 0 {
			continue
		}
		final := path[len(path)-1]
		if a == profile.AxisLinear {
			fmt.Fprintf(w, "  %-6s final %.6g %s\n", a, final, units.Meters)
			continue
		}
		fmt.Fprintf(w, "  %-6s final %.6g %s", a, final, units.Radians)
		if angleUnit != units.Radians {
			fmt.Fprintf(w, " (%.6g %s)", units.FromRadians(final, angleUnit), angleUnit)
		}
		fmt.Fprintln(w)
	}
}
