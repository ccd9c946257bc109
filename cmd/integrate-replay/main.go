// Package main replays the velocity integrator through a simulated control
// loop with period jitter and an optional stall, prints summary statistics
// and optionally writes the per-cycle trace as CSV, a PNG plot and an HTML
// chart page.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"time"

	"github.com/banshee-data/motionref/internal/config"
	"github.com/banshee-data/motionref/internal/replay"
	"github.com/banshee-data/motionref/internal/report"
	"github.com/banshee-data/motionref/internal/security"
	"github.com/banshee-data/motionref/internal/store"
	"github.com/banshee-data/motionref/internal/units"
	"github.com/banshee-data/motionref/internal/version"
)

// Config holds the command line options.
type Config struct {
	ConfigPath string
	Joints     int
	Cycles     int
	Jitter     time.Duration
	GapAt      int
	Gap        time.Duration
	Amplitude  float64
	Frequency  float64
	Seed       uint64
	CSVPath    string
	PNGPath    string
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
		fmt.Println("integrate-replay", version.String())
		return
	}
	if err := run(cfg, os.Stdout); err != nil {
		log.Fatalf("integrate-replay: %v", err)
	}
}

func parseFlags(args []string) (Config, error) {
	defaults := replay.DefaultConfig()
	cfg := Config{}
	fs := flag.NewFlagSet("integrate-replay", flag.ContinueOnError)

	fs.StringVar(&cfg.ConfigPath, "config", "", "Motion config JSON (default: built-in defaults)")
	fs.IntVar(&cfg.Joints, "joints", 0, "Number of joints (0 = joint_count from config)")
	fs.IntVar(&cfg.Cycles, "cycles", defaults.Cycles, "Number of control cycles")
	fs.DurationVar(&cfg.Jitter, "jitter", defaults.Jitter, "Largest deviation from the nominal period")
	fs.IntVar(&cfg.GapAt, "gap-at", 0, "Cycle preceded by a stall (0 = none)")
	fs.DurationVar(&cfg.Gap, "gap", 0, "Length of the stall")
	fs.Float64Var(&cfg.Amplitude, "amplitude", defaults.Amplitude, "Velocity command amplitude")
	fs.Float64Var(&cfg.Frequency, "frequency", defaults.Frequency, "Velocity command frequency in Hz")
	fs.Uint64Var(&cfg.Seed, "seed", defaults.Seed, "Jitter random seed")
	fs.StringVar(&cfg.CSVPath, "csv", "", "Write the per-cycle trace to this CSV file")
	fs.StringVar(&cfg.PNGPath, "png", "", "Write a position plot to this PNG file")
	fs.StringVar(&cfg.HTMLPath, "html", "", "Write interactive charts to this HTML file")
	fs.StringVar(&cfg.DBPath, "db", "", "Record the run in this SQLite database")
	fs.BoolVar(&cfg.Version, "version", false, "Print version and exit")

	err := fs.Parse(args)
	return cfg, err
}

// replayConfig combines the motion config with the command line options.
func replayConfig(cfg Config, motion *config.MotionConfig) replay.Config {
	rc := replay.DefaultConfig()
	rc.Joints = motion.GetJointCount()
	if cfg.Joints > 0 {
		rc.Joints = cfg.Joints
	}
	rc.Period = time.Duration(math.Round(units.StepPeriod(motion.GetUpdateRateHz()) * float64(time.Second)))
	rc.Cycles = cfg.Cycles
	rc.Jitter = cfg.Jitter
	rc.GapAt = cfg.GapAt
	rc.Gap = cfg.Gap
	rc.Amplitude = cfg.Amplitude
	rc.Frequency = cfg.Frequency
	rc.Seed = cfg.Seed
	return rc
}

func run(cfg Config, w io.Writer) error {
	motion := config.DefaultMotionConfig()
	if cfg.ConfigPath != "" {
		var err error
		if motion, err = config.LoadMotionConfig(cfg.ConfigPath); err != nil {
			return err
		}
	}
	if err := security.ValidateOutputPaths(cfg.CSVPath, cfg.PNGPath, cfg.HTMLPath, cfg.DBPath); err != nil {
		return err
	}

	res, err := replay.Run(replayConfig(cfg, motion), motion.IntegratorOptions(nil)...)
	if err != nil {
		return err
	}
	printSummary(w, res)

	if cfg.CSVPath != "" {
		if err := report.WriteFile(cfg.CSVPath, func(out io.Writer) error {
			return report.WriteReplayCSV(out, res)
		}); err != nil {
			return err
		}
		log.Printf("Trace written to: %s", cfg.CSVPath)
	}

	if cfg.PNGPath != "" {
		if err := report.WriteReplayPlot(res, cfg.PNGPath); err != nil {
			return err
		}
		log.Printf("Plot written to: %s", cfg.PNGPath)
	}

	if cfg.HTMLPath != "" {
		if err := report.WriteFile(cfg.HTMLPath, func(out io.Writer) error {
			return report.RenderReplayCharts(out, res)
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

		run, err := store.NewReplayRun(res)
		if err != nil {
			return err
		}
		if err := store.NewReplayRunStore(db).Insert(run); err != nil {
			return err
		}
		fmt.Fprintf(w, "Run ID:           %s\n", run.RunID)
	}
	return nil
}

func printSummary(w io.Writer, res *replay.Result) {
	c, s := res.Config, res.Summary
	fmt.Fprintf(w, "Joints:           %d\n", c.Joints)
	fmt.Fprintf(w, "Cycles:           %d (period %s, jitter %s)\n", s.Cycles, c.Period, c.Jitter)
	if c.GapAt > 0 && c.Gap > 0 {
		fmt.Fprintf(w, "Stall:            %s before cycle %d\n", c.Gap, c.GapAt)
	}
	fmt.Fprintf(w, "Valid cycles:     %d (first %d)\n", s.ValidCycles, s.FirstValidCycle)
	fmt.Fprintf(w, "Stale resets:     %d\n", s.StaleResets)
	fmt.Fprintf(w, "Mean period:      %.3f ms\n", s.MeanPeriod*1000)
	fmt.Fprintf(w, "Lead mean/sd/max: %.6g / %.6g / %.6g\n", s.LeadMean, s.LeadStdDev, s.LeadMaxAbs)
}
