package main

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/motionref/internal/profile"
	"github.com/banshee-data/motionref/internal/store"
)

func TestParseFlags(t *testing.T) {
	cfg, err := parseFlags([]string{"-shape", "sinoid", "-linear", "0.4", "-yaw", "90", "-angle-unit", "deg", "-length-unit", "mm", "-duration", "3"})
	require.NoError(t, err)
	assert.Equal(t, "sinoid", cfg.Shape)
	assert.Equal(t, 0.4, cfg.Linear)
	assert.Equal(t, 90.0, cfg.Yaw)
	assert.Equal(t, "deg", cfg.AngleUnit)
	assert.Equal(t, "mm", cfg.LengthUnit)
	assert.Equal(t, 3.0, cfg.Duration)

	_, err = parseFlags([]string{"-linear", "far"})
	assert.Error(t, err)
}

func TestRun_PrintsParameters(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(Config{Linear: 1}, &out))

	text := out.String()
	assert.Contains(t, text, "ramp (time-optimal)")
	assert.Contains(t, text, "50 accel + 150 plateau + 50 decel = 250")
	assert.Contains(t, text, "Duration:      2.5000s")
}

func TestRun_DegreesDominate(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(Config{Linear: 0.1, Yaw: 180, AngleUnit: "deg", Shape: "sinoid"}, &out))
	assert.Contains(t, out.String(), "yaw    final 3.14159 rad (180 deg)")
	assert.Contains(t, out.String(), "linear final 0.1 m")
}

func TestRun_Millimeters(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(Config{Linear: 1000, LengthUnit: "mm"}, &out))

	text := out.String()
	assert.Contains(t, text, "50 accel + 150 plateau + 50 decel = 250", "1000 mm plans like 1 m")
	assert.Contains(t, text, "linear final 1 m")
}

func TestRun_WritesOutputs(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Linear:   0.5,
		Pitch:    0.2,
		CSVPath:  filepath.Join(dir, "profile.csv"),
		PNGDir:   filepath.Join(dir, "plots"),
		HTMLPath: filepath.Join(dir, "profile.html"),
		DBPath:   filepath.Join(dir, "runs.db"),
	}

	var out bytes.Buffer
	require.NoError(t, run(cfg, &out))
	assert.Contains(t, out.String(), "Run ID:")

	for _, f := range []string{cfg.CSVPath, cfg.HTMLPath, filepath.Join(cfg.PNGDir, "profile_velocity.png")} {
		info, err := os.Stat(f)
		require.NoError(t, err, f)
		assert.Greater(t, info.Size(), int64(0), f)
	}

	db, err := store.Open(cfg.DBPath)
	require.NoError(t, err)
	defer db.Close()
	runs, err := store.NewProfileRunStore(db).List(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 0.5, runs[0].Linear)
	assert.Equal(t, 0.2, runs[0].Pitch)
}

func TestRun_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motion.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"profile_shape": "sinoid", "update_rate_hz": 50}`), 0644))

	var out bytes.Buffer
	require.NoError(t, run(Config{ConfigPath: path, Linear: 1}, &out))
	assert.Contains(t, out.String(), "sinoid")
	assert.Contains(t, out.String(), "50 Hz")
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		target error
	}{
		{"unachievable duration", Config{Linear: 1, Duration: 0.5}, profile.ErrDurationUnachievable},
		{"non-finite displacement", Config{Linear: math.Inf(1)}, profile.ErrInvalidRequest},
		{"unknown shape", Config{Linear: 1, Shape: "cubic"}, nil},
		{"unknown angle unit", Config{Linear: 1, AngleUnit: "grad"}, nil},
		{"unknown length unit", Config{Linear: 1, LengthUnit: "in"}, nil},
		{"missing config", Config{Linear: 1, ConfigPath: "absent.json"}, nil},
		{"csv outside workspace", Config{Linear: 1, CSVPath: "/etc/profile.csv"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(tt.cfg, &bytes.Buffer{})
			require.Error(t, err)
			if tt.target != nil {
				assert.True(t, errors.Is(err, tt.target), "got %v", err)
			}
		})
	}
}
