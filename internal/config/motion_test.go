package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/motionref/internal/integrator"
	"github.com/banshee-data/motionref/internal/profile"
	"github.com/banshee-data/motionref/internal/timeutil"
	"github.com/banshee-data/motionref/internal/units"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultMotionConfig(t *testing.T) {
	cfg := DefaultMotionConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 100.0, cfg.GetUpdateRateHz())
	assert.Equal(t, profile.Ramp, cfg.GetProfileShape())
	assert.Equal(t, 0.5, cfg.GetMaxVelocity())
	assert.Equal(t, 1.0, cfg.GetMaxAcceleration())
	assert.Equal(t, units.Radians, cfg.GetAngleUnit())
	assert.Equal(t, units.Meters, cfg.GetLengthUnit())
	assert.Equal(t, 0.2, cfg.GetSmoothingFactor())
	assert.Equal(t, 1, cfg.GetVelocityWarmupSamples())
	assert.Equal(t, 1, cfg.GetPositionWarmupSamples())
	assert.Equal(t, 500*time.Millisecond, cfg.GetStalenessThreshold())
	assert.Equal(t, 6, cfg.GetJointCount())
}

func TestEmptyMotionConfig_GettersFallBack(t *testing.T) {
	empty := EmptyMotionConfig()
	defaults := DefaultMotionConfig()

	assert.Equal(t, defaults.GetUpdateRateHz(), empty.GetUpdateRateHz())
	assert.Equal(t, defaults.GetProfileShape(), empty.GetProfileShape())
	assert.Equal(t, defaults.GetMaxVelocity(), empty.GetMaxVelocity())
	assert.Equal(t, defaults.GetMaxAcceleration(), empty.GetMaxAcceleration())
	assert.Equal(t, defaults.GetAngleUnit(), empty.GetAngleUnit())
	assert.Equal(t, defaults.GetLengthUnit(), empty.GetLengthUnit())
	assert.Equal(t, defaults.GetSmoothingFactor(), empty.GetSmoothingFactor())
	assert.Equal(t, defaults.GetStalenessThreshold(), empty.GetStalenessThreshold())
	assert.Equal(t, defaults.GetJointCount(), empty.GetJointCount())
}

func TestMustLoadDefaultConfig_MatchesBuiltins(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	if diff := cmp.Diff(DefaultMotionConfig(), cfg); diff != "" {
		t.Errorf("%s differs from built-in defaults (-want +got):\n%s", DefaultConfigPath, diff)
	}
}

func TestLoadMotionConfig(t *testing.T) {
	path := writeConfig(t, "motion.json", `{
  "update_rate_hz": 250,
  "profile_shape": "sinoid",
  "max_velocity": 1.5,
  "length_unit": "mm",
  "staleness_threshold": "200ms",
  "position_warmup_samples": 3
}`)

	cfg, err := LoadMotionConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 250.0, cfg.GetUpdateRateHz())
	assert.Equal(t, profile.Sinoid, cfg.GetProfileShape())
	assert.Equal(t, 1.5, cfg.GetMaxVelocity())
	assert.Equal(t, units.Millimeters, cfg.GetLengthUnit())
	assert.Equal(t, 200*time.Millisecond, cfg.GetStalenessThreshold())
	assert.Equal(t, 3, cfg.GetPositionWarmupSamples())

	// Omitted fields keep their defaults.
	assert.Nil(t, cfg.MaxAcceleration)
	assert.Equal(t, 1.0, cfg.GetMaxAcceleration())
	assert.Equal(t, 0.2, cfg.GetSmoothingFactor())
}

func TestLoadMotionConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"wrong extension", "motion.yaml", `{}`, ".json extension"},
		{"malformed JSON", "motion.json", `{"max_velocity": }`, "failed to parse"},
		{"negative velocity", "motion.json", `{"max_velocity": -1}`, "max_velocity"},
		{"zero acceleration", "motion.json", `{"max_acceleration": 0}`, "max_acceleration"},
		{"zero rate", "motion.json", `{"update_rate_hz": 0}`, "update_rate_hz"},
		{"unknown shape", "motion.json", `{"profile_shape": "cubic"}`, "profile_shape"},
		{"unknown angle unit", "motion.json", `{"angle_unit": "grad"}`, "angle_unit"},
		{"unknown length unit", "motion.json", `{"length_unit": "in"}`, "length_unit"},
		{"factor above one", "motion.json", `{"smoothing_factor": 1.5}`, "smoothing_factor"},
		{"factor zero", "motion.json", `{"smoothing_factor": 0}`, "smoothing_factor"},
		{"zero warmup", "motion.json", `{"velocity_warmup_samples": 0}`, "velocity_warmup_samples"},
		{"bad staleness", "motion.json", `{"staleness_threshold": "soon"}`, "staleness_threshold"},
		{"negative staleness", "motion.json", `{"staleness_threshold": "-1s"}`, "staleness_threshold"},
		{"no joints", "motion.json", `{"joint_count": 0}`, "joint_count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.body)
			_, err := LoadMotionConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMotionConfig_MissingFile(t *testing.T) {
	_, err := LoadMotionConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stat")
}

func TestLoadMotionConfig_TooLarge(t *testing.T) {
	body := `{"profile_shape": "ramp", "pad": "` + strings.Repeat("x", 1024*1024) + `"}`
	path := writeConfig(t, "huge.json", body)
	_, err := LoadMotionConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestGetStalenessThreshold_EmptyString(t *testing.T) {
	cfg := &MotionConfig{StalenessThreshold: ptrString("")}
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 500*time.Millisecond, cfg.GetStalenessThreshold())
}

func TestProfileRequest(t *testing.T) {
	cfg := DefaultMotionConfig()
	cfg.ProfileShape = ptrString("s-curve")

	req := cfg.ProfileRequest(2.0)
	want := profile.Request{
		Shape:           profile.Sinoid,
		MaxVelocity:     0.5,
		MaxAcceleration: 1.0,
		UpdateRate:      100,
		Duration:        2.0,
	}
	if diff := cmp.Diff(want, req); diff != "" {
		t.Errorf("ProfileRequest mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, req.Validate())

	p, err := profile.Calculate(profile.Displacement{Linear: 0.3}, req)
	require.NoError(t, err)
	assert.Equal(t, 200, p.Parameters.TotalSteps)
}

func TestIntegratorOptions(t *testing.T) {
	cfg := DefaultMotionConfig()
	cfg.StalenessThreshold = ptrString("50ms")

	clock := timeutil.NewMockClock(time.Unix(100, 0))
	in, err := integrator.New(2, cfg.IntegratorOptions(clock)...)
	require.NoError(t, err)

	qDot := []float64{1, 1}
	q := []float64{0, 0}
	in.Update(qDot, q)
	clock.Advance(10 * time.Millisecond)
	in.Update(qDot, q)
	clock.Advance(60 * time.Millisecond)
	_, ok := in.Update(qDot, q)

	assert.False(t, ok, "configured staleness applies")
	assert.Equal(t, uint64(1), in.StaleResets())
	assert.Len(t, cfg.IntegratorOptions(nil), 3)
}
