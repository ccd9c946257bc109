package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/motionref/internal/integrator"
	"github.com/banshee-data/motionref/internal/profile"
	"github.com/banshee-data/motionref/internal/timeutil"
	"github.com/banshee-data/motionref/internal/units"
)

// DefaultConfigPath is the path to the canonical motion defaults file.
const DefaultConfigPath = "config/motion.defaults.json"

// Fallback values used when a field is absent from the JSON file.
const (
	defaultUpdateRateHz       = 100.0
	defaultProfileShape       = "ramp"
	defaultMaxVelocity        = 0.5
	defaultMaxAcceleration    = 1.0
	defaultAngleUnit          = units.Radians
	defaultLengthUnit         = units.Meters
	defaultSmoothingFactor    = 0.2
	defaultVelocityWarmup     = 1
	defaultPositionWarmup     = 1
	defaultStalenessThreshold = 500 * time.Millisecond
	defaultJointCount         = 6
)

// MotionConfig holds the tunables of the profile generator and the velocity
// integrator. Pointer fields distinguish "not set" from zero so partial
// files fall back to the Get* defaults.
type MotionConfig struct {
	// Profile generation
	UpdateRateHz    *float64 `json:"update_rate_hz,omitempty"`
	ProfileShape    *string  `json:"profile_shape,omitempty"`
	MaxVelocity     *float64 `json:"max_velocity,omitempty"`
	MaxAcceleration *float64 `json:"max_acceleration,omitempty"`
	AngleUnit       *string  `json:"angle_unit,omitempty"`
	LengthUnit      *string  `json:"length_unit,omitempty"`

	// Velocity integration
	SmoothingFactor       *float64 `json:"smoothing_factor,omitempty"`
	VelocityWarmupSamples *int     `json:"velocity_warmup_samples,omitempty"`
	PositionWarmupSamples *int     `json:"position_warmup_samples,omitempty"`
	StalenessThreshold    *string  `json:"staleness_threshold,omitempty"` // duration string like "500ms"
	JointCount            *int     `json:"joint_count,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyMotionConfig returns a MotionConfig with all fields unset.
func EmptyMotionConfig() *MotionConfig {
	return &MotionConfig{}
}

// DefaultMotionConfig returns a MotionConfig with every field set to its
// built-in default.
func DefaultMotionConfig() *MotionConfig {
	return &MotionConfig{
		UpdateRateHz:          ptrFloat64(defaultUpdateRateHz),
		ProfileShape:          ptrString(defaultProfileShape),
		MaxVelocity:           ptrFloat64(defaultMaxVelocity),
		MaxAcceleration:       ptrFloat64(defaultMaxAcceleration),
		AngleUnit:             ptrString(defaultAngleUnit),
		LengthUnit:            ptrString(defaultLengthUnit),
		SmoothingFactor:       ptrFloat64(defaultSmoothingFactor),
		VelocityWarmupSamples: ptrInt(defaultVelocityWarmup),
		PositionWarmupSamples: ptrInt(defaultPositionWarmup),
		StalenessThreshold:    ptrString(defaultStalenessThreshold.String()),
		JointCount:            ptrInt(defaultJointCount),
	}
}

// LoadMotionConfig loads a MotionConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted
// from the file keep their defaults, so partial configs are safe.
func LoadMotionConfig(path string) (*MotionConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyMotionConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the current directory
// or one of its parents. Panics if the file cannot be loaded, intended for
// test setup.
func MustLoadDefaultConfig() *MotionConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadMotionConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// Validate checks the values that are set.
func (c *MotionConfig) Validate() error {
	if c.UpdateRateHz != nil && !positiveFinite(*c.UpdateRateHz) {
		return fmt.Errorf("update_rate_hz must be positive, got %f", *c.UpdateRateHz)
	}
	if c.ProfileShape != nil {
		if _, err := profile.ParseShape(*c.ProfileShape); err != nil {
			return fmt.Errorf("invalid profile_shape: %w", err)
		}
	}
	if c.MaxVelocity != nil && !positiveFinite(*c.MaxVelocity) {
		return fmt.Errorf("max_velocity must be positive, got %f", *c.MaxVelocity)
	}
	if c.MaxAcceleration != nil && !positiveFinite(*c.MaxAcceleration) {
		return fmt.Errorf("max_acceleration must be positive, got %f", *c.MaxAcceleration)
	}
	if c.AngleUnit != nil && !units.IsValidAngle(*c.AngleUnit) {
		return fmt.Errorf("angle_unit must be one of %s, got %q", units.GetValidAngleUnitsString(), *c.AngleUnit)
	}
	if c.LengthUnit != nil && !units.IsValidLength(*c.LengthUnit) {
		return fmt.Errorf("length_unit must be one of %s, got %q", units.GetValidLengthUnitsString(), *c.LengthUnit)
	}
	if c.SmoothingFactor != nil {
		if f := *c.SmoothingFactor; !(f > 0 && f <= 1) {
			return fmt.Errorf("smoothing_factor must be in (0, 1], got %f", f)
		}
	}
	if c.VelocityWarmupSamples != nil && *c.VelocityWarmupSamples < 1 {
		return fmt.Errorf("velocity_warmup_samples must be at least 1, got %d", *c.VelocityWarmupSamples)
	}
	if c.PositionWarmupSamples != nil && *c.PositionWarmupSamples < 1 {
		return fmt.Errorf("position_warmup_samples must be at least 1, got %d", *c.PositionWarmupSamples)
	}
	if c.StalenessThreshold != nil && *c.StalenessThreshold != "" {
		d, err := time.ParseDuration(*c.StalenessThreshold)
		if err != nil {
			return fmt.Errorf("invalid staleness_threshold '%s': %w", *c.StalenessThreshold, err)
		}
		if d <= 0 {
			return fmt.Errorf("staleness_threshold must be positive, got %s", d)
		}
	}
	if c.JointCount != nil && *c.JointCount < 1 {
		return fmt.Errorf("joint_count must be at least 1, got %d", *c.JointCount)
	}
	return nil
}

// GetUpdateRateHz returns the control loop rate or the default.
func (c *MotionConfig) GetUpdateRateHz() float64 {
	if c.UpdateRateHz == nil {
		return defaultUpdateRateHz
	}
	return *c.UpdateRateHz
}

// GetProfileShape returns the parsed profile shape or the default.
func (c *MotionConfig) GetProfileShape() profile.Shape {
	if c.ProfileShape == nil {
		return profile.Ramp
	}
	s, err := profile.ParseShape(*c.ProfileShape)
	if err != nil {
		return profile.Ramp
	}
	return s
}

// GetMaxVelocity returns the velocity limit or the default.
func (c *MotionConfig) GetMaxVelocity() float64 {
	if c.MaxVelocity == nil {
		return defaultMaxVelocity
	}
	return *c.MaxVelocity
}

// GetMaxAcceleration returns the acceleration limit or the default.
func (c *MotionConfig) GetMaxAcceleration() float64 {
	if c.MaxAcceleration == nil {
		return defaultMaxAcceleration
	}
	return *c.MaxAcceleration
}

// GetAngleUnit returns the unit rotational displacements are given in.
func (c *MotionConfig) GetAngleUnit() string {
	if c.AngleUnit == nil {
		return defaultAngleUnit
	}
	return *c.AngleUnit
}

// GetLengthUnit returns the unit the linear displacement is given in.
// Velocity and acceleration limits are always in meters.
func (c *MotionConfig) GetLengthUnit() string {
	if c.LengthUnit == nil {
		return defaultLengthUnit
	}
	return *c.LengthUnit
}

// GetSmoothingFactor returns the smoother weight or the default.
func (c *MotionConfig) GetSmoothingFactor() float64 {
	if c.SmoothingFactor == nil {
		return defaultSmoothingFactor
	}
	return *c.SmoothingFactor
}

// GetVelocityWarmupSamples returns the velocity filter warm-up or the default.
func (c *MotionConfig) GetVelocityWarmupSamples() int {
	if c.VelocityWarmupSamples == nil {
		return defaultVelocityWarmup
	}
	return *c.VelocityWarmupSamples
}

// GetPositionWarmupSamples returns the position filter warm-up or the default.
func (c *MotionConfig) GetPositionWarmupSamples() int {
	if c.PositionWarmupSamples == nil {
		return defaultPositionWarmup
	}
	return *c.PositionWarmupSamples
}

// GetStalenessThreshold parses and returns the StalenessThreshold.
func (c *MotionConfig) GetStalenessThreshold() time.Duration {
	if c.StalenessThreshold == nil || *c.StalenessThreshold == "" {
		return defaultStalenessThreshold
	}
	d, err := time.ParseDuration(*c.StalenessThreshold)
	if err != nil || d <= 0 {
		return defaultStalenessThreshold // default on parse error
	}
	return d
}

// GetJointCount returns the number of joints or the default.
func (c *MotionConfig) GetJointCount() int {
	if c.JointCount == nil {
		return defaultJointCount
	}
	return *c.JointCount
}

// ProfileRequest builds a profile request from the configured limits. A
// positive duration asks for a fixed-duration profile.
func (c *MotionConfig) ProfileRequest(duration float64) profile.Request {
	return profile.Request{
		Shape:           c.GetProfileShape(),
		MaxVelocity:     c.GetMaxVelocity(),
		MaxAcceleration: c.GetMaxAcceleration(),
		UpdateRate:      c.GetUpdateRateHz(),
		Duration:        duration,
	}
}

// IntegratorOptions returns the integrator options for this config. A nil
// clock keeps the integrator on real time.
func (c *MotionConfig) IntegratorOptions(clock timeutil.Clock) []integrator.Option {
	opts := []integrator.Option{
		integrator.WithStaleness(c.GetStalenessThreshold()),
		integrator.WithSmoothingFactor(c.GetSmoothingFactor()),
		integrator.WithWarmup(c.GetVelocityWarmupSamples(), c.GetPositionWarmupSamples()),
	}
	if clock != nil {
		opts = append(opts, integrator.WithClock(clock))
	}
	return opts
}
