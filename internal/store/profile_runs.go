package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/motionref/internal/profile"
)

// ProfileRun is a persisted summary of one profile calculation.
type ProfileRun struct {
	RunID             string  `json:"run_id"`
	Shape             string  `json:"shape"`
	Linear            float64 `json:"linear"`
	Roll              float64 `json:"roll"`
	Pitch             float64 `json:"pitch"`
	Yaw               float64 `json:"yaw"`
	MaxVelocity       float64 `json:"max_velocity"`
	MaxAcceleration   float64 `json:"max_acceleration"`
	UpdateRateHz      float64 `json:"update_rate_hz"`
	RequestedDuration float64 `json:"requested_duration"`
	VelocityPeak      float64 `json:"velocity_peak"`
	AccelerationPeak  float64 `json:"acceleration_peak"`
	AccelSteps        int     `json:"accel_steps"`
	PlateauSteps      int     `json:"plateau_steps"`
	DecelSteps        int     `json:"decel_steps"`
	TotalSteps        int     `json:"total_steps"`
	Duration          float64 `json:"duration"`
	CreatedAt         int64   `json:"created_at"`
}

// NewProfileRun summarises a generated profile and the request behind it.
func NewProfileRun(req profile.Request, p *profile.Profile) *ProfileRun {
	pp := p.Parameters
	return &ProfileRun{
		Shape:             req.Shape.String(),
		Linear:            p.Displacement.Linear,
		Roll:              p.Displacement.Roll,
		Pitch:             p.Displacement.Pitch,
		Yaw:               p.Displacement.Yaw,
		MaxVelocity:       req.MaxVelocity,
		MaxAcceleration:   req.MaxAcceleration,
		UpdateRateHz:      req.UpdateRate,
		RequestedDuration: req.Duration,
		VelocityPeak:      pp.VelocityPeak,
		AccelerationPeak:  pp.AccelerationPeak,
		AccelSteps:        pp.AccelSteps,
		PlateauSteps:      pp.PlateauSteps,
		DecelSteps:        pp.DecelSteps,
		TotalSteps:        pp.TotalSteps,
		Duration:          pp.Duration,
	}
}

// ProfileRunStore provides persistence for profile runs.
type ProfileRunStore struct {
	db *sql.DB
}

// NewProfileRunStore creates a new ProfileRunStore.
func NewProfileRunStore(db *DB) *ProfileRunStore {
	return &ProfileRunStore{db: db.DB}
}

// Insert persists a run. If RunID is empty, a UUID is generated.
func (s *ProfileRunStore) Insert(run *ProfileRun) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}

	_, err := s.db.Exec(`
		INSERT INTO profile_runs (
			run_id, shape, linear, roll, pitch, yaw,
			max_velocity, max_acceleration, update_rate_hz, requested_duration,
			velocity_peak, acceleration_peak,
			accel_steps, plateau_steps, decel_steps, total_steps,
			duration, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Shape, run.Linear, run.Roll, run.Pitch, run.Yaw,
		run.MaxVelocity, run.MaxAcceleration, run.UpdateRateHz, run.RequestedDuration,
		run.VelocityPeak, run.AccelerationPeak,
		run.AccelSteps, run.PlateauSteps, run.DecelSteps, run.TotalSteps,
		run.Duration, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert profile run: %w", err)
	}
	return nil
}

const profileRunColumns = `
	run_id, shape, linear, roll, pitch, yaw,
	max_velocity, max_acceleration, update_rate_hz, requested_duration,
	velocity_peak, acceleration_peak,
	accel_steps, plateau_steps, decel_steps, total_steps,
	duration, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfileRun(row rowScanner) (*ProfileRun, error) {
	var r ProfileRun
	err := row.Scan(
		&r.RunID, &r.Shape, &r.Linear, &r.Roll, &r.Pitch, &r.Yaw,
		&r.MaxVelocity, &r.MaxAcceleration, &r.UpdateRateHz, &r.RequestedDuration,
		&r.VelocityPeak, &r.AccelerationPeak,
		&r.AccelSteps, &r.PlateauSteps, &r.DecelSteps, &r.TotalSteps,
		&r.Duration, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Get returns a single run by ID.
func (s *ProfileRunStore) Get(runID string) (*ProfileRun, error) {
	row := s.db.QueryRow(`SELECT `+profileRunColumns+` FROM profile_runs WHERE run_id = ?`, runID)
	r, err := scanProfileRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile run %s: %w", runID, ErrNotFound)
		}
		return nil, fmt.Errorf("scan profile run: %w", err)
	}
	return r, nil
}

// List returns the most recent runs, newest first. A non-positive limit
// returns every run.
func (s *ProfileRunStore) List(limit int) ([]*ProfileRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT `+profileRunColumns+` FROM profile_runs
		ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query profile runs: %w", err)
	}
	defer rows.Close()

	var runs []*ProfileRun
	for rows.Next() {
		r, err := scanProfileRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
