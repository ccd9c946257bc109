package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/motionref/internal/replay"
)

// ReplayRun is a persisted summary of one integrator replay.
type ReplayRun struct {
	RunID       string          `json:"run_id"`
	Joints      int             `json:"joints"`
	Cycles      int             `json:"cycles"`
	ValidCycles int             `json:"valid_cycles"`
	StaleResets uint64          `json:"stale_resets"`
	Seed        uint64          `json:"seed"`
	MeanPeriod  float64         `json:"mean_period_s"`
	LeadMean    float64         `json:"lead_mean"`
	LeadStdDev  float64         `json:"lead_stddev"`
	LeadMaxAbs  float64         `json:"lead_max_abs"`
	ParamsJSON  json.RawMessage `json:"params_json,omitempty"`
	CreatedAt   int64           `json:"created_at"`
}

// NewReplayRun summarises a replay, keeping its full config as JSON.
func NewReplayRun(r *replay.Result) (*ReplayRun, error) {
	params, err := json.Marshal(r.Config)
	if err != nil {
		return nil, fmt.Errorf("marshal replay config: %w", err)
	}
	s := r.Summary
	return &ReplayRun{
		Joints:      r.Config.Joints,
		Cycles:      s.Cycles,
		ValidCycles: s.ValidCycles,
		StaleResets: s.StaleResets,
		Seed:        r.Config.Seed,
		MeanPeriod:  s.MeanPeriod,
		LeadMean:    s.LeadMean,
		LeadStdDev:  s.LeadStdDev,
		LeadMaxAbs:  s.LeadMaxAbs,
		ParamsJSON:  params,
	}, nil
}

// ReplayRunStore provides persistence for replay runs.
type ReplayRunStore struct {
	db *sql.DB
}

// NewReplayRunStore creates a new ReplayRunStore.
func NewReplayRunStore(db *DB) *ReplayRunStore {
	return &ReplayRunStore{db: db.DB}
}

// Insert persists a run. If RunID is empty, a UUID is generated.
func (s *ReplayRunStore) Insert(run *ReplayRun) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}

	var paramsStr interface{}
	if len(run.ParamsJSON) > 0 {
		paramsStr = string(run.ParamsJSON)
	}

	// SQLite integers are signed; seeds and counters round-trip through int64.
	_, err := s.db.Exec(`
		INSERT INTO replay_runs (
			run_id, joints, cycles, valid_cycles, stale_resets, seed,
			mean_period_s, lead_mean, lead_stddev, lead_max_abs,
			params_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Joints, run.Cycles, run.ValidCycles, int64(run.StaleResets), int64(run.Seed),
		run.MeanPeriod, run.LeadMean, run.LeadStdDev, run.LeadMaxAbs,
		paramsStr, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert replay run: %w", err)
	}
	return nil
}

const replayRunColumns = `
	run_id, joints, cycles, valid_cycles, stale_resets, seed,
	mean_period_s, lead_mean, lead_stddev, lead_max_abs,
	params_json, created_at`

func scanReplayRun(row rowScanner) (*ReplayRun, error) {
	var (
		r            ReplayRun
		resets, seed int64
		paramsStr    sql.NullString
	)
	err := row.Scan(
		&r.RunID, &r.Joints, &r.Cycles, &r.ValidCycles, &resets, &seed,
		&r.MeanPeriod, &r.LeadMean, &r.LeadStdDev, &r.LeadMaxAbs,
		&paramsStr, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.StaleResets = uint64(resets)
	r.Seed = uint64(seed)
	if paramsStr.Valid {
		r.ParamsJSON = json.RawMessage(paramsStr.String)
	}
	return &r, nil
}

// Get returns a single run by ID.
func (s *ReplayRunStore) Get(runID string) (*ReplayRun, error) {
	row := s.db.QueryRow(`SELECT `+replayRunColumns+` FROM replay_runs WHERE run_id = ?`, runID)
	r, err := scanReplayRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("replay run %s: %w", runID, ErrNotFound)
		}
		return nil, fmt.Errorf("scan replay run: %w", err)
	}
	return r, nil
}

// List returns the most recent runs, newest first. A non-positive limit
// returns every run.
func (s *ReplayRunStore) List(limit int) ([]*ReplayRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT `+replayRunColumns+` FROM replay_runs
		ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query replay runs: %w", err)
	}
	defer rows.Close()

	var runs []*ReplayRun
	for rows.Next() {
		r, err := scanReplayRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan replay run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Config decodes the stored replay configuration.
func (r *ReplayRun) Config() (replay.Config, error) {
	var cfg replay.Config
	if len(r.ParamsJSON) == 0 {
		return cfg, errors.New("replay run has no stored config")
	}
	if err := json.Unmarshal(r.ParamsJSON, &cfg); err != nil {
		return cfg, fmt.Errorf("decode replay config: %w", err)
	}
	return cfg, nil
}
