package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/motionref/internal/profile"
	"github.com/banshee-data/motionref/internal/replay"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_MigratesToLatest(t *testing.T) {
	db := setupTestDB(t)

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	for _, table := range []string{"profile_runs", "replay_runs"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, NewProfileRunStore(db).Insert(&ProfileRun{Shape: "ramp", TotalSteps: 3}))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	runs, err := NewProfileRunStore(db).List(0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestOpen_InMemory(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	run := &ProfileRun{Shape: "sinoid"}
	require.NoError(t, NewProfileRunStore(db).Insert(run))
	_, err = NewProfileRunStore(db).Get(run.RunID)
	assert.NoError(t, err)
}

func TestMigrateDown(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.MigrateDown())
	version, _, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	_, err = NewReplayRunStore(db).List(0)
	assert.Error(t, err, "replay_runs is gone after rolling back")

	require.NoError(t, db.MigrateUp())
	_, err = NewReplayRunStore(db).List(0)
	assert.NoError(t, err)
}

func TestProfileRunStore_InsertGet(t *testing.T) {
	db := setupTestDB(t)
	s := NewProfileRunStore(db)

	req := profile.Request{Shape: profile.Ramp, MaxVelocity: 0.5, MaxAcceleration: 1, UpdateRate: 100}
	p, err := profile.Calculate(profile.Displacement{Linear: 1, Yaw: 0.2}, req)
	require.NoError(t, err)

	run := NewProfileRun(req, p)
	require.NoError(t, s.Insert(run))

	_, err = uuid.Parse(run.RunID)
	assert.NoError(t, err, "generated run IDs are UUIDs")
	assert.NotZero(t, run.CreatedAt)

	got, err := s.Get(run.RunID)
	require.NoError(t, err)
	if diff := cmp.Diff(run, got); diff != "" {
		t.Errorf("stored run mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "ramp", got.Shape)
	assert.Equal(t, 50, got.AccelSteps)
	assert.Equal(t, 150, got.PlateauSteps)
	assert.Equal(t, 250, got.TotalSteps)
	assert.Equal(t, 0.2, got.Yaw)
}

func TestProfileRunStore_KeepsCallerID(t *testing.T) {
	s := NewProfileRunStore(setupTestDB(t))
	run := &ProfileRun{RunID: "fixed-id", Shape: "ramp", CreatedAt: 42}
	require.NoError(t, s.Insert(run))
	assert.Equal(t, "fixed-id", run.RunID)
	assert.Equal(t, int64(42), run.CreatedAt)

	assert.Error(t, s.Insert(&ProfileRun{RunID: "fixed-id", Shape: "ramp"}), "duplicate IDs are rejected")
}

func TestProfileRunStore_GetMissing(t *testing.T) {
	s := NewProfileRunStore(setupTestDB(t))
	_, err := s.Get("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestProfileRunStore_ListNewestFirst(t *testing.T) {
	s := NewProfileRunStore(setupTestDB(t))
	base := time.Unix(1_700_000_000, 0)
	for i, shape := range []string{"ramp", "sinoid", "ramp"} {
		run := &ProfileRun{Shape: shape, TotalSteps: i, CreatedAt: base.Add(time.Duration(i) * time.Second).UnixNano()}
		require.NoError(t, s.Insert(run))
	}

	all, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int{2, 1, 0}, []int{all[0].TotalSteps, all[1].TotalSteps, all[2].TotalSteps})

	latest, err := s.List(2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, 2, latest[0].TotalSteps)
}

func TestReplayRunStore_RoundTrip(t *testing.T) {
	s := NewReplayRunStore(setupTestDB(t))

	cfg := replay.DefaultConfig()
	cfg.Cycles = 120
	cfg.GapAt = 60
	cfg.Gap = time.Second
	cfg.Seed = 7
	res, err := replay.Run(cfg)
	require.NoError(t, err)

	run, err := NewReplayRun(res)
	require.NoError(t, err)
	require.NoError(t, s.Insert(run))

	got, err := s.Get(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Joints)
	assert.Equal(t, 120, got.Cycles)
	assert.Equal(t, res.Summary.ValidCycles, got.ValidCycles)
	assert.Equal(t, uint64(1), got.StaleResets)
	assert.Equal(t, uint64(7), got.Seed)
	assert.InDelta(t, res.Summary.LeadStdDev, got.LeadStdDev, 1e-15)

	stored, err := got.Config()
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, stored); diff != "" {
		t.Errorf("stored config mismatch (-want +got):\n%s", diff)
	}
}

func TestReplayRunStore_NoParams(t *testing.T) {
	s := NewReplayRunStore(setupTestDB(t))
	run := &ReplayRun{Joints: 1, Cycles: 3, Seed: 1 << 63}
	require.NoError(t, s.Insert(run))

	got, err := s.Get(run.RunID)
	require.NoError(t, err)
	assert.Nil(t, got.ParamsJSON)
	assert.Equal(t, uint64(1<<63), got.Seed, "seeds above MaxInt64 survive the signed column")
	_, err = got.Config()
	assert.Error(t, err)

	list, err := s.List(10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = s.Get("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}
