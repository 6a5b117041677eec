package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run, steps := createTestRun("run-1", "handoff")

	require.NoError(t, s.WriteRun(ctx, run, steps))

	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Positive(t, got.Seq)
	run.Seq = got.Seq
	assert.Equal(t, run, got)

	gotSteps, err := s.ReadSteps(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, steps, gotSteps)
}

func TestWriteRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run, steps := createTestRun("run-1", "handoff")

	require.NoError(t, s.WriteRun(ctx, run, steps))
	require.NoError(t, s.WriteRun(ctx, run, steps))

	runs, err := s.ListRuns(ctx, "")
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	gotSteps, err := s.ReadSteps(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, gotSteps, len(steps))
}

func TestWriteRun_Conflict(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run, steps := createTestRun("run-1", "handoff")
	require.NoError(t, s.WriteRun(ctx, run, steps))

	run.TraceDigest = "something else"
	err := s.WriteRun(ctx, run, steps)
	require.ErrorIs(t, err, ErrRunConflict)
}

func TestWriteRun_RollsBackOnStepFailure(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	run, steps := createTestRun("run-1", "handoff")
	steps[1].Seq = steps[0].Seq // duplicate primary key

	require.Error(t, s.WriteRun(ctx, run, steps))

	_, err := s.ReadRun(ctx, "run-1")
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadRun(context.Background(), "missing")
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRuns_OrderAndFilter(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, r := range []struct{ id, scenario string }{
		{"run-b", "latch"},
		{"run-a", "handoff"},
		{"run-c", "latch"},
	} {
		run, steps := createTestRun(r.id, r.scenario)
		require.NoError(t, s.WriteRun(ctx, run, steps))
	}

	all, err := s.ListRuns(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"run-b", "run-a", "run-c"}, []string{all[0].ID, all[1].ID, all[2].ID})

	latch, err := s.ListRuns(ctx, "latch")
	require.NoError(t, err)
	require.Len(t, latch, 2)
	assert.Equal(t, "run-b", latch[0].ID)
	assert.Equal(t, "run-c", latch[1].ID)

	latest, err := s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-c", latest.ID)
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)
	runs, err := s.ListRuns(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)

	_, err = s.LatestRun(context.Background())
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestReadSteps_UnknownRun(t *testing.T) {
	s := createTestStore(t)
	steps, err := s.ReadSteps(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, steps)
	assert.Empty(t, steps)
}

func TestSchedule_CanonicalStorage(t *testing.T) {
	got, err := marshalSchedule([]string{"t1", "t2!timeout"})
	require.NoError(t, err)
	assert.Equal(t, `["t1","t2!timeout"]`, got)

	back, err := unmarshalSchedule(got)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2!timeout"}, back)

	empty, err := marshalSchedule(nil)
	require.NoError(t, err)
	assert.Equal(t, `[]`, empty)
	back, err = unmarshalSchedule(empty)
	require.NoError(t, err)
	assert.Equal(t, []string{}, back)
}

func TestQuerySteps_Filters(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"run-1", "run-2"} {
		run, steps := createTestRun(id, "handoff")
		require.NoError(t, s.WriteRun(ctx, run, steps))
	}

	tests := []struct {
		name     string
		q        StepQuery
		wantSeqs []int64
	}{
		{"one run", StepQuery{RunID: "run-1"}, []int64{1, 2, 3}},
		{"thread", StepQuery{RunID: "run-1", Thread: 2}, []int64{2, 3}},
		{"op", StepQuery{RunID: "run-2", Op: "lock"}, []int64{1}},
		{"outcome across runs", StepQuery{Outcome: "park"}, []int64{2, 2}},
		{"no match", StepQuery{RunID: "run-1", Op: "unlock"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps, err := s.QuerySteps(ctx, tt.q)
			require.NoError(t, err)
			require.NotNil(t, steps)
			var seqs []int64
			for _, st := range steps {
				seqs = append(seqs, st.Seq)
			}
			assert.Equal(t, tt.wantSeqs, seqs)
		})
	}
}
