package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTargetSetSanitize(t *testing.T) {
	t.Run("recorded rir drops rpe", func(t *testing.T) {
		ts := TargetSet{
			RPE: &ExpectedActual{Expected: 8, Actual: Float64Ptr(8.5)},
			RIR: &ExpectedActual{Expected: 2, Actual: Float64Ptr(1)},
		}
		ts.Sanitize()
		assert.Nil(t, ts.RPE)
		require.NotNil(t, ts.RIR)
		assert.Equal(t, 1.0, *ts.RIR.Actual)
	})

	t.Run("recorded rpe drops rir when rir has no actual", func(t *testing.T) {
		ts := TargetSet{
			RPE: &ExpectedActual{Expected: 8, Actual: Float64Ptr(9)},
			RIR: &ExpectedActual{Expected: 2},
		}
		ts.Sanitize()
		assert.Nil(t, ts.RIR)
		require.NotNil(t, ts.RPE)
	})

	t.Run("target-only rir outranks target-only rpe", func(t *testing.T) {
		ts := TargetSet{
			RPE: &ExpectedActual{Expected: 8},
			RIR: &ExpectedActual{Expected: 2},
		}
		ts.Sanitize()
		assert.Nil(t, ts.RPE)
		require.NotNil(t, ts.RIR)
		assert.Equal(t, 2.0, ts.RIR.Expected)
	})

	t.Run("lone rpe target survives", func(t *testing.T) {
		ts := TargetSet{RPE: &ExpectedActual{Expected: 7}}
		ts.Sanitize()
		require.NotNil(t, ts.RPE)
		assert.Nil(t, ts.RIR)
	})

	t.Run("no intensity metric is fine", func(t *testing.T) {
		ts := TargetSet{Weight: ExpectedActual{Expected: 100}}
		ts.Sanitize()
		assert.Nil(t, ts.RPE)
		assert.Nil(t, ts.RIR)
	})
}

func TestCloneForWeek(t *testing.T) {
	exerciseID := primitive.NewObjectID()
	week := &WeeklyInstruction{
		ID:           primitive.NewObjectID(),
		ProgramID:    primitive.NewObjectID(),
		WeekNumber:   3,
		TimesPerWeek: 2,
		DoneTimes:    2,
		IsDone:       true,
		IsFinished:   true,
		Exercises: []ExerciseInstruction{
			{
				ExerciseID: exerciseID,
				Sets: []TargetSet{
					{
						Weight: ExpectedActual{Expected: 100, Actual: Float64Ptr(102.5)},
						Reps:   ExpectedActual{Expected: 8, Actual: Float64Ptr(7)},
						RIR:    &ExpectedActual{Expected: 2, Actual: Float64Ptr(1)},
						IsDone: true,
					},
				},
				Notes:       ExpectedActualText{Expected: "pause at the bottom", Actual: "felt heavy"},
				RestingTime: 120,
			},
		},
	}

	clone := week.CloneForWeek(4)

	assert.Equal(t, primitive.NilObjectID, clone.ID)
	assert.Equal(t, week.ProgramID, clone.ProgramID)
	assert.Equal(t, 4, clone.WeekNumber)
	assert.Equal(t, 2, clone.TimesPerWeek)
	assert.Zero(t, clone.DoneTimes)
	assert.False(t, clone.IsDone)
	assert.False(t, clone.IsFinished)

	require.Len(t, clone.Exercises, 1)
	ex := clone.Exercises[0]
	assert.Equal(t, exerciseID, ex.ExerciseID)
	assert.Equal(t, "pause at the bottom", ex.Notes.Expected)
	assert.Empty(t, ex.Notes.Actual)
	assert.Equal(t, 120, ex.RestingTime)

	require.Len(t, ex.Sets, 1)
	ts := ex.Sets[0]
	assert.False(t, ts.IsDone)
	assert.Equal(t, 100.0, ts.Weight.Expected)
	assert.Nil(t, ts.Weight.Actual)
	assert.Equal(t, 8.0, ts.Reps.Expected)
	assert.Nil(t, ts.Reps.Actual)
	// The intensity target rolls over as a target only.
	require.NotNil(t, ts.RIR)
	assert.Equal(t, 2.0, ts.RIR.Expected)
	assert.Nil(t, ts.RIR.Actual)
	assert.Nil(t, ts.RPE)
}

func TestCloneForWeekDoesNotAliasSource(t *testing.T) {
	week := &WeeklyInstruction{
		ProgramID: primitive.NewObjectID(),
		Exercises: []ExerciseInstruction{
			{
				ExerciseID: primitive.NewObjectID(),
				Sets: []TargetSet{
					{
						Weight: ExpectedActual{Expected: 60},
						Reps:   ExpectedActual{Expected: 10},
						RPE:    &ExpectedActual{Expected: 8},
					},
				},
			},
		},
		TimesPerWeek: 1,
	}

	clone := week.CloneForWeek(2)
	clone.Exercises[0].Sets[0].Weight.Expected = 65
	clone.Exercises[0].Sets[0].RPE.Expected = 9

	assert.Equal(t, 60.0, week.Exercises[0].Sets[0].Weight.Expected)
	assert.Equal(t, 8.0, week.Exercises[0].Sets[0].RPE.Expected)
}

func TestRecomputeFinished(t *testing.T) {
	done := TargetSet{IsDone: true}
	open := TargetSet{}

	t.Run("all sets done", func(t *testing.T) {
		w := &WeeklyInstruction{Exercises: []ExerciseInstruction{{Sets: []TargetSet{done, done}}}}
		w.RecomputeFinished()
		assert.True(t, w.IsFinished)
	})

	t.Run("one open set", func(t *testing.T) {
		w := &WeeklyInstruction{
			IsFinished: true,
			Exercises:  []ExerciseInstruction{{Sets: []TargetSet{done, open}}},
		}
		w.RecomputeFinished()
		assert.False(t, w.IsFinished)
	})

	t.Run("no sets is never finished", func(t *testing.T) {
		w := &WeeklyInstruction{IsFinished: true}
		w.RecomputeFinished()
		assert.False(t, w.IsFinished)
	})
}
