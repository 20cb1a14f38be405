package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Set is one recorded performed set of an exercise within a session. Rows are
// batch-created by the snapshot task when a workout is played and mutated
// individually as the user works through them.
type Set struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID  primitive.ObjectID `bson:"sessionId" json:"sessionId"`
	ExerciseID primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	SetNumber  int                `bson:"setNumber" json:"setNumber"` // 1-based within session+exercise
	Weight     ExpectedActual     `bson:"weight" json:"weight"`
	Reps       ExpectedActual     `bson:"reps" json:"reps"`
	RPE        *ExpectedActual    `bson:"rpe,omitempty" json:"rpe,omitempty"`
	RIR        *ExpectedActual    `bson:"rir,omitempty" json:"rir,omitempty"`
	IsDone     bool               `bson:"isDone" json:"isDone"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Sanitize enforces RPE/RIR exclusivity on a performed set. Unlike target
// sets, performed sets are judged on recorded actuals only: a recorded RIR
// drops RPE, a recorded RPE drops RIR, and when neither metric was actually
// performed both are dropped regardless of what the caller submitted.
func (s *Set) Sanitize() {
	switch {
	case s.RIR != nil && s.RIR.Actual != nil:
		s.RPE = nil
	case s.RPE != nil && s.RPE.Actual != nil:
		s.RIR = nil
	default:
		s.RPE = nil
		s.RIR = nil
	}
}

// BuildSnapshotSets materializes the performed-set rows for a just-played
// week: one Set per target set, with actual seeded from expected so the user
// starts from the programmed values, and isDone false. SetNumber restarts at 1
// for each exercise.
func BuildSnapshotSets(w *WeeklyInstruction, sessionID, userID primitive.ObjectID) []Set {
	var sets []Set
	for _, ex := range w.Exercises {
		for i, ts := range ex.Sets {
			set := Set{
				SessionID:  sessionID,
				ExerciseID: ex.ExerciseID,
				UserID:     userID,
				SetNumber:  i + 1,
				Weight:     ExpectedActual{Expected: ts.Weight.Expected, Actual: Float64Ptr(ts.Weight.Expected)},
				Reps:       ExpectedActual{Expected: ts.Reps.Expected, Actual: Float64Ptr(ts.Reps.Expected)},
			}
			if ts.RPE != nil {
				set.RPE = &ExpectedActual{Expected: ts.RPE.Expected, Actual: Float64Ptr(ts.RPE.Expected)}
			}
			if ts.RIR != nil {
				set.RIR = &ExpectedActual{Expected: ts.RIR.Expected, Actual: Float64Ptr(ts.RIR.Expected)}
			}
			set.Sanitize()
			sets = append(sets, set)
		}
	}
	return sets
}
