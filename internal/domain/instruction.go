package domain

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TargetSet is one programmed set inside a WeeklyInstruction. RPE and RIR are
// mutually exclusive intensity metrics; Sanitize enforces that on every write.
type TargetSet struct {
	Weight ExpectedActual  `bson:"weight" json:"weight"`
	Reps   ExpectedActual  `bson:"reps" json:"reps"`
	RPE    *ExpectedActual `bson:"rpe,omitempty" json:"rpe,omitempty"`
	RIR    *ExpectedActual `bson:"rir,omitempty" json:"rir,omitempty"`
	IsDone bool            `bson:"isDone" json:"isDone"`
}

// Sanitize drops whichever of RPE/RIR must not be stored so that at most one
// of them survives. A recorded actual value wins over a mere target; when only
// targets are present, RIR takes precedence over RPE.
func (t *TargetSet) Sanitize() {
	switch {
	case t.RIR != nil && t.RIR.Actual != nil:
		t.RPE = nil
	case t.RPE != nil && t.RPE.Actual != nil:
		t.RIR = nil
	case t.RIR != nil:
		t.RPE = nil
	}
}

// cloneForNewWeek deep-copies the target values of the set, discarding
// everything the user performed against it (actuals and the done flag).
func (t TargetSet) cloneForNewWeek() TargetSet {
	clone := TargetSet{
		Weight: ExpectedActual{Expected: t.Weight.Expected},
		Reps:   ExpectedActual{Expected: t.Reps.Expected},
	}
	if t.RPE != nil {
		clone.RPE = &ExpectedActual{Expected: t.RPE.Expected}
	}
	if t.RIR != nil {
		clone.RIR = &ExpectedActual{Expected: t.RIR.Expected}
	}
	clone.Sanitize()
	return clone
}

// ExerciseInstruction is the per-exercise block of a WeeklyInstruction: the
// programmed sets plus coaching notes and rest time.
type ExerciseInstruction struct {
	ExerciseID  primitive.ObjectID `bson:"exerciseId" json:"exerciseId"`
	Sets        []TargetSet        `bson:"sets" json:"sets"`
	Notes       ExpectedActualText `bson:"notes,omitempty" json:"notes,omitempty"`
	RestingTime int                `bson:"restingTime,omitempty" json:"restingTime,omitempty"`
}

// WeeklyInstruction holds the target data and completion counters for one week
// of one program. (ProgramID, WeekNumber) is unique.
//
// IsDone flips once DoneTimes reaches TimesPerWeek. IsFinished is a separate,
// finer-grained signal derived from every target set being individually marked
// done; the two are tracked independently and may disagree.
type WeeklyInstruction struct {
	ID           primitive.ObjectID    `bson:"_id,omitempty" json:"id"`
	ProgramID    primitive.ObjectID    `bson:"programId" json:"programId"`
	WeekNumber   int                   `bson:"weekNumber" json:"weekNumber"`
	Exercises    []ExerciseInstruction `bson:"exercises" json:"exercises"`
	TimesPerWeek int                   `bson:"timesPerWeek" json:"timesPerWeek"`
	DoneTimes    int                   `bson:"doneTimes" json:"doneTimes"`
	IsDone       bool                  `bson:"isDone" json:"isDone"`
	IsFinished   bool                  `bson:"isFinished" json:"isFinished"`
}

// SanitizeSets applies the RPE/RIR exclusivity rule to every target set.
func (w *WeeklyInstruction) SanitizeSets() {
	for i := range w.Exercises {
		for j := range w.Exercises[i].Sets {
			w.Exercises[i].Sets[j].Sanitize()
		}
	}
}

// CloneForWeek materializes the next week from this one: the exercise/target
// structure is deep-copied with actuals and done flags cleared, counters are
// reset and TimesPerWeek carries over. The returned record has no ID yet.
func (w *WeeklyInstruction) CloneForWeek(weekNumber int) *WeeklyInstruction {
	clone := &WeeklyInstruction{
		ProgramID:    w.ProgramID,
		WeekNumber:   weekNumber,
		TimesPerWeek: w.TimesPerWeek,
		Exercises:    make([]ExerciseInstruction, len(w.Exercises)),
	}
	for i, ex := range w.Exercises {
		sets := make([]TargetSet, len(ex.Sets))
		for j, ts := range ex.Sets {
			sets[j] = ts.cloneForNewWeek()
		}
		clone.Exercises[i] = ExerciseInstruction{
			ExerciseID:  ex.ExerciseID,
			Sets:        sets,
			Notes:       ExpectedActualText{Expected: ex.Notes.Expected},
			RestingTime: ex.RestingTime,
		}
	}
	return clone
}

// RecomputeFinished re-derives IsFinished from per-set completion. A week with
// no sets at all is never finished.
func (w *WeeklyInstruction) RecomputeFinished() {
	total := 0
	for _, ex := range w.Exercises {
		for _, ts := range ex.Sets {
			if !ts.IsDone {
				w.IsFinished = false
				return
			}
			total++
		}
	}
	w.IsFinished = total > 0
}

// WeekCompletion is one row of the per-program completion summary.
type WeekCompletion struct {
	WeekNumber int  `bson:"weekNumber" json:"weekNumber"`
	IsDone     bool `bson:"isDone" json:"isDone"`
}
