package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SnapshotStatus tracks the background snapshot task spawned when a workout is
// played. Playing a workout returns before its Set rows are guaranteed to be
// written; this field makes that race observable to clients.
type SnapshotStatus string

const (
	SnapshotNone    SnapshotStatus = ""
	SnapshotPending SnapshotStatus = "pending"
	SnapshotReady   SnapshotStatus = "ready"
	SnapshotFailed  SnapshotStatus = "failed"
)

// Session is the day-scoped execution context for a user. It binds at most one
// in-flight program/week at a time and collects the Set rows recorded that day.
type Session struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID   `bson:"userId" json:"userId"`
	Date           string               `bson:"date" json:"date"` // calendar day, "2006-01-02"
	WorkoutID      *primitive.ObjectID  `bson:"workoutId,omitempty" json:"workoutId,omitempty"`
	InstructionsID *primitive.ObjectID  `bson:"instructionsId,omitempty" json:"instructionsId,omitempty"`
	SetsIDs        []primitive.ObjectID `bson:"setsIds" json:"setsIds"`
	SnapshotStatus SnapshotStatus       `bson:"snapshotStatus,omitempty" json:"snapshotStatus,omitempty"`
	CreatedAt      time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// ErrInvalidDate is returned when a session date cannot be parsed.
var ErrInvalidDate = errors.New("invalid date, expected RFC3339 or YYYY-MM-DD")

// NormalizeDate reduces an incoming timestamp to the calendar-day string that
// keys sessions. Accepts a full RFC3339 timestamp or an already-normalized day.
func NormalizeDate(value string) (string, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC().Format("2006-01-02"), nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.Format("2006-01-02"), nil
	}
	return "", ErrInvalidDate
}
