package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Program is a named training plan a user follows week over week. The
// progression core only reads it for identity and ownership; its weekly
// targets live in WeeklyInstruction records.
type Program struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	Name         string             `bson:"name" json:"name"`
	MuscleGroups []string           `bson:"muscleGroups,omitempty" json:"muscleGroups,omitempty"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// HasOpenWeek is a derived flag (not persisted): true when the program has
	// a materialized week that is not done yet.
	HasOpenWeek bool `bson:"-" json:"hasOpenWeek"`
}
