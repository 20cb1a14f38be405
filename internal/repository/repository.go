package repository

import (
	"context"

	"gymtrack/progression-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// ProgramRepository defines the interface for interacting with program data.
type ProgramRepository interface {
	Create(ctx context.Context, program *domain.Program) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Program, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Program, error)
	Update(ctx context.Context, program *domain.Program) error
	Delete(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID) error
}

// InstructionRepository defines the interface for interacting with
// weekly-instruction data. AdvanceOpen and UndoAdvance are the two mutations
// of the progression state machine; AdvanceOpen must be atomic on the
// program's open week so concurrent plays cannot double-advance it.
type InstructionRepository interface {
	Create(ctx context.Context, instruction *domain.WeeklyInstruction) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WeeklyInstruction, error)
	GetByProgramAndWeek(ctx context.Context, programID primitive.ObjectID, weekNumber int) (*domain.WeeklyInstruction, error)
	GetLatestByProgram(ctx context.Context, programID primitive.ObjectID) (*domain.WeeklyInstruction, error)
	GetOpenByProgram(ctx context.Context, programID primitive.ObjectID) (*domain.WeeklyInstruction, error)
	GetByProgram(ctx context.Context, programID primitive.ObjectID) ([]domain.WeeklyInstruction, error)
	Update(ctx context.Context, instruction *domain.WeeklyInstruction) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// AdvanceOpen increments doneTimes on the program's open week and flips
	// isDone when the required session count is reached, in one conditional
	// update. Returns ErrNotFound when no open week exists.
	AdvanceOpen(ctx context.Context, programID primitive.ObjectID) (*domain.WeeklyInstruction, error)
	// UndoAdvance reverts one play against the given week: doneTimes-1,
	// isDone=false. Compensating action for session deletion only.
	UndoAdvance(ctx context.Context, id primitive.ObjectID) (*domain.WeeklyInstruction, error)
}

// SetRepository defines the interface for interacting with performed-set data.
type SetRepository interface {
	Create(ctx context.Context, set *domain.Set) (primitive.ObjectID, error)
	CreateMany(ctx context.Context, sets []domain.Set) ([]primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Set, error)
	GetBySession(ctx context.Context, sessionID primitive.ObjectID) ([]domain.Set, error)
	GetBySessionAndExercise(ctx context.Context, sessionID, exerciseID primitive.ObjectID) ([]domain.Set, error)
	Update(ctx context.Context, set *domain.Set) error
	// Upsert writes the set keyed by (sessionId, exerciseId, setNumber) and
	// reports whether a new row was inserted (vs. an existing one replaced).
	Upsert(ctx context.Context, set *domain.Set) (inserted bool, id primitive.ObjectID, err error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteBySession(ctx context.Context, sessionID primitive.ObjectID) (int64, error)
	DeleteBySessionAndExercise(ctx context.Context, sessionID, exerciseID primitive.ObjectID) (int64, error)
}

// SessionRepository defines the interface for interacting with session data.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Session, error)
	GetByUserAndDate(ctx context.Context, userID primitive.ObjectID, date string) (*domain.Session, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]domain.Session, error)
	Update(ctx context.Context, session *domain.Session) error
	AppendSetIDs(ctx context.Context, id primitive.ObjectID, setIDs []primitive.ObjectID) error
	SetSnapshotStatus(ctx context.Context, id primitive.ObjectID, status domain.SnapshotStatus) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}
