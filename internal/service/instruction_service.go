package service

import (
	"context"
	"errors"

	"gymtrack/progression-app/internal/domain"
	"gymtrack/progression-app/internal/repository"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// --- Error Definitions ---
var (
	ErrNoOpenWeek          = errors.New("no open week for this program")
	ErrInstructionNotFound = errors.New("instruction not found")
	ErrInvalidWeekNumber   = errors.New("week number must be >= 1")
	ErrInvalidTimesPerWeek = errors.New("times per week must be >= 1")
)

// InstructionService owns the weekly-progression state machine: which week of
// a program is current, how new weeks get materialized, and how a played
// session advances the counters.
type InstructionService interface {
	// GetWeek returns the instruction record for (program, week), materializing
	// it on first access: either a brand-new empty week (first-ever access to
	// the program) or a sanitized clone of the most recent known week.
	GetWeek(ctx context.Context, programID primitive.ObjectID, weekNumber int) (*domain.WeeklyInstruction, error)
	// GetCurrent returns the program's open week, or ErrNoOpenWeek when every
	// materialized week is exhausted.
	GetCurrent(ctx context.Context, programID primitive.ObjectID) (*domain.WeeklyInstruction, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WeeklyInstruction, error)
	Create(ctx context.Context, instruction *domain.WeeklyInstruction) (*domain.WeeklyInstruction, error)
	Update(ctx context.Context, instruction *domain.WeeklyInstruction) (*domain.WeeklyInstruction, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	WeekCompletionSummary(ctx context.Context, programID primitive.ObjectID) ([]domain.WeekCompletion, error)
	// AdvanceOnPlay records one completed session against the program's open
	// week. ErrNoOpenWeek when there is nothing to advance.
	AdvanceOnPlay(ctx context.Context, programID primitive.ObjectID) (*domain.WeeklyInstruction, error)
	// UndoAdvance is the compensating action for deleting a session that was
	// bound to a week.
	UndoAdvance(ctx context.Context, id primitive.ObjectID) (*domain.WeeklyInstruction, error)
}

// instructionService implements the InstructionService interface.
type instructionService struct {
	instructionRepo repository.InstructionRepository
}

// NewInstructionService creates a new instance of instructionService.
func NewInstructionService(instructionRepo repository.InstructionRepository) InstructionService {
	return &instructionService{instructionRepo: instructionRepo}
}

// GetWeek implements lazy week materialization. Weeks are never pre-created in
// bulk: the first request for a week that doesn't exist yet clones the latest
// known week's targets with counters reset.
func (s *instructionService) GetWeek(ctx context.Context, programID primitive.ObjectID, weekNumber int) (*domain.WeeklyInstruction, error) {
	if weekNumber < 1 {
		return nil, ErrInvalidWeekNumber
	}

	// 1. Exact match wins; repeated requests for an existing week are
	// idempotent and never duplicate a record.
	instruction, err := s.instructionRepo.GetByProgramAndWeek(ctx, programID, weekNumber)
	if err == nil {
		return instruction, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		log.WithFields(log.Fields{"op": "instruction.getWeek", "programId": programID.Hex(), "week": weekNumber}).
			WithError(err).Error("failed to look up instruction")
		return nil, err
	}

	// 2. Materialize: clone the latest week, or start from scratch when the
	// program has never been accessed before.
	latest, err := s.instructionRepo.GetLatestByProgram(ctx, programID)
	var fresh *domain.WeeklyInstruction
	switch {
	case err == nil:
		fresh = latest.CloneForWeek(weekNumber)
	case errors.Is(err, repository.ErrNotFound):
		fresh = &domain.WeeklyInstruction{
			ProgramID:    programID,
			WeekNumber:   weekNumber,
			Exercises:    []domain.ExerciseInstruction{},
			TimesPerWeek: 1,
		}
	default:
		log.WithFields(log.Fields{"op": "instruction.getWeek", "programId": programID.Hex(), "week": weekNumber}).
			WithError(err).Error("failed to look up latest instruction")
		return nil, err
	}

	id, err := s.instructionRepo.Create(ctx, fresh)
	if err != nil {
		// A concurrent request may have materialized the same week between the
		// lookup and the insert; the unique (programId, weekNumber) index turns
		// that into a duplicate key error, and the existing record is the answer.
		if mongo.IsDuplicateKeyError(err) {
			return s.instructionRepo.GetByProgramAndWeek(ctx, programID, weekNumber)
		}
		log.WithFields(log.Fields{"op": "instruction.getWeek", "programId": programID.Hex(), "week": weekNumber}).
			WithError(err).Error("failed to materialize instruction")
		return nil, err
	}
	fresh.ID = id
	return fresh, nil
}

// GetCurrent returns the program's open week.
func (s *instructionService) GetCurrent(ctx context.Context, programID primitive.ObjectID) (*domain.WeeklyInstruction, error) {
	instruction, err := s.instructionRepo.GetOpenByProgram(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoOpenWeek
		}
		log.WithFields(log.Fields{"op": "instruction.getCurrent", "programId": programID.Hex()}).
			WithError(err).Error("failed to look up open week")
		return nil, err
	}
	return instruction, nil
}

// GetByID retrieves a single instruction record.
func (s *instructionService) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WeeklyInstruction, error) {
	instruction, err := s.instructionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInstructionNotFound
		}
		return nil, err
	}
	return instruction, nil
}

// Create validates and stores a caller-supplied instruction record, applying
// the RPE/RIR rule to every target set before it hits storage.
func (s *instructionService) Create(ctx context.Context, instruction *domain.WeeklyInstruction) (*domain.WeeklyInstruction, error) {
	if instruction.WeekNumber < 1 {
		return nil, ErrInvalidWeekNumber
	}
	if instruction.TimesPerWeek < 1 {
		return nil, ErrInvalidTimesPerWeek
	}
	instruction.SanitizeSets()
	instruction.RecomputeFinished()

	id, err := s.instructionRepo.Create(ctx, instruction)
	if err != nil {
		log.WithFields(log.Fields{"op": "instruction.create", "programId": instruction.ProgramID.Hex()}).
			WithError(err).Error("failed to create instruction")
		return nil, err
	}
	instruction.ID = id
	return instruction, nil
}

// Update replaces the targets of an instruction. Counters/flags are owned by
// the play transition and are not writable here; isFinished is re-derived
// from the submitted per-set done flags.
func (s *instructionService) Update(ctx context.Context, instruction *domain.WeeklyInstruction) (*domain.WeeklyInstruction, error) {
	if instruction.TimesPerWeek < 1 {
		return nil, ErrInvalidTimesPerWeek
	}
	instruction.SanitizeSets()
	instruction.RecomputeFinished()

	if err := s.instructionRepo.Update(ctx, instruction); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInstructionNotFound
		}
		log.WithFields(log.Fields{"op": "instruction.update", "instructionId": instruction.ID.Hex()}).
			WithError(err).Error("failed to update instruction")
		return nil, err
	}
	return s.GetByID(ctx, instruction.ID)
}

// Delete removes an instruction record. Absence is a no-op completion.
func (s *instructionService) Delete(ctx context.Context, id primitive.ObjectID) error {
	err := s.instructionRepo.Delete(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.WithFields(log.Fields{"op": "instruction.delete", "instructionId": id.Hex()}).
			WithError(err).Error("failed to delete instruction")
		return err
	}
	return nil
}

// WeekCompletionSummary lists every materialized week of a program with its
// done flag, oldest week first.
func (s *instructionService) WeekCompletionSummary(ctx context.Context, programID primitive.ObjectID) ([]domain.WeekCompletion, error) {
	instructions, err := s.instructionRepo.GetByProgram(ctx, programID)
	if err != nil {
		log.WithFields(log.Fields{"op": "instruction.summary", "programId": programID.Hex()}).
			WithError(err).Error("failed to list instructions")
		return nil, err
	}

	summary := make([]domain.WeekCompletion, len(instructions))
	for i, instruction := range instructions {
		summary[i] = domain.WeekCompletion{
			WeekNumber: instruction.WeekNumber,
			IsDone:     instruction.IsDone,
		}
	}
	return summary, nil
}

// AdvanceOnPlay bumps the open week's counter. The repository performs the
// increment and the isDone flip as a single conditional update.
func (s *instructionService) AdvanceOnPlay(ctx context.Context, programID primitive.ObjectID) (*domain.WeeklyInstruction, error) {
	instruction, err := s.instructionRepo.AdvanceOpen(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoOpenWeek
		}
		log.WithFields(log.Fields{"op": "instruction.advance", "programId": programID.Hex()}).
			WithError(err).Error("failed to advance open week")
		return nil, err
	}
	return instruction, nil
}

// UndoAdvance reverts one play against the given week.
func (s *instructionService) UndoAdvance(ctx context.Context, id primitive.ObjectID) (*domain.WeeklyInstruction, error) {
	instruction, err := s.instructionRepo.UndoAdvance(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInstructionNotFound
		}
		log.WithFields(log.Fields{"op": "instruction.undoAdvance", "instructionId": id.Hex()}).
			WithError(err).Error("failed to undo advance")
		return nil, err
	}
	return instruction, nil
}
