package service

import (
	"context"
	"errors"

	"gymtrack/progression-app/internal/domain"
	"gymtrack/progression-app/internal/repository"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrValidationFailed signals rejected program input.
var ErrValidationFailed = errors.New("validation failed")

// ProgramService is the boundary collaborator for the training programs the
// progression core runs against: plain CRUD plus the derived open-week flag.
type ProgramService interface {
	Create(ctx context.Context, userID primitive.ObjectID, name string, muscleGroups []string) (*domain.Program, error)
	GetByID(ctx context.Context, id, userID primitive.ObjectID) (*domain.Program, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Program, error)
	Update(ctx context.Context, userID primitive.ObjectID, program *domain.Program) (*domain.Program, error)
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
}

// programService implements the ProgramService interface.
type programService struct {
	programRepo     repository.ProgramRepository
	instructionRepo repository.InstructionRepository
}

// NewProgramService creates a new instance of programService.
func NewProgramService(programRepo repository.ProgramRepository, instructionRepo repository.InstructionRepository) ProgramService {
	return &programService{
		programRepo:     programRepo,
		instructionRepo: instructionRepo,
	}
}

// Create stores a new, active program for the user.
func (s *programService) Create(ctx context.Context, userID primitive.ObjectID, name string, muscleGroups []string) (*domain.Program, error) {
	if name == "" {
		return nil, ErrValidationFailed
	}

	program := &domain.Program{
		UserID:       userID,
		Name:         name,
		MuscleGroups: muscleGroups,
		IsActive:     true,
	}
	id, err := s.programRepo.Create(ctx, program)
	if err != nil {
		log.WithFields(log.Fields{"op": "program.create", "userId": userID.Hex()}).
			WithError(err).Error("failed to create program")
		return nil, err
	}
	program.ID = id
	return program, nil
}

// GetByID retrieves one program, decorated with its open-week flag.
func (s *programService) GetByID(ctx context.Context, id, userID primitive.ObjectID) (*domain.Program, error) {
	program, err := s.programRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	if program.UserID != userID {
		return nil, ErrProgramNotOwned
	}
	s.decorateOpenWeek(ctx, program)
	return program, nil
}

// ListByUser retrieves the user's programs with open-week flags.
func (s *programService) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Program, error) {
	programs, err := s.programRepo.GetByUserID(ctx, userID)
	if err != nil {
		log.WithFields(log.Fields{"op": "program.list", "userId": userID.Hex()}).
			WithError(err).Error("failed to list programs")
		return nil, err
	}
	for i := range programs {
		s.decorateOpenWeek(ctx, &programs[i])
	}
	return programs, nil
}

// Update rewrites the mutable fields of a program the user owns.
func (s *programService) Update(ctx context.Context, userID primitive.ObjectID, program *domain.Program) (*domain.Program, error) {
	existing, err := s.programRepo.GetByID(ctx, program.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	if existing.UserID != userID {
		return nil, ErrProgramNotOwned
	}
	if program.Name == "" {
		return nil, ErrValidationFailed
	}

	if err := s.programRepo.Update(ctx, program); err != nil {
		log.WithFields(log.Fields{"op": "program.update", "programId": program.ID.Hex()}).
			WithError(err).Error("failed to update program")
		return nil, err
	}
	return s.GetByID(ctx, program.ID, userID)
}

// Delete removes a program the user owns.
func (s *programService) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	err := s.programRepo.Delete(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProgramNotFound
		}
		log.WithFields(log.Fields{"op": "program.delete", "programId": id.Hex()}).
			WithError(err).Error("failed to delete program")
		return err
	}
	return nil
}

// decorateOpenWeek fills the derived HasOpenWeek flag; a lookup failure just
// leaves the flag false.
func (s *programService) decorateOpenWeek(ctx context.Context, program *domain.Program) {
	_, err := s.instructionRepo.GetOpenByProgram(ctx, program.ID)
	switch {
	case err == nil:
		program.HasOpenWeek = true
	case errors.Is(err, repository.ErrNotFound):
		program.HasOpenWeek = false
	default:
		log.WithFields(log.Fields{"op": "program.decorate", "programId": program.ID.Hex()}).
			WithError(err).Warn("failed to check open week")
	}
}
