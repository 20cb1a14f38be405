package service

import (
	"context"
	"testing"

	"gymtrack/progression-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestProgramCreateAndOpenWeekFlag(t *testing.T) {
	programs := newMemProgramRepo()
	weeks := newMemInstructionRepo()
	svc := NewProgramService(programs, weeks)
	userID := primitive.NewObjectID()

	program, err := svc.Create(context.Background(), userID, "Strength Block", []string{"legs", "back"})
	require.NoError(t, err)
	assert.True(t, program.IsActive)

	// No materialized weeks yet.
	got, err := svc.GetByID(context.Background(), program.ID, userID)
	require.NoError(t, err)
	assert.False(t, got.HasOpenWeek)

	seedWeek(t, weeks, &domain.WeeklyInstruction{ProgramID: program.ID, WeekNumber: 1, TimesPerWeek: 2})
	got, err = svc.GetByID(context.Background(), program.ID, userID)
	require.NoError(t, err)
	assert.True(t, got.HasOpenWeek)
}

func TestProgramCreateRequiresName(t *testing.T) {
	svc := NewProgramService(newMemProgramRepo(), newMemInstructionRepo())
	_, err := svc.Create(context.Background(), primitive.NewObjectID(), "", nil)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestProgramOwnership(t *testing.T) {
	programs := newMemProgramRepo()
	svc := NewProgramService(programs, newMemInstructionRepo())
	owner := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	program, err := svc.Create(context.Background(), owner, "Strength Block", nil)
	require.NoError(t, err)

	_, err = svc.GetByID(context.Background(), program.ID, stranger)
	assert.ErrorIs(t, err, ErrProgramNotOwned)

	err = svc.Delete(context.Background(), program.ID, stranger)
	assert.ErrorIs(t, err, ErrProgramNotFound) // delete filters by owner

	require.NoError(t, svc.Delete(context.Background(), program.ID, owner))
	_, err = svc.GetByID(context.Background(), program.ID, owner)
	assert.ErrorIs(t, err, ErrProgramNotFound)
}

func TestProgramListDecoratesEachEntry(t *testing.T) {
	programs := newMemProgramRepo()
	weeks := newMemInstructionRepo()
	svc := NewProgramService(programs, weeks)
	userID := primitive.NewObjectID()

	withWeek, err := svc.Create(context.Background(), userID, "Block A", nil)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), userID, "Block B", nil)
	require.NoError(t, err)
	seedWeek(t, weeks, &domain.WeeklyInstruction{ProgramID: withWeek.ID, WeekNumber: 1, TimesPerWeek: 1})

	list, err := svc.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	flags := map[string]bool{}
	for _, p := range list {
		flags[p.Name] = p.HasOpenWeek
	}
	assert.True(t, flags["Block A"])
	assert.False(t, flags["Block B"])
}
