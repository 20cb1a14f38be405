package service

import (
	"context"
	"testing"

	"gymtrack/progression-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newSetFixture(t *testing.T) (SetService, *memSetRepo, *memSessionRepo, *domain.Session) {
	t.Helper()
	setRepo := newMemSetRepo()
	sessionRepo := newMemSessionRepo()
	svc := NewSetService(setRepo, sessionRepo)

	session := &domain.Session{
		UserID:  primitive.NewObjectID(),
		Date:    "2025-03-04",
		SetsIDs: []primitive.ObjectID{},
	}
	id, err := sessionRepo.Create(context.Background(), session)
	require.NoError(t, err)
	session.ID = id
	return svc, setRepo, sessionRepo, session
}

func validSet(session *domain.Session) *domain.Set {
	return &domain.Set{
		SessionID:  session.ID,
		ExerciseID: primitive.NewObjectID(),
		UserID:     session.UserID,
		SetNumber:  1,
		Weight:     domain.ExpectedActual{Expected: 100, Actual: domain.Float64Ptr(100)},
		Reps:       domain.ExpectedActual{Expected: 5, Actual: domain.Float64Ptr(5)},
	}
}

func TestCreateSetSanitizesAndLinks(t *testing.T) {
	svc, _, sessionRepo, session := newSetFixture(t)

	set := validSet(session)
	set.RPE = &domain.ExpectedActual{Expected: 8}
	set.RIR = &domain.ExpectedActual{Expected: 2}

	created, err := svc.Create(context.Background(), set)
	require.NoError(t, err)
	assert.NotEqual(t, primitive.NilObjectID, created.ID)
	// No recorded actual on either metric: both are dropped.
	assert.Nil(t, created.RPE)
	assert.Nil(t, created.RIR)

	stored, err := sessionRepo.GetByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{created.ID}, stored.SetsIDs)
}

func TestCreateSetValidation(t *testing.T) {
	svc, _, _, session := newSetFixture(t)

	bad := validSet(session)
	bad.SetNumber = 0
	_, err := svc.Create(context.Background(), bad)
	assert.ErrorIs(t, err, ErrInvalidSetData)

	bad = validSet(session)
	bad.ExerciseID = primitive.NilObjectID
	_, err = svc.Create(context.Background(), bad)
	assert.ErrorIs(t, err, ErrInvalidSetData)
}

func TestUpdateSetResolvesMetricConflict(t *testing.T) {
	svc, setRepo, _, session := newSetFixture(t)

	created, err := svc.Create(context.Background(), validSet(session))
	require.NoError(t, err)

	created.RPE = &domain.ExpectedActual{Expected: 8, Actual: domain.Float64Ptr(8.5)}
	created.RIR = &domain.ExpectedActual{Expected: 2, Actual: domain.Float64Ptr(1)}
	updated, err := svc.Update(context.Background(), created)
	require.NoError(t, err)

	// A recorded RIR wins over a recorded RPE.
	assert.Nil(t, updated.RPE)
	require.NotNil(t, updated.RIR)

	stored, err := setRepo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.RPE)
	require.NotNil(t, stored.RIR)
	assert.Equal(t, 1.0, *stored.RIR.Actual)
}

func TestUpdateMissingSetIsNoOp(t *testing.T) {
	svc, _, _, session := newSetFixture(t)

	ghost := validSet(session)
	ghost.ID = primitive.NewObjectID()
	updated, err := svc.Update(context.Background(), ghost)
	require.NoError(t, err)
	assert.Equal(t, ghost.ID, updated.ID)
}

func TestUpsertByPositionInsertsThenReplaces(t *testing.T) {
	svc, setRepo, sessionRepo, session := newSetFixture(t)

	set := validSet(session)
	first, err := svc.UpsertByPosition(context.Background(), set)
	require.NoError(t, err)
	assert.NotEqual(t, primitive.NilObjectID, first.ID)

	// New row is linked into the session.
	stored, err := sessionRepo.GetByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{first.ID}, stored.SetsIDs)

	// Writing the same position again replaces the row instead of duplicating.
	replacement := validSet(session)
	replacement.ExerciseID = set.ExerciseID
	replacement.Weight = domain.ExpectedActual{Expected: 100, Actual: domain.Float64Ptr(102.5)}
	second, err := svc.UpsertByPosition(context.Background(), replacement)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, setRepo.items, 1)

	stored, err = sessionRepo.GetByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Len(t, stored.SetsIDs, 1)
}

func TestDeleteSetAbsenceIsNoOp(t *testing.T) {
	svc, _, _, _ := newSetFixture(t)
	assert.NoError(t, svc.Delete(context.Background(), primitive.NewObjectID()))
}

func TestDeleteBySessionReportsCount(t *testing.T) {
	svc, _, _, session := newSetFixture(t)

	for i := 1; i <= 3; i++ {
		set := validSet(session)
		set.SetNumber = i
		_, err := svc.Create(context.Background(), set)
		require.NoError(t, err)
	}

	deleted, err := svc.DeleteBySession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
}

func TestDeleteBySessionAndExercise(t *testing.T) {
	svc, setRepo, _, session := newSetFixture(t)

	target := primitive.NewObjectID()
	for i := 1; i <= 2; i++ {
		set := validSet(session)
		set.ExerciseID = target
		set.SetNumber = i
		_, err := svc.Create(context.Background(), set)
		require.NoError(t, err)
	}
	other, err := svc.Create(context.Background(), validSet(session))
	require.NoError(t, err)

	deleted, err := svc.DeleteBySessionAndExercise(context.Background(), session.ID, target)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	// The other exercise's set is untouched.
	_, err = setRepo.GetByID(context.Background(), other.ID)
	assert.NoError(t, err)
}
