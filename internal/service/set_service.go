package service

import (
	"context"
	"errors"

	"gymtrack/progression-app/internal/domain"
	"gymtrack/progression-app/internal/repository"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrSetNotFound    = errors.New("set not found")
	ErrInvalidSetData = errors.New("set requires sessionId, exerciseId and a positive set number")
)

// SetService owns the append-only performed-set records. Every write path runs
// the RPE/RIR sanitization rule first, so the stored invariant holds no matter
// what the caller submitted.
type SetService interface {
	Create(ctx context.Context, set *domain.Set) (*domain.Set, error)
	CreateMany(ctx context.Context, sets []domain.Set) ([]primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Set, error)
	GetBySession(ctx context.Context, sessionID primitive.ObjectID) ([]domain.Set, error)
	GetBySessionAndExercise(ctx context.Context, sessionID, exerciseID primitive.ObjectID) ([]domain.Set, error)
	// Update rewrites a set by ID. Updating a set that no longer exists is a
	// no-op completion, not an error.
	Update(ctx context.Context, set *domain.Set) (*domain.Set, error)
	// UpsertByPosition writes a set keyed by (session, exercise, setNumber),
	// creating it when absent and linking new rows into the session.
	UpsertByPosition(ctx context.Context, set *domain.Set) (*domain.Set, error)
	// Delete removes a set by ID; absence is a no-op completion.
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteBySession(ctx context.Context, sessionID primitive.ObjectID) (int64, error)
	DeleteBySessionAndExercise(ctx context.Context, sessionID, exerciseID primitive.ObjectID) (int64, error)
}

// setService implements the SetService interface.
type setService struct {
	setRepo     repository.SetRepository
	sessionRepo repository.SessionRepository
}

// NewSetService creates a new instance of setService.
func NewSetService(setRepo repository.SetRepository, sessionRepo repository.SessionRepository) SetService {
	return &setService{
		setRepo:     setRepo,
		sessionRepo: sessionRepo,
	}
}

// Create stores a single sanitized set and links it into its session.
func (s *setService) Create(ctx context.Context, set *domain.Set) (*domain.Set, error) {
	if set.SessionID == primitive.NilObjectID || set.ExerciseID == primitive.NilObjectID || set.SetNumber < 1 {
		return nil, ErrInvalidSetData
	}
	set.Sanitize()

	id, err := s.setRepo.Create(ctx, set)
	if err != nil {
		log.WithFields(log.Fields{"op": "set.create", "sessionId": set.SessionID.Hex()}).
			WithError(err).Error("failed to create set")
		return nil, err
	}
	set.ID = id

	if err := s.sessionRepo.AppendSetIDs(ctx, set.SessionID, []primitive.ObjectID{id}); err != nil {
		// The set exists either way; the session link is best-effort.
		log.WithFields(log.Fields{"op": "set.create", "sessionId": set.SessionID.Hex(), "setId": id.Hex()}).
			WithError(err).Warn("failed to link set into session")
	}
	return set, nil
}

// CreateMany stores a sanitized batch in one ordered insert.
func (s *setService) CreateMany(ctx context.Context, sets []domain.Set) ([]primitive.ObjectID, error) {
	for i := range sets {
		sets[i].Sanitize()
	}
	ids, err := s.setRepo.CreateMany(ctx, sets)
	if err != nil {
		log.WithFields(log.Fields{"op": "set.createMany", "count": len(sets)}).
			WithError(err).Error("failed to create sets")
		return nil, err
	}
	return ids, nil
}

// GetByID retrieves a single set.
func (s *setService) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Set, error) {
	set, err := s.setRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSetNotFound
		}
		return nil, err
	}
	return set, nil
}

// GetBySession retrieves all sets of a session.
func (s *setService) GetBySession(ctx context.Context, sessionID primitive.ObjectID) ([]domain.Set, error) {
	return s.setRepo.GetBySession(ctx, sessionID)
}

// GetBySessionAndExercise retrieves the sets of one exercise of a session.
func (s *setService) GetBySessionAndExercise(ctx context.Context, sessionID, exerciseID primitive.ObjectID) ([]domain.Set, error) {
	return s.setRepo.GetBySessionAndExercise(ctx, sessionID, exerciseID)
}

// Update rewrites the mutable fields of a set after sanitization. A metric the
// rule drops is explicitly unset in storage, so a partial update cannot leave
// a stale rpe next to a newly recorded rir.
func (s *setService) Update(ctx context.Context, set *domain.Set) (*domain.Set, error) {
	if set.ID == primitive.NilObjectID {
		return nil, ErrInvalidSetData
	}
	set.Sanitize()

	err := s.setRepo.Update(ctx, set)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Callers treat absence as a completed no-op.
			return set, nil
		}
		log.WithFields(log.Fields{"op": "set.update", "setId": set.ID.Hex()}).
			WithError(err).Error("failed to update set")
		return nil, err
	}
	return set, nil
}

// UpsertByPosition writes a set at its composite position, inserting it when
// the user records a set the snapshot didn't pre-create.
func (s *setService) UpsertByPosition(ctx context.Context, set *domain.Set) (*domain.Set, error) {
	if set.SessionID == primitive.NilObjectID || set.ExerciseID == primitive.NilObjectID || set.SetNumber < 1 {
		return nil, ErrInvalidSetData
	}
	set.Sanitize()

	inserted, id, err := s.setRepo.Upsert(ctx, set)
	if err != nil {
		log.WithFields(log.Fields{
			"op":         "set.upsert",
			"sessionId":  set.SessionID.Hex(),
			"exerciseId": set.ExerciseID.Hex(),
			"setNumber":  set.SetNumber,
		}).WithError(err).Error("failed to upsert set")
		return nil, err
	}
	set.ID = id

	if inserted {
		if err := s.sessionRepo.AppendSetIDs(ctx, set.SessionID, []primitive.ObjectID{id}); err != nil {
			log.WithFields(log.Fields{"op": "set.upsert", "sessionId": set.SessionID.Hex(), "setId": id.Hex()}).
				WithError(err).Warn("failed to link set into session")
		}
	}
	return set, nil
}

// Delete removes a set; absence is a no-op completion.
func (s *setService) Delete(ctx context.Context, id primitive.ObjectID) error {
	err := s.setRepo.Delete(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.WithFields(log.Fields{"op": "set.delete", "setId": id.Hex()}).
			WithError(err).Error("failed to delete set")
		return err
	}
	return nil
}

// DeleteBySession removes every set of a session (session-deletion cleanup).
func (s *setService) DeleteBySession(ctx context.Context, sessionID primitive.ObjectID) (int64, error) {
	deleted, err := s.setRepo.DeleteBySession(ctx, sessionID)
	if err != nil {
		log.WithFields(log.Fields{"op": "set.deleteBySession", "sessionId": sessionID.Hex()}).
			WithError(err).Error("failed to delete session sets")
		return 0, err
	}
	return deleted, nil
}

// DeleteBySessionAndExercise removes the sets of one exercise of a session.
func (s *setService) DeleteBySessionAndExercise(ctx context.Context, sessionID, exerciseID primitive.ObjectID) (int64, error) {
	deleted, err := s.setRepo.DeleteBySessionAndExercise(ctx, sessionID, exerciseID)
	if err != nil {
		log.WithFields(log.Fields{"op": "set.deleteByExercise", "sessionId": sessionID.Hex(), "exerciseId": exerciseID.Hex()}).
			WithError(err).Error("failed to delete exercise sets")
		return 0, err
	}
	return deleted, nil
}
