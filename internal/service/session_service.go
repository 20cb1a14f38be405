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
	ErrSessionNotFound = errors.New("session not found")
	ErrProgramNotFound = errors.New("program not found")
	ErrSessionNotOwned = errors.New("session does not belong to this user")
	ErrProgramNotOwned = errors.New("program does not belong to this user")
	ErrProgramInactive = errors.New("program is not active")
)

// PlayResult is what the play transition returns: the rebound session merged
// with the week that was just advanced.
type PlayResult struct {
	Session     *domain.Session           `json:"session"`
	Instruction *domain.WeeklyInstruction `json:"instruction"`
}

// SessionService owns the day-scoped execution context and the play-workout
// transition, the core state transition of the progression engine.
type SessionService interface {
	// GetOrCreate returns the session for (user, day), creating it on first
	// access. Idempotent per day.
	GetOrCreate(ctx context.Context, userID primitive.ObjectID, date string) (*domain.Session, error)
	GetByID(ctx context.Context, id, userID primitive.ObjectID) (*domain.Session, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]domain.Session, error)
	// PlayWorkout advances the program's open week, binds the session to it
	// and schedules the snapshot task. Fails with ErrNoOpenWeek (session left
	// untouched) when the program has nothing to advance.
	PlayWorkout(ctx context.Context, sessionID, programID, userID primitive.ObjectID) (*PlayResult, error)
	// Delete removes a session. When the session was bound to a week, the
	// advance is undone and the session's set rows are removed first.
	Delete(ctx context.Context, sessionID, userID primitive.ObjectID) error
}

// sessionService implements the SessionService interface.
type sessionService struct {
	sessionRepo     repository.SessionRepository
	programRepo     repository.ProgramRepository
	instructionRepo repository.InstructionRepository
	setRepo         repository.SetRepository
	snapshots       SnapshotScheduler
}

// NewSessionService creates a new instance of sessionService.
func NewSessionService(
	sessionRepo repository.SessionRepository,
	programRepo repository.ProgramRepository,
	instructionRepo repository.InstructionRepository,
	setRepo repository.SetRepository,
	snapshots SnapshotScheduler,
) SessionService {
	return &sessionService{
		sessionRepo:     sessionRepo,
		programRepo:     programRepo,
		instructionRepo: instructionRepo,
		setRepo:         setRepo,
		snapshots:       snapshots,
	}
}

// GetOrCreate looks up the session for the user's calendar day, creating an
// empty one when the day is accessed for the first time.
func (s *sessionService) GetOrCreate(ctx context.Context, userID primitive.ObjectID, date string) (*domain.Session, error) {
	day, err := domain.NormalizeDate(date)
	if err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.GetByUserAndDate(ctx, userID, day)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		log.WithFields(log.Fields{"op": "session.getOrCreate", "userId": userID.Hex(), "date": day}).
			WithError(err).Error("failed to look up session")
		return nil, err
	}

	fresh := &domain.Session{
		UserID:  userID,
		Date:    day,
		SetsIDs: []primitive.ObjectID{},
	}
	id, err := s.sessionRepo.Create(ctx, fresh)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost a get-or-create race; the winner's session is the answer.
			return s.sessionRepo.GetByUserAndDate(ctx, userID, day)
		}
		log.WithFields(log.Fields{"op": "session.getOrCreate", "userId": userID.Hex(), "date": day}).
			WithError(err).Error("failed to create session")
		return nil, err
	}
	fresh.ID = id
	return fresh, nil
}

// GetByID retrieves a session and verifies it belongs to the acting user.
func (s *sessionService) GetByID(ctx context.Context, id, userID primitive.ObjectID) (*domain.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrSessionNotOwned
	}
	return session, nil
}

// ListByUser retrieves the user's recent sessions.
func (s *sessionService) ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]domain.Session, error) {
	if limit <= 0 {
		limit = 30
	}
	return s.sessionRepo.ListByUser(ctx, userID, limit)
}

// PlayWorkout is the core state transition: advance the program's open week,
// bind the session to it, and kick off the snapshot without waiting for it.
func (s *sessionService) PlayWorkout(ctx context.Context, sessionID, programID, userID primitive.ObjectID) (*PlayResult, error) {
	// 1. The acting user must own an active program.
	program, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	if program.UserID != userID {
		return nil, ErrProgramNotOwned
	}
	if !program.IsActive {
		return nil, ErrProgramInactive
	}

	// 2. ...and the session being played into.
	session, err := s.GetByID(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	// 3. Advance the open week. Atomic in the repository; no open week means
	// the transition fails and the session stays untouched.
	advanced, err := s.instructionRepo.AdvanceOpen(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoOpenWeek
		}
		log.WithFields(log.Fields{"op": "session.play", "programId": programID.Hex()}).
			WithError(err).Error("failed to advance open week")
		return nil, err
	}

	// 4. Bind the session to the advanced week, snapshot pending.
	session.WorkoutID = &programID
	session.InstructionsID = &advanced.ID
	session.SnapshotStatus = domain.SnapshotPending
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		log.WithFields(log.Fields{"op": "session.play", "sessionId": sessionID.Hex()}).
			WithError(err).Error("failed to bind session to played week")
		return nil, err
	}

	// 5. Fire and forget the snapshot. The caller gets its answer now; the
	// snapshotStatus field is how anyone finds out whether this worked.
	task := SnapshotTask{SessionID: session.ID, UserID: userID, Instruction: advanced}
	if err := s.snapshots.Schedule(task); err != nil {
		log.WithFields(log.Fields{"op": "session.play", "sessionId": sessionID.Hex()}).
			WithError(err).Error("failed to schedule snapshot task")
		if statusErr := s.sessionRepo.SetSnapshotStatus(ctx, session.ID, domain.SnapshotFailed); statusErr != nil {
			log.WithFields(log.Fields{"op": "session.play", "sessionId": sessionID.Hex()}).
				WithError(statusErr).Warn("failed to mark snapshot as failed")
		}
	}

	// 6. Return the stored session, not the struct mutated above; the caller
	// sees the persisted binding with its fresh timestamps and status.
	refreshed, err := s.sessionRepo.GetByID(ctx, session.ID)
	if err != nil {
		log.WithFields(log.Fields{"op": "session.play", "sessionId": sessionID.Hex()}).
			WithError(err).Warn("failed to refresh session after play")
		refreshed = session
	}
	return &PlayResult{Session: refreshed, Instruction: advanced}, nil
}

// Delete removes a session with its compensating sequence: undo the week
// advance it was bound to, drop its set rows, then drop the session itself.
// Best-effort, not atomic; each step is logged and the sequence continues.
func (s *sessionService) Delete(ctx context.Context, sessionID, userID primitive.ObjectID) error {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil // already gone
		}
		return err
	}
	if session.UserID != userID {
		return ErrSessionNotOwned
	}

	if session.InstructionsID != nil {
		if _, err := s.instructionRepo.UndoAdvance(ctx, *session.InstructionsID); err != nil &&
			!errors.Is(err, repository.ErrNotFound) {
			log.WithFields(log.Fields{"op": "session.delete", "sessionId": sessionID.Hex(), "instructionId": session.InstructionsID.Hex()}).
				WithError(err).Warn("failed to undo week advance")
		}
	}

	if _, err := s.setRepo.DeleteBySession(ctx, sessionID); err != nil {
		log.WithFields(log.Fields{"op": "session.delete", "sessionId": sessionID.Hex()}).
			WithError(err).Warn("failed to delete session sets")
	}

	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.WithFields(log.Fields{"op": "session.delete", "sessionId": sessionID.Hex()}).
			WithError(err).Error("failed to delete session")
		return err
	}
	return nil
}
