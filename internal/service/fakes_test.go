package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"gymtrack/progression-app/internal/domain"
	"gymtrack/progression-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository implementations for service tests. They mirror the
// mongo repositories' contracts, including the atomic AdvanceOpen semantics.

type memInstructionRepo struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*domain.WeeklyInstruction

	failCreate  error
	failAdvance error
}

func newMemInstructionRepo() *memInstructionRepo {
	return &memInstructionRepo{items: make(map[primitive.ObjectID]*domain.WeeklyInstruction)}
}

func (r *memInstructionRepo) Create(_ context.Context, instruction *domain.WeeklyInstruction) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return primitive.NilObjectID, r.failCreate
	}
	id := primitive.NewObjectID()
	clone := *instruction
	clone.ID = id
	r.items[id] = &clone
	return id, nil
}

func (r *memInstructionRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WeeklyInstruction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if instruction, ok := r.items[id]; ok {
		clone := *instruction
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memInstructionRepo) GetByProgramAndWeek(_ context.Context, programID primitive.ObjectID, weekNumber int) (*domain.WeeklyInstruction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, instruction := range r.items {
		if instruction.ProgramID == programID && instruction.WeekNumber == weekNumber {
			clone := *instruction
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memInstructionRepo) GetLatestByProgram(_ context.Context, programID primitive.ObjectID) (*domain.WeeklyInstruction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.WeeklyInstruction
	for _, instruction := range r.items {
		if instruction.ProgramID != programID {
			continue
		}
		if latest == nil || instruction.WeekNumber > latest.WeekNumber {
			latest = instruction
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	clone := *latest
	return &clone, nil
}

func (r *memInstructionRepo) GetOpenByProgram(_ context.Context, programID primitive.ObjectID) (*domain.WeeklyInstruction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	open := r.lowestOpenLocked(programID)
	if open == nil {
		return nil, repository.ErrNotFound
	}
	clone := *open
	return &clone, nil
}

func (r *memInstructionRepo) GetByProgram(_ context.Context, programID primitive.ObjectID) ([]domain.WeeklyInstruction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.WeeklyInstruction
	for _, instruction := range r.items {
		if instruction.ProgramID == programID {
			result = append(result, *instruction)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].WeekNumber < result[j].WeekNumber })
	return result, nil
}

func (r *memInstructionRepo) Update(_ context.Context, instruction *domain.WeeklyInstruction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[instruction.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Exercises = instruction.Exercises
	existing.TimesPerWeek = instruction.TimesPerWeek
	existing.IsFinished = instruction.IsFinished
	return nil
}

func (r *memInstructionRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memInstructionRepo) AdvanceOpen(_ context.Context, programID primitive.ObjectID) (*domain.WeeklyInstruction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAdvance != nil {
		return nil, r.failAdvance
	}
	open := r.lowestOpenLocked(programID)
	if open == nil {
		return nil, repository.ErrNotFound
	}
	open.DoneTimes++
	open.IsDone = open.DoneTimes >= open.TimesPerWeek
	clone := *open
	return &clone, nil
}

func (r *memInstructionRepo) UndoAdvance(_ context.Context, id primitive.ObjectID) (*domain.WeeklyInstruction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	instruction, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	instruction.DoneTimes--
	instruction.IsDone = false
	clone := *instruction
	return &clone, nil
}

func (r *memInstructionRepo) lowestOpenLocked(programID primitive.ObjectID) *domain.WeeklyInstruction {
	var open *domain.WeeklyInstruction
	for _, instruction := range r.items {
		if instruction.ProgramID != programID || instruction.IsDone {
			continue
		}
		if open == nil || instruction.WeekNumber < open.WeekNumber {
			open = instruction
		}
	}
	return open
}

type memSessionRepo struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*domain.Session

	failUpdate error
	appended   map[primitive.ObjectID][]primitive.ObjectID
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{
		items:    make(map[primitive.ObjectID]*domain.Session),
		appended: make(map[primitive.ObjectID][]primitive.ObjectID),
	}
}

func (r *memSessionRepo) Create(_ context.Context, session *domain.Session) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := primitive.NewObjectID()
	clone := *session
	clone.ID = id
	r.items[id] = &clone
	return id, nil
}

func (r *memSessionRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.items[id]; ok {
		clone := *session
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memSessionRepo) GetByUserAndDate(_ context.Context, userID primitive.ObjectID, date string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.items {
		if session.UserID == userID && session.Date == date {
			clone := *session
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memSessionRepo) ListByUser(_ context.Context, userID primitive.ObjectID, limit int64) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Session
	for _, session := range r.items {
		if session.UserID == userID {
			result = append(result, *session)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date > result[j].Date })
	if int64(len(result)) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *memSessionRepo) Update(_ context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate != nil {
		return r.failUpdate
	}
	existing, ok := r.items[session.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.WorkoutID = session.WorkoutID
	existing.InstructionsID = session.InstructionsID
	existing.SnapshotStatus = session.SnapshotStatus
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memSessionRepo) AppendSetIDs(_ context.Context, id primitive.ObjectID, setIDs []primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	session.SetsIDs = append(session.SetsIDs, setIDs...)
	r.appended[id] = append(r.appended[id], setIDs...)
	return nil
}

func (r *memSessionRepo) SetSnapshotStatus(_ context.Context, id primitive.ObjectID, status domain.SnapshotStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	session.SnapshotStatus = status
	return nil
}

func (r *memSessionRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type memSetRepo struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*domain.Set

	// failUpsert is returned by Upsert while upsertFailures calls remain.
	failUpsert     error
	upsertFailures int
}

func newMemSetRepo() *memSetRepo {
	return &memSetRepo{items: make(map[primitive.ObjectID]*domain.Set)}
}

func (r *memSetRepo) Create(_ context.Context, set *domain.Set) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := primitive.NewObjectID()
	clone := *set
	clone.ID = id
	r.items[id] = &clone
	return id, nil
}

func (r *memSetRepo) CreateMany(_ context.Context, sets []domain.Set) ([]primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]primitive.ObjectID, 0, len(sets))
	for i := range sets {
		id := primitive.NewObjectID()
		clone := sets[i]
		clone.ID = id
		r.items[id] = &clone
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *memSetRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.items[id]; ok {
		clone := *set
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memSetRepo) GetBySession(_ context.Context, sessionID primitive.ObjectID) ([]domain.Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Set
	for _, set := range r.items {
		if set.SessionID == sessionID {
			result = append(result, *set)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SetNumber < result[j].SetNumber })
	return result, nil
}

func (r *memSetRepo) GetBySessionAndExercise(_ context.Context, sessionID, exerciseID primitive.ObjectID) ([]domain.Set, error) {
	sets, _ := r.GetBySession(context.Background(), sessionID)
	var result []domain.Set
	for _, set := range sets {
		if set.ExerciseID == exerciseID {
			result = append(result, set)
		}
	}
	return result, nil
}

func (r *memSetRepo) Update(_ context.Context, set *domain.Set) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[set.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *set
	r.items[set.ID] = &clone
	return nil
}

func (r *memSetRepo) Upsert(_ context.Context, set *domain.Set) (bool, primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertFailures > 0 {
		r.upsertFailures--
		return false, primitive.NilObjectID, r.failUpsert
	}
	for id, existing := range r.items {
		if existing.SessionID == set.SessionID &&
			existing.ExerciseID == set.ExerciseID &&
			existing.SetNumber == set.SetNumber {
			clone := *set
			clone.ID = id
			r.items[id] = &clone
			return false, id, nil
		}
	}
	id := primitive.NewObjectID()
	clone := *set
	clone.ID = id
	r.items[id] = &clone
	return true, id, nil
}

func (r *memSetRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memSetRepo) DeleteBySession(_ context.Context, sessionID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, set := range r.items {
		if set.SessionID == sessionID {
			delete(r.items, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memSetRepo) DeleteBySessionAndExercise(_ context.Context, sessionID, exerciseID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, set := range r.items {
		if set.SessionID == sessionID && set.ExerciseID == exerciseID {
			delete(r.items, id)
			deleted++
		}
	}
	return deleted, nil
}

type memProgramRepo struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*domain.Program
}

func newMemProgramRepo() *memProgramRepo {
	return &memProgramRepo{items: make(map[primitive.ObjectID]*domain.Program)}
}

func (r *memProgramRepo) Create(_ context.Context, program *domain.Program) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := primitive.NewObjectID()
	clone := *program
	clone.ID = id
	r.items[id] = &clone
	return id, nil
}

func (r *memProgramRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if program, ok := r.items[id]; ok {
		clone := *program
		return &clone, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memProgramRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Program
	for _, program := range r.items {
		if program.UserID == userID {
			result = append(result, *program)
		}
	}
	return result, nil
}

func (r *memProgramRepo) Update(_ context.Context, program *domain.Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[program.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *program
	r.items[program.ID] = &clone
	return nil
}

func (r *memProgramRepo) Delete(_ context.Context, id primitive.ObjectID, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	program, ok := r.items[id]
	if !ok || program.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// fakeScheduler records scheduled snapshot tasks instead of running them.
type fakeScheduler struct {
	mu    sync.Mutex
	tasks []SnapshotTask
	err   error
}

func (f *fakeScheduler) Schedule(task SnapshotTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.tasks = append(f.tasks, task)
	return nil
}

func (f *fakeScheduler) scheduled() []SnapshotTask {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SnapshotTask(nil), f.tasks...)
}
