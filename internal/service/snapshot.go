package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"gymtrack/progression-app/internal/domain"
	"gymtrack/progression-app/internal/repository"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrSnapshotQueueFull is returned when the snapshot queue cannot accept more
// work. The caller must not block on snapshot creation.
var ErrSnapshotQueueFull = errors.New("snapshot queue is full")

// SnapshotTask carries everything the snapshot worker needs to materialize
// the performed-set rows for a just-played week.
type SnapshotTask struct {
	SessionID   primitive.ObjectID
	UserID      primitive.ObjectID
	Instruction *domain.WeeklyInstruction
}

// SnapshotScheduler is the session service's view of the snapshotter.
type SnapshotScheduler interface {
	Schedule(task SnapshotTask) error
}

// SnapshotterOptions tunes the background snapshot queue.
type SnapshotterOptions struct {
	Workers      int
	QueueSize    int
	MaxRetries   int
	RetryBackoff time.Duration
	WriteTimeout time.Duration
}

func (o *SnapshotterOptions) applyDefaults() {
	if o.Workers < 1 {
		o.Workers = 2
	}
	if o.QueueSize < 1 {
		o.QueueSize = 64
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 500 * time.Millisecond
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 15 * time.Second
	}
}

// Snapshotter is the detached task queue that turns a played week's targets
// into Set rows. Playing a workout returns to the caller before this work
// completes; the session's snapshotStatus field tracks the outcome, and task
// failures are logged but never propagate to the play transition.
type Snapshotter struct {
	setRepo     repository.SetRepository
	sessionRepo repository.SessionRepository
	opts        SnapshotterOptions
	queue       chan SnapshotTask
	wg          sync.WaitGroup
	startOnce   sync.Once
	stopOnce    sync.Once
}

// NewSnapshotter creates a snapshotter. Call Start before scheduling work and
// Stop during shutdown to drain the queue.
func NewSnapshotter(setRepo repository.SetRepository, sessionRepo repository.SessionRepository, opts SnapshotterOptions) *Snapshotter {
	opts.applyDefaults()
	return &Snapshotter{
		setRepo:     setRepo,
		sessionRepo: sessionRepo,
		opts:        opts,
		queue:       make(chan SnapshotTask, opts.QueueSize),
	}
}

// Start launches the worker pool.
func (s *Snapshotter) Start() {
	s.startOnce.Do(func() {
		for i := 0; i < s.opts.Workers; i++ {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				for task := range s.queue {
					s.process(task)
				}
			}()
		}
	})
}

// Stop closes the queue and waits for in-flight tasks to finish. Schedule must
// not be called after Stop.
func (s *Snapshotter) Stop() {
	s.stopOnce.Do(func() {
		close(s.queue)
		s.wg.Wait()
	})
}

// Schedule enqueues a task without blocking. A full queue is reported to the
// caller so it can mark the session's snapshot as failed instead of hanging.
func (s *Snapshotter) Schedule(task SnapshotTask) error {
	select {
	case s.queue <- task:
		return nil
	default:
		return ErrSnapshotQueueFull
	}
}

// process runs one snapshot task with retries. The task owns its own context;
// the request that spawned it has already been answered.
func (s *Snapshotter) process(task SnapshotTask) {
	taskID := uuid.NewString()
	logger := log.WithFields(log.Fields{
		"op":        "snapshot",
		"taskId":    taskID,
		"sessionId": task.SessionID.Hex(),
	})

	sets := domain.BuildSnapshotSets(task.Instruction, task.SessionID, task.UserID)
	if len(sets) == 0 {
		// A week with no target sets snapshots to nothing; still mark the
		// session ready so clients stop polling.
		s.markStatus(task.SessionID, domain.SnapshotReady, logger)
		return
	}

	// Each row is written at its (session, exercise, setNumber) position, so
	// the task is idempotent: replaying a session rewrites its rows instead of
	// colliding with them, and a retry after a partial write picks up whatever
	// the previous attempt left behind.
	inserted := make([]primitive.ObjectID, 0, len(sets))
	var lastErr error
	for attempt := 0; attempt <= s.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(s.opts.RetryBackoff)
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.opts.WriteTimeout)
		newIDs, err := s.writeSets(ctx, sets)
		inserted = append(inserted, newIDs...)
		if err == nil {
			if len(inserted) > 0 {
				if appendErr := s.sessionRepo.AppendSetIDs(ctx, task.SessionID, inserted); appendErr != nil {
					logger.WithError(appendErr).Warn("snapshot sets created but session link failed")
				}
			}
			cancel()
			s.markStatus(task.SessionID, domain.SnapshotReady, logger)
			logger.WithField("sets", len(sets)).Debug("snapshot created")
			return
		}
		cancel()
		lastErr = err
		logger.WithError(err).WithField("attempt", attempt+1).Warn("snapshot write failed")
	}

	logger.WithError(lastErr).Error("snapshot failed after retries")
	s.markStatus(task.SessionID, domain.SnapshotFailed, logger)
}

// writeSets upserts every row at its composite position and returns the ids of
// rows that did not exist before; only those need linking into the session.
func (s *Snapshotter) writeSets(ctx context.Context, sets []domain.Set) ([]primitive.ObjectID, error) {
	var inserted []primitive.ObjectID
	for i := range sets {
		row := sets[i]
		isNew, id, err := s.setRepo.Upsert(ctx, &row)
		if err != nil {
			return inserted, err
		}
		if isNew {
			inserted = append(inserted, id)
		}
	}
	return inserted, nil
}

func (s *Snapshotter) markStatus(sessionID primitive.ObjectID, status domain.SnapshotStatus, logger *log.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.WriteTimeout)
	defer cancel()
	if err := s.sessionRepo.SetSnapshotStatus(ctx, sessionID, status); err != nil {
		logger.WithError(err).WithField("status", string(status)).Warn("failed to update snapshot status")
	}
}
