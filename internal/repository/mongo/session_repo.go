package mongo

import (
	"context"
	"errors"
	"time"

	"gymtrack/progression-app/internal/domain"
	"gymtrack/progression-app/internal/repository"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sessionCollectionName = "sessions"

// mongoSessionRepository implements repository.SessionRepository
type mongoSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionRepository creates a new Session repository.
func NewMongoSessionRepository(db *mongo.Database) repository.SessionRepository {
	return &mongoSessionRepository{
		collection: db.Collection(sessionCollectionName),
	}
}

// Create inserts a new session.
func (r *mongoSessionRepository) Create(ctx context.Context, session *domain.Session) (primitive.ObjectID, error) {
	if session.UserID == primitive.NilObjectID || session.Date == "" {
		return primitive.NilObjectID, errors.New("session requires userId and date")
	}
	session.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	if session.SetsIDs == nil {
		session.SetsIDs = []primitive.ObjectID{}
	}

	result, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted session ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single session by its ID.
func (r *mongoSessionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Session, error) {
	var session domain.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// GetByUserAndDate retrieves the session for a (user, day) pair. The unique
// index guarantees at most one.
func (r *mongoSessionRepository) GetByUserAndDate(ctx context.Context, userID primitive.ObjectID, date string) (*domain.Session, error) {
	var session domain.Session
	filter := bson.M{"userId": userID, "date": date}
	err := r.collection.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// ListByUser retrieves a user's sessions, newest day first.
func (r *mongoSessionRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]domain.Session, error) {
	var sessions []domain.Session
	filter := bson.M{"userId": userID}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Update replaces the program/week binding and snapshot status of a session.
func (r *mongoSessionRepository) Update(ctx context.Context, session *domain.Session) error {
	if session.ID == primitive.NilObjectID {
		return errors.New("session ID is required for update")
	}

	filter := bson.M{"_id": session.ID}
	updateDoc := bson.M{
		"$set": bson.M{
			"workoutId":      session.WorkoutID,
			"instructionsId": session.InstructionsID,
			"snapshotStatus": session.SnapshotStatus,
			"updatedAt":      time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AppendSetIDs links newly created set rows into the session.
func (r *mongoSessionRepository) AppendSetIDs(ctx context.Context, id primitive.ObjectID, setIDs []primitive.ObjectID) error {
	if len(setIDs) == 0 {
		return nil
	}
	filter := bson.M{"_id": id}
	updateDoc := bson.M{
		"$push": bson.M{"setsIds": bson.M{"$each": setIDs}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetSnapshotStatus updates only the snapshot status field.
func (r *mongoSessionRepository) SetSnapshotStatus(ctx context.Context, id primitive.ObjectID, status domain.SnapshotStatus) error {
	filter := bson.M{"_id": id}
	updateDoc := bson.M{
		"$set": bson.M{
			"snapshotStatus": status,
			"updatedAt":      time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a session.
func (r *mongoSessionRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureSessionIndexes creates necessary indexes. Call during startup.
func EnsureSessionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One session per user per day; concurrent get-or-create relies on
			// the duplicate key error this produces.
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.WithField("collection", collection.Name()).WithError(err).Warn("failed to create indexes")
	}
}
