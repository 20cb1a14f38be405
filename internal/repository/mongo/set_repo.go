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

const setCollectionName = "sets"

// mongoSetRepository implements repository.SetRepository
type mongoSetRepository struct {
	collection *mongo.Collection
}

// NewMongoSetRepository creates a new Set repository.
func NewMongoSetRepository(db *mongo.Database) repository.SetRepository {
	return &mongoSetRepository{
		collection: db.Collection(setCollectionName),
	}
}

// Create inserts a single performed set.
func (r *mongoSetRepository) Create(ctx context.Context, set *domain.Set) (primitive.ObjectID, error) {
	if set.SessionID == primitive.NilObjectID || set.ExerciseID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("set requires sessionId and exerciseId")
	}
	if set.SetNumber < 1 {
		return primitive.NilObjectID, errors.New("set number must be >= 1")
	}
	set.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	set.CreatedAt = now
	set.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, set)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted set ID")
	}
	return insertedID, nil
}

// CreateMany inserts a batch of sets and returns the inserted IDs in input
// order.
func (r *mongoSetRepository) CreateMany(ctx context.Context, sets []domain.Set) ([]primitive.ObjectID, error) {
	if len(sets) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, len(sets))
	ids := make([]primitive.ObjectID, len(sets))
	for i := range sets {
		sets[i].ID = primitive.NewObjectID()
		sets[i].CreatedAt = now
		sets[i].UpdatedAt = now
		ids[i] = sets[i].ID
		docs[i] = sets[i]
	}

	_, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// GetByID retrieves a single set by its ID.
func (r *mongoSetRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Set, error) {
	var set domain.Set
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&set)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &set, nil
}

// GetBySession retrieves all sets recorded under a session, in exercise and
// set-number order.
func (r *mongoSetRepository) GetBySession(ctx context.Context, sessionID primitive.ObjectID) ([]domain.Set, error) {
	return r.find(ctx, bson.M{"sessionId": sessionID})
}

// GetBySessionAndExercise retrieves the sets for one exercise of a session.
func (r *mongoSetRepository) GetBySessionAndExercise(ctx context.Context, sessionID, exerciseID primitive.ObjectID) ([]domain.Set, error) {
	return r.find(ctx, bson.M{"sessionId": sessionID, "exerciseId": exerciseID})
}

func (r *mongoSetRepository) find(ctx context.Context, filter bson.M) ([]domain.Set, error) {
	var sets []domain.Set
	findOptions := options.Find().SetSort(bson.D{{Key: "exerciseId", Value: 1}, {Key: "setNumber", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

// Update replaces the mutable fields of a set by ID. Fields dropped by
// sanitization are explicitly unset so a partial update cannot leave a stale
// rpe next to a newly recorded rir.
func (r *mongoSetRepository) Update(ctx context.Context, set *domain.Set) error {
	if set.ID == primitive.NilObjectID {
		return errors.New("set ID is required for update")
	}

	filter := bson.M{"_id": set.ID}
	result, err := r.collection.UpdateOne(ctx, filter, setUpdateDoc(set))
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Upsert writes the set keyed by its (sessionId, exerciseId, setNumber)
// position, inserting it when absent. Reports whether a new row was created.
func (r *mongoSetRepository) Upsert(ctx context.Context, set *domain.Set) (bool, primitive.ObjectID, error) {
	if set.SessionID == primitive.NilObjectID || set.ExerciseID == primitive.NilObjectID {
		return false, primitive.NilObjectID, errors.New("set requires sessionId and exerciseId")
	}
	if set.SetNumber < 1 {
		return false, primitive.NilObjectID, errors.New("set number must be >= 1")
	}

	filter := bson.M{
		"sessionId":  set.SessionID,
		"exerciseId": set.ExerciseID,
		"setNumber":  set.SetNumber,
	}
	updateDoc := setUpdateDoc(set)
	updateDoc["$setOnInsert"] = bson.M{
		"sessionId":  set.SessionID,
		"exerciseId": set.ExerciseID,
		"userId":     set.UserID,
		"setNumber":  set.SetNumber,
		"createdAt":  time.Now().UTC(),
	}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc, options.Update().SetUpsert(true))
	if err != nil {
		return false, primitive.NilObjectID, err
	}
	if result.UpsertedID != nil {
		id, ok := result.UpsertedID.(primitive.ObjectID)
		if !ok {
			return false, primitive.NilObjectID, errors.New("failed to convert upserted set ID")
		}
		return true, id, nil
	}

	// Replaced an existing row; fetch its id for the caller.
	var existing domain.Set
	if err := r.collection.FindOne(ctx, filter).Decode(&existing); err != nil {
		return false, primitive.NilObjectID, err
	}
	return false, existing.ID, nil
}

// setUpdateDoc builds the $set/$unset pair for a sanitized set. Whichever of
// rpe/rir is nil after sanitization gets unset in storage.
func setUpdateDoc(set *domain.Set) bson.M {
	setFields := bson.M{
		"weight":    set.Weight,
		"reps":      set.Reps,
		"isDone":    set.IsDone,
		"updatedAt": time.Now().UTC(),
	}
	unsetFields := bson.M{}
	if set.RPE != nil {
		setFields["rpe"] = set.RPE
	} else {
		unsetFields["rpe"] = ""
	}
	if set.RIR != nil {
		setFields["rir"] = set.RIR
	} else {
		unsetFields["rir"] = ""
	}
	return bson.M{"$set": setFields, "$unset": unsetFields}
}

// Delete removes a single set.
func (r *mongoSetRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteBySession removes every set recorded under a session.
func (r *mongoSetRepository) DeleteBySession(ctx context.Context, sessionID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"sessionId": sessionID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// DeleteBySessionAndExercise removes the sets of one exercise of a session.
func (r *mongoSetRepository) DeleteBySessionAndExercise(ctx context.Context, sessionID, exerciseID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"sessionId": sessionID, "exerciseId": exerciseID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// EnsureSetIndexes creates necessary indexes. Call during startup.
func EnsureSetIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Composite position key; also serves session and session+exercise reads.
			Keys: bson.D{
				{Key: "sessionId", Value: 1},
				{Key: "exerciseId", Value: 1},
				{Key: "setNumber", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index(),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.WithField("collection", collection.Name()).WithError(err).Warn("failed to create indexes")
	}
}
