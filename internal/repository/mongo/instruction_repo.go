package mongo

import (
	"context"
	"errors"

	"gymtrack/progression-app/internal/domain"
	"gymtrack/progression-app/internal/repository"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const instructionCollectionName = "instructions"

// mongoInstructionRepository implements repository.InstructionRepository
type mongoInstructionRepository struct {
	collection *mongo.Collection
}

// NewMongoInstructionRepository creates a new WeeklyInstruction repository.
func NewMongoInstructionRepository(db *mongo.Database) repository.InstructionRepository {
	return &mongoInstructionRepository{
		collection: db.Collection(instructionCollectionName),
	}
}

// Create inserts a new weekly instruction record.
func (r *mongoInstructionRepository) Create(ctx context.Context, instruction *domain.WeeklyInstruction) (primitive.ObjectID, error) {
	if instruction.ProgramID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("instruction requires programId")
	}
	if instruction.WeekNumber < 1 {
		return primitive.NilObjectID, errors.New("instruction weekNumber must be >= 1")
	}
	instruction.ID = primitive.NewObjectID()
	if instruction.Exercises == nil {
		instruction.Exercises = []domain.ExerciseInstruction{}
	}

	result, err := r.collection.InsertOne(ctx, instruction)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted instruction ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single weekly instruction by its ID.
func (r *mongoInstructionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WeeklyInstruction, error) {
	var instruction domain.WeeklyInstruction
	filter := bson.M{"_id": id}
	err := r.collection.FindOne(ctx, filter).Decode(&instruction)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &instruction, nil
}

// GetByProgramAndWeek retrieves the instruction record for an exact
// (program, week) pair.
func (r *mongoInstructionRepository) GetByProgramAndWeek(ctx context.Context, programID primitive.ObjectID, weekNumber int) (*domain.WeeklyInstruction, error) {
	var instruction domain.WeeklyInstruction
	filter := bson.M{"programId": programID, "weekNumber": weekNumber}
	err := r.collection.FindOne(ctx, filter).Decode(&instruction)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &instruction, nil
}

// GetLatestByProgram retrieves the instruction with the highest week number
// for the program. This is the clone source when a later week is materialized.
func (r *mongoInstructionRepository) GetLatestByProgram(ctx context.Context, programID primitive.ObjectID) (*domain.WeeklyInstruction, error) {
	var instruction domain.WeeklyInstruction
	filter := bson.M{"programId": programID}
	findOptions := options.FindOne().SetSort(bson.D{{Key: "weekNumber", Value: -1}})
	err := r.collection.FindOne(ctx, filter, findOptions).Decode(&instruction)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &instruction, nil
}

// GetOpenByProgram retrieves the program's current open week (isDone=false).
// If an undo reopened an older week alongside a newer one, the earliest open
// week is the current one.
func (r *mongoInstructionRepository) GetOpenByProgram(ctx context.Context, programID primitive.ObjectID) (*domain.WeeklyInstruction, error) {
	var instruction domain.WeeklyInstruction
	filter := bson.M{"programId": programID, "isDone": false}
	findOptions := options.FindOne().SetSort(bson.D{{Key: "weekNumber", Value: 1}})
	err := r.collection.FindOne(ctx, filter, findOptions).Decode(&instruction)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &instruction, nil
}

// GetByProgram retrieves all materialized weeks of a program, oldest first.
func (r *mongoInstructionRepository) GetByProgram(ctx context.Context, programID primitive.ObjectID) ([]domain.WeeklyInstruction, error) {
	var instructions []domain.WeeklyInstruction
	filter := bson.M{"programId": programID}
	findOptions := options.Find().SetSort(bson.D{{Key: "weekNumber", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &instructions); err != nil {
		return nil, err
	}
	return instructions, nil
}

// Update replaces the mutable fields of an instruction record. Counters and
// flags go through AdvanceOpen/UndoAdvance; this is for target edits.
func (r *mongoInstructionRepository) Update(ctx context.Context, instruction *domain.WeeklyInstruction) error {
	if instruction.ID == primitive.NilObjectID {
		return errors.New("instruction ID is required for update")
	}

	filter := bson.M{"_id": instruction.ID}
	updateDoc := bson.M{
		"$set": bson.M{
			"exercises":    instruction.Exercises,
			"timesPerWeek": instruction.TimesPerWeek,
			"isFinished":   instruction.IsFinished,
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

// Delete removes an instruction record.
func (r *mongoInstructionRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AdvanceOpen records one completed session against the program's open week
// in a single conditional update: the filter pins the open week (isDone=false)
// and the pipeline recomputes doneTimes and isDone together, so two concurrent
// plays can never both advance past timesPerWeek or lose an increment.
func (r *mongoInstructionRepository) AdvanceOpen(ctx context.Context, programID primitive.ObjectID) (*domain.WeeklyInstruction, error) {
	filter := bson.M{"programId": programID, "isDone": false}
	update := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "doneTimes", Value: bson.D{{Key: "$add", Value: bson.A{"$doneTimes", 1}}}},
			{Key: "isDone", Value: bson.D{{Key: "$gte", Value: bson.A{
				bson.D{{Key: "$add", Value: bson.A{"$doneTimes", 1}}},
				"$timesPerWeek",
			}}}},
		}}},
	}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "weekNumber", Value: 1}}).
		SetReturnDocument(options.After)

	var instruction domain.WeeklyInstruction
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&instruction)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &instruction, nil
}

// UndoAdvance reverts one play: doneTimes goes down by one and the week is
// reopened. The decrement is deliberately not floored at zero.
func (r *mongoInstructionRepository) UndoAdvance(ctx context.Context, id primitive.ObjectID) (*domain.WeeklyInstruction, error) {
	filter := bson.M{"_id": id}
	update := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "doneTimes", Value: bson.D{{Key: "$add", Value: bson.A{"$doneTimes", -1}}}},
			{Key: "isDone", Value: false},
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var instruction domain.WeeklyInstruction
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&instruction)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &instruction, nil
}

// EnsureInstructionIndexes creates necessary indexes. Call during startup.
func EnsureInstructionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One record per (program, week).
			Keys:    bson.D{{Key: "programId", Value: 1}, {Key: "weekNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Open-week lookup used by AdvanceOpen and GetOpenByProgram.
			Keys:    bson.D{{Key: "programId", Value: 1}, {Key: "isDone", Value: 1}},
			Options: options.Index(),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.WithField("collection", collection.Name()).WithError(err).Warn("failed to create indexes")
	}
}
