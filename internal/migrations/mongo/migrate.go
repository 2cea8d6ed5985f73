package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"commonspace/internal/migrations/mongo/validators"
	"commonspace/pkg/logger"
)

const (
	BookingsCollection     = "bookings"
	BookingLocksCollection = "booking_locks"
	VenuesCollection       = "venues"
	UsersCollection        = "users"
)

var (
	BookingsIndexes = []mongo.IndexModel{
		// Slot checks and the commit-time capacity count.
		{Keys: bson.D{
			{Key: "venueId", Value: 1},
			{Key: "date", Value: 1},
			{Key: "status", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "userId", Value: 1},
			{Key: "date", Value: 1},
			{Key: "time", Value: 1},
		}},
		// Lifecycle sweep.
		{Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "statusUpdatedAt", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "date", Value: 1},
			{Key: "time", Value: 1},
		}},
	}

	BookingLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	VenuesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "type", Value: 1}}},
		{Keys: bson.D{{Key: "creatorId", Value: 1}}},
	}

	UsersIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "name", Value: 1}}},
	}
)

type Collection struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// Collections lists everything the service stores, in creation order.
func Collections() []Collection {
	return []Collection{
		{Name: UsersCollection, Indexes: UsersIndexes, Validator: validators.UserValidator},
		{Name: VenuesCollection, Indexes: VenuesIndexes, Validator: validators.VenueValidator},
		{Name: BookingsCollection, Indexes: BookingsIndexes, Validator: validators.BookingValidator},
		{Name: BookingLocksCollection, Indexes: BookingLocksIndexes, Validator: validators.BookingLockValidator},
	}
}

// RunMigration creates missing collections, refreshes validators on existing
// ones and ensures indexes. It is safe to run repeatedly.
func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for _, def := range Collections() {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All migrations applied successfully", "database", db.Name())
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	names, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "indexes", names)
	return nil
}

type CollectionStatus struct {
	Name      string
	Exists    bool
	Documents int64
	Indexes   []string
}

// Status reports what RunMigration would find for each collection.
func Status(ctx context.Context, db *mongo.Database) ([]CollectionStatus, error) {
	var out []CollectionStatus
	for _, def := range Collections() {
		st := CollectionStatus{Name: def.Name}

		names, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: def.Name}})
		if err != nil {
			return nil, err
		}
		if len(names) == 0 {
			out = append(out, st)
			continue
		}
		st.Exists = true

		coll := db.Collection(def.Name)
		if st.Documents, err = coll.EstimatedDocumentCount(ctx); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", def.Name, err)
		}

		specs, err := coll.Indexes().ListSpecifications(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list indexes for %s: %w", def.Name, err)
		}
		for _, spec := range specs {
			st.Indexes = append(st.Indexes, spec.Name)
		}
		out = append(out, st)
	}
	return out, nil
}
