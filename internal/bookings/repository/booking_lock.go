package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "commonspace/internal/bookings/errors"
	"commonspace/pkg/config"
	mongotx "commonspace/pkg/db/mongo"
	"commonspace/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const LockCollectionName = "booking_locks"

// BookingLockRepository provides advisory locks backed by the unique _id index.
type BookingLockRepository interface {
	Acquire(ctx context.Context, lockID, owner string, ttl time.Duration) error
	Release(ctx context.Context, lockID, owner string) error
}

type mongoBookingLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewBookingLockRepository(cfg *config.Config) BookingLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

// Acquire inserts the lock document. If a lock with the same id exists but has
// expired it is removed and the insert is retried once; a live lock yields
// ErrSlotLocked. The TTL index eventually removes abandoned locks as well.
func (r *mongoBookingLockRepository) Acquire(ctx context.Context, lockID, owner string, ttl time.Duration) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	for attempt := 0; attempt < 2; attempt++ {
		now := time.Now().UTC()
		lock := &model.BookingLock{
			ID:        lockID,
			Owner:     owner,
			ExpiresAt: now.Add(ttl),
			CreatedAt: now,
		}

		_, err := r.collection.InsertOne(ctx, lock)
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to acquire booking lock: %w", err)
		}

		result, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "expiresAt": bson.M{"$lt": now}})
		if err != nil {
			return fmt.Errorf("failed to clear expired booking lock: %w", err)
		}
		if result.DeletedCount == 0 {
			return bookingserrors.ErrSlotLocked
		}
	}

	return bookingserrors.ErrSlotLocked
}

// Release removes the lock only if owner still holds it.
func (r *mongoBookingLockRepository) Release(ctx context.Context, lockID, owner string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "owner": owner})
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("failed to release booking lock: %w", err)
	}
	return nil
}
