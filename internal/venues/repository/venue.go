package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	venueserrors "commonspace/internal/venues/errors"
	"commonspace/pkg/config"
	mongotx "commonspace/pkg/db/mongo"
	"commonspace/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "venues"
)

type VenueRepository interface {
	Create(ctx context.Context, venue *model.Venue) error
	FindByID(ctx context.Context, id string) (*model.Venue, error)
	Find(ctx context.Context, filter model.VenueFilter, limit int, offset int64) ([]*model.Venue, error)
	Count(ctx context.Context, filter model.VenueFilter) (int64, error)
	Update(ctx context.Context, id string, venue *model.Venue) error
	UpdateStatus(ctx context.Context, id string, status model.VenueStatus) error
	Delete(ctx context.Context, id string) error
}

type mongoVenueRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
}

func NewMongoVenueRepository(cfg *config.Config) VenueRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoVenueRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoVenueRepository) Create(ctx context.Context, venue *model.Venue) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	venue.CreatedAt = now
	venue.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, venue)
	if err != nil {
		return fmt.Errorf("failed to create venue: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		venue.ID = oid.Hex()
	}
	return nil
}

func (r *mongoVenueRepository) FindByID(ctx context.Context, id string) (*model.Venue, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", venueserrors.ErrInvalidID, id)
	}

	raw, err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, venueserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find venue: %w", err)
	}

	return decodeVenue(raw)
}

func (r *mongoVenueRepository) Find(ctx context.Context, filter model.VenueFilter, limit int, offset int64) ([]*model.Venue, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetSkip(offset)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find venues: %w", err)
	}
	defer cursor.Close(ctx)

	venues := []*model.Venue{}
	for cursor.Next(ctx) {
		venue, err := decodeVenue(cursor.Current)
		if err != nil {
			return nil, err
		}
		venues = append(venues, venue)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to read venues: %w", err)
	}

	return venues, nil
}

// decodeVenue fills what older documents may lack. A document without a
// capacity field gets the default; an explicit zero stays closed.
func decodeVenue(raw bson.Raw) (*model.Venue, error) {
	var venue model.Venue
	if err := bson.Unmarshal(raw, &venue); err != nil {
		return nil, fmt.Errorf("failed to decode venue: %w", err)
	}
	if _, err := raw.LookupErr("capacity"); err != nil {
		venue.Capacity = model.DefaultVenueCapacity
	}
	venue.FillMissing()
	return &venue, nil
}

func (r *mongoVenueRepository) Count(ctx context.Context, filter model.VenueFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count venues: %w", err)
	}
	return count, nil
}

func (r *mongoVenueRepository) Update(ctx context.Context, id string, venue *model.Venue) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", venueserrors.ErrInvalidID, id)
	}

	venue.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{
		"$set": bson.M{
			"name":         venue.Name,
			"description":  venue.Description,
			"location":     venue.Location,
			"address":      venue.Address,
			"type":         venue.Type,
			"priceRange":   venue.PriceRange,
			"photos":       venue.Photos,
			"capacity":     venue.Capacity,
			"openingHours": venue.OpeningHours,
			"packages":     venue.Packages,
			"updatedAt":    venue.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update venue: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", venueserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoVenueRepository) UpdateStatus(ctx context.Context, id string, status model.VenueStatus) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", venueserrors.ErrInvalidID, id)
	}

	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC().Truncate(time.Millisecond)}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update venue status: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", venueserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoVenueRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", venueserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete venue: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", venueserrors.ErrNotFound, id)
	}
	return nil
}

// buildFilter matches search case-insensitively against name or location.
// The term is quoted so user input cannot inject regex operators.
func buildFilter(f model.VenueFilter) bson.M {
	filter := bson.M{}

	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = []bson.M{
			{"name": pattern},
			{"location": pattern},
		}
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.CreatorID != "" {
		filter["creatorId"] = f.CreatorID
	}

	return filter
}
