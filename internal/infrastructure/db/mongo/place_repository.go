package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/censusware/population-system/internal/core/domain"
)

const placeCollection = "places"

type PlaceRepository struct {
	col *mongo.Collection
}

func NewPlaceRepository(db *mongo.Database) *PlaceRepository {
	return &PlaceRepository{col: db.Collection(placeCollection)}
}

type mongoPlace struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	ParentPlaceID string             `bson:"parentPlaceId,omitempty"`
	Name          string             `bson:"name"`
	Male          int64              `bson:"male"`
	Female        int64              `bson:"female"`
	Total         int64              `bson:"total"`
	CreatedBy     string             `bson:"createdBy,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedBy     string             `bson:"updatedBy,omitempty"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func (r *PlaceRepository) Create(ctx context.Context, p *domain.Place) (*domain.Place, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.InsertOne(ctx, toMongoPlace(p))
	if err != nil {
		return nil, fmt.Errorf("insert place: %w", err)
	}

	created := *p
	created.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return &created, nil
}

func (r *PlaceRepository) FindByID(ctx context.Context, id string) (*domain.Place, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrPlaceNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mp mongoPlace
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&mp); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPlaceNotFound
		}
		return nil, fmt.Errorf("find place: %w", err)
	}
	return mp.toDomain(), nil
}

// List returns every place, newest created first.
func (r *PlaceRepository) List(ctx context.Context) ([]*domain.Place, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list places: %w", err)
	}
	return decodePlaces(ctx, cur)
}

func (r *PlaceRepository) ListByParent(ctx context.Context, parentID string) ([]*domain.Place, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"parentPlaceId": parentID})
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return decodePlaces(ctx, cur)
}

func (r *PlaceRepository) Update(ctx context.Context, p *domain.Place) (*domain.Place, error) {
	oid, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		return nil, domain.ErrPlaceNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"parentPlaceId": p.ParentPlaceID,
		"name":          p.Name,
		"male":          p.Male,
		"female":        p.Female,
		"total":         p.Total,
		"updatedBy":     p.UpdatedBy,
		"updatedAt":     p.UpdatedAt,
	}}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return nil, fmt.Errorf("update place: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrPlaceNotFound
	}

	return r.FindByID(ctx, p.ID)
}

func (r *PlaceRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrPlaceNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete place: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrPlaceNotFound
	}
	return nil
}

func (r *PlaceRepository) ReassignParent(ctx context.Context, parentID, newParent, updatedBy string) (domain.UpdateCount, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateMany(ctx,
		bson.M{"parentPlaceId": parentID},
		bson.M{"$set": bson.M{
			"parentPlaceId": newParent,
			"updatedBy":     updatedBy,
			"updatedAt":     time.Now().UTC(),
		}},
	)
	if err != nil {
		return domain.UpdateCount{}, fmt.Errorf("reassign parent: %w", err)
	}
	return domain.UpdateCount{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

func (r *PlaceRepository) RewriteCreatedBy(ctx context.Context, userID, marker string) (domain.UpdateCount, error) {
	return r.rewriteAuthor(ctx, "createdBy", userID, marker)
}

func (r *PlaceRepository) RewriteUpdatedBy(ctx context.Context, userID, marker string) (domain.UpdateCount, error) {
	return r.rewriteAuthor(ctx, "updatedBy", userID, marker)
}

func (r *PlaceRepository) rewriteAuthor(ctx context.Context, field, userID, marker string) (domain.UpdateCount, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateMany(ctx,
		bson.M{field: userID},
		bson.M{"$set": bson.M{field: marker}},
	)
	if err != nil {
		return domain.UpdateCount{}, fmt.Errorf("rewrite %s: %w", field, err)
	}
	return domain.UpdateCount{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

// EnsureIndexes creates the query indexes used by the cascade and the author
// rewrites.
func (r *PlaceRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "parentPlaceId", Value: 1}}},
		{Keys: bson.D{{Key: "createdBy", Value: 1}}},
		{Keys: bson.D{{Key: "updatedBy", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func toMongoPlace(p *domain.Place) mongoPlace {
	mp := mongoPlace{
		ParentPlaceID: p.ParentPlaceID,
		Name:          p.Name,
		Male:          p.Male,
		Female:        p.Female,
		Total:         p.Total,
		CreatedBy:     p.CreatedBy,
		CreatedAt:     p.CreatedAt,
		UpdatedBy:     p.UpdatedBy,
		UpdatedAt:     p.UpdatedAt,
	}
	if oid, err := primitive.ObjectIDFromHex(p.ID); err == nil {
		mp.ID = oid
	}
	return mp
}

func (mp mongoPlace) toDomain() *domain.Place {
	return &domain.Place{
		ID:            mp.ID.Hex(),
		ParentPlaceID: mp.ParentPlaceID,
		Name:          mp.Name,
		Male:          mp.Male,
		Female:        mp.Female,
		Total:         mp.Total,
		CreatedBy:     mp.CreatedBy,
		CreatedAt:     mp.CreatedAt.UTC(),
		UpdatedBy:     mp.UpdatedBy,
		UpdatedAt:     mp.UpdatedAt.UTC(),
	}
}

func decodePlaces(ctx context.Context, cur *mongo.Cursor) ([]*domain.Place, error) {
	defer cur.Close(ctx)

	var out []*domain.Place
	for cur.Next(ctx) {
		var mp mongoPlace
		if err := cur.Decode(&mp); err != nil {
			return nil, fmt.Errorf("decode place: %w", err)
		}
		out = append(out, mp.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate places: %w", err)
	}
	return out, nil
}
