package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/censusware/population-system/internal/core/domain"
	"github.com/censusware/population-system/internal/core/ports"
)

const auditCollection = "audit_events"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) ports.AuditRepository {
	return &AuditRepository{col: db.Collection(auditCollection)}
}

func (r *AuditRepository) Insert(ctx context.Context, entry *domain.AuditEntry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"action":    entry.Action,
		"subject":   entry.Subject,
		"actor":     entry.Actor,
		"timestamp": entry.Timestamp.UTC(),
	}
	if entry.Note != "" {
		doc["note"] = entry.Note
	}

	_, err := r.col.InsertOne(ctx, doc)
	return err
}

func (r *AuditRepository) ListBySubject(ctx context.Context, subject string) ([]*domain.AuditEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx,
		bson.M{"subject": subject},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.AuditEntry
	for cur.Next(ctx) {
		var doc struct {
			ID        primitive.ObjectID `bson:"_id"`
			Action    string             `bson:"action"`
			Subject   string             `bson:"subject"`
			Actor     string             `bson:"actor"`
			Note      string             `bson:"note,omitempty"`
			Timestamp primitive.DateTime `bson:"timestamp"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode audit entry: %w", err)
		}
		out = append(out, &domain.AuditEntry{
			ID:        doc.ID.Hex(),
			Action:    doc.Action,
			Subject:   doc.Subject,
			Actor:     doc.Actor,
			Note:      doc.Note,
			Timestamp: doc.Timestamp.Time().UTC(),
		})
	}
	return out, cur.Err()
}
