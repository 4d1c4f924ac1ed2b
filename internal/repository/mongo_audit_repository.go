package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/noah-isme/edufund-api/internal/models"
)

const auditCollection = "audit_logs"

// MongoAuditRepository appends audit records to a MongoDB collection.
type MongoAuditRepository struct {
	coll *mongo.Collection
}

// NewMongoAuditRepository wraps the audit collection of db.
func NewMongoAuditRepository(db *mongo.Database) *MongoAuditRepository {
	return &MongoAuditRepository{coll: db.Collection(auditCollection)}
}

// EnsureIndexes creates the lookup indexes used by operators.
func (r *MongoAuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "resource", Value: 1}, {Key: "resource_id", Value: 1}}, Options: options.Index().SetSparse(true)},
	})
	if err != nil {
		return fmt.Errorf("create audit indexes: %w", err)
	}
	return nil
}

// CreateAuditLog stores an audit log entry.
func (r *MongoAuditRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	prepareAuditLog(log)
	if _, err := r.coll.InsertOne(ctx, log); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
