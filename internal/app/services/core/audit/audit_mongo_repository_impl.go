package audit

import (
	"context"
	"schoolpay-service/internal/app/config"
	"schoolpay-service/internal/app/contracts"
	"schoolpay-service/internal/app/models"
	"schoolpay-service/internal/pkg/exceptions"

	"go.mongodb.org/mongo-driver/mongo"
)

type auditMongoRepository struct {
	Collection *mongo.Collection
}

func NewAuditMongoRepository(client *mongo.Client, auditConfig config.Audit) contracts.AuditTrailRepository {
	return &auditMongoRepository{
		Collection: client.Database(auditConfig.MongoDatabase).Collection(auditConfig.MongoCollection),
	}
}

func (repo *auditMongoRepository) InsertEntry(ctx context.Context, entry *models.AuditEntry) error {
	_, err := repo.Collection.InsertOne(ctx, entry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Redelivered entry already landed; at-least-once is fine.
			return nil
		}
		return exceptions.ErrMongoDBInsertDocument(err)
	}
	return nil
}
