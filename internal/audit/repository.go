// internal/audit/repository.go
package audit

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"tochcoin-wallet/internal/domain"
)

// CollectionName is where audit documents are stored.
const CollectionName = "ledger_audit"

// Record is the stored audit document, keyed by the ledger event id.
type Record struct {
	domain.LedgerEvent `bson:",inline"`
	ProcessedAt        time.Time `bson:"processed_at"`
}

// MongoRepository stores audit records in MongoDB.
type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(client *mongo.Client, dbName string) *MongoRepository {
	return &MongoRepository{collection: client.Database(dbName).Collection(CollectionName)}
}

// Save upserts the record for event, so a redelivered message overwrites instead of duplicating.
func (r *MongoRepository) Save(ctx context.Context, event domain.LedgerEvent) error {
	record := Record{LedgerEvent: event, ProcessedAt: time.Now().UTC()}
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": event.EventID},
		record,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save audit record %s: %w", event.EventID, err)
	}
	return nil
}
