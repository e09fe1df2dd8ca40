package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	sharedmongo "github.com/wms-platform/outbound-scan-service/pkg/mongodb"

	"github.com/wms-platform/outbound-scan-service/internal/domain"
)

// InventoryRepository reads and adjusts inventory lots. The inventory
// collection is owned by the import pipeline; this repository only ever
// reads rows and increments their exported counters.
type InventoryRepository struct {
	collection *mongo.Collection
}

// NewInventoryRepository creates the repository.
func NewInventoryRepository(db *mongo.Database) *InventoryRepository {
	return &InventoryRepository{
		collection: db.Collection("inventory"),
	}
}

// FindCandidates returns inventory lots for a material and PO within a
// factory, in stored order. Stored order is what the matching fallback
// depends on, so no sort is applied.
func (r *InventoryRepository) FindCandidates(ctx context.Context, materialCode, poNumber, factory string) ([]*domain.InventoryItem, error) {
	filter := bson.M{
		"materialCode": materialCode,
		"poNumber":     poNumber,
		"factory":      factory,
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory candidates: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]*domain.InventoryItem, 0)
	for cursor.Next(ctx) {
		var item domain.InventoryItem
		if err := cursor.Decode(&item); err != nil {
			return nil, fmt.Errorf("failed to decode inventory item: %w", err)
		}
		items = append(items, &item)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return items, nil
}

// IncrementExported atomically adds quantity to a lot's exported counter.
func (r *InventoryRepository) IncrementExported(ctx context.Context, id string, quantity int) error {
	objectID, err := sharedmongo.ParseID(id)
	if err != nil {
		return fmt.Errorf("invalid inventory ID %q: %w", id, err)
	}

	update := sharedmongo.BuildIncrementUpdate("exported", quantity)
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to increment exported quantity: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("inventory item %s not found", id)
	}
	return nil
}
