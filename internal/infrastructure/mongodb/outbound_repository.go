package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/outbound-scan-service/internal/domain"
)

// OutboundRepository stores consolidated outbound transactions.
type OutboundRepository struct {
	collection *mongo.Collection
	db         *mongo.Database
}

// NewOutboundRepository creates the repository and ensures its indexes.
func NewOutboundRepository(db *mongo.Database) *OutboundRepository {
	collection := db.Collection("outbound_transactions")

	repo := &OutboundRepository{
		collection: collection,
		db:         db,
	}
	repo.ensureIndexes(context.Background())

	return repo
}

func (r *OutboundRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "outboundId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "productionOrder", Value: 1}}},
		{Keys: bson.D{{Key: "exportDate", Value: 1}, {Key: "materialCode", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// InsertBatch writes all records of a commit inside one transaction so a
// partial batch never becomes visible.
func (r *OutboundRepository) InsertBatch(ctx context.Context, records []*domain.ConsolidatedOutboundRecord) error {
	if len(records) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(records))
	for _, rec := range records {
		docs = append(docs, rec)
	}

	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		opts := options.InsertMany().SetOrdered(true)
		if _, err := r.collection.InsertMany(sessCtx, docs, opts); err != nil {
			return nil, fmt.Errorf("failed to insert outbound records: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// FindRecent returns the most recently created records, newest first.
func (r *OutboundRepository) FindRecent(ctx context.Context, limit int) ([]*domain.ConsolidatedOutboundRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbound records: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeRecords(ctx, cursor)
}

// FindByProductionOrder returns records for one production order,
// newest first.
func (r *OutboundRepository) FindByProductionOrder(ctx context.Context, productionOrder string, limit int) ([]*domain.ConsolidatedOutboundRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"productionOrder": productionOrder}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbound records: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeRecords(ctx, cursor)
}

func decodeRecords(ctx context.Context, cursor *mongo.Cursor) ([]*domain.ConsolidatedOutboundRecord, error) {
	records := make([]*domain.ConsolidatedOutboundRecord, 0)
	for cursor.Next(ctx) {
		var rec domain.ConsolidatedOutboundRecord
		if err := cursor.Decode(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode outbound record: %w", err)
		}
		records = append(records, &rec)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return records, nil
}
