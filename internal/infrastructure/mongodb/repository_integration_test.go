package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/outbound-scan-service/internal/domain"
)

type RepositoryIntegrationTestSuite struct {
	suite.Suite
	mongoContainer *mongodb.MongoDBContainer
	client         *mongo.Client
	db             *mongo.Database
	outboundRepo   *OutboundRepository
	inventoryRepo  *InventoryRepository
	ctx            context.Context
}

func (s *RepositoryIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()

	// Transactions require a replica set, even a single-node one
	container, err := mongodb.Run(s.ctx, "mongo:6",
		mongodb.WithReplicaSet("rs"),
	)
	s.Require().NoError(err)
	s.mongoContainer = container

	connStr, err := container.ConnectionString(s.ctx)
	s.Require().NoError(err)

	clientOpts := options.Client().ApplyURI(connStr).SetDirect(true)
	client, err := mongo.Connect(s.ctx, clientOpts)
	s.Require().NoError(err)
	s.client = client

	s.Require().NoError(client.Ping(s.ctx, nil))

	s.db = client.Database("outbound_scan_test")
	s.outboundRepo = NewOutboundRepository(s.db)
	s.inventoryRepo = NewInventoryRepository(s.db)
}

func (s *RepositoryIntegrationTestSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Disconnect(s.ctx)
	}
	if s.mongoContainer != nil {
		s.Require().NoError(s.mongoContainer.Terminate(s.ctx))
	}
}

func (s *RepositoryIntegrationTestSuite) TearDownTest() {
	s.db.Collection("outbound_transactions").DeleteMany(s.ctx, bson.M{})
	s.db.Collection("inventory").Drop(s.ctx)
}

func TestRepositoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	suite.Run(t, new(RepositoryIntegrationTestSuite))
}

func (s *RepositoryIntegrationTestSuite) newRecord(id, productionOrder string, qty int, createdAt time.Time) *domain.ConsolidatedOutboundRecord {
	return &domain.ConsolidatedOutboundRecord{
		OutboundID: id,
		OutboundKey: domain.OutboundKey{
			ExportDate:      createdAt.Format("2006-01-02"),
			MaterialCode:    "MAT-100",
			PONumber:        "PO-555",
			BatchToken:      "15012024",
			BadgeID:         "ASP1234",
			ProductionOrder: productionOrder,
		},
		Quantity:  qty,
		Location:  domain.UnknownLocation,
		Factory:   "ASM001",
		Source:    domain.SourceScanner,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func (s *RepositoryIntegrationTestSuite) TestInsertBatchAndFindRecent() {
	base := time.Now().UTC().Truncate(time.Millisecond)
	records := []*domain.ConsolidatedOutboundRecord{
		s.newRecord("PXK-a", "MO-1", 10, base),
		s.newRecord("PXK-b", "MO-1", 5, base.Add(time.Second)),
	}

	s.Require().NoError(s.outboundRepo.InsertBatch(s.ctx, records))

	found, err := s.outboundRepo.FindRecent(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(found, 2)
	s.Equal("PXK-b", found[0].OutboundID, "newest first")
	s.Equal(15, found[0].Quantity+found[1].Quantity)
}

func (s *RepositoryIntegrationTestSuite) TestInsertBatchIsAtomic() {
	base := time.Now().UTC()
	s.Require().NoError(s.outboundRepo.InsertBatch(s.ctx, []*domain.ConsolidatedOutboundRecord{
		s.newRecord("PXK-dup", "MO-1", 1, base),
	}))

	// Second batch: first record is fine, second collides with the
	// unique outboundId index. Nothing from the batch may survive.
	err := s.outboundRepo.InsertBatch(s.ctx, []*domain.ConsolidatedOutboundRecord{
		s.newRecord("PXK-new", "MO-2", 1, base),
		s.newRecord("PXK-dup", "MO-2", 1, base),
	})
	s.Require().Error(err)

	found, err := s.outboundRepo.FindByProductionOrder(s.ctx, "MO-2", 10)
	s.Require().NoError(err)
	s.Empty(found, "failed batch must not leave partial records")
}

func (s *RepositoryIntegrationTestSuite) TestFindByProductionOrder() {
	base := time.Now().UTC()
	s.Require().NoError(s.outboundRepo.InsertBatch(s.ctx, []*domain.ConsolidatedOutboundRecord{
		s.newRecord("PXK-1", "MO-1", 1, base),
		s.newRecord("PXK-2", "MO-2", 2, base),
		s.newRecord("PXK-3", "MO-1", 3, base),
	}))

	found, err := s.outboundRepo.FindByProductionOrder(s.ctx, "MO-1", 10)
	s.Require().NoError(err)
	s.Len(found, 2)
	for _, rec := range found {
		s.Equal("MO-1", rec.ProductionOrder)
	}
}

func (s *RepositoryIntegrationTestSuite) TestInventoryFindCandidatesAndIncrement() {
	coll := s.db.Collection("inventory")
	res, err := coll.InsertOne(s.ctx, bson.M{
		"materialCode": "MAT-100",
		"poNumber":     "PO-555",
		"factory":      "ASM001",
		"batchToken":   "15012024",
		"quantity":     100,
		"exported":     0,
	})
	s.Require().NoError(err)
	_, err = coll.InsertOne(s.ctx, bson.M{
		"materialCode": "MAT-100",
		"poNumber":     "PO-555",
		"factory":      "ASM002",
		"quantity":     50,
		"exported":     0,
	})
	s.Require().NoError(err)

	candidates, err := s.inventoryRepo.FindCandidates(s.ctx, "MAT-100", "PO-555", "ASM001")
	s.Require().NoError(err)
	s.Require().Len(candidates, 1, "candidates are scoped to the factory")

	id := res.InsertedID.(primitive.ObjectID).Hex()
	s.Require().NoError(s.inventoryRepo.IncrementExported(s.ctx, id, 15))
	s.Require().NoError(s.inventoryRepo.IncrementExported(s.ctx, id, 5))

	candidates, err = s.inventoryRepo.FindCandidates(s.ctx, "MAT-100", "PO-555", "ASM001")
	s.Require().NoError(err)
	s.Require().Len(candidates, 1)
	s.Equal(20, candidates[0].Exported)
	s.Equal(80, candidates[0].Remaining())
}

func (s *RepositoryIntegrationTestSuite) TestIncrementExportedUnknownID() {
	err := s.inventoryRepo.IncrementExported(s.ctx, "65b9f0c2e4b0a1a2b3c4d5e6", 1)
	s.Require().Error(err)
	s.Contains(err.Error(), "not found")
}
