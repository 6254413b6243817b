package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/visionline/api-middleware/internal/models"
)

// Collection names, matching the original middleware's layout: raw data plus
// one integration-audit collection per downstream target.
const (
	PositionsCollection = "gps_data"
	AlarmsCollection    = "alarm_data"
	MigtraAuditCol      = "gps_migtra_integration"
	GaussAuditCol       = "gps_gauss_integration"
	GaussAlarmAuditCol  = "alarm_gauss_integration"
)

// ConnectMongo connects to MongoDB at uri and verifies the connection.
func ConnectMongo(uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the vehicle/time indexes the forwarding queries rely
// on. Safe to call on every startup.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	positionIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "vehicle_id", Value: 1}}},
		{Keys: bson.D{{Key: "timestamp", Value: 1}}},
		{Keys: bson.D{{Key: "sent_to_migtra", Value: 1}}},
		{Keys: bson.D{{Key: "sent_to_gauss", Value: 1}, {Key: "timestamp", Value: 1}}},
	}
	if _, err := database.Collection(PositionsCollection).Indexes().CreateMany(ctx, positionIdx); err != nil {
		return fmt.Errorf("creating %s indexes: %w", PositionsCollection, err)
	}
	alarmIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "vehicle_id", Value: 1}}},
		{Keys: bson.D{{Key: "timestamp", Value: 1}}},
	}
	if _, err := database.Collection(AlarmsCollection).Indexes().CreateMany(ctx, alarmIdx); err != nil {
		return fmt.Errorf("creating %s indexes: %w", AlarmsCollection, err)
	}
	for _, name := range []string{MigtraAuditCol, GaussAuditCol, GaussAlarmAuditCol} {
		idx := mongo.IndexModel{Keys: bson.D{{Key: "sent_at", Value: 1}}}
		if _, err := database.Collection(name).Indexes().CreateOne(ctx, idx); err != nil {
			return fmt.Errorf("creating %s index: %w", name, err)
		}
	}
	return nil
}

// flagField maps a target to its per-record delivery flag. The two flags are
// independent: marking one target never touches the other's.
func flagField(target models.Target) (string, error) {
	switch target {
	case models.TargetMigtra:
		return "sent_to_migtra", nil
	case models.TargetGauss:
		return "sent_to_gauss", nil
	default:
		return "", fmt.Errorf("unknown target %q", target)
	}
}

// MongoPositionCollection wraps the MongoDB collection holding position records.
type MongoPositionCollection struct {
	Collection *mongo.Collection
}

// InsertPositions inserts a batch of position records.
func (c *MongoPositionCollection) InsertPositions(ctx context.Context, records []models.PositionRecord) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	if len(records) == 0 {
		return nil
	}
	docs := make([]interface{}, len(records))
	for i, r := range records {
		docs[i] = r
	}
	_, err := c.Collection.InsertMany(ctx, docs)
	return err
}

// FindUnsent queries records whose delivery flag for target is still false,
// optionally restricted to timestamps at or after since.
func (c *MongoPositionCollection) FindUnsent(ctx context.Context, target models.Target, since time.Time) ([]models.PositionRecord, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	field, err := flagField(target)
	if err != nil {
		return nil, err
	}
	filter := bson.M{field: false}
	if !since.IsZero() {
		filter["timestamp"] = bson.M{"$gte": since}
	}
	cursor, err := c.Collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var records []models.PositionRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// MarkSent sets the target's delivery flag for all ids in a single batched
// update. Either the whole batch is submitted or the error aborts the run.
func (c *MongoPositionCollection) MarkSent(ctx context.Context, target models.Target, ids []primitive.ObjectID) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	if len(ids) == 0 {
		return nil
	}
	field, err := flagField(target)
	if err != nil {
		return err
	}
	_, err = c.Collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{field: true}},
	)
	return err
}

// FindRecent returns the newest records, optionally for one vehicle.
func (c *MongoPositionCollection) FindRecent(ctx context.Context, vehicleID string, limit int64) ([]models.PositionRecord, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	filter := bson.M{}
	if vehicleID != "" {
		filter["vehicle_id"] = vehicleID
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(limit)
	cursor, err := c.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var records []models.PositionRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// MongoAlarmCollection wraps the MongoDB collection holding raw alarm records.
type MongoAlarmCollection struct {
	Collection *mongo.Collection
}

// InsertAlarms inserts a batch of raw alarm records.
func (c *MongoAlarmCollection) InsertAlarms(ctx context.Context, records []models.AlarmRecord) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	if len(records) == 0 {
		return nil
	}
	docs := make([]interface{}, len(records))
	for i, r := range records {
		docs[i] = r
	}
	_, err := c.Collection.InsertMany(ctx, docs)
	return err
}

// FindByVehicle returns the newest alarm records for one vehicle.
func (c *MongoAlarmCollection) FindByVehicle(ctx context.Context, vehicleID string, limit int64) ([]models.AlarmRecord, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(limit)
	cursor, err := c.Collection.Find(ctx, bson.M{"vehicle_id": vehicleID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var records []models.AlarmRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// MongoAuditCollection wraps one integration-audit collection.
type MongoAuditCollection struct {
	Collection *mongo.Collection
}

// InsertEntry appends one delivery audit entry.
func (c *MongoAuditCollection) InsertEntry(ctx context.Context, entry models.DeliveryAuditEntry) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	_, err := c.Collection.InsertOne(ctx, entry)
	return err
}

// FindByTimeRange queries audit entries sent within [from, to].
func (c *MongoAuditCollection) FindByTimeRange(ctx context.Context, from, to time.Time) ([]models.DeliveryAuditEntry, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	filter := bson.M{"sent_at": bson.M{"$gte": from, "$lte": to}}
	cursor, err := c.Collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var entries []models.DeliveryAuditEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
