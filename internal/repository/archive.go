package repository

import (
	"context"
	"errors"
	"time"

	"fleet-console/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ArchiveRepository struct {
	collection *mongo.Collection
}

func NewArchiveRepository(db *mongo.Database) *ArchiveRepository {
	return &ArchiveRepository{
		collection: db.Collection("sos_alerts"),
	}
}

// SaveAlert upserts an alert keyed by its upstream ID. Redeliveries refresh
// last_seen and the mutable fields but never duplicate a document or touch
// first_seen.
func (r *ArchiveRepository) SaveAlert(alert models.Alert) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"driver_id": alert.DriverID,
			"type":      alert.Type,
			"latitude":  alert.Latitude,
			"longitude": alert.Longitude,
			"timestamp": alert.Timestamp,
			"message":   alert.Message,
			"last_seen": now,
		},
		"$setOnInsert": bson.M{
			"alert_id":   alert.ID,
			"resolved":   false,
			"first_seen": now,
		},
	}

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"alert_id": alert.ID},
		update,
		options.Update().SetUpsert(true),
	)
	return err
}

// MarkResolved records the acknowledgement time for an archived alert.
func (r *ArchiveRepository) MarkResolved(alertID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"resolved":    true,
			"resolved_at": now,
			"last_seen":   now,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"alert_id": alertID}, update)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return errors.New("alert not found")
	}

	return nil
}

func (r *ArchiveRepository) FindByAlertID(alertID string) (*models.ArchivedAlert, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var alert models.ArchivedAlert
	err := r.collection.FindOne(ctx, bson.M{"alert_id": alertID}).Decode(&alert)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.New("alert not found")
		}
		return nil, err
	}

	return &alert, nil
}

func (r *ArchiveRepository) FindAll(limit int64) ([]*models.ArchivedAlert, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "last_seen", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var alerts []*models.ArchivedAlert
	for cursor.Next(ctx) {
		var alert models.ArchivedAlert
		if err := cursor.Decode(&alert); err != nil {
			return nil, err
		}
		alerts = append(alerts, &alert)
	}

	return alerts, nil
}

func (r *ArchiveRepository) FindByDriverID(driverID string) ([]*models.ArchivedAlert, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "last_seen", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"driver_id": driverID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var alerts []*models.ArchivedAlert
	for cursor.Next(ctx) {
		var alert models.ArchivedAlert
		if err := cursor.Decode(&alert); err != nil {
			return nil, err
		}
		alerts = append(alerts, &alert)
	}

	return alerts, nil
}

func (r *ArchiveRepository) FindUnresolved() ([]*models.ArchivedAlert, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "last_seen", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"resolved": false}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var alerts []*models.ArchivedAlert
	for cursor.Next(ctx) {
		var alert models.ArchivedAlert
		if err := cursor.Decode(&alert); err != nil {
			return nil, err
		}
		alerts = append(alerts, &alert)
	}

	return alerts, nil
}

func (r *ArchiveRepository) CountUnresolved() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"resolved": false})
	return count, err
}

func (r *ArchiveRepository) CountByType(alertType string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"type": alertType})
	return count, err
}

// DeleteResolvedBefore prunes resolved alerts older than the cutoff.
func (r *ArchiveRepository) DeleteResolvedBefore(cutoff time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{
		"resolved": true,
		"resolved_at": bson.M{
			"$lt": cutoff,
		},
	}

	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
