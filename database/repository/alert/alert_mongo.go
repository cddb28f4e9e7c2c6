package alertRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookline/database"
	"bookline/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no alert matches the lookup.
var ErrNotFound = errors.New("alert not found")

// MongoAlertRepo implements Repository using MongoDB.
type MongoAlertRepo struct {
	alertColl    *mongo.Collection
	incidentColl *mongo.Collection
}

// NewMongoAlertRepo constructs a new instance of MongoAlertRepo.
func NewMongoAlertRepo() Repository {
	db := database.MongoClient.Database(database.DBName)
	return &MongoAlertRepo{
		alertColl:    db.Collection("alerts"),
		incidentColl: db.Collection("incidents"),
	}
}

func (repo *MongoAlertRepo) CreateAlert(ctx context.Context, alert *models.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	if _, err := repo.alertColl.InsertOne(ctx, alert); err != nil {
		return fmt.Errorf("error inserting alert: %w", err)
	}
	return nil
}

func (repo *MongoAlertRepo) CreateIncident(ctx context.Context, incident *models.Incident) error {
	if incident.ID == "" {
		incident.ID = uuid.New().String()
	}
	if incident.CreatedAt.IsZero() {
		incident.CreatedAt = time.Now().UTC()
	}
	if _, err := repo.incidentColl.InsertOne(ctx, incident); err != nil {
		return fmt.Errorf("error inserting incident: %w", err)
	}
	return nil
}

func (repo *MongoAlertRepo) ListOpenAlerts(ctx context.Context, tenantID string) ([]models.Alert, error) {
	filter := bson.M{"tenant_id": tenantID, "resolved": false}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := repo.alertColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying alerts: %w", err)
	}
	defer cursor.Close(ctx)

	var alerts []models.Alert
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, fmt.Errorf("error decoding alerts: %w", err)
	}
	return alerts, nil
}

func (repo *MongoAlertRepo) ResolveAlert(ctx context.Context, tenantID, alertID string) error {
	filter := bson.M{"tenant_id": tenantID, "id": alertID}
	update := bson.M{"$set": bson.M{"resolved": true}}
	res, err := repo.alertColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("error resolving alert %s: %w", alertID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
