package apptRepo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"bookline/database"
	"bookline/models"
	"bookline/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoAppointmentRepo implements Repository using MongoDB.
type MongoAppointmentRepo struct {
	coll *mongo.Collection
}

// NewMongoAppointmentRepo constructs a new instance of MongoAppointmentRepo.
func NewMongoAppointmentRepo() Repository {
	db := database.MongoClient.Database(database.DBName)
	repo := &MongoAppointmentRepo{coll: db.Collection("appointments")}
	if err := repo.EnsureIndexes(); err != nil {
		utils.GetLogger().Warn("appointment index creation failed", zap.Error(err))
	}
	return repo
}

func activeStatuses() bson.A {
	return bson.A{models.StatusPending, models.StatusConfirmed}
}

func (repo *MongoAppointmentRepo) GetByID(ctx context.Context, tenantID, apptID string) (*models.Appointment, error) {
	var appt models.Appointment
	filter := bson.M{"tenant_id": tenantID, "id": apptID}
	if err := repo.coll.FindOne(ctx, filter).Decode(&appt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching appointment %s: %w", apptID, err)
	}
	return &appt, nil
}

func (repo *MongoAppointmentRepo) find(ctx context.Context, filter bson.M) ([]models.Appointment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	cursor, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var appts []models.Appointment
	if err := cursor.All(ctx, &appts); err != nil {
		return nil, fmt.Errorf("error decoding appointments: %w", err)
	}
	return appts, nil
}

func (repo *MongoAppointmentRepo) FindActiveByPhone(ctx context.Context, tenantID, phone string) ([]models.Appointment, error) {
	return repo.find(ctx, bson.M{
		"tenant_id":    tenantID,
		"client_phone": phone,
		"status":       bson.M{"$in": activeStatuses()},
	})
}

func (repo *MongoAppointmentRepo) FindActiveByClientName(ctx context.Context, tenantID, name string) ([]models.Appointment, error) {
	return repo.find(ctx, bson.M{
		"tenant_id":   tenantID,
		"client_name": bson.M{"$regex": "^" + regexp.QuoteMeta(name) + "$", "$options": "i"},
		"status":      bson.M{"$in": activeStatuses()},
	})
}

func (repo *MongoAppointmentRepo) ListBetween(ctx context.Context, tenantID string, from, to time.Time) ([]models.Appointment, error) {
	return repo.find(ctx, bson.M{
		"tenant_id":  tenantID,
		"status":     bson.M{"$ne": models.StatusCancelled},
		"start_time": bson.M{"$gte": from, "$lt": to},
	})
}

func (repo *MongoAppointmentRepo) UpdateStatus(ctx context.Context, tenantID, apptID, fromStatus, toStatus string) error {
	filter := bson.M{"tenant_id": tenantID, "id": apptID, "status": fromStatus}
	update := bson.M{"$set": bson.M{"status": toStatus}}
	res, err := repo.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("error updating appointment status %s: %w", apptID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (repo *MongoAppointmentRepo) DeleteByID(ctx context.Context, tenantID, apptID string) error {
	res, err := repo.coll.DeleteOne(ctx, bson.M{"tenant_id": tenantID, "id": apptID})
	if err != nil {
		return fmt.Errorf("error deleting appointment %s: %w", apptID, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
