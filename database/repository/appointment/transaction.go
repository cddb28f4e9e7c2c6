package apptRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookline/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CreateTx inserts an appointment inside a single session transaction. The
// overlap scan and the idempotency lookup both run on the session context so
// a concurrent writer for the same slot aborts one of the transactions.
func (repo *MongoAppointmentRepo) CreateTx(ctx context.Context, appt *models.Appointment) (*models.Appointment, bool, error) {
	client := repo.coll.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return nil, false, fmt.Errorf("%w: could not start mongo session: %v", ErrTxFailed, err)
	}
	defer sess.EndSession(ctx)

	var stored *models.Appointment
	var created bool

	txnFn := func(sc mongo.SessionContext) error {
		// Idempotency: an active appointment for the same contact and start
		// time means the request already succeeded once.
		existingFilter := bson.M{
			"tenant_id":    appt.TenantID,
			"client_phone": appt.ClientPhone,
			"start_time":   appt.StartTime,
			"status":       bson.M{"$in": activeStatuses()},
		}
		var existing models.Appointment
		err := repo.coll.FindOne(sc, existingFilter).Decode(&existing)
		if err == nil {
			stored = &existing
			created = false
			return nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("idempotency lookup failed: %w", err)
		}

		// Overlap scan over every non-cancelled appointment of the tenant.
		overlapFilter := bson.M{
			"tenant_id":  appt.TenantID,
			"status":     bson.M{"$ne": models.StatusCancelled},
			"start_time": bson.M{"$lt": appt.EndTime},
			"end_time":   bson.M{"$gt": appt.StartTime},
		}
		count, err := repo.coll.CountDocuments(sc, overlapFilter)
		if err != nil {
			return fmt.Errorf("overlap scan failed: %w", err)
		}
		if count > 0 {
			return ErrSlotOccupied
		}

		if _, err := repo.coll.InsertOne(sc, appt); err != nil {
			return fmt.Errorf("insert appointment failed: %w", err)
		}
		stored = appt
		created = true
		return nil
	}

	if err := runTxn(ctx, sess, txnFn); err != nil {
		if errors.Is(err, ErrSlotOccupied) {
			return nil, false, ErrSlotOccupied
		}
		return nil, false, fmt.Errorf("%w: %v", ErrTxFailed, err)
	}
	return stored, created, nil
}

// RescheduleTx moves apptID to newStart inside a transaction, re-checking
// overlap against all other non-cancelled appointments of the tenant.
func (repo *MongoAppointmentRepo) RescheduleTx(ctx context.Context, tenantID, apptID string, newStart, newEnd time.Time) error {
	client := repo.coll.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("%w: could not start mongo session: %v", ErrTxFailed, err)
	}
	defer sess.EndSession(ctx)

	txnFn := func(sc mongo.SessionContext) error {
		overlapFilter := bson.M{
			"tenant_id":  tenantID,
			"id":         bson.M{"$ne": apptID},
			"status":     bson.M{"$ne": models.StatusCancelled},
			"start_time": bson.M{"$lt": newEnd},
			"end_time":   bson.M{"$gt": newStart},
		}
		count, err := repo.coll.CountDocuments(sc, overlapFilter)
		if err != nil {
			return fmt.Errorf("overlap scan failed: %w", err)
		}
		if count > 0 {
			return ErrSlotOccupied
		}

		filter := bson.M{"tenant_id": tenantID, "id": apptID, "status": bson.M{"$in": activeStatuses()}}
		update := bson.M{"$set": bson.M{"start_time": newStart, "end_time": newEnd}}
		res, err := repo.coll.UpdateOne(sc, filter, update)
		if err != nil {
			return fmt.Errorf("reschedule update failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrNotFound
		}
		return nil
	}

	if err := runTxn(ctx, sess, txnFn); err != nil {
		if errors.Is(err, ErrSlotOccupied) || errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrTxFailed, err)
	}
	return nil
}

func runTxn(ctx context.Context, sess mongo.Session, txnFn func(mongo.SessionContext) error) error {
	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	})
}
