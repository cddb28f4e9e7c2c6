package contactRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookline/database"
	"bookline/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no mapping exists for an identity.
var ErrNotFound = errors.New("contact mapping not found")

// MongoContactRepo implements Repository using MongoDB.
type MongoContactRepo struct {
	coll *mongo.Collection
}

// NewMongoContactRepo constructs a new instance of MongoContactRepo.
func NewMongoContactRepo() Repository {
	db := database.MongoClient.Database(database.DBName)
	return &MongoContactRepo{coll: db.Collection("contacts")}
}

func (repo *MongoContactRepo) Get(ctx context.Context, identity string) (*models.ContactMapping, error) {
	var m models.ContactMapping
	if err := repo.coll.FindOne(ctx, bson.M{"identity": identity}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching contact mapping %s: %w", identity, err)
	}
	if m.Tenants == nil {
		m.Tenants = make(map[string]*models.TenantLink)
	}
	return &m, nil
}

func (repo *MongoContactRepo) Upsert(ctx context.Context, m *models.ContactMapping) error {
	m.UpdatedAt = time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = m.UpdatedAt
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := repo.coll.ReplaceOne(ctx, bson.M{"identity": m.Identity}, m, opts); err != nil {
		return fmt.Errorf("error upserting contact mapping %s: %w", m.Identity, err)
	}
	return nil
}

func (repo *MongoContactRepo) TouchTenant(ctx context.Context, identity, tenantID string, at time.Time) error {
	field := "tenants." + tenantID
	update := bson.M{
		"$set": bson.M{
			field + ".tenant_id":        tenantID,
			field + ".last_interaction": at,
			"last_active_tenant_id":     tenantID,
			"updated_at":                time.Now().UTC(),
		},
		"$setOnInsert": bson.M{
			"identity":   identity,
			"created_at": time.Now().UTC(),
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := repo.coll.UpdateOne(ctx, bson.M{"identity": identity}, update, opts); err != nil {
		return fmt.Errorf("error touching tenant link %s/%s: %w", identity, tenantID, err)
	}
	return nil
}

func (repo *MongoContactRepo) IncrementInteraction(ctx context.Context, identity, tenantID string) (int, error) {
	field := "tenants." + tenantID
	update := bson.M{
		"$inc": bson.M{field + ".interaction_count": 1},
		"$set": bson.M{
			field + ".last_interaction": time.Now().UTC(),
			"updated_at":                time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var m models.ContactMapping
	if err := repo.coll.FindOneAndUpdate(ctx, bson.M{"identity": identity}, update, opts).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("error incrementing interaction %s/%s: %w", identity, tenantID, err)
	}
	if link := m.Link(tenantID); link != nil {
		return link.InteractionCount, nil
	}
	return 0, nil
}

func (repo *MongoContactRepo) SetStatus(ctx context.Context, identity, tenantID, status, reason string) error {
	field := "tenants." + tenantID
	update := bson.M{
		"$set": bson.M{
			field + ".tenant_id":     tenantID,
			field + ".status":        status,
			field + ".paused_reason": reason,
			"updated_at":             time.Now().UTC(),
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := repo.coll.UpdateOne(ctx, bson.M{"identity": identity}, update, opts); err != nil {
		return fmt.Errorf("error setting status %s/%s: %w", identity, tenantID, err)
	}
	return nil
}

func (repo *MongoContactRepo) ResetGovernor(ctx context.Context, identity, tenantID string) error {
	field := "tenants." + tenantID
	update := bson.M{
		"$set": bson.M{
			field + ".interaction_count": 0,
			field + ".status":            models.ContactActive,
			field + ".paused_reason":     "",
			"updated_at":                 time.Now().UTC(),
		},
	}
	if _, err := repo.coll.UpdateOne(ctx, bson.M{"identity": identity}, update); err != nil {
		return fmt.Errorf("error resetting governor %s/%s: %w", identity, tenantID, err)
	}
	return nil
}

func (repo *MongoContactRepo) SetName(ctx context.Context, identity, name string) error {
	update := bson.M{"$set": bson.M{"name": name, "updated_at": time.Now().UTC()}}
	if _, err := repo.coll.UpdateOne(ctx, bson.M{"identity": identity}, update); err != nil {
		return fmt.Errorf("error setting contact name %s: %w", identity, err)
	}
	return nil
}

func (repo *MongoContactRepo) SetNotes(ctx context.Context, identity, notes string) error {
	update := bson.M{"$set": bson.M{"notes": notes, "updated_at": time.Now().UTC()}}
	if _, err := repo.coll.UpdateOne(ctx, bson.M{"identity": identity}, update); err != nil {
		return fmt.Errorf("error setting contact notes %s: %w", identity, err)
	}
	return nil
}
