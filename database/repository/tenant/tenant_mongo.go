package tenantRepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookline/database"
	"bookline/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when no tenant matches the lookup.
var ErrNotFound = errors.New("tenant not found")

// MongoTenantRepo implements Repository using MongoDB.
type MongoTenantRepo struct {
	coll *mongo.Collection
}

// NewMongoTenantRepo constructs a new instance of MongoTenantRepo.
func NewMongoTenantRepo() Repository {
	db := database.MongoClient.Database(database.DBName)
	return &MongoTenantRepo{coll: db.Collection("tenants")}
}

func (repo *MongoTenantRepo) getOne(ctx context.Context, filter bson.M) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := repo.coll.FindOne(ctx, filter).Decode(&tenant); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching tenant: %w", err)
	}
	return &tenant, nil
}

func (repo *MongoTenantRepo) GetByID(ctx context.Context, id string) (*models.Tenant, error) {
	return repo.getOne(ctx, bson.M{"id": id})
}

func (repo *MongoTenantRepo) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	return repo.getOne(ctx, bson.M{"slug": strings.ToLower(slug)})
}

func (repo *MongoTenantRepo) GetByOperatorEmail(ctx context.Context, email string) (*models.Tenant, error) {
	return repo.getOne(ctx, bson.M{"operator_email": strings.ToLower(email)})
}

func (repo *MongoTenantRepo) UpdateFCMToken(ctx context.Context, id, token string) error {
	res, err := repo.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"fcm_token": token}})
	if err != nil {
		return fmt.Errorf("error updating fcm token for tenant %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
