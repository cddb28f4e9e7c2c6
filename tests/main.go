// Seeds the local database with demo tenants for manual end-to-end testing
// against a real WhatsApp sandbox number.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"bookline/config"
	"bookline/database"
	"bookline/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	config.LoadConfig()
	database.InitDB()
	db := database.MongoClient.Database(database.DBName)
	tenantColl := db.Collection("tenants")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Clear existing tenants.
	if _, err := tenantColl.DeleteMany(ctx, bson.M{}); err != nil {
		log.Fatalf("Failed to clear tenants collection: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash demo password: %v", err)
	}

	weekdays := []int{1, 2, 3, 4, 5, 6}
	tenants := []models.Tenant{
		{
			ID:       uuid.New().String(),
			Slug:     "bella-salon",
			Name:     "Bella Salon",
			Country:  "ES",
			Timezone: "Europe/Madrid",
			Tier:     models.TierPro,
			Hours: models.OperatingHours{
				Open: "09:00", Close: "19:00",
				BreakStart: "13:30", BreakEnd: "15:00",
				Weekdays: weekdays,
			},
			Services: []models.ServiceOffering{
				{Name: "Haircut", Price: 15, DurationMinutes: 30},
				{Name: "Coloring", Price: 45, DurationMinutes: 90},
				{Name: "Blow Dry", Price: 12, DurationMinutes: 20},
			},
			OperatorEmail: "owner@bella-salon.example.com",
			PasswordHash:  string(hash),
			Active:        true,
			CreatedAt:     time.Now().UTC(),
		},
		{
			ID:       uuid.New().String(),
			Slug:     "acme-barbers",
			Name:     "Acme Barbers",
			Country:  "ES",
			Timezone: "Europe/Madrid",
			Tier:     models.TierPro,
			Hours: models.OperatingHours{
				Open: "10:00", Close: "20:00",
				Weekdays: weekdays,
			},
			Services: []models.ServiceOffering{
				{Name: "Cut", Price: 12, DurationMinutes: 25},
				{Name: "Beard Trim", Price: 8, DurationMinutes: 15},
			},
			OperatorEmail: "owner@acme-barbers.example.com",
			PasswordHash:  string(hash),
			Active:        true,
			CreatedAt:     time.Now().UTC(),
		},
		{
			// A free-tier tenant, for exercising the subscription gate.
			ID:       uuid.New().String(),
			Slug:     "corner-nails",
			Name:     "Corner Nails",
			Country:  "ES",
			Timezone: "Europe/Madrid",
			Tier:     models.TierFree,
			Hours: models.OperatingHours{
				Open: "09:00", Close: "18:00",
				Weekdays: weekdays,
			},
			Services: []models.ServiceOffering{
				{Name: "Manicure", Price: 20, DurationMinutes: 40},
			},
			OperatorEmail: "owner@corner-nails.example.com",
			PasswordHash:  string(hash),
			Active:        true,
			CreatedAt:     time.Now().UTC(),
		},
	}

	docs := make([]interface{}, 0, len(tenants))
	for _, t := range tenants {
		docs = append(docs, t)
	}
	if _, err := tenantColl.InsertMany(ctx, docs); err != nil {
		log.Fatalf("Failed to insert demo tenants: %v", err)
	}

	fmt.Printf("Seeded %d tenants.\n", len(tenants))
	for _, t := range tenants {
		fmt.Printf("  %-14s tier=%-4s  start %s  (operator %s / password123)\n",
			t.Name, t.Tier, t.Slug, t.OperatorEmail)
	}
	fmt.Println("\nOnboarding message for the sandbox number: \"start <slug>\" or a prefilled \"[ref:<slug>]\" link.")
}
