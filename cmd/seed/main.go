package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"checador/internal/auth"
	"checador/internal/config"
	"checador/internal/db"
	"checador/internal/model"
	"checador/internal/repository"
)

// seedUser describes a demo account.
type seedUser struct {
	Username string
	Password string
	FullName string
	Email    string
	Role     model.Role
}

var seedWorkplace = model.Workplace{
	Name:    "Oficina Central",
	Address: "Plaza de la Constitucion s/n, Centro, CDMX",
	Phone:   "+52 55 0000 0000",
	Zip:     "06000",
	Active:  true,
}

var seedGeofence = model.Geofence{
	CenterLatitude:  19.432608,
	CenterLongitude: -99.133209,
	RadiusInMeters:  200,
}

var seedUsers = []seedUser{
	{Username: "admin", Password: "Admin123!", FullName: "Administrador", Email: "admin@checador.local", Role: model.RoleAdmin},
	{Username: "jdoe", Password: "User123!", FullName: "John Doe", Email: "jdoe@checador.local", Role: model.RoleMember},
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	workplaceRepo := repository.NewWorkplaceRepository(gormDB)
	userRepo := repository.NewUserRepository(gormDB)

	workplace, err := seedWorkplaceWithGeofence(ctx, workplaceRepo)
	if err != nil {
		log.Fatalf("Failed to seed workplace: %v", err)
	}
	log.Printf("Workplace %q ready (id=%d, radius=%.0fm)", workplace.Name, workplace.ID, seedGeofence.RadiusInMeters)

	created, updated, err := seedAccounts(ctx, userRepo, workplace.ID)
	if err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	log.Printf("Seed completed successfully!")
	log.Printf("  - New users created: %d", created)
	log.Printf("  - Existing users updated: %d", updated)
}

// seedWorkplaceWithGeofence creates the demo workplace when missing and
// upserts its geofence.
func seedWorkplaceWithGeofence(ctx context.Context, repo repository.WorkplaceRepository) (*model.Workplace, error) {
	workplace, err := repo.FindByName(ctx, seedWorkplace.Name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error checking workplace %s: %w", seedWorkplace.Name, err)
	}
	if workplace == nil {
		w := seedWorkplace
		if err := repo.Create(ctx, &w); err != nil {
			return nil, fmt.Errorf("error creating workplace %s: %w", w.Name, err)
		}
		workplace = &w
	}

	geofence := seedGeofence
	geofence.WorkplaceID = workplace.ID
	if !geofence.ValidRadius() {
		return nil, fmt.Errorf("geofence radius %.0fm outside [%.0f, %.0f]",
			geofence.RadiusInMeters, model.MinGeofenceRadius, model.MaxGeofenceRadius)
	}
	if err := repo.UpsertGeofence(ctx, &geofence); err != nil {
		return nil, fmt.Errorf("error saving geofence: %w", err)
	}
	return workplace, nil
}

// seedAccounts creates the demo users or refreshes existing ones.
func seedAccounts(ctx context.Context, repo repository.UserRepository, workplaceID uint) (created int, updated int, err error) {
	for _, su := range seedUsers {
		hash, err := auth.HashPassword(su.Password)
		if err != nil {
			return created, updated, err
		}

		existing, err := repo.FindByUsername(ctx, su.Username)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, updated, fmt.Errorf("error checking user %s: %w", su.Username, err)
		}

		if existing != nil {
			existing.PasswordHash = hash
			existing.FullName = su.FullName
			existing.Email = su.Email
			existing.Role = su.Role
			existing.WorkplaceID = &workplaceID
			existing.Active = true
			if err := repo.Update(ctx, existing); err != nil {
				return created, updated, fmt.Errorf("error updating user %s: %w", su.Username, err)
			}
			updated++
			continue
		}

		wid := workplaceID
		user := &model.User{
			Username:     su.Username,
			PasswordHash: hash,
			FullName:     su.FullName,
			Email:        su.Email,
			Role:         su.Role,
			WorkplaceID:  &wid,
			Active:       true,
		}
		if err := repo.Create(ctx, user); err != nil {
			return created, updated, fmt.Errorf("error creating user %s: %w", su.Username, err)
		}
		created++
	}
	return created, updated, nil
}
