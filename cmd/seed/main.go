package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"packly/internal/bags"
	"packly/internal/shared/config"
	"packly/internal/shared/database"
	"packly/internal/users"
	"packly/pkg/ability"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting Packly Database Seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in reverse dependency order.
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"items",
		"bags",
		"role_permissions",
		"accounts",
		"users",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Exec("SET CONSTRAINTS ALL DEFERRED").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to defer constraints: %w", err)
	}

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	if err := tx.Exec("SET CONSTRAINTS ALL IMMEDIATE").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to restore constraints: %w", err)
	}

	return tx.Commit().Error
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	userIDs, err := s.SeedUsers()
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	if err := s.SeedRolePermissions(); err != nil {
		return fmt.Errorf("failed to seed role permissions: %w", err)
	}

	if err := s.SeedBags(userIDs); err != nil {
		return fmt.Errorf("failed to seed bags: %w", err)
	}

	// Clear Redis cache to ensure fresh state
	if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
		log.Printf("Warning: Failed to clear Redis cache: %v", err)
	}

	return nil
}

// SeedUsers creates 1 admin and 2 regular users, each with a local account.
func (s *Seeder) SeedUsers() (map[string]uuid.UUID, error) {
	fmt.Println("  👤 Seeding users...")

	userIDs := make(map[string]uuid.UUID)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("Strong@123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	usersData := []struct {
		key       string
		firstName string
		lastName  string
		email     string
		role      ability.Role
	}{
		{"admin", "Admin", "User", "admin@packly.app", ability.RoleAdmin},
		{"user1", "Avery", "Lane", "avery@packly.app", ability.RoleUser},
		{"user2", "Jordan", "Reyes", "jordan@packly.app", ability.RoleUser},
	}

	for _, userData := range usersData {
		user := users.User{
			ID:        uuid.New(),
			FirstName: userData.firstName,
			LastName:  userData.lastName,
			Email:     userData.email,
			Role:      userData.role,
			IsActive:  true,
			Accounts: []users.Account{
				{
					ID:             uuid.New(),
					AuthProvider:   users.AuthProviderLocal,
					HashedPassword: string(hashedPassword),
					CreatedAt:      time.Now(),
					UpdatedAt:      time.Now(),
				},
			},
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", userData.email, err)
		}

		userIDs[userData.key] = user.ID
		fmt.Printf("    ✅ Created user: %s (%s)\n", user.Email, user.Role)
	}

	return userIDs, nil
}

// SeedRolePermissions persists the role→permission rows so ABILITY_SOURCE=db
// resolves to the same rules as the static map.
func (s *Seeder) SeedRolePermissions() error {
	fmt.Println("  🔑 Seeding role permissions...")

	rows := []users.RolePermission{
		{Role: "ADMIN", Action: "manage", Subject: "ALL", Scope: "any"},

		{Role: "USER", Action: "read", Subject: "USER", Scope: "own"},
		{Role: "USER", Action: "update", Subject: "USER", Scope: "own"},
		{Role: "USER", Action: "read", Subject: "PROFILE", Scope: "own"},
		{Role: "USER", Action: "update", Subject: "PROFILE", Scope: "own"},
		{Role: "USER", Action: "manage", Subject: "BAG", Scope: "own"},
		{Role: "USER", Action: "manage", Subject: "SUITCASE", Scope: "own"},
		{Role: "USER", Action: "manage", Subject: "ITEM", Scope: "own"},
	}

	for _, row := range rows {
		if err := s.db.PostgreSQL.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create permission row %s/%s/%s: %w", row.Role, row.Action, row.Subject, err)
		}
	}

	fmt.Printf("    ✅ Created %d permission rows\n", len(rows))
	return nil
}

// SeedBags creates sample packing lists for the regular users.
func (s *Seeder) SeedBags(userIDs map[string]uuid.UUID) error {
	fmt.Println("  🧳 Seeding bags...")

	tripIn := func(days int) *time.Time {
		t := time.Now().AddDate(0, 0, days)
		return &t
	}

	bagsData := []struct {
		owner       string
		name        string
		description string
		tripDate    *time.Time
		items       []struct {
			name     string
			quantity int
			packed   bool
		}
	}{
		{
			owner:       "user1",
			name:        "Tokyo Trip",
			description: "Two weeks in Japan, autumn weather",
			tripDate:    tripIn(30),
			items: []struct {
				name     string
				quantity int
				packed   bool
			}{
				{"Passport", 1, true},
				{"Rain jacket", 1, false},
				{"Power adapter", 2, false},
				{"T-shirts", 6, false},
			},
		},
		{
			owner:       "user1",
			name:        "Weekend Hike",
			description: "Overnight trail, light pack",
			tripDate:    tripIn(7),
			items: []struct {
				name     string
				quantity int
				packed   bool
			}{
				{"Water bottles", 2, true},
				{"Headlamp", 1, false},
				{"Trail snacks", 4, false},
			},
		},
		{
			owner:       "user2",
			name:        "Beach Holiday",
			description: "One week by the sea",
			tripDate:    tripIn(45),
			items: []struct {
				name     string
				quantity int
				packed   bool
			}{
				{"Sunscreen", 1, false},
				{"Swimsuits", 2, false},
				{"Sunglasses", 1, true},
			},
		},
	}

	for _, bagData := range bagsData {
		ownerID, ok := userIDs[bagData.owner]
		if !ok {
			return fmt.Errorf("unknown owner key %s", bagData.owner)
		}

		bag := bags.Bag{
			ID:          uuid.New(),
			OwnerID:     ownerID,
			Name:        bagData.name,
			Description: bagData.description,
			TripDate:    bagData.tripDate,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		for _, itemData := range bagData.items {
			bag.Items = append(bag.Items, bags.Item{
				ID:        uuid.New(),
				Name:      itemData.name,
				Quantity:  itemData.quantity,
				Packed:    itemData.packed,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			})
		}

		if err := s.db.PostgreSQL.Create(&bag).Error; err != nil {
			return fmt.Errorf("failed to create bag %s: %w", bag.Name, err)
		}

		fmt.Printf("    ✅ Created bag: %s (%d items)\n", bag.Name, len(bag.Items))
	}

	return nil
}
