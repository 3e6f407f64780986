package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"busline/internal/seats"
	"busline/internal/shared/config"
	"busline/internal/shared/database"
	"busline/internal/shared/middleware"
	"busline/internal/shared/transaction"
	"busline/internal/trips"

	"github.com/jinzhu/now"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

type Seeder struct {
	db    *database.DB
	trips trips.Service
}

func main() {
	fmt.Println("🌱 Starting Busline Database Seeder...")

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	db, err := database.InitDB(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	tx := transaction.NewManager(db.PostgreSQL)
	seatService := seats.NewService(seats.NewRepository(db.PostgreSQL), tx)
	seeder := &Seeder{
		db:    db,
		trips: trips.NewService(trips.NewRepository(db.PostgreSQL), seatService, tx),
	}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(ctx); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(ctx); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	token, err := middleware.NewOperatorToken(cfg.JWT.Secret, "seed-operator", 24*time.Hour)
	if err != nil {
		log.Fatalf("Failed to sign operator token: %v", err)
	}
	fmt.Printf("\n🔑 Operator token (24h):\n%s\n", token)
}

// CleanDatabase truncates every table, children first
func (s *Seeder) CleanDatabase(ctx context.Context) error {
	tables := []string{
		"booking_logs",
		"payments",
		"seats",
		"bookings",
		"trips",
		"buses",
		"routes",
		"job_locks",
	}

	return s.db.PostgreSQL.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			fmt.Printf("  Truncating table: %s\n", table)
			if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
				return fmt.Errorf("failed to truncate table %s: %w", table, err)
			}
		}
		return nil
	})
}

// SeedAll creates routes, a fleet and a week of departures
func (s *Seeder) SeedAll(ctx context.Context) error {
	routes, err := s.SeedRoutes(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed routes: %w", err)
	}

	buses, err := s.SeedBuses(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed buses: %w", err)
	}

	if err := s.SeedTrips(ctx, routes, buses); err != nil {
		return fmt.Errorf("failed to seed trips: %w", err)
	}

	if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
		log.Printf("Warning: Failed to clear Redis cache: %v", err)
	}
	return nil
}

func (s *Seeder) SeedRoutes(ctx context.Context) ([]*trips.Route, error) {
	fmt.Println("  🛣️  Seeding routes...")

	data := []trips.CreateRouteRequest{
		{Origin: "Lagos", Destination: "Abuja", DistanceKm: 760},
		{Origin: "Lagos", Destination: "Ibadan", DistanceKm: 130},
		{Origin: "Abuja", Destination: "Kaduna", DistanceKm: 190},
		{Origin: "Enugu", Destination: "Port Harcourt", DistanceKm: 250},
	}

	out := make([]*trips.Route, 0, len(data))
	for _, req := range data {
		route, err := s.trips.CreateRoute(ctx, req)
		if err != nil {
			return nil, err
		}
		out = append(out, route)
		fmt.Printf("    ✅ Created route: %s → %s\n", route.Origin, route.Destination)
	}
	return out, nil
}

func (s *Seeder) SeedBuses(ctx context.Context) ([]*trips.Bus, error) {
	fmt.Println("  🚌 Seeding buses...")

	data := []trips.CreateBusRequest{
		{PlateNo: "LAG-101-AA", BusType: "coach", Capacity: 48, SeatsPerRow: 4},
		{PlateNo: "LAG-202-BB", BusType: "coach", Capacity: 48, SeatsPerRow: 4},
		{PlateNo: "ABJ-303-CC", BusType: "minibus", Capacity: 18, SeatsPerRow: 3},
		{PlateNo: "ENU-404-DD", BusType: "sprinter", Capacity: 14},
	}

	out := make([]*trips.Bus, 0, len(data))
	for _, req := range data {
		bus, err := s.trips.CreateBus(ctx, req)
		if err != nil {
			return nil, err
		}
		out = append(out, bus)
		fmt.Printf("    ✅ Created bus: %s (%d seats)\n", bus.PlateNo, bus.Capacity)
	}
	return out, nil
}

// SeedTrips schedules a morning and an evening departure per route for the
// next seven days. Prices are in kobo.
func (s *Seeder) SeedTrips(ctx context.Context, routes []*trips.Route, buses []*trips.Bus) error {
	fmt.Println("  🗓️  Seeding trips...")

	tomorrow := now.BeginningOfDay().AddDate(0, 0, 1)
	departures := []time.Duration{7 * time.Hour, 18 * time.Hour}

	count := 0
	for day := 0; day < 7; day++ {
		date := tomorrow.AddDate(0, 0, day)
		for i, route := range routes {
			bus := buses[i%len(buses)]
			duration := time.Duration(route.DistanceKm) * time.Minute * 60 / 80 // ~80 km/h
			for _, offset := range departures {
				depart := date.Add(offset)
				_, err := s.trips.CreateTrip(ctx, trips.CreateTripRequest{
					RouteID:    route.ID,
					BusID:      bus.ID,
					Price:      int64(route.DistanceKm) * 2000,
					DepartTime: depart,
					ArriveTime: depart.Add(duration),
				})
				if err != nil {
					return err
				}
				count++
			}
		}
	}

	fmt.Printf("    ✅ Created %d trips\n", count)
	return nil
}
