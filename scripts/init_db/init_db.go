package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found — using system environment variables")
	}

	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		dbGetEnv("DB_USER", "tracker_user"),
		dbGetEnv("DB_PASSWORD", "tracker_password"),
		dbGetEnv("DB_HOST", "localhost"),
		dbGetEnv("DB_PORT", "5432"),
		dbGetEnv("DB_NAME", "vehicle_accounting"),
	)

	ctx := context.Background()

	fmt.Println("Connecting to PostgreSQL...")
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		log.Fatalf("Connection failed: %v\n\nMake sure PostgreSQL is running:\n  docker-compose up -d postgres", err)
	}
	defer conn.Close(ctx)
	fmt.Println("✓ Connected")

	step1_vehicles_table(ctx, conn)
	step2_gps_points_table(ctx, conn)
	step3_indexes(ctx, conn)
	step4_seed_vehicles(ctx, conn)
	step5_verify(ctx, conn)

	fmt.Println("\n✅ Database initialised successfully")
	fmt.Println("   Run next: go run scripts/seed_redis/seed_redis.go")
}

func step1_vehicles_table(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 1: vehicles table ──────────────────────")

	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS vehicles (
			id                   BIGSERIAL        PRIMARY KEY,
			registration_number  TEXT             NOT NULL UNIQUE,
			created_at           TIMESTAMPTZ      NOT NULL DEFAULT NOW()
		);
	`, "vehicles table created")
}

func step2_gps_points_table(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 2: vehicle_gps_points table ────────────")

	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS vehicle_gps_points (
			id          BIGSERIAL        PRIMARY KEY,
			vehicle_id  BIGINT           NOT NULL REFERENCES vehicles (id),
			latitude    DOUBLE PRECISION NOT NULL,
			longitude   DOUBLE PRECISION NOT NULL,

			-- Event timestamp assigned by the ingest service; doubles
			-- as the row's creation time.
			created_at  TIMESTAMPTZ      NOT NULL DEFAULT NOW()
		);
	`, "vehicle_gps_points table created")
}

func step3_indexes(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 3: Indexes ─────────────────────────────")

	execOrFatal(ctx, conn, `
		CREATE INDEX IF NOT EXISTS idx_gps_points_vehicle_time
		ON vehicle_gps_points (vehicle_id, created_at DESC);
	`, "vehicle/time index created")
}

func step4_seed_vehicles(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 4: Seeding vehicles ────────────────────")

	registrations := []string{"A123BC77", "B456DE77", "C789FG50"}
	for _, reg := range registrations {
		execOrFatal(ctx, conn, fmt.Sprintf(`
			INSERT INTO vehicles (registration_number)
			VALUES ('%s')
			ON CONFLICT (registration_number) DO NOTHING;
		`, reg), fmt.Sprintf("vehicle %s", reg))
	}
}

func step5_verify(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 5: Verification ────────────────────────")

	var count int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM vehicles`).Scan(&count); err != nil {
		log.Fatalf("Verification failed: %v", err)
	}
	fmt.Printf("  ✓ %d vehicles in database\n", count)
}

func execOrFatal(ctx context.Context, conn *pgx.Conn, sql, label string) {
	if _, err := conn.Exec(ctx, sql); err != nil {
		log.Fatalf("Failed: %s: %v", label, err)
	}
	fmt.Printf("  ✓ %s\n", label)
}

func dbGetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
