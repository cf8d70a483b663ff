package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vehicle-accounting/gps/internal/config"
	"vehicle-accounting/gps/internal/domain"
)

// PostgresStore backs the vehicle lookup and GPS point collaborators with
// the fleet's relational database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, cfg *config.Config) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?pool_max_conns=%d",
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.Name,
		cfg.DB.MaxConns,
	)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) GetVehicle(ctx context.Context, id int64) (*domain.Vehicle, error) {
	var v domain.Vehicle
	err := s.pool.QueryRow(
		ctx,
		`SELECT id, registration_number FROM vehicles WHERE id = $1`,
		id,
	).Scan(&v.ID, &v.RegistrationNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVehicleNotFound
		}
		return nil, fmt.Errorf("query vehicle %d: %w", id, err)
	}
	return &v, nil
}

// CreatePoint stores one GPS point. observedAt is the ingest-assigned
// event timestamp; it doubles as the row's created_at.
func (s *PostgresStore) CreatePoint(ctx context.Context, vehicleID int64, latitude, longitude float64, observedAt time.Time) error {
	_, err := s.pool.Exec(
		ctx,
		`INSERT INTO vehicle_gps_points (vehicle_id, latitude, longitude, created_at)
		 VALUES ($1, $2, $3, $4)`,
		vehicleID,
		latitude,
		longitude,
		observedAt,
	)
	if err != nil {
		return fmt.Errorf("insert gps point for vehicle %d: %w", vehicleID, err)
	}
	return nil
}
