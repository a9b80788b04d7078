package profile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository stores one current location per user.
type Repository interface {
	Upsert(ctx context.Context, loc CurrentLocation) error
	Get(ctx context.Context, userID string) (CurrentLocation, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, loc CurrentLocation) error {
	userID, err := uuid.Parse(loc.UserID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO customer_locations (user_id, latitude, longitude, formatted_address, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id) DO UPDATE
        SET latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude,
            formatted_address = EXCLUDED.formatted_address, updated_at = EXCLUDED.updated_at`,
		userID, loc.Latitude, loc.Longitude, loc.FormattedAddress, loc.UpdatedAt.UTC())
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (CurrentLocation, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return CurrentLocation{}, ErrLocationNotFound
	}
	var (
		loc       CurrentLocation
		updatedAt time.Time
	)
	err = r.db.QueryRow(ctx, `SELECT latitude, longitude, formatted_address, updated_at
        FROM customer_locations WHERE user_id = $1`, id).Scan(&loc.Latitude, &loc.Longitude, &loc.FormattedAddress, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return CurrentLocation{}, ErrLocationNotFound
	}
	if err != nil {
		return CurrentLocation{}, err
	}
	loc.UserID = userID
	loc.UpdatedAt = updatedAt.UTC()
	return loc, nil
}
