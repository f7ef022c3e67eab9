package locations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bowwow/internal/common"
	"github.com/dmitrijs2005/bowwow/internal/dbx"
	"github.com/dmitrijs2005/bowwow/internal/geo"
	"github.com/dmitrijs2005/bowwow/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, rec *models.LocationRecord) error {
	query :=
		`INSERT INTO user_locations (id, user_id, encrypted_latitude, encrypted_longitude,
		                             grid_latitude, grid_longitude, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id) DO UPDATE
		 SET id = EXCLUDED.id,
		     encrypted_latitude = EXCLUDED.encrypted_latitude,
		     encrypted_longitude = EXCLUDED.encrypted_longitude,
		     grid_latitude = EXCLUDED.grid_latitude,
		     grid_longitude = EXCLUDED.grid_longitude,
		     created_at = EXCLUDED.created_at,
		     expires_at = EXCLUDED.expires_at
		 `

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.EncryptedLatitude, rec.EncryptedLongitude,
		rec.GridLatitude, rec.GridLongitude, rec.CreatedAt, rec.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const selectColumns = `id, user_id, encrypted_latitude, encrypted_longitude, grid_latitude, grid_longitude, created_at, expires_at`

func scanRecord(row interface{ Scan(...any) error }) (*models.LocationRecord, error) {
	rec := &models.LocationRecord{}
	err := row.Scan(&rec.ID, &rec.UserID, &rec.EncryptedLatitude, &rec.EncryptedLongitude,
		&rec.GridLatitude, &rec.GridLongitude, &rec.CreatedAt, &rec.ExpiresAt)
	return rec, err
}

func (r *PostgresRepository) ListActiveWithin(ctx context.Context, box geo.Box, now time.Time, excludeUserID string) ([]models.LocationRecord, error) {
	query :=
		`SELECT ` + selectColumns + `
		 FROM user_locations
		 WHERE expires_at > $1
		   AND user_id <> $2
		   AND grid_latitude BETWEEN $3 AND $4
		   AND grid_longitude BETWEEN $5 AND $6
		 `

	rows, err := r.db.QueryContext(ctx, query, now, excludeUserID,
		box.MinLatitude, box.MaxLatitude, box.MinLongitude, box.MaxLongitude)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.LocationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) GetActive(ctx context.Context, userID string, now time.Time) (*models.LocationRecord, error) {
	query :=
		`SELECT ` + selectColumns + `
		 FROM user_locations
		 WHERE user_id = $1 AND expires_at > $2
		 `

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, userID, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) CountUpdatedSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_locations WHERE created_at > $1`, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Purge(ctx context.Context, now time.Time) (int64, error) {
	n, err := dbx.ExecAffected(ctx, r.db, `DELETE FROM user_locations WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
