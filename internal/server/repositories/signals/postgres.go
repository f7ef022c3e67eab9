package signals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bowwow/internal/common"
	"github.com/dmitrijs2005/bowwow/internal/dbx"
	"github.com/dmitrijs2005/bowwow/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Signal) error {
	query :=
		`INSERT INTO signals (id, sender_id, origin_latitude, origin_longitude, max_distance,
		                      distance_unit, status, sent_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 `

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.SenderID, s.Latitude, s.Longitude, s.MaxDistance,
		string(s.Unit), string(s.Status), s.SentAt, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const selectColumns = `id, sender_id, origin_latitude, origin_longitude, max_distance, distance_unit, status, sent_at, expires_at`

func scanSignal(row *sql.Row) (*models.Signal, error) {
	s := &models.Signal{}
	err := row.Scan(&s.ID, &s.SenderID, &s.Latitude, &s.Longitude, &s.MaxDistance,
		&s.Unit, &s.Status, &s.SentAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Signal, error) {
	query := `SELECT ` + selectColumns + ` FROM signals WHERE id = $1`
	return scanSignal(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) FindLatestActiveSince(ctx context.Context, senderID string, since time.Time) (*models.Signal, error) {
	query :=
		`SELECT ` + selectColumns + `
		 FROM signals
		 WHERE sender_id = $1 AND status = $2 AND sent_at >= $3
		 ORDER BY sent_at DESC
		 LIMIT 1
		 `
	return scanSignal(r.db.QueryRowContext(ctx, query, senderID, string(models.SignalActive), since))
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status models.SignalStatus) error {
	n, err := dbx.ExecAffected(ctx, r.db, `UPDATE signals SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Totals(ctx context.Context) (int64, int64, error) {
	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE status = $1) FROM signals`

	var total, active int64
	if err := r.db.QueryRowContext(ctx, query, string(models.SignalActive)).Scan(&total, &active); err != nil {
		return 0, 0, fmt.Errorf("db error: %w", err)
	}
	return total, active, nil
}

func (r *PostgresRepository) CountByHourSince(ctx context.Context, since time.Time) (map[int]int64, error) {
	query :=
		`SELECT CAST(EXTRACT(HOUR FROM sent_at AT TIME ZONE 'UTC') AS INTEGER) AS hour, COUNT(*)
		 FROM signals
		 WHERE sent_at > $1
		 GROUP BY hour
		 `
	return r.countGroups(ctx, query, since)
}

func (r *PostgresRepository) CountByDistanceSince(ctx context.Context, since time.Time) (map[int]int64, error) {
	query :=
		`SELECT CAST(CEIL(max_distance) AS INTEGER) AS reach, COUNT(*)
		 FROM signals
		 WHERE sent_at > $1
		 GROUP BY reach
		 `
	return r.countGroups(ctx, query, since)
}

func (r *PostgresRepository) countGroups(ctx context.Context, query string, args ...any) (map[int]int64, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make(map[int]int64)
	for rows.Next() {
		var key int
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result[key] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) CountSendersSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT sender_id) FROM signals WHERE sent_at > $1`, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
