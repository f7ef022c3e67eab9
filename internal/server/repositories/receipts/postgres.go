package receipts

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

func (r *PostgresRepository) CreateIfAbsent(ctx context.Context, rc *models.SignalReceipt) (bool, error) {
	query :=
		`INSERT INTO signal_receipts (id, signal_id, receiver_id, distance, direction, responded, received_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (signal_id, receiver_id) DO NOTHING
		 `

	n, err := dbx.ExecAffected(ctx, r.db, query,
		rc.ID, rc.SignalID, rc.ReceiverID, rc.Distance, rc.Direction, rc.Responded, rc.ReceivedAt)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

const selectColumns = `id, signal_id, receiver_id, distance, direction, responded, received_at, responded_at`

func scanReceipt(row interface{ Scan(...any) error }) (*models.SignalReceipt, error) {
	rc := &models.SignalReceipt{}
	var respondedAt sql.NullTime
	if err := row.Scan(&rc.ID, &rc.SignalID, &rc.ReceiverID, &rc.Distance, &rc.Direction,
		&rc.Responded, &rc.ReceivedAt, &respondedAt); err != nil {
		return nil, err
	}
	if respondedAt.Valid {
		t := respondedAt.Time
		rc.RespondedAt = &t
	}
	return rc, nil
}

func (r *PostgresRepository) Find(ctx context.Context, signalID, receiverID string) (*models.SignalReceipt, error) {
	query :=
		`SELECT ` + selectColumns + `
		 FROM signal_receipts
		 WHERE signal_id = $1 AND receiver_id = $2
		 `

	rc, err := scanReceipt(r.db.QueryRowContext(ctx, query, signalID, receiverID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rc, nil
}

func (r *PostgresRepository) MarkResponded(ctx context.Context, signalID, receiverID string, at time.Time) error {
	query :=
		`UPDATE signal_receipts SET responded = TRUE, responded_at = $1
		 WHERE signal_id = $2 AND receiver_id = $3
		 `

	n, err := dbx.ExecAffected(ctx, r.db, query, at, signalID, receiverID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ListReceived(ctx context.Context, receiverID string, since time.Time) ([]models.ReceivedSignal, error) {
	query :=
		`SELECT r.signal_id, s.sender_id, r.distance, r.direction, s.distance_unit, r.responded, r.received_at
		 FROM signal_receipts r
		 JOIN signals s ON s.id = r.signal_id
		 WHERE r.receiver_id = $1 AND r.received_at >= $2
		 ORDER BY r.received_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, receiverID, since)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.ReceivedSignal
	for rows.Next() {
		var rs models.ReceivedSignal
		if err := rows.Scan(&rs.SignalID, &rs.SenderID, &rs.Distance, &rs.Direction,
			&rs.Unit, &rs.Responded, &rs.ReceivedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) ListBySignal(ctx context.Context, signalID string) ([]models.SignalReceipt, error) {
	query :=
		`SELECT ` + selectColumns + `
		 FROM signal_receipts
		 WHERE signal_id = $1
		 ORDER BY distance ASC
		 `

	rows, err := r.db.QueryContext(ctx, query, signalID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.SignalReceipt
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, *rc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) CountReceiversSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT receiver_id) FROM signal_receipts WHERE received_at > $1`, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) CountEngagedSince(ctx context.Context, since time.Time) (int64, error) {
	query :=
		`SELECT COUNT(*) FROM (
		     SELECT sender_id AS user_id FROM signals WHERE sent_at > $1
		     UNION
		     SELECT receiver_id FROM signal_receipts WHERE received_at > $1
		 ) engaged
		 `

	var n int64
	if err := r.db.QueryRowContext(ctx, query, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
