package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rookgm/checkout/internal/models"
)

const (
	upsertSnapshotQuery = `
						INSERT INTO order_snapshots (order_id, status, payload, fetched_at)
						VALUES ($1, $2, $3, $4)
						ON CONFLICT (order_id) DO UPDATE
						SET status = EXCLUDED.status, payload = EXCLUDED.payload, fetched_at = EXCLUDED.fetched_at
`
	selectSnapshotQuery = `
						SELECT payload, fetched_at FROM order_snapshots
						WHERE order_id = $1
`
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SnapshotRepository journals loaded order snapshots
type SnapshotRepository struct {
	db  querier
	now func() time.Time
}

// NewSnapshotRepository creates new SnapshotRepository instance
func NewSnapshotRepository(db querier) *SnapshotRepository {
	return &SnapshotRepository{db: db, now: time.Now}
}

// SaveSnapshot inserts snapshot or replaces the previous one of the same order
func (sr *SnapshotRepository) SaveSnapshot(ctx context.Context, orderID string, order models.Order) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	var status *int16
	if order.Status != nil {
		s := int16(*order.Status)
		status = &s
	}

	if _, err := sr.db.Exec(ctx, upsertSnapshotQuery, orderID, status, payload, sr.now().UTC()); err != nil {
		return err
	}
	return nil
}

// GetSnapshot returns last journalled snapshot of order
func (sr *SnapshotRepository) GetSnapshot(ctx context.Context, orderID string) (*models.Snapshot, error) {
	var (
		payload   []byte
		fetchedAt time.Time
	)
	err := sr.db.QueryRow(ctx, selectSnapshotQuery, orderID).Scan(&payload, &fetchedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	order, err := models.DecodeOrder(payload)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	return &models.Snapshot{OrderID: orderID, Order: order, FetchedAt: fetchedAt}, nil
}
