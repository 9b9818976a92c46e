package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rookgm/checkout/internal/models"
	"github.com/rookgm/checkout/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ service.SnapshotSink = (*SnapshotRepository)(nil)

type fakeRow struct {
	payload   []byte
	fetchedAt time.Time
	err       error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*[]byte) = r.payload
	*dest[1].(*time.Time) = r.fetchedAt
	return nil
}

type fakeDB struct {
	execArgs []any
	execErr  error
	row      fakeRow
}

func (f *fakeDB) Exec(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
	f.execArgs = args
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return f.row
}

func TestSnapshotRepository_SaveSnapshot(t *testing.T) {
	order, err := models.DecodeOrder([]byte(`{"amount":"10.50","subject":"coffee","status":2}`))
	require.NoError(t, err)

	db := &fakeDB{}
	fetched := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	sr := NewSnapshotRepository(db)
	sr.now = func() time.Time { return fetched }

	require.NoError(t, sr.SaveSnapshot(context.Background(), "P1", order))
	require.Len(t, db.execArgs, 4)
	assert.Equal(t, "P1", db.execArgs[0])
	status := int16(models.StatusSuccess)
	assert.Equal(t, &status, db.execArgs[1])
	assert.Equal(t, fetched, db.execArgs[3])

	var stored map[string]any
	require.NoError(t, json.Unmarshal(db.execArgs[2].([]byte), &stored))
	assert.Equal(t, "coffee", stored["subject"])
	assert.Equal(t, "10.5", stored["amount"])
}

func TestSnapshotRepository_SaveSnapshot_NoStatus(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, NewSnapshotRepository(db).SaveSnapshot(context.Background(), "P1", models.DefaultOrder()))
	assert.Equal(t, (*int16)(nil), db.execArgs[1])
}

func TestSnapshotRepository_SaveSnapshot_Error(t *testing.T) {
	db := &fakeDB{execErr: errors.New("conn refused")}
	err := NewSnapshotRepository(db).SaveSnapshot(context.Background(), "P1", models.DefaultOrder())
	assert.EqualError(t, err, "conn refused")
}

func TestSnapshotRepository_GetSnapshot(t *testing.T) {
	fetched := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		name    string
		row     fakeRow
		want    string
		wantErr error
	}{
		{
			name: "found",
			row:  fakeRow{payload: []byte(`{"subject":"coffee","expireTime":1700000000}`), fetchedAt: fetched},
			want: "coffee",
		},
		{
			name:    "not_found",
			row:     fakeRow{err: pgx.ErrNoRows},
			wantErr: models.ErrDataNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := NewSnapshotRepository(&fakeDB{row: tt.row})
			got, err := sr.GetSnapshot(context.Background(), "P1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "P1", got.OrderID)
			assert.Equal(t, tt.want, got.Order.Subject)
			assert.Equal(t, int64(1700000000), got.Order.ExpireTime.Unix())
			assert.Equal(t, fetched, got.FetchedAt)
			assert.NotNil(t, got.Order.PayWays)
		})
	}
}
