package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/rookgm/checkout/internal/api/mocks"
	"github.com/rookgm/checkout/internal/models"
	"github.com/rookgm/checkout/internal/transport"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderAPI_FetchOrder(t *testing.T) {
	tests := []struct {
		name    string
		orderID string
		setup   func(t *testing.T) *mocks.MockDoer
		wantErr error
		check   func(t *testing.T, order *models.Order, raw json.RawMessage)
	}{
		{
			name:    "valid_order",
			orderID: "P100",
			setup: func(t *testing.T) *mocks.MockDoer {
				ctrl := gomock.NewController(t)
				m := mocks.NewMockDoer(ctrl)
				m.EXPECT().Do(gomock.Any(), http.MethodGet, "/pay/info/P100", gomock.Nil(), gomock.Any()).
					DoAndReturn(func(_ context.Context, _, _ string, _ url.Values, out any) error {
						return json.Unmarshal([]byte(`{"amount":"10.50","subject":"coffee","expireTime":1700000000}`), out)
					})
				return m
			},
			check: func(t *testing.T, order *models.Order, raw json.RawMessage) {
				assert.True(t, decimal.RequireFromString("10.50").Equal(order.Amount))
				assert.Equal(t, "coffee", order.Subject)
				assert.Equal(t, models.Timestamp(1700000000), order.ExpireTime)
				assert.NotNil(t, order.PayWays)
				assert.JSONEq(t, `{"amount":"10.50","subject":"coffee","expireTime":1700000000}`, string(raw))
			},
		},
		{
			name:    "path_is_escaped",
			orderID: "a/b",
			setup: func(t *testing.T) *mocks.MockDoer {
				ctrl := gomock.NewController(t)
				m := mocks.NewMockDoer(ctrl)
				m.EXPECT().Do(gomock.Any(), http.MethodGet, "/pay/info/a%2Fb", gomock.Nil(), gomock.Any()).Return(nil)
				return m
			},
			check: func(t *testing.T, order *models.Order, raw json.RawMessage) {
				assert.True(t, order.Equal(models.DefaultOrder()))
			},
		},
		{
			name:    "rejected",
			orderID: "P100",
			setup: func(t *testing.T) *mocks.MockDoer {
				ctrl := gomock.NewController(t)
				m := mocks.NewMockDoer(ctrl)
				m.EXPECT().Do(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(models.NewBusinessRejectedError(-1, "closed"))
				return m
			},
			wantErr: models.ErrBusinessRejected,
		},
		{
			name:    "empty_order_id",
			orderID: " ",
			setup: func(t *testing.T) *mocks.MockDoer {
				ctrl := gomock.NewController(t)
				m := mocks.NewMockDoer(ctrl)
				m.EXPECT().Do(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				return m
			},
			wantErr: models.ErrInvalidOrderID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewOrderAPI(tt.setup(t))
			order, raw, err := a.FetchOrder(context.Background(), tt.orderID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, order)
				return
			}
			require.NoError(t, err)
			tt.check(t, order, raw)
		})
	}
}

func TestOrderAPI_FetchStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mocks.NewMockDoer(ctrl)
	m.EXPECT().Do(gomock.Any(), http.MethodGet, "/state/P1", gomock.Nil(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, _ url.Values, out any) error {
			return json.Unmarshal([]byte(`{"status":2,"id":"P1"}`), out)
		})

	state, err := NewOrderAPI(m).FetchStatus(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, state.Status)
	assert.Equal(t, "P1", state.ID)
}

func TestOrderAPI_SubmitPayment(t *testing.T) {
	tests := []struct {
		name      string
		params    url.Values
		wantQuery url.Values
	}{
		{name: "without_params"},
		{name: "with_params", params: url.Values{"phone": {"01700"}, "bank": {"x"}}, wantQuery: url.Values{"phone": {"01700"}, "bank": {"x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			m := mocks.NewMockDoer(ctrl)
			m.EXPECT().Do(gomock.Any(), http.MethodPost, "/pay/info/P1/bkash", gomock.Eq(tt.wantQuery), gomock.Nil()).Return(nil)

			require.NoError(t, NewOrderAPI(m).SubmitPayment(context.Background(), "P1", "bkash", tt.params))
		})
	}
}

func TestOrderAPI_OverTransport(t *testing.T) {
	var submitQuery string
	r := chi.NewRouter()
	r.Get("/api/pay/info/{orderID}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":200,"amount":"99.00","requestUrl":"https://shop.example/back","payWays":{"bkash":{"code":"bkash","name":"bKash"}},"expiredTime":"1700000100"}`))
	})
	r.Get("/api/state/{orderID}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"msg":"SUCCESS","data":{"status":"1"}}`))
	})
	r.Post("/api/pay/info/{orderID}/{payWay}", func(w http.ResponseWriter, r *http.Request) {
		submitQuery = r.URL.RawQuery
		w.Write([]byte(`{"code":100}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	a := NewOrderAPI(transport.New(srv.URL + "/api"))

	order, _, err := a.FetchOrder(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example/back", order.MerchantURL())
	assert.Equal(t, models.Timestamp(1700000100), order.ExpireTime)
	require.Contains(t, order.PayWays, "bkash")
	assert.Equal(t, "bKash", order.PayWays["bkash"].Name)

	state, err := a.FetchStatus(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, state.Status)

	err = a.SubmitPayment(context.Background(), "P1", "bkash", url.Values{"k": {"v"}})
	assert.ErrorIs(t, err, models.ErrBusinessRejected)
	assert.Equal(t, "k=v", submitQuery)
}
