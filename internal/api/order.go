package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/rookgm/checkout/internal/models"
)

// Doer sends request and decodes resolved envelope payload into out
type Doer interface {
	Do(ctx context.Context, method, path string, query url.Values, out any) error
}

// OrderAPI represents order-related backend calls
type OrderAPI struct {
	client Doer
}

// NewOrderAPI creates new OrderAPI instance
func NewOrderAPI(client Doer) *OrderAPI {
	return &OrderAPI{client: client}
}

// FetchOrder returns order payload decoded over default snapshot and the raw payload
// GET /pay/info/{orderId}
func (a *OrderAPI) FetchOrder(ctx context.Context, orderID string) (*models.Order, json.RawMessage, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, nil, models.ErrInvalidOrderID
	}

	payload := orderPayload{order: models.DefaultOrder()}
	if err := a.client.Do(ctx, http.MethodGet, "/pay/info/"+url.PathEscape(orderID), nil, &payload); err != nil {
		return nil, nil, err
	}
	return &payload.order, payload.raw, nil
}

// orderPayload decodes order and keeps the raw payload
type orderPayload struct {
	order models.Order
	raw   json.RawMessage
}

func (p *orderPayload) UnmarshalJSON(b []byte) error {
	order, err := models.DecodeOrder(b)
	if err != nil {
		return err
	}
	p.order = order
	p.raw = append(json.RawMessage(nil), b...)
	return nil
}

// FetchStatus returns current order status
// GET /state/{orderId}
func (a *OrderAPI) FetchStatus(ctx context.Context, orderID string) (*models.OrderState, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, models.ErrInvalidOrderID
	}

	state := models.OrderState{}
	if err := a.client.Do(ctx, http.MethodGet, "/state/"+url.PathEscape(orderID), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SubmitPayment submits payment with pay way.
// Params are sent as query string, the backend route does not read a body.
// POST /pay/info/{orderId}/{payWay}?k=v
func (a *OrderAPI) SubmitPayment(ctx context.Context, orderID, payWay string, params url.Values) error {
	if strings.TrimSpace(orderID) == "" {
		return models.ErrInvalidOrderID
	}

	path := "/pay/info/" + url.PathEscape(orderID) + "/" + url.PathEscape(payWay)
	return a.client.Do(ctx, http.MethodPost, path, params, nil)
}
