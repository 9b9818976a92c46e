package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rookgm/checkout/internal/format"
	"github.com/rookgm/checkout/internal/models"
	"github.com/rookgm/checkout/internal/service"
	"go.uber.org/zap"
)

const (
	sessionCookieName  = "session_token"
	sessionTokenHeader = "X-Session-Token"
)

// SessionService is order session owned by the server
type SessionService interface {
	// LoadOrder fetches order and replaces session snapshot
	LoadOrder(ctx context.Context, orderID string) (json.RawMessage, error)
	// State returns current order and config
	State() service.State
	// OrderID returns id of loaded order
	OrderID() string
	// MerchantTarget returns where the user goes back to
	MerchantTarget() string
	// ReturnToMerchant sends user back to merchant
	ReturnToMerchant()
}

// OrderService is backend calls scoped by session order
type OrderService interface {
	FetchStatus(ctx context.Context, orderID string) (*models.OrderState, error)
	SubmitPayment(ctx context.Context, orderID, payWay string, params url.Values) error
}

// NotificationSource returns pending user notifications
type NotificationSource interface {
	Messages() []models.Notification
}

// SnapshotSource returns last journalled snapshot of order
type SnapshotSource interface {
	GetSnapshot(ctx context.Context, orderID string) (*models.Snapshot, error)
}

// SessionHandler represents HTTP handler for session-related requests
type SessionHandler struct {
	session   SessionService
	orders    OrderService
	notes     NotificationSource
	tokens    service.TokenService
	snapshots SnapshotSource
	log       *zap.Logger
}

// HandlerOption configures SessionHandler
type HandlerOption func(*SessionHandler)

// WithSnapshotSource enables last known snapshot in responses to failed loads
func WithSnapshotSource(src SnapshotSource) HandlerOption {
	return func(sh *SessionHandler) {
		sh.snapshots = src
	}
}

// NewSessionHandler creates new SessionHandler instance
func NewSessionHandler(session SessionService, orders OrderService, notes NotificationSource, tokens service.TokenService, log *zap.Logger, opts ...HandlerOption) *SessionHandler {
	if log == nil {
		log = zap.NewNop()
	}
	sh := &SessionHandler{
		session: session,
		orders:  orders,
		notes:   notes,
		tokens:  tokens,
		log:     log,
	}
	for _, opt := range opts {
		opt(sh)
	}
	return sh
}

type errorResponse struct {
	Code      *int             `json:"code,omitempty"`
	Message   string           `json:"msg"`
	LastKnown *models.Snapshot `json:"lastKnown,omitempty"`
}

// sessionView is session state with values formatted for display
type sessionView struct {
	service.State
	AmountText  string `json:"amountText"`
	PayCodeText string `json:"payCodeText"`
}

func newSessionView(st service.State) sessionView {
	payCode := ""
	if st.Order.PayCode != nil {
		payCode = *st.Order.PayCode
	}
	return sessionView{
		State:       st,
		AmountText:  format.Currency(st.Order.Amount),
		PayCodeText: format.PayCode(payCode, 0),
	}
}

// LoadOrder loads order into session and issues session token
// 200 — заказ загружен;
// 400 — неверный номер заказа;
// 422 — бэкенд отклонил запрос;
// 502 — бэкенд недоступен, в ответе последний сохранённый снимок заказа, если он есть.
func (sh *SessionHandler) LoadOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "orderID")

		if _, err := sh.session.LoadOrder(r.Context(), orderID); err != nil {
			if errors.Is(err, models.ErrTransport) {
				if snap := sh.lastKnown(r.Context(), orderID); snap != nil {
					writeJSON(w, http.StatusBadGateway, errorResponse{Message: err.Error(), LastKnown: snap})
					return
				}
			}
			sh.writeError(w, err)
			return
		}

		st := sh.session.State()
		ttl := time.Duration(st.Config.RemainingSeconds) * time.Second
		token, err := sh.tokens.CreateToken(orderID, ttl)
		if err != nil {
			sh.log.Error("create session token", zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set(sessionTokenHeader, token)
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		writeJSON(w, http.StatusOK, newSessionView(st))
	}
}

// GetSession returns current session state
// 200 — успешная обработка запроса;
// 401 — нет токена сессии;
// 403 — токен выдан для другого заказа.
func (sh *SessionHandler) GetSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := sh.sessionOrder(w, r); !ok {
			return
		}
		writeJSON(w, http.StatusOK, newSessionView(sh.session.State()))
	}
}

// GetStatus returns current backend status of session order
func (sh *SessionHandler) GetStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := sh.sessionOrder(w, r)
		if !ok {
			return
		}
		state, err := sh.orders.FetchStatus(r.Context(), orderID)
		if err != nil {
			sh.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

// SubmitPayment forwards payment submission, request query is passed as params
// 204 — платёж принят;
// 422 — бэкенд отклонил запрос.
func (sh *SessionHandler) SubmitPayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := sh.sessionOrder(w, r)
		if !ok {
			return
		}
		payWay := chi.URLParam(r, "payWay")
		if payWay == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		if err := sh.orders.SubmitPayment(r.Context(), orderID, payWay, r.URL.Query()); err != nil {
			sh.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ReturnToMerchant redirects user back to merchant
func (sh *SessionHandler) ReturnToMerchant() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := sh.sessionOrder(w, r); !ok {
			return
		}
		target := sh.session.MerchantTarget()
		sh.session.ReturnToMerchant()
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

// ListNotifications returns pending user notifications
func (sh *SessionHandler) ListNotifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sh.notes.Messages())
	}
}

// lastKnown returns journalled snapshot of order or nil
func (sh *SessionHandler) lastKnown(ctx context.Context, orderID string) *models.Snapshot {
	if sh.snapshots == nil {
		return nil
	}
	snap, err := sh.snapshots.GetSnapshot(ctx, orderID)
	if err != nil {
		if !errors.Is(err, models.ErrDataNotFound) {
			sh.log.Warn("get last known snapshot", zap.String("order_id", orderID), zap.Error(err))
		}
		return nil
	}
	return snap
}

// sessionOrder returns order id of the verified session token
func (sh *SessionHandler) sessionOrder(w http.ResponseWriter, r *http.Request) (string, bool) {
	payload, ok := getAuthPayload(r.Context(), authPayloadKey)
	if !ok || payload == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	if payload.OrderID != sh.session.OrderID() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return "", false
	}
	return payload.OrderID, true
}

func (sh *SessionHandler) writeError(w http.ResponseWriter, err error) {
	var rejected *models.BusinessRejectedError
	switch {
	case errors.As(err, &rejected):
		code := rejected.Code
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Code: &code, Message: rejected.Message})
	case errors.Is(err, models.ErrInvalidOrderID):
		http.Error(w, "invalid order id", http.StatusBadRequest)
	case errors.Is(err, models.ErrTransport):
		writeJSON(w, http.StatusBadGateway, errorResponse{Message: err.Error()})
	default:
		sh.log.Error("session request", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		return
	}
}
