package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rookgm/checkout/internal/models"
)

// minTokenTTL keeps token usable for an order without known expiry
const minTokenTTL = time.Minute

var ErrInvalidToken = errors.New("invalid session token")

// TokenService issues tokens scoping a client to one order session
type TokenService interface {
	CreateToken(orderID string, ttl time.Duration) (string, error)
	VerifyToken(tokenString string) (*models.TokenPayload, error)
}

type sessionClaims struct {
	OrderID string `json:"order_id"`
	jwt.RegisteredClaims
}

// JWTTokenService implements TokenService with HS256 signed jwt
type JWTTokenService struct {
	key []byte
	now func() time.Time
}

// NewJWTTokenService creates new JWTTokenService instance
func NewJWTTokenService(key []byte) *JWTTokenService {
	return &JWTTokenService{key: key, now: time.Now}
}

// CreateToken returns signed token for order
func (ts *JWTTokenService) CreateToken(orderID string, ttl time.Duration) (string, error) {
	if orderID == "" {
		return "", models.ErrInvalidOrderID
	}
	if ttl < minTokenTTL {
		ttl = minTokenTTL
	}
	now := ts.now()
	claims := sessionClaims{
		OrderID: orderID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.key)
}

// VerifyToken checks token signature and expiry and returns its payload
func (ts *JWTTokenService) VerifyToken(tokenString string) (*models.TokenPayload, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return ts.key, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.OrderID == "" {
		return nil, ErrInvalidToken
	}

	payload := &models.TokenPayload{OrderID: claims.OrderID}
	if claims.ExpiresAt != nil {
		payload.ExpiresAt = claims.ExpiresAt.Time
	}
	return payload, nil
}
