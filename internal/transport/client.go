package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/rookgm/checkout/internal/logger"
	"github.com/rookgm/checkout/internal/models"
	"go.uber.org/zap"
)

const defaultLocale = "en-US"

// errors containing these substrings are logged but not shown to the user
var hiddenErrors = []string{"network error"}

// LocaleResolver returns current locale tag
type LocaleResolver interface {
	LocaleTag() string
}

// Notifier shows message to the user. It must never block.
type Notifier interface {
	Notify(kind models.NotifyKind, text string)
}

type staticLocale string

func (s staticLocale) LocaleTag() string { return string(s) }

type nopNotifier struct{}

func (nopNotifier) Notify(models.NotifyKind, string) {}

// Client is http client normalizing backend envelopes
type Client struct {
	client  *http.Client
	baseURL string
	locale  LocaleResolver
	notify  Notifier
	log     *zap.Logger
}

// Option configures Client
type Option func(*Client)

// WithHTTPClient sets underlying http client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithLocale sets locale resolver used for Accept-Language
func WithLocale(lr LocaleResolver) Option {
	return func(c *Client) {
		if lr != nil {
			c.locale = lr
		}
	}
}

// WithNotifier sets user notifier
func WithNotifier(n Notifier) Option {
	return func(c *Client) {
		if n != nil {
			c.notify = n
		}
	}
}

// WithLogger sets logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates new Client instance
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		client:  http.DefaultClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		locale:  staticLocale(defaultLocale),
		notify:  nopNotifier{},
		log:     logger.Log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Muted returns copy of client that logs failures but never notifies the user.
// Background polling uses it so a failing endpoint does not flood notifications.
func (c *Client) Muted() *Client {
	cp := *c
	cp.notify = nopNotifier{}
	return &cp
}

// Get performs GET request
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post performs POST request without body
func (c *Client) Post(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodPost, path, query, out)
}

// Do sends request and resolves response envelope.
// Resolved payload is decoded into out when out is not nil.
// Returned error is either *models.BusinessRejectedError or *models.TransportError.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return c.fail(models.NewTransportError(err))
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	// locale may change mid-session, read it at send time
	req.Header.Set("Accept-Language", c.locale.LocaleTag())
	req.Header.Set("X-Request-Id", requestID)

	log := c.log.With(
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("path", path),
	)

	resp, err := c.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return c.failLog(log, &models.TransportError{Message: requestErrorMessage(err), Err: err})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.failLog(log, models.NewTransportError(err))
	}

	env, err := DecodeEnvelope(body)
	if err != nil {
		log.Debug("malformed envelope", zap.Int("status", resp.StatusCode), zap.ByteString("body", truncate(body)))
		return c.failLog(log, &models.TransportError{
			Message: "unexpected response: " + resp.Status,
			Err:     err,
		})
	}

	payload, notify, err := Classify(env)
	if err != nil {
		var rejected *models.BusinessRejectedError
		if errors.As(err, &rejected) {
			log.Info("request rejected",
				zap.Int("code", rejected.Code),
				zap.String("msg", rejected.Message),
				zap.Bool("silent", rejected.Silent()))
			if notify {
				c.notify.Notify(models.NotifyError, rejected.Message)
			}
		}
		return err
	}

	log.Debug("request resolved", zap.Int("status", resp.StatusCode))

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return c.failLog(log, &models.TransportError{
			Message: "unexpected payload: " + err.Error(),
			Err:     errors.Join(models.ErrValidationGap, err),
		})
	}
	return nil
}

func (c *Client) fail(err *models.TransportError) error {
	return c.failLog(c.log, err)
}

// failLog reports transport failure to the user unless it is hidden
func (c *Client) failLog(log *zap.Logger, err *models.TransportError) error {
	if err.Message == "" {
		return err
	}
	if isHiddenError(err.Message) {
		log.Warn("suppressed network error", zap.String("error", err.Message))
		return err
	}
	log.Warn("transport error", zap.String("error", err.Message))
	c.notify.Notify(models.NotifyError, err.Message)
	return err
}

// requestErrorMessage names connection level failures the way browsers do
func requestErrorMessage(err error) string {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "network error: " + opErr.Error()
	}
	return err.Error()
}

func isHiddenError(msg string) bool {
	msg = strings.ToLower(msg)
	for _, h := range hiddenErrors {
		if strings.Contains(msg, h) {
			return true
		}
	}
	return false
}

func truncate(b []byte) []byte {
	const limit = 256
	if len(b) > limit {
		return b[:limit]
	}
	return b
}

// BaseURL returns api base url. Production builds use page origin, development uses configured base.
func BaseURL(production bool, pageOrigin, devBaseURL string) string {
	base := devBaseURL
	if production {
		base = pageOrigin
	}
	return strings.TrimRight(base, "/") + "/api"
}
