package models

import (
	"bytes"
	"encoding/json"
	"maps"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// StatusCode is backend order state. Values outside the known set are passed through as is.
type StatusCode int

// order status
const (
	StatusWaiting        StatusCode = 1
	StatusSuccess        StatusCode = 2
	StatusFail           StatusCode = 3
	StatusTimeout        StatusCode = 6
	StatusBlocked        StatusCode = 7
	StatusPartialSuccess StatusCode = 9
)

var statusNames = map[StatusCode]string{
	StatusWaiting:        "waiting",
	StatusSuccess:        "success",
	StatusFail:           "fail",
	StatusTimeout:        "timeout",
	StatusBlocked:        "blocked",
	StatusPartialSuccess: "partial_success",
}

func (s StatusCode) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown(" + strconv.Itoa(int(s)) + ")"
}

// IsTerminal reports whether the order will not leave this state anymore
func (s StatusCode) IsTerminal() bool {
	_, known := statusNames[s]
	return known && s != StatusWaiting
}

// UnmarshalJSON accepts both a number and a numeric string
func (s *StatusCode) UnmarshalJSON(b []byte) error {
	n, err := parseIntJSON(b)
	if err != nil {
		return err
	}
	*s = StatusCode(n)
	return nil
}

// Timestamp is an absolute server time in seconds since epoch
type Timestamp int64

// UnmarshalJSON accepts a number, a numeric string, "" or null.
// 13 digit values are treated as milliseconds.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	n, err := parseIntJSON(b)
	if err != nil {
		return err
	}
	if n >= 1e12 {
		n /= 1000
	}
	*t = Timestamp(n)
	return nil
}

// Unix returns timestamp as seconds since epoch
func (t Timestamp) Unix() int64 {
	return int64(t)
}

func parseIntJSON(b []byte) (int64, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return 0, nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return 0, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, nil
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// PayWay is payment channel descriptor. The backend shape is not fixed,
// the whole descriptor is kept in Extra and the known fields are read from it when they are strings.
type PayWay struct {
	Code  string          `json:"code,omitempty"`
	Name  string          `json:"name,omitempty"`
	Logo  string          `json:"logo,omitempty"`
	Extra json.RawMessage `json:"-"`
}

// UnmarshalJSON accepts any json value
func (p *PayWay) UnmarshalJSON(b []byte) error {
	*p = PayWay{Extra: append(json.RawMessage(nil), bytes.TrimSpace(b)...)}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		// not an object, only Extra is known
		return nil
	}
	p.Code = stringField(fields, "code")
	p.Name = stringField(fields, "name")
	p.Logo = stringField(fields, "logo")
	return nil
}

// MarshalJSON writes the original descriptor when it is known
func (p PayWay) MarshalJSON() ([]byte, error) {
	if len(p.Extra) > 0 && json.Valid(p.Extra) {
		return p.Extra, nil
	}
	type plain PayWay
	return json.Marshal(plain(p))
}

func stringField(fields map[string]json.RawMessage, name string) string {
	var v string
	if err := json.Unmarshal(fields[name], &v); err != nil {
		return ""
	}
	return v
}

// PayWays is payment channels by code
type PayWays map[string]PayWay

// UnmarshalJSON treats anything but an object as no channels
func (pw *PayWays) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		*pw = PayWays{}
		return nil
	}
	m := map[string]PayWay{}
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*pw = m
	return nil
}

// Order is payment order snapshot as currently known to the client
type Order struct {
	Amount        decimal.Decimal   `json:"amount"`
	CountryCode   string            `json:"countryCode"`
	PayWayLogo    *string           `json:"payWayLogo"`
	PayCode       *string           `json:"payCode"`
	PayURL        *string           `json:"payUrl"`
	ChannelCode   string            `json:"channelCode"`
	RequestURL    *string           `json:"requestUrl"`
	AccountNumber string            `json:"accountNumber"`
	AccountName   string            `json:"accountName"`
	Subject       string            `json:"subject"`
	Body          string            `json:"body"`
	Logo          string            `json:"logo"`
	PayWays       PayWays           `json:"payWays"`
	CreateTime    Timestamp         `json:"createTime"`
	ExpireTime    Timestamp         `json:"expireTime"`
	ID            *string           `json:"id,omitempty"`
	Status        *StatusCode       `json:"status,omitempty"`
}

// DefaultOrder returns all-default order snapshot
func DefaultOrder() Order {
	return Order{
		Amount:     decimal.Zero,
		PayWayLogo: strPtr(""),
		RequestURL: strPtr(""),
		PayWays:    PayWays{},
	}
}

// DecodeOrder overlays payload over a fresh default snapshot
func DecodeOrder(payload []byte) (Order, error) {
	order := DefaultOrder()
	var alias struct {
		ExpiredTime *Timestamp `json:"expiredTime"`
	}
	if err := json.Unmarshal(blankAmountAsNull(payload), &order); err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal(payload, &alias); err != nil {
		return Order{}, err
	}
	// the backend sometimes sends expiry as expiredTime
	if order.ExpireTime == 0 && alias.ExpiredTime != nil {
		order.ExpireTime = *alias.ExpiredTime
	}
	order.fillDefaults()
	return order, nil
}

// blankAmountAsNull replaces "amount":"" with null so the default amount is kept
func blankAmountAsNull(payload []byte) []byte {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil || fields == nil {
		return payload
	}
	var amount string
	if err := json.Unmarshal(fields["amount"], &amount); err != nil || strings.TrimSpace(amount) != "" {
		return payload
	}
	fields["amount"] = json.RawMessage("null")
	b, err := json.Marshal(fields)
	if err != nil {
		return payload
	}
	return b
}

// fillDefaults restores defaults for fields the payload explicitly nulled
func (o *Order) fillDefaults() {
	if o.PayWays == nil {
		o.PayWays = PayWays{}
	}
	if o.PayWayLogo == nil {
		o.PayWayLogo = strPtr("")
	}
	if o.RequestURL == nil {
		o.RequestURL = strPtr("")
	}
}

// MerchantURL returns merchant return url or empty string
func (o Order) MerchantURL() string {
	if o.RequestURL == nil {
		return ""
	}
	return *o.RequestURL
}

// Clone returns deep copy of order
func (o Order) Clone() Order {
	c := o
	c.PayWayLogo = clonePtr(o.PayWayLogo)
	c.PayCode = clonePtr(o.PayCode)
	c.PayURL = clonePtr(o.PayURL)
	c.RequestURL = clonePtr(o.RequestURL)
	c.ID = clonePtr(o.ID)
	c.Status = clonePtr(o.Status)
	c.PayWays = make(PayWays, len(o.PayWays))
	for k, v := range o.PayWays {
		v.Extra = append(json.RawMessage(nil), v.Extra...)
		c.PayWays[k] = v
	}
	return c
}

// Equal reports whether two snapshots carry the same values
func (o Order) Equal(other Order) bool {
	if !o.Amount.Equal(other.Amount) {
		return false
	}
	a, b := o, other
	a.Amount, b.Amount = decimal.Zero, decimal.Zero
	if !maps.EqualFunc(a.PayWays, b.PayWays, func(x, y PayWay) bool {
		return x.Code == y.Code && x.Name == y.Name && x.Logo == y.Logo && bytes.Equal(x.Extra, y.Extra)
	}) {
		return false
	}
	a.PayWays, b.PayWays = nil, nil
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	return bytes.Equal(ja, jb)
}

// OrderState is status-only payload
type OrderState struct {
	Status StatusCode `json:"status"`
	ID     string     `json:"id,omitempty"`
	PayURL *string    `json:"payUrl,omitempty"`
}

func strPtr(s string) *string {
	return &s
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
