package transport

import (
	"bytes"
	"encoding/json"

	"github.com/rookgm/checkout/internal/models"
)

// successMsg marks envelopes whose payload is the nested data field
const successMsg = "SUCCESS"

// Envelope is json wrapper returned by every backend call
type Envelope struct {
	Code *int            `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
	Raw  json.RawMessage `json:"-"`
}

// DecodeEnvelope decodes response body. Anything but a json object is a validation gap.
func DecodeEnvelope(body []byte) (*Envelope, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil, models.ErrValidationGap
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, models.ErrValidationGap
	}

	env := &Envelope{Raw: append(json.RawMessage(nil), body...)}
	if raw, ok := fields["code"]; ok && !isNull(raw) {
		var code int
		if err := json.Unmarshal(raw, &code); err != nil {
			return nil, models.ErrValidationGap
		}
		env.Code = &code
	}
	if raw, ok := fields["msg"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &env.Msg); err != nil {
			// non-string msg is not a message
			env.Msg = ""
		}
	}
	if raw, ok := fields["data"]; ok {
		env.Data = raw
	}
	return env, nil
}

// code returns envelope code, 0 when absent
func (e *Envelope) code() int {
	if e.Code == nil {
		return 0
	}
	return *e.Code
}

// Classify resolves envelope to its payload or a rejection.
// notify reports whether the rejection message should be shown to the user.
func Classify(env *Envelope) (payload json.RawMessage, notify bool, err error) {
	code := env.code()
	switch {
	case code == models.CodeSilentReject:
		return nil, false, models.NewBusinessRejectedError(code, env.Msg)
	case code == models.CodeRejectNotify:
		return nil, env.Msg != "", models.NewBusinessRejectedError(code, env.Msg)
	case code == models.CodeOK:
		return env.Raw, false, nil
	case env.Msg == successMsg:
		if len(env.Data) == 0 {
			return json.RawMessage("null"), false, nil
		}
		return env.Data, false, nil
	default:
		return nil, env.Msg != "", models.NewBusinessRejectedError(code, env.Msg)
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
