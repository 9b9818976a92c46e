package transport

import (
	"testing"

	"github.com/rookgm/checkout/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode *int
		wantMsg  string
		wantErr  bool
	}{
		{name: "full", body: `{"code":200,"msg":"ok","data":{}}`, wantCode: intPtr(200), wantMsg: "ok"},
		{name: "no_code", body: `{"msg":"SUCCESS"}`, wantMsg: "SUCCESS"},
		{name: "null_code", body: `{"code":null}`},
		{name: "numeric_msg_ignored", body: `{"code":1,"msg":5}`, wantCode: intPtr(1)},
		{name: "object_msg_ignored", body: `{"code":1,"msg":{"text":"x"}}`, wantCode: intPtr(1)},
		{name: "array_msg_ignored", body: `{"msg":["SUCCESS"]}`},
		{name: "string_code", body: `{"code":"200"}`, wantErr: true},
		{name: "empty", body: ``, wantErr: true},
		{name: "array", body: `[]`, wantErr: true},
		{name: "truncated", body: `{"code":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := DecodeEnvelope([]byte(tt.body))
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrValidationGap)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, env.Code)
			assert.Equal(t, tt.wantMsg, env.Msg)
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantPayload string
		wantNotify  bool
		wantReject  bool
	}{
		{name: "silent_reject", body: `{"code":100,"msg":"dup"}`, wantReject: true},
		{name: "silent_reject_beats_success_msg", body: `{"code":100,"msg":"SUCCESS","data":{}}`, wantReject: true},
		{name: "notify_reject", body: `{"code":-1,"msg":"insufficient funds"}`, wantReject: true, wantNotify: true},
		{name: "notify_reject_empty_msg", body: `{"code":-1,"msg":""}`, wantReject: true},
		{name: "reject_beats_success_msg", body: `{"code":-1,"msg":"SUCCESS"}`, wantReject: true, wantNotify: true},
		{name: "ok_whole_body", body: `{"code":200,"amount":"10.00"}`, wantPayload: `{"code":200,"amount":"10.00"}`},
		{name: "ok_beats_success_msg", body: `{"code":200,"msg":"SUCCESS","data":{"a":1}}`, wantPayload: `{"code":200,"msg":"SUCCESS","data":{"a":1}}`},
		{name: "success_data", body: `{"msg":"SUCCESS","data":{"status":2}}`, wantPayload: `{"status":2}`},
		{name: "success_without_data", body: `{"code":1,"msg":"SUCCESS"}`, wantPayload: `null`},
		{name: "otherwise_with_msg", body: `{"code":3,"msg":"closed"}`, wantReject: true, wantNotify: true},
		{name: "otherwise_without_msg", body: `{"code":3}`, wantReject: true},
		{name: "empty_object", body: `{}`, wantReject: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := DecodeEnvelope([]byte(tt.body))
			require.NoError(t, err)

			payload, notify, err := Classify(env)
			assert.Equal(t, tt.wantNotify, notify)
			if tt.wantReject {
				assert.ErrorIs(t, err, models.ErrBusinessRejected)
				assert.Nil(t, payload)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.wantPayload, string(payload))
		})
	}
}

func intPtr(i int) *int {
	return &i
}
