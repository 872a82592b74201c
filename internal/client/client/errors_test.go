package client

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string detail", `{"detail":"Invalid credentials"}`, "Invalid credentials"},
		{"validation list", `{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address"}]}`, "value is not a valid email address"},
		{"list without msg", `{"detail":[{"loc":["body"]}]}`, ""},
		{"object detail", `{"detail":{"code":1}}`, ""},
		{"no detail", `{"error":"x"}`, ""},
		{"plain text", "Service Unavailable\n", "Service Unavailable"},
		{"html", "<html><body>502</body></html>", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDetail([]byte(tt.body)))
		})
	}
}

func TestAPIError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")

	netErr := networkError(cause)
	assert.Equal(t, "network: dial tcp: connection refused", netErr.Error())
	assert.ErrorIs(t, netErr, ErrNetwork)
	assert.ErrorIs(t, netErr, cause)
	assert.Equal(t, "server unreachable", netErr.Message("server unreachable"))

	authErr := &APIError{Kind: KindUnauthorized, Status: 401, Detail: "Invalid credentials"}
	assert.Equal(t, "unauthorized (401): Invalid credentials", authErr.Error())
	assert.ErrorIs(t, authErr, ErrUnauthorized)
	assert.NotErrorIs(t, authErr, ErrClient)
	assert.Equal(t, "Invalid credentials", authErr.Message("fallback"))
}

func TestKindForStatus(t *testing.T) {
	assert.Equal(t, KindUnauthorized, kindForStatus(401))
	assert.Equal(t, KindClient, kindForStatus(403))
	assert.Equal(t, KindClient, kindForStatus(409))
	assert.Equal(t, KindServer, kindForStatus(500))
	assert.Equal(t, KindServer, kindForStatus(504))
}
